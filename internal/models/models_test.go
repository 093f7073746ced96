package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalizedTitle(t *testing.T) {
	issue := Issue{
		ID:                "2024-06-15-nsl-track-fault",
		Title:             "Track fault",
		TitleTranslations: map[string]string{"zh-Hans": "轨道故障", "ms": ""},
	}

	cases := map[string]string{
		"zh-Hans": "轨道故障",
		"ms":      "Track fault",
		"ta":      "Track fault",
	}
	for lang, want := range cases {
		t.Run(lang, func(t *testing.T) {
			assert.Equal(t, want, issue.LocalizedTitle(lang))
			assert.Equal(t, want, issue.Ref().LocalizedTitle(lang))
		})
	}
}
