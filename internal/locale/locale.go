// Package locale negotiates the site language and formats values for display.
//
// Formatters are passed explicitly into the packages that need labels; nothing
// here reads an ambient "current locale".
package locale

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	English           = language.MustParse("en-SG")
	SimplifiedChinese = language.SimplifiedChinese
	Malay             = language.Malay
	Tamil             = language.Tamil
)

// Supported lists the site locales; the first entry is the fallback.
var Supported = []language.Tag{English, SimplifiedChinese, Malay, Tamil}

var matcher = language.NewMatcher(Supported)

var monthNames = map[string][12]string{
	"zh": {"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
	"ms": {"Januari", "Februari", "Mac", "April", "Mei", "Jun", "Julai", "Ogos", "September", "Oktober", "November", "Disember"},
	"ta": {"ஜனவரி", "பிப்ரவரி", "மார்ச்", "ஏப்ரல்", "மே", "ஜூன்", "ஜூலை", "ஆகஸ்ட்", "செப்டம்பர்", "அக்டோபர்", "நவம்பர்", "டிசம்பர்"},
}

const (
	msgDaysHours    = "%dd %dh"
	msgHoursMinutes = "%dh %dm"
	msgMinutes      = "%dm"
)

var messages = mustCatalog(map[language.Tag]map[string]string{
	SimplifiedChinese: {
		msgDaysHours:    "%d天%d小时",
		msgHoursMinutes: "%d小时%d分钟",
		msgMinutes:      "%d分钟",
	},
	Malay: {
		msgDaysHours:    "%dh %dj",
		msgHoursMinutes: "%dj %dm",
		msgMinutes:      "%dm",
	},
	Tamil: {
		msgDaysHours:    "%d நா %d ம",
		msgHoursMinutes: "%d ம %d நி",
		msgMinutes:      "%d நி",
	},
})

func mustCatalog(entries map[language.Tag]map[string]string) catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(English))
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := builder.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("locale: register %s for %s: %v", key, tag, err))
			}
		}
	}
	return builder
}

// Match negotiates one of the supported locales from an Accept-Language
// header or a bare language code. Empty or unparseable input yields English.
func Match(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// Formatter renders labels, numbers and durations for one locale.
type Formatter struct {
	tag     language.Tag
	base    string
	printer *message.Printer
}

// New returns a formatter for tag, which should be one of Supported.
func New(tag language.Tag) *Formatter {
	base, _ := tag.Base()
	return &Formatter{
		tag:     tag,
		base:    base.String(),
		printer: message.NewPrinter(tag, message.Catalog(messages)),
	}
}

// ForAcceptLanguage is shorthand for New(Match(accept)).
func ForAcceptLanguage(accept string) *Formatter {
	return New(Match(accept))
}

// Tag returns the negotiated locale.
func (f *Formatter) Tag() language.Tag { return f.tag }

// Lang returns the locale key used by title translations, e.g. "zh-Hans".
func (f *Formatter) Lang() string { return f.tag.String() }

// MonthName returns the full month name.
func (f *Formatter) MonthName(m time.Month) string {
	if names, ok := monthNames[f.base]; ok && m >= time.January && m <= time.December {
		return names[m-1]
	}
	return m.String()
}

// DayLabel renders a day bucket as d/M.
func (f *Formatter) DayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
}

// MonthLabel renders a month bucket as its full month name.
func (f *Formatter) MonthLabel(t time.Time) string {
	return f.MonthName(t.Month())
}

// YearLabel renders a year bucket as a 4-digit year.
func (f *Formatter) YearLabel(t time.Time) string {
	return fmt.Sprintf("%04d", t.Year())
}

// Number renders n with locale digit grouping.
func (f *Formatter) Number(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// SignedNumber renders n with an explicit sign for non-zero values.
func (f *Formatter) SignedNumber(n int64) string {
	if n > 0 {
		return "+" + f.Number(n)
	}
	return f.Number(n)
}

// Duration renders a millisecond duration at minute precision.
func (f *Formatter) Duration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	switch {
	case days > 0:
		return f.printer.Sprintf(msgDaysHours, days, hours)
	case hours > 0:
		return f.printer.Sprintf(msgHoursMinutes, hours, minutes)
	default:
		return f.printer.Sprintf(msgMinutes, minutes)
	}
}

// SignedDuration renders a millisecond delta with an explicit sign for non-zero values.
func (f *Formatter) SignedDuration(ms int64) string {
	switch {
	case ms > 0:
		return "+" + f.Duration(ms)
	case ms < 0:
		return "-" + f.Duration(-ms)
	}
	return f.Duration(0)
}
