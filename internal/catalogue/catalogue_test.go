package catalogue

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

const twoLines = `
lines:
  - id: EWL
    name: East West Line
    color: "#009645"
    kind: mrt
    started_at: "1987-12-12"
    name_translations:
      zh-Hans: 东西线
  - id: NSL
    name: North South Line
    color: "#d42e12"
`

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "lines.yaml"), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default(), c.Lines())

	line, ok := c.Line("TEL")
	require.True(t, ok)
	assert.Equal(t, "Thomson-East Coast Line", line.Name)
}

func TestLoadKeepsFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoLines), 0o644))

	c, err := Load(path, logger.NewNop())
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "EWL", lines[0].ID)
	assert.Equal(t, "东西线", lines[0].NameTranslations["zh-Hans"])
	assert.Equal(t, "1987-12-12", lines[0].StartedAt)
	assert.Equal(t, "NSL", lines[1].ID)

	_, ok := c.Line("CCL")
	assert.False(t, ok)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":        "lines: []\n",
		"missing id":   "lines:\n  - name: X\n",
		"duplicate id": "lines:\n  - {id: A, name: A}\n  - {id: A, name: B}\n",
		"bad color":    "lines:\n  - {id: A, name: A, color: red}\n",
		"bad date":     "lines:\n  - {id: A, name: A, started_at: yesterday}\n",
		"not yaml":     "lines: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	c, err := Load("", logger.NewNop())
	require.NoError(t, err)

	lines := c.Lines()
	lines[0].Name = "changed"
	assert.Equal(t, "North South Line", c.Lines()[0].Name)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoLines), 0o644))

	c, err := Load(path, logger.NewNop())
	require.NoError(t, err)

	changed := make(chan []models.Line, 4)
	c.OnChange(func(lines []models.Line) { changed <- lines })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("lines:\n  - {id: CCL, name: Circle Line}\n"), 0o644))

	select {
	case lines := <-changed:
		require.Len(t, lines, 1)
		assert.Equal(t, "CCL", lines[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("catalogue was not reloaded")
	}
	assert.Equal(t, "CCL", c.Lines()[0].ID)
}

func TestReloadKeepsPreviousLinesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoLines), 0o644))

	c, err := Load(path, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("lines: [\n"), 0o644))
	assert.Error(t, c.Reload())
	assert.Len(t, c.Lines(), 2)
}
