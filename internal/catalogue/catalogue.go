// Package catalogue holds the list of MRT and LRT lines shown by the site.
package catalogue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type document struct {
	Lines []models.Line `yaml:"lines"`
}

// Catalogue is the ordered line list. It is safe for concurrent use.
type Catalogue struct {
	mu    sync.RWMutex
	path  string
	lines []models.Line
	log   logger.Logger

	listeners []func([]models.Line)
}

// Load reads path. A missing file yields the built-in line list.
func Load(path string, log logger.Logger) (*Catalogue, error) {
	c := &Catalogue{path: path, log: log}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes and validates a catalogue document.
func Parse(data []byte) ([]models.Line, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(doc.Lines) == 0 {
		return nil, errors.New("catalogue has no lines")
	}

	seen := make(map[string]struct{}, len(doc.Lines))
	for i, line := range doc.Lines {
		if line.ID == "" {
			return nil, fmt.Errorf("line %d: id is required", i)
		}
		if _, dup := seen[line.ID]; dup {
			return nil, fmt.Errorf("line %s: duplicate id", line.ID)
		}
		seen[line.ID] = struct{}{}
		if line.Name == "" {
			return nil, fmt.Errorf("line %s: name is required", line.ID)
		}
		if line.Color != "" && !colorPattern.MatchString(line.Color) {
			return nil, fmt.Errorf("line %s: color %q is not #rrggbb", line.ID, line.Color)
		}
		if line.StartedAt != "" {
			if _, err := time.Parse("2006-01-02", line.StartedAt); err != nil {
				return nil, fmt.Errorf("line %s: started_at %q: %w", line.ID, line.StartedAt, err)
			}
		}
	}
	return doc.Lines, nil
}

// Reload rereads the file and notifies listeners. On error the previous
// list stays in place.
func (c *Catalogue) Reload() error {
	lines, err := c.read()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.lines = lines
	listeners := append([]func([]models.Line){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(cloneLines(lines))
	}
	return nil
}

func (c *Catalogue) read() ([]models.Line, error) {
	if c.path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.log.Info("line catalogue not found; using built-in lines", "path", c.path)
			return Default(), nil
		}
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return Parse(data)
}

// Lines returns a copy of the lines in display order.
func (c *Catalogue) Lines() []models.Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLines(c.lines)
}

// Line looks up a line by id.
func (c *Catalogue) Line(id string) (models.Line, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, line := range c.lines {
		if line.ID == id {
			return line, true
		}
	}
	return models.Line{}, false
}

// OnChange registers fn to run after each successful reload.
func (c *Catalogue) OnChange(fn func([]models.Line)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Watch reloads the catalogue whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (c *Catalogue) Watch(ctx context.Context) error {
	if c.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalogue watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(c.path)

	c.log.Info("line catalogue watcher started", "path", c.path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := c.Reload(); err != nil {
				c.log.Error("failed to reload line catalogue", "error", err)
				continue
			}
			c.log.Info("line catalogue reloaded", "path", c.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Error("line catalogue watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func cloneLines(lines []models.Line) []models.Line {
	out := make([]models.Line, len(lines))
	copy(out, lines)
	return out
}
