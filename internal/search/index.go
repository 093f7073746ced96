// Package search provides full-text lookup over recently seen issues.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

const defaultLimit = 10

type document struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Translations string `json:"translations"`
	Lines        string `json:"lines"`
}

// Result is one matching issue.
type Result struct {
	Issue models.IssueRef `json:"issue"`
	Score float64         `json:"score"`
}

// Index is an in-memory issue index that is rebuilt wholesale on Replace.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	issues map[string]models.IssueRef
}

// New returns an empty index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{index: idx, issues: map[string]models.IssueRef{}}, nil
}

// Replace swaps the indexed set for issues. Duplicate ids keep the first entry.
func (x *Index) Replace(issues []models.IssueRef) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create search index: %w", err)
	}

	refs := make(map[string]models.IssueRef, len(issues))
	batch := idx.NewBatch()
	for _, issue := range issues {
		if issue.ID == "" {
			continue
		}
		if _, ok := refs[issue.ID]; ok {
			continue
		}
		refs[issue.ID] = issue
		if err := batch.Index(issue.ID, toDocument(issue)); err != nil {
			_ = idx.Close()
			return fmt.Errorf("index issue %s: %w", issue.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index issues: %w", err)
	}

	x.mu.Lock()
	old := x.index
	x.index = idx
	x.issues = refs
	x.mu.Unlock()

	return old.Close()
}

// Len returns the number of indexed issues.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.issues)
}

// Search returns up to limit issues matching q, best match first.
func (x *Index) Search(ctx context.Context, q string, limit int) ([]Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		issue, ok := x.issues[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Result{Issue: issue, Score: hit.Score})
	}
	return out, nil
}

func buildQuery(q string) query.Query {
	title := bleve.NewMatchQuery(q)
	title.SetField("title")
	title.SetBoost(2)

	fuzzy := bleve.NewMatchQuery(q)
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)

	translations := bleve.NewMatchQuery(q)
	translations.SetField("translations")

	lines := bleve.NewMatchQuery(q)
	lines.SetField("lines")
	lines.SetBoost(1.5)

	kind := bleve.NewMatchQuery(q)
	kind.SetField("type")

	return bleve.NewDisjunctionQuery(title, fuzzy, translations, lines, kind)
}

func toDocument(issue models.IssueRef) document {
	langs := make([]string, 0, len(issue.TitleTranslations))
	for lang := range issue.TitleTranslations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	translations := make([]string, 0, len(langs))
	for _, lang := range langs {
		translations = append(translations, issue.TitleTranslations[lang])
	}

	return document{
		Type:         string(issue.Type),
		Title:        issue.Title,
		Translations: strings.Join(translations, " "),
		Lines:        strings.Join(issue.LineIDs, " "),
	}
}
