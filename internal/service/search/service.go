// Package search implements the unified substring search over the local
// corpus: one query fanned out across poets, categories, and poems.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// TypeFilter selects which entity types a query runs against.
type TypeFilter string

const (
	TypeAll        TypeFilter = "all"
	TypePoets      TypeFilter = "poets"
	TypeCategories TypeFilter = "categories"
	TypePoems      TypeFilter = "poems"
)

// ParseTypeFilter maps a query parameter to a filter, defaulting to all.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch TypeFilter(s) {
	case "", TypeAll:
		return TypeAll, nil
	case TypePoets, TypeCategories, TypePoems:
		return TypeFilter(s), nil
	default:
		return "", domain.NewValidationError("type", "must be one of all, poets, categories, poems")
	}
}

// minQueryLen is the shortest query that runs; anything shorter returns
// empty results rather than an error.
const minQueryLen = 2

const (
	defaultLimit = 20
	maxLimit     = 50
)

// Totals carries per-type match counts when requested.
type Totals struct {
	Poets      int `json:"poets"`
	Categories int `json:"categories"`
	Poems      int `json:"poems"`
}

// Result groups hits by entity type. Slices for filtered-out types stay
// empty, never nil.
type Result struct {
	Poets      []domain.Poet     `json:"poets"`
	Categories []domain.Category `json:"categories"`
	Poems      []domain.Poem     `json:"poems"`
	Totals     *Totals           `json:"totals,omitempty"`
}

type poetSearcher interface {
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Poet, error)
	CountSearch(ctx context.Context, query string) (int, error)
}

type categorySearcher interface {
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Category, error)
	CountSearch(ctx context.Context, query string) (int, error)
}

type poemSearcher interface {
	Search(ctx context.Context, query string, limit, offset int) ([]domain.Poem, error)
	CountSearch(ctx context.Context, query string) (int, error)
}

// Service fans a query out to the per-entity repositories.
type Service struct {
	log        *slog.Logger
	poets      poetSearcher
	categories categorySearcher
	poems      poemSearcher
}

// NewService creates the search service.
func NewService(logger *slog.Logger, poets poetSearcher, categories categorySearcher, poems poemSearcher) *Service {
	return &Service{
		log:        logger.With("service", "search"),
		poets:      poets,
		categories: categories,
		poems:      poems,
	}
}

// Query holds one search request.
type Query struct {
	Text      string
	Type      TypeFilter
	Limit     int
	Offset    int
	WithCount bool
}

// Search runs the query. Queries shorter than two runes return an empty
// result. Limit is clamped to [1, 50], defaulting to 20; negative offsets
// are treated as zero.
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	res := &Result{
		Poets:      []domain.Poet{},
		Categories: []domain.Category{},
		Poems:      []domain.Poem{},
	}

	text := strings.TrimSpace(q.Text)
	if len([]rune(text)) < minQueryLen {
		return res, nil
	}

	if q.Type == "" {
		q.Type = TypeAll
	}
	limit := clampLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	if q.WithCount {
		res.Totals = &Totals{}
	}

	var err error
	if q.Type == TypeAll || q.Type == TypePoets {
		res.Poets, err = s.poets.Search(ctx, text, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("search poets: %w", err)
		}
		if q.WithCount {
			if res.Totals.Poets, err = s.poets.CountSearch(ctx, text); err != nil {
				return nil, fmt.Errorf("count poets: %w", err)
			}
		}
	}

	if q.Type == TypeAll || q.Type == TypeCategories {
		res.Categories, err = s.categories.Search(ctx, text, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("search categories: %w", err)
		}
		if q.WithCount {
			if res.Totals.Categories, err = s.categories.CountSearch(ctx, text); err != nil {
				return nil, fmt.Errorf("count categories: %w", err)
			}
		}
	}

	if q.Type == TypeAll || q.Type == TypePoems {
		res.Poems, err = s.poems.Search(ctx, text, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("search poems: %w", err)
		}
		if q.WithCount {
			if res.Totals.Poems, err = s.poems.CountSearch(ctx, text); err != nil {
				return nil, fmt.Errorf("count poems: %w", err)
			}
		}
	}

	return res, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
