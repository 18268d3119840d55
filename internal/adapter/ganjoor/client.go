// Package ganjoor is the client for the public poetry API, the primary data
// source. Every call is retried with exponential backoff and the result is
// held in the injected response cache under its request path.
package ganjoor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/ganjineh/ganjineh-backend/internal/cache"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/pkg/retry"
)

const defaultBaseURL = "https://api.ganjoor.net"

// fallbackPoemID is served when random selection hits an empty collection.
const fallbackPoemID = 2130

// Client fetches poets, categories, and poems from the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	cache      *cache.Cache
	retryOpts  retry.Options

	// randIntN is swappable in tests.
	randIntN func(n int) int
}

// NewClient creates a Client against the default API URL.
func NewClient(logger *slog.Logger, responseCache *cache.Cache) *Client {
	return NewClientWithURL(defaultBaseURL, logger, responseCache)
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL string, logger *slog.Logger, responseCache *cache.Cache) *Client {
	log := logger.With("adapter", "ganjoor")
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
		cache:      responseCache,
		retryOpts:  retry.Options{Logger: log},
		randIntN:   rand.IntN,
	}
}

// getJSON performs a retried GET against path and decodes the body into
// target. Non-2xx responses become *StatusError inside the retry loop;
// decode failures are not retried. The final error is mapped onto the
// domain sentinels (404 -> ErrNotFound, exhausted retries -> ErrUnavailable).
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	err := retry.Do(ctx, "ganjoor"+path, c.retryOpts, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("ganjoor: create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("ganjoor: %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{Status: resp.StatusCode, Path: path}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ganjoor: %s: read body: %w", path, err)
		}
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("ganjoor: %s: decode json: %w", path, err)
		}
		return nil
	})
	return mapError(err)
}

// GetPoets returns all poets in the corpus.
func (c *Client) GetPoets(ctx context.Context) ([]domain.Poet, error) {
	return cache.Get(ctx, c.cache, "/poets", 0, func(ctx context.Context) ([]domain.Poet, error) {
		var raw []poetJSON
		if err := c.getJSON(ctx, "/poets", &raw); err != nil {
			return nil, err
		}

		poets := make([]domain.Poet, len(raw))
		for i, p := range raw {
			poets[i] = toDomainPoet(p)
		}
		return poets, nil
	})
}

// GetPoet returns a poet with their top-level categories.
func (c *Client) GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error) {
	key := fmt.Sprintf("/poet/%d", id)
	return cache.Get(ctx, c.cache, key, 0, func(ctx context.Context) (*domain.PoetProfile, error) {
		var raw poetDetailJSON
		if err := c.getJSON(ctx, key, &raw); err != nil {
			return nil, err
		}

		profile := &domain.PoetProfile{
			Poet:       toDomainPoet(raw.Poet),
			Categories: make([]domain.Category, len(raw.Categories)),
		}
		for i, cat := range raw.Categories {
			profile.Categories[i] = domain.Category{
				ID:          cat.ID,
				PoetID:      cat.PoetID,
				Title:       cat.Title,
				Slug:        cat.Slug,
				Description: cat.Description,
				PoemCount:   cat.PoemCount,
			}
			if profile.Categories[i].PoetID == 0 {
				profile.Categories[i].PoetID = raw.Poet.ID
			}
		}
		return profile, nil
	})
}

// categoryResult is the cached aggregate of one tree walk.
type categoryResult struct {
	category *domain.Category
	poems    []domain.Poem
}

func (c *Client) categoryTree(ctx context.Context, id int) (categoryResult, error) {
	key := fmt.Sprintf("/cat/%d", id)
	return cache.Get(ctx, c.cache, key, 0, func(ctx context.Context) (categoryResult, error) {
		cat, poems, err := c.walkCategoryTree(ctx, id)
		if err != nil {
			return categoryResult{}, err
		}
		return categoryResult{category: cat, poems: poems}, nil
	})
}

// GetCategory returns the category with its full chapter tree. Poem counts
// are recomputed from the walk, not taken from upstream.
func (c *Client) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	res, err := c.categoryTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.category, nil
}

// GetCategoryPoems returns every poem in the category, including poems found
// in nested chapters, annotated with the chapter they were found in.
func (c *Client) GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error) {
	res, err := c.categoryTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.poems, nil
}

// GetChapter returns a single chapter (a nested sub-category) with its
// immediate children and direct poem count.
func (c *Client) GetChapter(ctx context.Context, id int) (*domain.Chapter, error) {
	res, err := c.categoryTree(ctx, id)
	if err != nil {
		return nil, err
	}
	cat := res.category

	direct := 0
	for i := range res.poems {
		if res.poems[i].ChapterID == nil {
			direct++
		}
	}

	return &domain.Chapter{
		ID:        cat.ID,
		Title:     cat.Title,
		PoemCount: direct,
		Children:  cat.Chapters,
	}, nil
}

// GetPoem returns a single poem with normalized verse lines.
func (c *Client) GetPoem(ctx context.Context, id int) (*domain.Poem, error) {
	key := fmt.Sprintf("/poem/%d", id)
	return cache.Get(ctx, c.cache, key, 0, func(ctx context.Context) (*domain.Poem, error) {
		var raw poemDetailJSON
		if err := c.getJSON(ctx, key, &raw); err != nil {
			return nil, err
		}

		p := raw.Poem
		poem := &domain.Poem{
			ID:            p.ID,
			Title:         p.Title,
			PoetID:        p.PoetID,
			PoetName:      p.PoetName,
			CategoryID:    p.CategoryID,
			CategoryTitle: p.CategoryTitle,
		}

		lines, source := extractVerses(p)
		if source != "" && source != "verses" {
			c.log.DebugContext(ctx, "poem text decoded from fallback field",
				slog.Int("poem_id", p.ID),
				slog.String("field", source),
			)
		}
		poem.Verses = lines

		return poem, nil
	})
}

// GetRandomPoem picks a uniformly random poet, then a random category of that
// poet, then a random poem of that category. Sampling is therefore weighted
// by corpus structure, not uniform over poems; poets with small divans are
// over-represented per poem. Any empty step falls back to a fixed poem.
func (c *Client) GetRandomPoem(ctx context.Context) (*domain.Poem, error) {
	poets, err := c.GetPoets(ctx)
	if err != nil || len(poets) == 0 {
		return c.fallbackPoem(ctx, err)
	}
	poet := poets[c.randIntN(len(poets))]

	profile, err := c.GetPoet(ctx, poet.ID)
	if err != nil || len(profile.Categories) == 0 {
		return c.fallbackPoem(ctx, err)
	}
	cat := profile.Categories[c.randIntN(len(profile.Categories))]

	poems, err := c.GetCategoryPoems(ctx, cat.ID)
	if err != nil || len(poems) == 0 {
		return c.fallbackPoem(ctx, err)
	}

	poem := poems[c.randIntN(len(poems))]
	return &poem, nil
}

func (c *Client) fallbackPoem(ctx context.Context, cause error) (*domain.Poem, error) {
	if cause != nil {
		c.log.WarnContext(ctx, "random poem selection failed, serving fallback",
			slog.String("error", cause.Error()),
		)
	} else {
		c.log.WarnContext(ctx, "random poem selection hit an empty collection, serving fallback")
	}
	return c.GetPoem(ctx, fallbackPoemID)
}

// fetchCategory retrieves one category node without caching; the aggregate
// walk result is cached by categoryTree instead.
func (c *Client) fetchCategory(ctx context.Context, id int) (categoryJSON, error) {
	var raw categoryDetailJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/cat/%d", id), &raw); err != nil {
		return categoryJSON{}, err
	}
	return raw.Cat, nil
}

func toDomainPoet(p poetJSON) domain.Poet {
	return domain.Poet{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		BirthYear:   p.BirthYear,
		DeathYear:   p.DeathYear,
	}
}
