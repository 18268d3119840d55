// Package library dispatches read requests between the local corpus and the
// remote poetry API. The local store is tried first; a miss, an empty result,
// or an error falls back to the remote source. Local failures are logged and
// never surfaced to callers as long as the remote can answer.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

type poetRepo interface {
	List(ctx context.Context) ([]domain.Poet, error)
	GetByID(ctx context.Context, id int) (*domain.Poet, error)
	Has(ctx context.Context, id int) (bool, error)
}

type categoryRepo interface {
	ListByPoet(ctx context.Context, poetID int) ([]domain.Category, error)
	GetByID(ctx context.Context, id int) (*domain.Category, error)
}

type poemRepo interface {
	GetByID(ctx context.Context, id int) (*domain.Poem, error)
	ListByCategory(ctx context.Context, categoryID int) ([]domain.Poem, error)
	Has(ctx context.Context, id int) (bool, error)
}

type remoteSource interface {
	GetPoets(ctx context.Context) ([]domain.Poet, error)
	GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error)
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
	GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error)
	GetChapter(ctx context.Context, id int) (*domain.Chapter, error)
	GetPoem(ctx context.Context, id int) (*domain.Poem, error)
	GetRandomPoem(ctx context.Context) (*domain.Poem, error)
}

// Service implements the hybrid poetry library.
type Service struct {
	log        *slog.Logger
	poets      poetRepo
	categories categoryRepo
	poems      poemRepo
	remote     remoteSource
	metrics    *Metrics
}

// NewService creates the library service.
func NewService(
	logger *slog.Logger,
	poets poetRepo,
	categories categoryRepo,
	poems poemRepo,
	remote remoteSource,
	metrics *Metrics,
) *Service {
	return &Service{
		log:        logger.With("service", "library"),
		poets:      poets,
		categories: categories,
		poems:      poems,
		remote:     remote,
		metrics:    metrics,
	}
}

// Metrics exposes the recorded datasource call window.
func (s *Service) Metrics() *Metrics { return s.metrics }

// observe records one datasource call in the metrics window.
func (s *Service) observe(source Source, endpoint string, start time.Time, err error, fallback bool) {
	s.metrics.Record(CallMetric{
		Source:     source,
		Endpoint:   endpoint,
		Duration:   time.Since(start),
		Success:    err == nil,
		IsFallback: fallback,
	})
}

// localMiss logs a local store failure before falling back to the remote.
func (s *Service) localMiss(ctx context.Context, endpoint string, err error) {
	if err == nil {
		return
	}
	s.log.WarnContext(ctx, "local store failed, falling back to remote",
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)
}

// GetPoets returns all poets, preferring the local corpus.
func (s *Service) GetPoets(ctx context.Context) ([]domain.Poet, error) {
	start := time.Now()
	poets, err := s.poets.List(ctx)
	s.observe(SourceLocal, "poets", start, err, false)
	if err == nil && len(poets) > 0 {
		return poets, nil
	}
	s.localMiss(ctx, "poets", err)

	start = time.Now()
	poets, err = s.remote.GetPoets(ctx)
	s.observe(SourceRemote, "poets", start, err, true)
	return poets, err
}

// GetPoet returns a poet profile with their browsable categories. The local
// corpus answers only when it has both the poet and at least one category;
// otherwise the remote profile is served.
func (s *Service) GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error) {
	start := time.Now()
	profile, err := s.localPoet(ctx, id)
	s.observe(SourceLocal, "poet", start, err, false)
	if err == nil && profile != nil && len(profile.Categories) > 0 {
		return profile, nil
	}
	s.localMiss(ctx, "poet", err)

	start = time.Now()
	remote, err := s.remote.GetPoet(ctx, id)
	s.observe(SourceRemote, "poet", start, err, true)
	return remote, err
}

func (s *Service) localPoet(ctx context.Context, id int) (*domain.PoetProfile, error) {
	ok, err := s.poets.Has(ctx, id)
	if err != nil || !ok {
		return nil, err
	}

	p, err := s.poets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cats, err := s.categories.ListByPoet(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.PoetProfile{Poet: *p, Categories: cats}, nil
}

// GetCategory returns a category, preferring the local corpus. Chapter trees
// exist only upstream, so local answers carry no chapters.
func (s *Service) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	start := time.Now()
	cat, err := s.categories.GetByID(ctx, id)
	s.observe(SourceLocal, "category", start, err, false)
	if err == nil {
		return cat, nil
	}
	s.localMiss(ctx, "category", err)

	start = time.Now()
	cat, err = s.remote.GetCategory(ctx, id)
	s.observe(SourceRemote, "category", start, err, true)
	return cat, err
}

// GetCategoryPoems returns all poems of a category, preferring the local
// corpus and falling back to a remote tree walk when the category is absent
// or empty locally.
func (s *Service) GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error) {
	start := time.Now()
	poems, err := s.poems.ListByCategory(ctx, id)
	s.observe(SourceLocal, "category_poems", start, err, false)
	if err == nil && len(poems) > 0 {
		return poems, nil
	}
	s.localMiss(ctx, "category_poems", err)

	start = time.Now()
	poems, err = s.remote.GetCategoryPoems(ctx, id)
	s.observe(SourceRemote, "category_poems", start, err, true)
	return poems, err
}

// GetPoem returns a single poem, preferring the local corpus.
func (s *Service) GetPoem(ctx context.Context, id int) (*domain.Poem, error) {
	start := time.Now()
	poem, err := s.localPoem(ctx, id)
	s.observe(SourceLocal, "poem", start, err, false)
	if err == nil && poem != nil {
		return poem, nil
	}
	s.localMiss(ctx, "poem", err)

	start = time.Now()
	remote, err := s.remote.GetPoem(ctx, id)
	s.observe(SourceRemote, "poem", start, err, true)
	return remote, err
}

func (s *Service) localPoem(ctx context.Context, id int) (*domain.Poem, error) {
	ok, err := s.poems.Has(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return s.poems.GetByID(ctx, id)
}

// GetChapter returns a nested chapter. Chapters are not persisted locally, so
// this always goes to the remote source.
func (s *Service) GetChapter(ctx context.Context, id int) (*domain.Chapter, error) {
	start := time.Now()
	ch, err := s.remote.GetChapter(ctx, id)
	s.observe(SourceRemote, "chapter", start, err, false)
	return ch, err
}

// GetRandomPoem returns a random poem from the remote source. Selection is
// delegated so the whole corpus is drawable, not just the imported slice.
func (s *Service) GetRandomPoem(ctx context.Context) (*domain.Poem, error) {
	start := time.Now()
	poem, err := s.remote.GetRandomPoem(ctx)
	s.observe(SourceRemote, "random_poem", start, err, false)
	return poem, err
}
