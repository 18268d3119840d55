package library

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Func-field mocks
// ---------------------------------------------------------------------------

type mockPoetRepo struct {
	list    func(ctx context.Context) ([]domain.Poet, error)
	getByID func(ctx context.Context, id int) (*domain.Poet, error)
	has     func(ctx context.Context, id int) (bool, error)
}

func (m *mockPoetRepo) List(ctx context.Context) ([]domain.Poet, error) { return m.list(ctx) }
func (m *mockPoetRepo) GetByID(ctx context.Context, id int) (*domain.Poet, error) {
	return m.getByID(ctx, id)
}
func (m *mockPoetRepo) Has(ctx context.Context, id int) (bool, error) { return m.has(ctx, id) }

type mockCategoryRepo struct {
	listByPoet func(ctx context.Context, poetID int) ([]domain.Category, error)
	getByID    func(ctx context.Context, id int) (*domain.Category, error)
}

func (m *mockCategoryRepo) ListByPoet(ctx context.Context, poetID int) ([]domain.Category, error) {
	return m.listByPoet(ctx, poetID)
}
func (m *mockCategoryRepo) GetByID(ctx context.Context, id int) (*domain.Category, error) {
	return m.getByID(ctx, id)
}

type mockPoemRepo struct {
	getByID        func(ctx context.Context, id int) (*domain.Poem, error)
	listByCategory func(ctx context.Context, categoryID int) ([]domain.Poem, error)
	has            func(ctx context.Context, id int) (bool, error)
}

func (m *mockPoemRepo) GetByID(ctx context.Context, id int) (*domain.Poem, error) {
	return m.getByID(ctx, id)
}
func (m *mockPoemRepo) ListByCategory(ctx context.Context, categoryID int) ([]domain.Poem, error) {
	return m.listByCategory(ctx, categoryID)
}
func (m *mockPoemRepo) Has(ctx context.Context, id int) (bool, error) { return m.has(ctx, id) }

type mockRemote struct {
	getPoets         func(ctx context.Context) ([]domain.Poet, error)
	getPoet          func(ctx context.Context, id int) (*domain.PoetProfile, error)
	getCategory      func(ctx context.Context, id int) (*domain.Category, error)
	getCategoryPoems func(ctx context.Context, id int) ([]domain.Poem, error)
	getChapter       func(ctx context.Context, id int) (*domain.Chapter, error)
	getPoem          func(ctx context.Context, id int) (*domain.Poem, error)
	getRandomPoem    func(ctx context.Context) (*domain.Poem, error)
}

func (m *mockRemote) GetPoets(ctx context.Context) ([]domain.Poet, error) { return m.getPoets(ctx) }
func (m *mockRemote) GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error) {
	return m.getPoet(ctx, id)
}
func (m *mockRemote) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	return m.getCategory(ctx, id)
}
func (m *mockRemote) GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error) {
	return m.getCategoryPoems(ctx, id)
}
func (m *mockRemote) GetChapter(ctx context.Context, id int) (*domain.Chapter, error) {
	return m.getChapter(ctx, id)
}
func (m *mockRemote) GetPoem(ctx context.Context, id int) (*domain.Poem, error) {
	return m.getPoem(ctx, id)
}
func (m *mockRemote) GetRandomPoem(ctx context.Context) (*domain.Poem, error) {
	return m.getRandomPoem(ctx)
}

func newTestService(poets *mockPoetRepo, cats *mockCategoryRepo, poems *mockPoemRepo, remote *mockRemote) *Service {
	return NewService(slog.Default(), poets, cats, poems, remote, NewMetrics())
}

// ---------------------------------------------------------------------------
// Dispatch tests
// ---------------------------------------------------------------------------

func TestService_GetPoets_LocalWins(t *testing.T) {
	t.Parallel()

	remoteCalled := false
	svc := newTestService(
		&mockPoetRepo{list: func(ctx context.Context) ([]domain.Poet, error) {
			return []domain.Poet{{ID: 2, Name: "حافظ"}}, nil
		}},
		nil, nil,
		&mockRemote{getPoets: func(ctx context.Context) ([]domain.Poet, error) {
			remoteCalled = true
			return nil, nil
		}},
	)

	poets, err := svc.GetPoets(context.Background())
	require.NoError(t, err)
	require.Len(t, poets, 1)
	assert.False(t, remoteCalled, "remote must not be called when local has data")

	stats := svc.Metrics().Stats()
	assert.Equal(t, 1, stats.BySource[SourceLocal].Calls)
	assert.Zero(t, stats.FallbackRate)
}

func TestService_GetPoets_EmptyLocalFallsBack(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		&mockPoetRepo{list: func(ctx context.Context) ([]domain.Poet, error) {
			return []domain.Poet{}, nil
		}},
		nil, nil,
		&mockRemote{getPoets: func(ctx context.Context) ([]domain.Poet, error) {
			return []domain.Poet{{ID: 3, Name: "سعدی"}}, nil
		}},
	)

	poets, err := svc.GetPoets(context.Background())
	require.NoError(t, err)
	require.Len(t, poets, 1)
	assert.Equal(t, "سعدی", poets[0].Name)

	stats := svc.Metrics().Stats()
	assert.Equal(t, 1, stats.BySource[SourceRemote].Calls)
	assert.InDelta(t, 0.5, stats.FallbackRate, 0.001)
}

func TestService_GetPoets_LocalErrorFallsBack(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		&mockPoetRepo{list: func(ctx context.Context) ([]domain.Poet, error) {
			return nil, errors.New("connection refused")
		}},
		nil, nil,
		&mockRemote{getPoets: func(ctx context.Context) ([]domain.Poet, error) {
			return []domain.Poet{{ID: 2}}, nil
		}},
	)

	poets, err := svc.GetPoets(context.Background())
	require.NoError(t, err, "local errors must not surface when remote answers")
	assert.Len(t, poets, 1)
}

// A locally known poet with no browsable categories still yields the remote
// profile, so thin local imports never hide a poet's works.
func TestService_GetPoet_ZeroLocalCategoriesFallsBack(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		&mockPoetRepo{
			has: func(ctx context.Context, id int) (bool, error) { return true, nil },
			getByID: func(ctx context.Context, id int) (*domain.Poet, error) {
				return &domain.Poet{ID: id, Name: "حافظ"}, nil
			},
		},
		&mockCategoryRepo{listByPoet: func(ctx context.Context, poetID int) ([]domain.Category, error) {
			return []domain.Category{}, nil
		}},
		nil,
		&mockRemote{getPoet: func(ctx context.Context, id int) (*domain.PoetProfile, error) {
			return &domain.PoetProfile{
				Poet:       domain.Poet{ID: id, Name: "حافظ"},
				Categories: []domain.Category{{ID: 24, Title: "غزلیات"}},
			}, nil
		}},
	)

	profile, err := svc.GetPoet(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, profile.Categories, 1)
	assert.Equal(t, "غزلیات", profile.Categories[0].Title)
}

func TestService_GetPoet_LocalHit(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		&mockPoetRepo{
			has: func(ctx context.Context, id int) (bool, error) { return true, nil },
			getByID: func(ctx context.Context, id int) (*domain.Poet, error) {
				return &domain.Poet{ID: id, Name: "حافظ"}, nil
			},
		},
		&mockCategoryRepo{listByPoet: func(ctx context.Context, poetID int) ([]domain.Category, error) {
			return []domain.Category{{ID: 24, PoetID: poetID, Title: "غزلیات", PoemCount: 495}}, nil
		}},
		nil,
		&mockRemote{getPoet: func(ctx context.Context, id int) (*domain.PoetProfile, error) {
			t.Fatal("remote must not be called")
			return nil, nil
		}},
	)

	profile, err := svc.GetPoet(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "حافظ", profile.Poet.Name)
	require.Len(t, profile.Categories, 1)
}

func TestService_GetPoem_HasErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		nil, nil,
		&mockPoemRepo{has: func(ctx context.Context, id int) (bool, error) {
			return false, errors.New("timeout")
		}},
		&mockRemote{getPoem: func(ctx context.Context, id int) (*domain.Poem, error) {
			return &domain.Poem{ID: id, Title: "غزل"}, nil
		}},
	)

	poem, err := svc.GetPoem(context.Background(), 2133)
	require.NoError(t, err)
	assert.Equal(t, 2133, poem.ID)
}

func TestService_GetPoem_RemoteErrorSurfaces(t *testing.T) {
	t.Parallel()

	svc := newTestService(
		nil, nil,
		&mockPoemRepo{has: func(ctx context.Context, id int) (bool, error) { return false, nil }},
		&mockRemote{getPoem: func(ctx context.Context, id int) (*domain.Poem, error) {
			return nil, errors.New("upstream down")
		}},
	)

	_, err := svc.GetPoem(context.Background(), 2133)
	require.Error(t, err)
}

func TestService_GetChapter_RemoteOnly(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil, nil,
		&mockRemote{getChapter: func(ctx context.Context, id int) (*domain.Chapter, error) {
			return &domain.Chapter{ID: id, Title: "قصاید"}, nil
		}},
	)

	ch, err := svc.GetChapter(context.Background(), 240)
	require.NoError(t, err)
	assert.Equal(t, "قصاید", ch.Title)

	stats := svc.Metrics().Stats()
	assert.Zero(t, stats.BySource[SourceLocal].Calls)
	assert.Zero(t, stats.FallbackRate, "remote-only endpoints are not fallbacks")
}

// ---------------------------------------------------------------------------
// Metrics tests
// ---------------------------------------------------------------------------

func TestMetrics_RingEvictsOldest(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	for i := 0; i < metricsCapacity+10; i++ {
		m.Record(CallMetric{Source: SourceLocal, Endpoint: "poem", Duration: time.Duration(i)})
	}

	recent := m.Recent()
	require.Len(t, recent, metricsCapacity)
	assert.Equal(t, time.Duration(10), recent[0].Duration, "oldest retained call")
	assert.Equal(t, time.Duration(metricsCapacity+9), recent[len(recent)-1].Duration)
}

func TestMetrics_Stats(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.Record(CallMetric{Source: SourceLocal, Endpoint: "poem", Duration: 10 * time.Millisecond, Success: true})
	m.Record(CallMetric{Source: SourceLocal, Endpoint: "poem", Duration: 30 * time.Millisecond, Success: false})
	m.Record(CallMetric{Source: SourceRemote, Endpoint: "poem", Duration: 100 * time.Millisecond, Success: true, IsFallback: true})

	stats := m.Stats()
	assert.Equal(t, 3, stats.Window)
	assert.Equal(t, 2, stats.BySource[SourceLocal].Calls)
	assert.Equal(t, 1, stats.BySource[SourceLocal].Failures)
	assert.Equal(t, int64(20), stats.BySource[SourceLocal].AvgLatencyMs)
	assert.Equal(t, int64(100), stats.BySource[SourceRemote].AvgLatencyMs)
	assert.InDelta(t, 1.0/3.0, stats.FallbackRate, 0.001)
}

func TestMetrics_JSONReportsMilliseconds(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.Record(CallMetric{Source: SourceRemote, Endpoint: "poem", Duration: 250 * time.Millisecond, Success: true})

	raw, err := json.Marshal(m.Stats())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"avgLatencyMs":250`)

	raw, err = json.Marshal(m.Recent())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"durationMs":250`)
}
