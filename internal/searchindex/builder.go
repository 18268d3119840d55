package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

// famousPoets is the priority set, keyed by upstream slug. These poets get
// full verse text indexed and their hits sort ahead of everyone else.
var famousPoets = map[string]struct{}{
	"hafez":     {},
	"saadi":     {},
	"moulavi":   {},
	"khayyam":   {},
	"ferdousi":  {},
	"attar":     {},
	"nezami":    {},
	"babataher": {},
	"parvin":    {},
	"shahriar":  {},
}

// IsFamous reports whether a poet belongs to the priority set.
func IsFamous(p domain.Poet) bool {
	_, ok := famousPoets[strings.ToLower(p.Slug)]
	return ok
}

type corpusSource interface {
	GetPoets(ctx context.Context) ([]domain.Poet, error)
	GetPoet(ctx context.Context, id int) (*domain.PoetProfile, error)
	GetCategoryPoems(ctx context.Context, id int) ([]domain.Poem, error)
	GetPoem(ctx context.Context, id int) (*domain.Poem, error)
}

// SnapshotStore persists index documents between runs. A nil store disables
// persistence.
type SnapshotStore interface {
	Load() ([]Document, error)
	Save(docs []Document) (int, error)
}

// SaveEvent describes one snapshot save attempt.
type SaveEvent struct {
	Documents int
	Chunks    int
	Err       error
}

// BuilderOptions tune the incremental build.
type BuilderOptions struct {
	// TopPoets is how many poets (famous first) get indexed.
	TopPoets int
	// FamousCategories is how many categories of a famous poet get full
	// verse text.
	FamousCategories int
	// OtherCategories is how many categories of a non-famous poet get
	// title-only poem entries.
	OtherCategories int
	// BatchSize is how many poems are fetched concurrently.
	BatchSize int
	// BatchPause is the delay between poem fetch batches.
	BatchPause time.Duration
	// SnapshotEvery is how many poets are processed between snapshot saves.
	SnapshotEvery int
}

func (o BuilderOptions) withDefaults() BuilderOptions {
	if o.TopPoets <= 0 {
		o.TopPoets = 20
	}
	if o.FamousCategories <= 0 {
		o.FamousCategories = 3
	}
	if o.OtherCategories <= 0 {
		o.OtherCategories = 2
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 5
	}
	if o.BatchPause <= 0 {
		o.BatchPause = 200 * time.Millisecond
	}
	if o.SnapshotEvery <= 0 {
		o.SnapshotEvery = 3
	}
	return o
}

// Builder populates an Index from the corpus source, snapshotting progress.
type Builder struct {
	log    *slog.Logger
	index  *Index
	source corpusSource
	store  SnapshotStore
	opts   BuilderOptions

	// onSave observes every snapshot save attempt, failures included.
	onSave func(SaveEvent)
}

// NewBuilder creates a builder. store may be nil to disable persistence.
func NewBuilder(logger *slog.Logger, index *Index, source corpusSource, store SnapshotStore, opts BuilderOptions) *Builder {
	b := &Builder{
		log:    logger.With("component", "searchindex"),
		index:  index,
		source: source,
		store:  store,
		opts:   opts.withDefaults(),
	}
	b.onSave = func(ev SaveEvent) {
		if ev.Err != nil {
			b.log.Warn("index snapshot save failed",
				slog.Int("documents", ev.Documents),
				slog.String("error", ev.Err.Error()),
			)
			return
		}
		b.log.Debug("index snapshot saved",
			slog.Int("documents", ev.Documents),
			slog.Int("chunks", ev.Chunks),
		)
	}
	return b
}

// OnSave replaces the snapshot save observer.
func (b *Builder) OnSave(fn func(SaveEvent)) {
	if fn != nil {
		b.onSave = fn
	}
}

// Build populates the index: restore from snapshot when one is fresh enough,
// otherwise index poets and categories first (the index becomes searchable
// immediately after), then poem text in the background of the same call.
// Per-item failures are logged and skipped; only a failure to list poets
// fails the build.
func (b *Builder) Build(ctx context.Context) error {
	b.index.SetState(StateLoading)

	if b.restoreSnapshot() {
		return nil
	}

	poets, err := b.source.GetPoets(ctx)
	if err != nil {
		b.index.SetState(StateUnbuilt)
		return fmt.Errorf("searchindex: list poets: %w", err)
	}

	selected := selectPoets(poets, b.opts.TopPoets)

	profiles := b.indexPoetsAndCategories(ctx, selected)
	b.index.SetState(StatePartiallyReady)

	b.index.SetState(StateBuilding)
	skipped := 0
	for i, pr := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.indexPoetPoems(ctx, pr); err != nil {
			skipped++
			b.log.Warn("skipping poet during poem indexing",
				slog.Int("poet_id", pr.Poet.ID),
				slog.String("error", err.Error()),
			)
		}
		if (i+1)%b.opts.SnapshotEvery == 0 {
			b.snapshot()
		}
	}

	b.snapshot()
	b.index.SetState(StateReady)

	np, nc, nm := b.index.Len()
	b.log.Info("search index build finished",
		slog.Int("poets", np),
		slog.Int("categories", nc),
		slog.Int("poems", nm),
		slog.Int("poets_skipped", skipped),
	)
	return nil
}

// restoreSnapshot loads a persisted snapshot into the index. Returns true on
// success.
func (b *Builder) restoreSnapshot() bool {
	if b.store == nil {
		return false
	}

	docs, err := b.store.Load()
	if err != nil || len(docs) == 0 {
		return false
	}

	for _, d := range docs {
		b.index.Add(d)
	}
	b.index.SetState(StateReady)

	b.log.Info("search index restored from snapshot", slog.Int("documents", len(docs)))
	return true
}

// selectPoets orders the corpus famous-first (stable within groups) and keeps
// the top n.
func selectPoets(poets []domain.Poet, n int) []domain.Poet {
	ordered := make([]domain.Poet, len(poets))
	copy(ordered, poets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return IsFamous(ordered[i]) && !IsFamous(ordered[j])
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// indexPoetsAndCategories indexes poet and category text for the selected
// poets and returns the fetched profiles for the poem phase.
func (b *Builder) indexPoetsAndCategories(ctx context.Context, poets []domain.Poet) []*domain.PoetProfile {
	profiles := make([]*domain.PoetProfile, 0, len(poets))

	for _, p := range poets {
		famous := IsFamous(p)

		text := p.Name
		if p.Description != nil {
			text += " " + *p.Description
		}
		b.index.Add(Document{
			Kind:     KindPoet,
			ID:       p.ID,
			Title:    p.Name,
			Text:     text,
			PoetID:   p.ID,
			PoetName: p.Name,
			Famous:   famous,
		})

		profile, err := b.source.GetPoet(ctx, p.ID)
		if err != nil {
			b.log.Warn("skipping poet categories",
				slog.Int("poet_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, c := range profile.Categories {
			catText := c.Title
			if c.Description != nil {
				catText += " " + *c.Description
			}
			catText += " " + p.Name
			b.index.Add(Document{
				Kind:     KindCategory,
				ID:       c.ID,
				Title:    c.Title,
				Text:     catText,
				PoetID:   p.ID,
				PoetName: p.Name,
				Famous:   famous,
			})
		}
		profiles = append(profiles, profile)
	}

	return profiles
}

// indexPoetPoems indexes poem text for one poet. Famous poets get their top
// categories with full verse text, fetched in small concurrent batches with a
// pause between batches to stay polite to the upstream; everyone else gets
// title-only entries.
func (b *Builder) indexPoetPoems(ctx context.Context, profile *domain.PoetProfile) error {
	famous := IsFamous(profile.Poet)

	limit := b.opts.OtherCategories
	if famous {
		limit = b.opts.FamousCategories
	}
	categories := profile.Categories
	if len(categories) > limit {
		categories = categories[:limit]
	}

	for _, cat := range categories {
		poems, err := b.source.GetCategoryPoems(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("list poems of category %d: %w", cat.ID, err)
		}

		if !famous {
			for _, p := range poems {
				b.addPoemDoc(p, profile.Poet, false, false)
			}
			continue
		}

		if err := b.indexPoemsWithText(ctx, poems, profile.Poet); err != nil {
			return err
		}
	}

	return nil
}

// indexPoemsWithText refetches each poem for its full text in batches of
// BatchSize with BatchPause between batches. A failed fetch falls back to the
// summary the category walk already produced.
func (b *Builder) indexPoemsWithText(ctx context.Context, poems []domain.Poem, poet domain.Poet) error {
	for start := 0; start < len(poems); start += b.opts.BatchSize {
		end := start + b.opts.BatchSize
		if end > len(poems) {
			end = len(poems)
		}

		batch := poems[start:end]
		fetched := make([]*domain.Poem, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			g.Go(func() error {
				full, err := b.source.GetPoem(gctx, batch[i].ID)
				if err != nil {
					b.log.Warn("poem fetch failed, indexing summary only",
						slog.Int("poem_id", batch[i].ID),
						slog.String("error", err.Error()),
					)
					return nil
				}
				fetched[i] = full
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := range batch {
			if fetched[i] != nil {
				b.addPoemDoc(*fetched[i], poet, true, true)
			} else {
				b.addPoemDoc(batch[i], poet, true, false)
			}
		}

		if end < len(poems) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.opts.BatchPause):
			}
		}
	}
	return nil
}

func (b *Builder) addPoemDoc(p domain.Poem, poet domain.Poet, famous, fullText bool) {
	text := p.Title + " " + poet.Name
	if fullText && len(p.Verses) > 0 {
		text += " " + strings.Join(p.Verses, " ")
	}
	b.index.Add(Document{
		Kind:     KindPoem,
		ID:       p.ID,
		Title:    p.Title,
		Text:     text,
		PoetID:   poet.ID,
		PoetName: poet.Name,
		Famous:   famous,
	})
}

// snapshot persists the current index contents, best-effort.
func (b *Builder) snapshot() {
	if b.store == nil {
		return
	}

	docs := b.index.Documents()
	chunks, err := b.store.Save(docs)
	b.onSave(SaveEvent{Documents: len(docs), Chunks: chunks, Err: err})
}
