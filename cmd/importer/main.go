// Command importer applies database migrations and bulk-loads the poetry
// corpus from the remote API into Postgres. It is intended to be run
// offline, not as part of the main server.
//
// Flags:
//
//	--poets         comma-separated poet IDs to import (default: all)
//	--full          fetch full verse text for every poem (slow)
//	--migrations    path to the goose migrations directory
//	--migrate-only  apply migrations and exit
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/ganjineh/ganjineh-backend/internal/adapter/ganjoor"
	"github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	categoryrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/category"
	poemrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/poem"
	poetrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/poet"
	"github.com/ganjineh/ganjineh-backend/internal/app"
	"github.com/ganjineh/ganjineh-backend/internal/cache"
	"github.com/ganjineh/ganjineh-backend/internal/config"
	"github.com/ganjineh/ganjineh-backend/internal/domain"
)

func main() {
	poetsFlag := flag.String("poets", "", "comma-separated poet IDs to import (default: all)")
	fullFlag := flag.Bool("full", false, "fetch full verse text for every poem")
	migrationsFlag := flag.String("migrations", "./migrations", "path to the goose migrations directory")
	migrateOnlyFlag := flag.Bool("migrate-only", false, "apply migrations and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Hour)
	defer cancel()

	if err := migrate(ctx, cfg.Database.DSN, *migrationsFlag); err != nil {
		logger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	if *migrateOnlyFlag {
		return
	}

	onlyPoets, err := parseIDs(*poetsFlag)
	if err != nil {
		logger.Error("invalid --poets flag", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	imp := &importer{
		log:        logger.With("component", "importer"),
		txm:        postgres.NewTxManager(pool),
		remote:     ganjoor.NewClientWithURL(cfg.Ganjoor.BaseURL, logger, cache.New(logger)),
		poets:      poetrepo.New(pool),
		categories: categoryrepo.New(pool),
		poems:      poemrepo.New(pool),
		full:       *fullFlag,
	}

	if err := imp.run(ctx, onlyPoets); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// migrate applies all pending goose migrations.
func migrate(ctx context.Context, dsn, dir string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func parseIDs(s string) (map[int]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("bad poet id %q", part)
		}
		out[id] = true
	}
	return out, nil
}

type importer struct {
	log        *slog.Logger
	txm        *postgres.TxManager
	remote     *ganjoor.Client
	poets      *poetrepo.Repo
	categories *categoryrepo.Repo
	poems      *poemrepo.Repo
	full       bool
}

// run imports poets, their categories, and poems. Per-poet failures are
// logged and skipped so one broken entry does not abort the whole load.
func (imp *importer) run(ctx context.Context, only map[int]bool) error {
	poets, err := imp.remote.GetPoets(ctx)
	if err != nil {
		return fmt.Errorf("fetch poets: %w", err)
	}

	imported := 0
	for _, p := range poets {
		if only != nil && !only[p.ID] {
			continue
		}
		if err := imp.importPoet(ctx, p.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			imp.log.Warn("poet import failed",
				slog.Int("poet_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		imported++
	}

	imp.log.Info("import completed",
		slog.Int("poets", imported),
		slog.Int("skipped", len(poets)-imported),
	)
	return nil
}

func (imp *importer) importPoet(ctx context.Context, id int) error {
	profile, err := imp.remote.GetPoet(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch poet: %w", err)
	}

	// Poet and categories land together or not at all; the repos pick up
	// the transaction from the context.
	err = imp.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := imp.poets.Upsert(ctx, []domain.Poet{profile.Poet}); err != nil {
			return fmt.Errorf("upsert poet: %w", err)
		}
		if err := imp.categories.Upsert(ctx, profile.Categories); err != nil {
			return fmt.Errorf("upsert categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, cat := range profile.Categories {
		poems, err := imp.remote.GetCategoryPoems(ctx, cat.ID)
		if err != nil {
			imp.log.Warn("category poems fetch failed",
				slog.Int("category_id", cat.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if imp.full {
			poems = imp.fetchFullPoems(ctx, poems)
		}
		if err := imp.poems.Upsert(ctx, poems); err != nil {
			return fmt.Errorf("upsert poems of category %d: %w", cat.ID, err)
		}
	}

	imp.log.Info("poet imported",
		slog.Int("poet_id", profile.Poet.ID),
		slog.String("name", profile.Poet.Name),
		slog.Int("categories", len(profile.Categories)),
	)
	return nil
}

// fetchFullPoems replaces poem summaries with full-text versions where the
// fetch succeeds; failures keep the summary.
func (imp *importer) fetchFullPoems(ctx context.Context, summaries []domain.Poem) []domain.Poem {
	out := make([]domain.Poem, 0, len(summaries))
	for _, p := range summaries {
		full, err := imp.remote.GetPoem(ctx, p.ID)
		if err != nil {
			imp.log.Warn("poem fetch failed",
				slog.Int("poem_id", p.ID),
				slog.String("error", err.Error()),
			)
			out = append(out, p)
			continue
		}
		out = append(out, *full)
	}
	return out
}
