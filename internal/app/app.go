package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ganjineh/ganjineh-backend/internal/adapter/ganjoor"
	"github.com/ganjineh/ganjineh-backend/internal/adapter/mailer"
	"github.com/ganjineh/ganjineh-backend/internal/adapter/postgres"
	categoryrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/category"
	contactrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/contact"
	poemrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/poem"
	poetrepo "github.com/ganjineh/ganjineh-backend/internal/adapter/postgres/poet"
	"github.com/ganjineh/ganjineh-backend/internal/cache"
	"github.com/ganjineh/ganjineh-backend/internal/config"
	"github.com/ganjineh/ganjineh-backend/internal/searchindex"
	contactsvc "github.com/ganjineh/ganjineh-backend/internal/service/contact"
	"github.com/ganjineh/ganjineh-backend/internal/service/library"
	searchsvc "github.com/ganjineh/ganjineh-backend/internal/service/search"
	"github.com/ganjineh/ganjineh-backend/internal/transport/middleware"
	"github.com/ganjineh/ganjineh-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, wires the
// datasources and services, starts the HTTP server, and blocks until ctx is
// cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	responseCache := cache.New(logger)
	remote := ganjoor.NewClientWithURL(cfg.Ganjoor.BaseURL, logger, responseCache)

	poets := poetrepo.New(pool)
	categories := categoryrepo.New(pool)
	poems := poemrepo.New(pool)
	contacts := contactrepo.New(pool)

	librarySvc := library.NewService(logger, poets, categories, poems, remote, library.NewMetrics())
	searchSvc := searchsvc.NewService(logger, poets, categories, poems)

	var contactSvc *contactsvc.Service
	if cfg.Mailer.Enabled {
		mail := mailer.NewClient(mailer.Config{
			BaseURL: cfg.Mailer.BaseURL,
			APIKey:  cfg.Mailer.APIKey,
			From:    cfg.Mailer.From,
			To:      cfg.Mailer.To,
		}, logger)
		contactSvc = contactsvc.NewService(logger, contacts, mail)
	} else {
		contactSvc = contactsvc.NewService(logger, contacts, nil)
	}

	var index *searchindex.Index
	if cfg.SearchIndex.Enabled {
		index = searchindex.New()
		go buildIndex(ctx, logger, cfg.SearchIndex, index, remote)
	}

	healthHandler := rest.NewHealthHandler(pool, BuildVersion())
	if index != nil {
		healthHandler.WatchIndex(index)
	}

	handlers := rest.Handlers{
		Health:  healthHandler,
		Library: rest.NewLibraryHandler(librarySvc),
		Search:  rest.NewSearchHandler(searchSvc, index),
		Contact: rest.NewContactHandler(contactSvc),
	}

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit(cfg.RateLimit.PerMinute))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      rest.NewRouter(handlers, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildIndex runs the snapshot-backed index build. The server keeps serving
// while this runs; index search falls back to the datastore until poets and
// categories are in.
func buildIndex(ctx context.Context, logger *slog.Logger, cfg config.SearchIndexConfig, index *searchindex.Index, source *ganjoor.Client) {
	var store searchindex.SnapshotStore
	if s := openIndexStore(logger, cfg.StorePath); s != nil {
		store = s
		defer s.Close()
	}

	builder := searchindex.NewBuilder(logger, index, source, store, searchindex.BuilderOptions{
		TopPoets:      cfg.TopPoets,
		BatchSize:     cfg.BatchSize,
		BatchPause:    cfg.BatchPause,
		SnapshotEvery: cfg.SnapshotEvery,
	})

	if err := builder.Build(ctx); err != nil {
		logger.Error("search index build failed", slog.String("error", err.Error()))
	}
}

// openIndexStore opens the SQLite snapshot store, returning nil (persistence
// disabled) when the directory or database cannot be prepared.
func openIndexStore(logger *slog.Logger, dir string) *searchindex.Store {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("index snapshot dir unavailable", slog.String("error", err.Error()))
		return nil
	}
	store, err := searchindex.NewStore(filepath.Join(dir, searchindex.DefaultStoreName))
	if err != nil {
		logger.Warn("index snapshot store unavailable", slog.String("error", err.Error()))
		return nil
	}
	return store
}
