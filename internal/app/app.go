package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/trivia-api/internal/db/sqlc"
	"github.com/gokatarajesh/trivia-api/internal/feed"
	"github.com/gokatarajesh/trivia-api/internal/importer"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/server"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	hub   *ws.Hub
	http  *http.Server

	broadcaster  *feed.Broadcaster
	importWorker *importer.Worker
	bgCancels    []context.CancelFunc
}

// New bootstraps logger, Postgres, optional Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, redisClient, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	wsHub := ws.NewHub(logger)

	var (
		cache       trivia.CategoryCache
		events      trivia.EventPublisher
		broadcaster *feed.Broadcaster
		checks      = []server.DependencyCheck{server.PostgresCheck(pool)}
	)
	if redisClient != nil {
		cache = trivia.NewRedisCategoryCache(redisClient, cfg.Trivia.CategoryCacheTTL)
		events = feed.NewRedisPublisher(redisClient, cfg.Feed.Channel)
		broadcaster = feed.NewBroadcaster(redisClient, wsHub, cfg.Feed.Channel, logger)
		checks = append(checks, server.RedisCheck(redisClient))
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; category cache disabled, feed is local to this instance")
		events = feed.NewLocalPublisher(wsHub)
	}

	triviaSvc := NewTriviaService(pool, cache, events, cfg, logger)
	importWorker, err := newImportWorker(cfg, triviaSvc, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	triviaHandlers := trivia.NewHTTPHandlers(triviaSvc, logger)
	feedHandler := feed.NewHandler(wsHub, logger)

	apiServer := server.NewHTTPServer(cfg, logger, checks, triviaHandlers, feedHandler)

	return &Application{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		redis:        redisClient,
		hub:          wsHub,
		http:         apiServer,
		broadcaster:  broadcaster,
		importWorker: importWorker,
		bgCancels:    make([]context.CancelFunc, 0, 2),
	}, nil
}

// Connect opens the Postgres pool and, when REDIS_ADDR is set, a Redis client.
// The returned Redis client is nil when Redis is disabled.
func Connect(ctx context.Context, cfg *config.App, logger zerolog.Logger) (*pgxpool.Pool, *redis.Client, error) {
	pool, err := pgxpool.New(ctx, cfg.Postgres.PoolDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if !cfg.Redis.Enabled() {
		return pool, nil, nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis client configured")
	return pool, redisClient, nil
}

// NewTriviaService wires the repositories over pool into a trivia.Service.
// cache and events may be nil.
func NewTriviaService(pool *pgxpool.Pool, cache trivia.CategoryCache, events trivia.EventPublisher, cfg *config.App, logger zerolog.Logger) *trivia.Service {
	queries := sqlcgen.New(pool)

	opts := trivia.ServiceOptions{PageSize: cfg.Trivia.QuestionsPerPage}
	if cfg.Trivia.RandomQuizSelection {
		opts.Selector = trivia.SelectRandomUnseen
	}

	return trivia.NewService(
		repository.NewQuestionRepository(queries),
		repository.NewCategoryRepository(queries),
		cache,
		events,
		opts,
		logger,
	)
}

// newImportWorker returns nil when IMPORT_INTERVAL is zero.
func newImportWorker(cfg *config.App, svc *trivia.Service, logger zerolog.Logger) (*importer.Worker, error) {
	if cfg.Import.Interval <= 0 {
		return nil, nil
	}
	src, err := importer.NewSource(cfg.Import.Source, importer.SourceOptions{
		OpenTDBURL:   cfg.Import.OpenTDBURL,
		TriviaAPIURL: cfg.Import.TriviaAPIURL,
		TriviaAPIKey: cfg.Import.TriviaAPIKey,
		HTTPClient:   &http.Client{Timeout: cfg.Import.HTTPTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("scheduled import: %w", err)
	}
	logger.Info().Str("source", src.Name()).Dur("interval", cfg.Import.Interval).Msg("scheduled import enabled")
	return importer.NewWorker(importer.New(svc, logger), src, cfg.Import.Amount, cfg.Import.Interval, 0, logger), nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	// Hijacked WebSocket connections are not closed by Shutdown.
	a.hub.CloseAll()

	a.pool.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("feed broadcaster stopped")
			}
		}()
	}

	if a.importWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.importWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("import worker stopped")
			}
		}()
	}
}
