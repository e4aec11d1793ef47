package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

// DependencyCheck pings one backing service for /v1/ping.
type DependencyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) DependencyCheck {
	return DependencyCheck{Name: "postgres", Ping: pool.Ping}
}

// RedisCheck pings the Redis client.
func RedisCheck(client *redis.Client) DependencyCheck {
	return DependencyCheck{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// NewHTTPServer wires the API routes behind the middleware chain.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, checks []DependencyCheck, triviaHandlers *trivia.HTTPHandlers, feedHandler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg, logger, checks, triviaHandlers, feedHandler),
	}
}

// NewRouter builds the mux and wraps it with request logging, metrics, CORS
// and panic recovery. triviaHandlers and feedHandler may be nil.
func NewRouter(cfg *config.App, logger zerolog.Logger, checks []DependencyCheck, triviaHandlers *trivia.HTTPHandlers, feedHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), checks); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondUpstreamError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if triviaHandlers != nil {
		triviaHandlers.Register(mux)
	}

	if feedHandler != nil {
		mux.Handle("/ws/questions", feedHandler)
	}

	// Anything unmatched gets the JSON 404 body instead of the mux's text one.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w)
	})

	var handler http.Handler = mux
	handler = recoverMiddleware(handler)
	handler = corsMiddleware(cfg.CORS, handler)
	handler = requestMiddleware(logger, handler)
	return handler
}

func pingDependencies(ctx context.Context, checks []DependencyCheck) error {
	for _, check := range checks {
		if err := check.Ping(ctx); err != nil {
			return &dependencyError{name: check.Name, err: err}
		}
	}
	return nil
}

type dependencyError struct {
	name string
	err  error
}

func (e *dependencyError) Error() string { return e.name + ": " + e.err.Error() }

func (e *dependencyError) Unwrap() error { return e.err }
