package importer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Worker tops up the catalogue from a provider on a fixed interval.
type Worker struct {
	importer *Importer
	source   Source
	amount   int
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewWorker(importer *Importer, source Source, amount int, interval, timeout time.Duration, logger zerolog.Logger) *Worker {
	if amount <= 0 {
		amount = 10
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		importer: importer,
		source:   source,
		amount:   amount,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "import_worker").Logger(),
	}
}

// Run blocks until context cancellation. The first import runs after one interval.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("import worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if _, err := w.importer.Run(ctx, w.source, w.amount); err != nil {
		w.logger.Warn().Err(err).Str("source", w.source.Name()).Msg("scheduled import failed")
	}
}
