package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gokatarajesh/trivia-api/internal/app"
	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/feed"
	"github.com/gokatarajesh/trivia-api/internal/importer"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

func main() {
	var (
		source = flag.String("source", importer.SourceOpenTDB, "Question provider: opentdb or triviaapi")
		amount = flag.Int("amount", 20, "Number of questions to fetch")
	)
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.Name+"-importer", cfg.Env)

	src, err := importer.NewSource(*source, importer.SourceOptions{
		OpenTDBURL:   cfg.Import.OpenTDBURL,
		TriviaAPIURL: cfg.Import.TriviaAPIURL,
		TriviaAPIKey: cfg.Import.TriviaAPIKey,
		HTTPClient:   &http.Client{Timeout: cfg.Import.HTTPTimeout},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid source")
	}

	pool, redisClient, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	// Imports show up on the live feed of running API instances.
	var events trivia.EventPublisher
	if redisClient != nil {
		defer redisClient.Close()
		events = feed.NewRedisPublisher(redisClient, cfg.Feed.Channel)
	}

	svc := app.NewTriviaService(pool, nil, events, cfg, logger)
	if _, err := importer.New(svc, logger).Run(ctx, src, *amount); err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
}
