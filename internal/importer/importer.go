// Package importer seeds the question catalogue from public trivia providers.
package importer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

const (
	SourceOpenTDB   = "opentdb"
	SourceTriviaAPI = "triviaapi"
)

// Candidate is a provider question before it is mapped onto the local catalogue.
type Candidate struct {
	Question   string
	Answer     string
	Category   string
	Difficulty string
}

// Source fetches candidates from one provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, amount int) ([]Candidate, error)
}

// Sink is the part of trivia.Service the importer writes through.
type Sink interface {
	ListCategories(ctx context.Context) (trivia.Categories, error)
	CreateQuestion(ctx context.Context, in trivia.NewQuestion) (int, error)
}

var _ Sink = (*trivia.Service)(nil)

// Report summarises one import run.
type Report struct {
	Source   string
	Fetched  int
	Inserted int
	Skipped  int
}

var difficulties = map[string]int{
	"easy":   1,
	"medium": 2,
	"hard":   3,
}

// categoryAliases maps lowercased provider categories onto local category types.
// OpenTDB "Group: Topic" names fall back to their group before lookup.
var categoryAliases = map[string]string{
	"science":              "science",
	"science & nature":     "science",
	"science: computers":   "science",
	"science: mathematics": "science",
	"science: gadgets":     "science",
	"art":                  "art",
	"arts & literature":    "art",
	"arts_and_literature":  "art",
	"geography":            "geography",
	"history":              "history",
	"entertainment":        "entertainment",
	"celebrities":          "entertainment",
	"film & tv":            "entertainment",
	"film_and_tv":          "entertainment",
	"music":                "entertainment",
	"sports":               "sports",
	"sport & leisure":      "sports",
	"sport_and_leisure":    "sports",
}

// Importer maps provider questions onto local categories and inserts them.
type Importer struct {
	sink   Sink
	logger zerolog.Logger
}

func New(sink Sink, logger zerolog.Logger) *Importer {
	return &Importer{
		sink:   sink,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// Run fetches amount questions from src and inserts every one that maps onto a
// local category and difficulty. Rejected inserts are skipped; a storage
// failure aborts the run.
func (i *Importer) Run(ctx context.Context, src Source, amount int) (Report, error) {
	report := Report{Source: src.Name()}
	if amount <= 0 {
		return report, fmt.Errorf("amount must be positive, got %d", amount)
	}

	candidates, err := src.Fetch(ctx, amount)
	if err != nil {
		return report, fmt.Errorf("fetch from %s: %w", src.Name(), err)
	}
	report.Fetched = len(candidates)

	categories, err := i.sink.ListCategories(ctx)
	if err != nil {
		return report, fmt.Errorf("list categories: %w", err)
	}
	byType := make(map[string]int, len(categories))
	for _, c := range categories {
		byType[strings.ToLower(c.Type)] = c.ID
	}

	for _, c := range candidates {
		in, reason := i.convert(c, byType)
		if reason != "" {
			report.Skipped++
			i.logger.Debug().Str("category", c.Category).Str("difficulty", c.Difficulty).Str("reason", reason).Msg("skipping question")
			continue
		}

		id, err := i.sink.CreateQuestion(ctx, in)
		if err != nil {
			if errors.Is(err, trivia.ErrStorage) {
				return report, fmt.Errorf("insert question: %w", err)
			}
			report.Skipped++
			i.logger.Warn().Err(err).Msg("question rejected")
			continue
		}
		report.Inserted++
		i.logger.Debug().Int("id", id).Msg("question imported")
	}

	i.logger.Info().
		Str("source", report.Source).
		Int("fetched", report.Fetched).
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Msg("import finished")
	return report, nil
}

// convert returns the insert payload, or a non-empty reason to skip.
func (i *Importer) convert(c Candidate, byType map[string]int) (trivia.NewQuestion, string) {
	question := strings.TrimSpace(html.UnescapeString(c.Question))
	answer := strings.TrimSpace(html.UnescapeString(c.Answer))
	if question == "" || answer == "" {
		return trivia.NewQuestion{}, "empty text"
	}

	difficulty, ok := difficulties[strings.ToLower(c.Difficulty)]
	if !ok {
		return trivia.NewQuestion{}, "unknown difficulty"
	}

	localType, ok := resolveCategory(html.UnescapeString(c.Category))
	if !ok {
		return trivia.NewQuestion{}, "unmapped category"
	}
	categoryID, ok := byType[localType]
	if !ok {
		return trivia.NewQuestion{}, "category not in catalogue"
	}

	category := trivia.FlexInt(categoryID)
	level := trivia.FlexInt(difficulty)
	return trivia.NewQuestion{
		Question:   &question,
		Answer:     &answer,
		Category:   &category,
		Difficulty: &level,
	}, ""
}

func resolveCategory(provider string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(provider))
	if local, ok := categoryAliases[key]; ok {
		return local, true
	}
	if group, _, found := strings.Cut(key, ":"); found {
		local, ok := categoryAliases[strings.TrimSpace(group)]
		return local, ok
	}
	return "", false
}

// SourceOptions configures provider clients.
type SourceOptions struct {
	OpenTDBURL   string
	TriviaAPIURL string
	TriviaAPIKey string
	HTTPClient   *http.Client
}

// NewSource builds the named provider client.
func NewSource(name string, opts SourceOptions) (Source, error) {
	switch name {
	case SourceOpenTDB:
		return NewOpenTDBClient(opts.OpenTDBURL, opts.HTTPClient), nil
	case SourceTriviaAPI:
		return NewTriviaAPIClient(opts.TriviaAPIURL, opts.TriviaAPIKey, opts.HTTPClient), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", name, SourceOpenTDB, SourceTriviaAPI)
	}
}
