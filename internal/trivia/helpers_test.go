package trivia

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/trivia-api/internal/db/sqlc"
)

// memoryStore mimics the sqlc queries over in-memory tables, including the
// NOT NULL and foreign key rules of the questions table.
type memoryStore struct {
	mu         sync.Mutex
	questions  map[int32]sqlcgen.Question
	categories []sqlcgen.Category
	nextID     int32
	err        error
	catCalls   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		questions: map[int32]sqlcgen.Question{},
		categories: []sqlcgen.Category{
			{ID: 1, Type: "Science"},
			{ID: 2, Type: "Art"},
			{ID: 3, Type: "Geography"},
		},
		nextID: 1,
	}
}

func (m *memoryStore) add(text, answer string, category int32, difficulty int16) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.questions[id] = sqlcgen.Question{ID: id, Question: text, Answer: answer, Category: category, Difficulty: difficulty}
	return id
}

func (m *memoryStore) sorted(keep func(sqlcgen.Question) bool) []sqlcgen.Question {
	out := []sqlcgen.Question{}
	for _, q := range m.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) ListCategories(ctx context.Context) ([]sqlcgen.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catCalls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]sqlcgen.Category(nil), m.categories...), nil
}

func (m *memoryStore) ListQuestions(ctx context.Context) ([]sqlcgen.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(sqlcgen.Question) bool { return true }), nil
}

func (m *memoryStore) ListQuestionsByCategory(ctx context.Context, category int32) ([]sqlcgen.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(q sqlcgen.Question) bool { return q.Category == category }), nil
}

// SearchQuestions receives the escaped pattern; unescape it for a plain substring check.
func (m *memoryStore) SearchQuestions(ctx context.Context, term string) ([]sqlcgen.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	plain := strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`).Replace(term)
	needle := strings.ToLower(plain)
	return m.sorted(func(q sqlcgen.Question) bool {
		return strings.Contains(strings.ToLower(q.Question), needle)
	}), nil
}

func (m *memoryStore) GetQuestion(ctx context.Context, id int32) (sqlcgen.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sqlcgen.Question{}, m.err
	}
	q, ok := m.questions[id]
	if !ok {
		return sqlcgen.Question{}, pgx.ErrNoRows
	}
	return q, nil
}

func (m *memoryStore) InsertQuestion(ctx context.Context, arg sqlcgen.InsertQuestionParams) (sqlcgen.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sqlcgen.Question{}, m.err
	}
	if !arg.Question.Valid || !arg.Answer.Valid || !arg.Category.Valid || !arg.Difficulty.Valid {
		return sqlcgen.Question{}, &pgconn.PgError{Code: "23502", Message: "null value violates not-null constraint"}
	}
	known := false
	for _, c := range m.categories {
		if c.ID == arg.Category.Int32 {
			known = true
		}
	}
	if !known {
		return sqlcgen.Question{}, &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
	}
	q := sqlcgen.Question{
		ID:         m.nextID,
		Question:   arg.Question.String,
		Answer:     arg.Answer.String,
		Category:   arg.Category.Int32,
		Difficulty: arg.Difficulty.Int16,
	}
	m.nextID++
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) DeleteQuestion(ctx context.Context, id int32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.questions[id]; !ok {
		return 0, nil
	}
	delete(m.questions, id)
	return 1, nil
}

func (m *memoryStore) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memoryStore) categoryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catCalls
}

type memoryCache struct {
	stored Categories
	sets   int
}

func (c *memoryCache) Get(context.Context) (Categories, error) {
	return c.stored, nil
}

func (c *memoryCache) Set(_ context.Context, categories Categories) error {
	c.stored = categories
	c.sets++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func newTestService(store *memoryStore, cache CategoryCache, events EventPublisher, opts ServiceOptions) *Service {
	return NewService(
		repository.NewQuestionRepository(store),
		repository.NewCategoryRepository(store),
		cache,
		events,
		opts,
		zerolog.New(io.Discard),
	)
}

// seed adds n Science questions plus one Art question and one Geography question.
func seed(store *memoryStore, n int) {
	for i := 0; i < n; i++ {
		store.add("Science question "+string(rune('A'+i%26)), "answer", 1, 1)
	}
	store.add("Who painted the Mona Lisa?", "Leonardo da Vinci", 2, 3)
	store.add("What is the capital of Peru?", "Lima", 3, 2)
}

func strPtr(s string) *string { return &s }

func flex(n int) *FlexInt {
	f := FlexInt(n)
	return &f
}
