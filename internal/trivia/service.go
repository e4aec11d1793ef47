package trivia

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/trivia-api/internal/db/sqlc"
)

// ServiceOptions tunes pagination and quiz selection.
type ServiceOptions struct {
	PageSize int
	// Selector defaults to SelectFirstUnseen.
	Selector SelectFunc
}

// Service implements category listing, question CRUD, search and quiz selection.
type Service struct {
	questions  *repository.QuestionRepository
	categories *repository.CategoryRepository
	cache      CategoryCache
	events     EventPublisher
	validate   *validator.Validate
	pageSize   int
	selectNext SelectFunc
	logger     zerolog.Logger
}

// NewService wires a Service. cache and events may be nil.
func NewService(questions *repository.QuestionRepository, categories *repository.CategoryRepository, cache CategoryCache, events EventPublisher, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Selector == nil {
		opts.Selector = SelectFirstUnseen
	}
	return &Service{
		questions:  questions,
		categories: categories,
		cache:      cache,
		events:     events,
		validate:   validator.New(),
		pageSize:   opts.PageSize,
		selectNext: opts.Selector,
		logger:     logger.With().Str("component", "trivia_service").Logger(),
	}
}

// ListCategories returns every category ordered by id.
func (s *Service) ListCategories(ctx context.Context) (Categories, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("category cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, storage("list categories", err)
	}
	categories := make(Categories, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, Category{ID: int(row.ID), Type: row.Type})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categories); err != nil {
			s.logger.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return categories, nil
}

// ListQuestions returns one page of all questions plus the unpaginated total
// and the category mapping. An empty page is ErrNotFound.
func (s *Service) ListQuestions(ctx context.Context, page int) (QuestionPage, error) {
	rows, err := s.questions.List(ctx)
	if err != nil {
		return QuestionPage{}, storage("list questions", err)
	}
	all := toQuestions(rows)
	current := Paginate(all, page, s.pageSize)
	if len(current) == 0 {
		return QuestionPage{}, notFound("list questions", fmt.Errorf("page %d is empty", page))
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return QuestionPage{}, err
	}
	return QuestionPage{
		Questions:  current,
		Total:      len(all),
		Categories: categories,
	}, nil
}

// DeleteQuestion removes a question and returns the requested page of what remains.
func (s *Service) DeleteQuestion(ctx context.Context, id, page int) (DeleteResult, error) {
	const op = "delete question"

	if !fitsInt32(id) {
		return DeleteResult{}, notFound(op, fmt.Errorf("question %d", id))
	}
	if _, err := s.questions.Get(ctx, int32(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DeleteResult{}, notFound(op, fmt.Errorf("question %d", id))
		}
		return DeleteResult{}, storage(op, err)
	}
	if err := s.questions.Delete(ctx, int32(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DeleteResult{}, notFound(op, fmt.Errorf("question %d", id))
		}
		return DeleteResult{}, storage(op, err)
	}
	questionMutations.WithLabelValues("delete").Inc()
	s.publish(ctx, Event{Type: EventQuestionDeleted, QuestionID: id})

	rows, err := s.questions.List(ctx)
	if err != nil {
		return DeleteResult{}, storage(op, err)
	}
	current := Paginate(toQuestions(rows), page, s.pageSize)
	return DeleteResult{
		Deleted:   id,
		Questions: current,
		Total:     len(current),
	}, nil
}

// CreateQuestion inserts a question and returns its id. Rejections by the
// store's integrity rules are ErrValidation; anything else is ErrStorage.
func (s *Service) CreateQuestion(ctx context.Context, in NewQuestion) (int, error) {
	const op = "create question"

	if in.Category != nil && !fitsInt32(int(*in.Category)) {
		return 0, invalid(op, fmt.Errorf("category %d out of range", *in.Category))
	}
	if in.Difficulty != nil && !fitsInt16(int(*in.Difficulty)) {
		return 0, invalid(op, fmt.Errorf("difficulty %d out of range", *in.Difficulty))
	}

	params := sqlcgen.InsertQuestionParams{}
	if in.Question != nil {
		params.Question = pgtype.Text{String: *in.Question, Valid: true}
	}
	if in.Answer != nil {
		params.Answer = pgtype.Text{String: *in.Answer, Valid: true}
	}
	if in.Category != nil {
		params.Category = pgtype.Int4{Int32: int32(*in.Category), Valid: true}
	}
	if in.Difficulty != nil {
		params.Difficulty = pgtype.Int2{Int16: int16(*in.Difficulty), Valid: true}
	}

	row, err := s.questions.Insert(ctx, params)
	if err != nil {
		if repository.IsIntegrityViolation(err) {
			return 0, invalid(op, err)
		}
		return 0, storage(op, err)
	}

	created := toQuestion(row)
	questionMutations.WithLabelValues("create").Inc()
	s.publish(ctx, Event{Type: EventQuestionCreated, QuestionID: created.ID, Question: &created})
	return created.ID, nil
}

// SearchQuestions matches term case-insensitively anywhere in the question
// text. An empty term matches everything; no matches is not an error.
func (s *Service) SearchQuestions(ctx context.Context, term string, page int) (SearchResult, error) {
	rows, err := s.questions.Search(ctx, term)
	if err != nil {
		return SearchResult{}, storage("search questions", err)
	}
	current := Paginate(toQuestions(rows), page, s.pageSize)
	return SearchResult{Questions: current, Total: len(current)}, nil
}

// QuestionsByCategory returns one page of the category's questions. An empty
// page, including one for an unknown category, is ErrNotFound.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID, page int) ([]Question, error) {
	const op = "questions by category"

	if !fitsInt32(categoryID) {
		return nil, notFound(op, fmt.Errorf("category %d", categoryID))
	}
	rows, err := s.questions.ListByCategory(ctx, int32(categoryID))
	if err != nil {
		return nil, storage(op, err)
	}
	current := Paginate(toQuestions(rows), page, s.pageSize)
	if len(current) == 0 {
		return nil, notFound(op, fmt.Errorf("category %d page %d is empty", categoryID, page))
	}
	return current, nil
}

// NextQuizQuestion picks the next question not in req.PreviousQuestions.
// A nil question with a nil error means the quiz is exhausted.
func (s *Service) NextQuizQuestion(ctx context.Context, req QuizRequest) (*Question, error) {
	const op = "next quiz question"

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, invalid(op, err)
	}

	categoryID := int(*req.QuizCategory.ID)
	if !fitsInt32(categoryID) {
		return nil, invalid(op, fmt.Errorf("category %d out of range", categoryID))
	}
	var (
		rows []sqlcgen.Question
		err  error
	)
	if categoryID == AllCategories {
		rows, err = s.questions.List(ctx)
	} else {
		rows, err = s.questions.ListByCategory(ctx, int32(categoryID))
	}
	if err != nil {
		return nil, storage(op, err)
	}

	next, ok := s.selectNext(toQuestions(rows), servedSet(req.PreviousQuestions))
	if !ok {
		quizSelections.WithLabelValues("exhausted").Inc()
		return nil, nil
	}
	quizSelections.WithLabelValues("served").Inc()
	return &next, nil
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).
			Str("type", evt.Type).
			Int("question_id", evt.QuestionID).
			Msg("question event publish failed")
	}
}

// Ids are int32 and difficulty int16 in the store; wider values would wrap.
func fitsInt32(n int) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

func fitsInt16(n int) bool {
	return n >= math.MinInt16 && n <= math.MaxInt16
}

func toQuestion(row sqlcgen.Question) Question {
	return Question{
		ID:         int(row.ID),
		Question:   row.Question,
		Answer:     row.Answer,
		Category:   int(row.Category),
		Difficulty: int(row.Difficulty),
	}
}

func toQuestions(rows []sqlcgen.Question) []Question {
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, toQuestion(row))
	}
	return out
}
