package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	sqlcgen "github.com/gokatarajesh/trivia-api/internal/db/sqlc"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) ListQuestions(ctx context.Context) ([]sqlcgen.Question, error) {
	args := m.Called(ctx)
	return args.Get(0).([]sqlcgen.Question), args.Error(1)
}

func (m *mockQuestionStore) ListQuestionsByCategory(ctx context.Context, category int32) ([]sqlcgen.Question, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]sqlcgen.Question), args.Error(1)
}

func (m *mockQuestionStore) SearchQuestions(ctx context.Context, term string) ([]sqlcgen.Question, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]sqlcgen.Question), args.Error(1)
}

func (m *mockQuestionStore) GetQuestion(ctx context.Context, id int32) (sqlcgen.Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(sqlcgen.Question), args.Error(1)
}

func (m *mockQuestionStore) InsertQuestion(ctx context.Context, arg sqlcgen.InsertQuestionParams) (sqlcgen.Question, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(sqlcgen.Question), args.Error(1)
}

func (m *mockQuestionStore) DeleteQuestion(ctx context.Context, id int32) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func TestQuestionRepository_List(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	expect := []sqlcgen.Question{question(1, "a", 1), question(2, "b", 2)}
	store.On("ListQuestions", mock.Anything).Return(expect, nil)
	store.On("ListQuestionsByCategory", mock.Anything, int32(2)).Return(expect[1:], nil)

	got, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, expect, got)

	got, err = repo.ListByCategory(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, expect[1:], got)
	store.AssertExpectations(t)
}

func TestQuestionRepository_SearchEscapesLikeMetacharacters(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	store.On("SearchQuestions", mock.Anything, `100\% \_done\\`).Return([]sqlcgen.Question{}, nil)

	_, err := repo.Search(context.Background(), `100% _done\`)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestQuestionRepository_GetMapsNoRows(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	store.On("GetQuestion", mock.Anything, int32(7)).Return(sqlcgen.Question{}, pgx.ErrNoRows)
	store.On("GetQuestion", mock.Anything, int32(8)).Return(question(8, "c", 3), nil)

	_, err := repo.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.Get(context.Background(), 8)
	assert.NoError(t, err)
	assert.Equal(t, int32(8), got.ID)
}

func TestQuestionRepository_Insert(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	params := sqlcgen.InsertQuestionParams{
		Question:   pgtype.Text{String: "q", Valid: true},
		Answer:     pgtype.Text{String: "a", Valid: true},
		Category:   pgtype.Int4{Int32: 1, Valid: true},
		Difficulty: pgtype.Int2{Int16: 2, Valid: true},
	}
	expect := sqlcgen.Question{ID: 11, Question: "q", Answer: "a", Category: 1, Difficulty: 2}
	store.On("InsertQuestion", mock.Anything, params).Return(expect, nil)

	got, err := repo.Insert(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestQuestionRepository_Delete(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	boom := errors.New("conn reset")
	store.On("DeleteQuestion", mock.Anything, int32(1)).Return(int64(1), nil)
	store.On("DeleteQuestion", mock.Anything, int32(2)).Return(int64(0), nil)
	store.On("DeleteQuestion", mock.Anything, int32(3)).Return(int64(0), boom)

	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), boom)
}

func TestIsIntegrityViolation(t *testing.T) {
	assert.True(t, IsIntegrityViolation(&pgconn.PgError{Code: "23502"}))
	assert.True(t, IsIntegrityViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsIntegrityViolation(&pgconn.PgError{Code: "22003"}))
	assert.False(t, IsIntegrityViolation(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsIntegrityViolation(errors.New("plain")))
	assert.False(t, IsIntegrityViolation(nil))
}
