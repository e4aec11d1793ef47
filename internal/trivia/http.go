package trivia

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

// HTTPHandlers exposes the trivia REST endpoints.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for the trivia endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "trivia_http").Logger(),
	}
}

// Register mounts every trivia route on mux. Handlers check the verb
// themselves so that a wrong verb gets the JSON 405 body.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/categories", h.Categories)
	mux.HandleFunc("/categories/{id}/questions", h.QuestionsByCategory)
	mux.HandleFunc("/questions", h.Questions)
	mux.HandleFunc("/questions/{id}", h.Question)
	mux.HandleFunc("/search", h.Search)
	mux.HandleFunc("/quizzes", h.Quizzes)
}

type categoriesResponse struct {
	Success    bool       `json:"success"`
	Categories Categories `json:"categories"`
}

type questionListResponse struct {
	Success        bool       `json:"success"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	Categories     Categories `json:"categories"`
}

type deleteResponse struct {
	Success        bool       `json:"success"`
	Deleted        int        `json:"deleted"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
}

type createResponse struct {
	Success bool `json:"success"`
	Created int  `json:"created"`
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

type searchResponse struct {
	Success         bool       `json:"success"`
	Questions       []Question `json:"questions"`
	TotalQuestions  int        `json:"total_questions"`
	CurrentCategory *int       `json:"current_category"`
}

type categoryQuestionsResponse struct {
	Success   bool       `json:"success"`
	Questions []Question `json:"questions"`
}

type quizResponse struct {
	Success  bool      `json:"success"`
	Question *Question `json:"question"`
}

// Categories handles GET /categories
func (h *HTTPHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, categoriesResponse{Success: true, Categories: categories})
}

// Questions handles GET /questions?page=N and POST /questions
func (h *HTTPHandlers) Questions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listQuestions(w, r)
	case http.MethodPost:
		h.createQuestion(w, r)
	default:
		httperrors.RespondMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *HTTPHandlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListQuestions(r.Context(), pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, questionListResponse{
		Success:        true,
		Questions:      page.Questions,
		TotalQuestions: page.Total,
		Categories:     page.Categories,
	})
}

func (h *HTTPHandlers) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req NewQuestion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("undecodable create body")
		httperrors.RespondBadRequest(w)
		return
	}

	id, err := h.service.CreateQuestion(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, createResponse{Success: true, Created: id})
}

// Question handles DELETE /questions/{id}
func (h *HTTPHandlers) Question(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httperrors.RespondMethodNotAllowed(w, http.MethodDelete)
		return
	}

	id, ok := pathID(r)
	if !ok {
		httperrors.RespondNotFound(w)
		return
	}

	result, err := h.service.DeleteQuestion(r.Context(), id, pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, deleteResponse{
		Success:        true,
		Deleted:        result.Deleted,
		Questions:      result.Questions,
		TotalQuestions: result.Total,
	})
}

// Search handles POST /search?page=N
func (h *HTTPHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("undecodable search body")
		httperrors.RespondBadRequest(w)
		return
	}

	result, err := h.service.SearchQuestions(r.Context(), req.SearchTerm, pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, searchResponse{
		Success:        true,
		Questions:      result.Questions,
		TotalQuestions: result.Total,
	})
}

// QuestionsByCategory handles GET /categories/{id}/questions?page=N
func (h *HTTPHandlers) QuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	id, ok := pathID(r)
	if !ok {
		httperrors.RespondNotFound(w)
		return
	}

	questions, err := h.service.QuestionsByCategory(r.Context(), id, pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, categoryQuestionsResponse{Success: true, Questions: questions})
}

// Quizzes handles POST /quizzes
func (h *HTTPHandlers) Quizzes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondServiceError(w, r, invalid("decode quiz request", err))
		return
	}

	question, err := h.service.NextQuizQuestion(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, quizResponse{Success: true, Question: question})
}

// respondServiceError collapses the error kinds onto 404 and 422.
func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.requestLogger(r)
	if errors.Is(err, ErrNotFound) {
		logger.Debug().Err(err).Msg("not found")
		httperrors.RespondNotFound(w)
		return
	}
	if errors.Is(err, ErrStorage) {
		logger.Error().Err(err).Msg("storage failure")
	} else {
		logger.Info().Err(err).Msg("unprocessable request")
	}
	httperrors.RespondUnprocessable(w)
}

// requestLogger prefers the request-scoped logger set by the server middleware.
func (h *HTTPHandlers) requestLogger(r *http.Request) *zerolog.Logger {
	logger := logging.FromContext(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = h.logger
	}
	return &logger
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug().Err(err).Msg("response encode failed")
	}
}

// pageParam reads ?page=, defaulting to 1 when absent or not an integer.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}
