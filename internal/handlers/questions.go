package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RefreshRequester schedules a trend snapshot rebuild. *trends.Service implements it.
type RefreshRequester interface {
	RequestRefresh(ctx context.Context, reason string) error
}

// QuestionHandler handles question listing, creation and detail requests
type QuestionHandler struct {
	questions database.QuestionStore
	answers   database.AnswerStore
	votes     database.VoteStore
	refresher RefreshRequester
	logger    *zap.Logger
}

// NewQuestionHandler creates a new question handler. refresher may be nil.
func NewQuestionHandler(questions database.QuestionStore, answers database.AnswerStore, votes database.VoteStore, refresher RefreshRequester, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		answers:   answers,
		votes:     votes,
		refresher: refresher,
		logger:    logger,
	}
}

// RegisterRoutes registers question routes on the API router
func (h *QuestionHandler) RegisterRoutes(r *mux.Router, g Guards) {
	r.Handle("/questions", g.optional(h.ListQuestions)).Methods("GET")
	r.Handle("/questions", g.required(h.CreateQuestion)).Methods("POST")
	r.Handle("/questions/{id}", g.optional(h.GetQuestion)).Methods("GET")
}

// CreateQuestionRequest represents a create question request
type CreateQuestionRequest struct {
	Title   string   `json:"title" validate:"required,min=15,max=300"`
	Content string   `json:"content" validate:"required,min=30,max=30000"`
	Tags    []string `json:"tags" validate:"required,min=1,max=5,dive,tag"`
}

// ListQuestionsResponse is one page of questions with their vote tallies
type ListQuestionsResponse struct {
	Questions  []*models.Question               `json:"questions"`
	Votes      map[uuid.UUID]models.VoteSummary `json:"votes"`
	Tags       []string                         `json:"tags"`
	Search     string                           `json:"search,omitempty"`
	Page       int                              `json:"page"`
	PageSize   int                              `json:"page_size"`
	Total      int                              `json:"total"`
	TotalPages int                              `json:"total_pages"`
}

// ListQuestions lists questions newest first, filtered by ?search= and ?tags=a,b
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", database.DefaultPageSize)
	if pageSize > database.MaxPageSize {
		pageSize = database.MaxPageSize
	}
	filter := models.QuestionFilter{
		Search:   validation.SanitizeText(q.Get("search")),
		Tags:     tags.ParseFilter(q.Get("tags")),
		Page:     page,
		PageSize: pageSize,
	}
	if err := validation.Validate.Struct(filter); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FirstError(err))
		return
	}

	questions, total, err := h.questions.List(ctx, filter)
	if err != nil {
		h.logger.Error("question_list_failed",
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("search", logpkg.SanitizeQuery(filter.Search)),
			zap.String("request_id", request.RequestID(ctx)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve questions")
		return
	}

	ids := make([]uuid.UUID, len(questions))
	for i, question := range questions {
		ids[i] = question.ID
	}
	votes, err := h.votes.SummariesForQuestions(ctx, ids, request.UserID(r))
	if err != nil {
		h.logger.Warn("vote_summaries_unavailable", zap.String("error", logpkg.SanitizeError(err)))
		votes = map[uuid.UUID]models.VoteSummary{}
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	respondJSON(w, http.StatusOK, ListQuestionsResponse{
		Questions:  questions,
		Votes:      votes,
		Tags:       filter.Tags,
		Search:     filter.Search,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// CreateQuestion posts a new question and schedules a trend refresh
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	req.Content = validation.SanitizeText(req.Content)
	req.Tags = tags.NormalizeAll(req.Tags)
	if !validateStruct(w, &req) {
		return
	}

	ctx := r.Context()
	question := &models.Question{
		AuthorID:   user.ID,
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		AuthorName: user.Username,
	}
	if err := h.questions.Create(ctx, question); err != nil {
		h.logger.Error("question_create_failed",
			zap.String("user_id", user.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(ctx)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create question")
		return
	}

	h.logger.Info("question_created",
		zap.String("question_id", question.ID.String()),
		zap.Strings("tags", logpkg.SanitizeTags(question.Tags)),
	)

	if h.refresher != nil {
		if err := h.refresher.RequestRefresh(ctx, "question_created"); err != nil {
			h.logger.Warn("trend_refresh_request_failed",
				zap.String("question_id", question.ID.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	respondJSON(w, http.StatusCreated, question)
}

// GetQuestion returns a question with its answers and vote tally
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid question ID")
		return
	}

	ctx := r.Context()
	question, err := h.questions.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Question not found")
		return
	}
	if err != nil {
		h.logger.Error("question_get_failed",
			zap.String("question_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve question")
		return
	}

	answers, err := h.answers.ListByQuestion(ctx, id)
	if err != nil {
		h.logger.Error("answer_list_failed",
			zap.String("question_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve answers")
		return
	}

	detail := models.QuestionDetail{Question: question, Answers: answers}
	summary, err := h.votes.Summary(ctx, models.QuestionTarget(id), request.UserID(r))
	if err != nil {
		h.logger.Warn("vote_summary_unavailable",
			zap.String("question_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	} else {
		detail.Votes = summary
	}

	respondJSON(w, http.StatusOK, detail)
}
