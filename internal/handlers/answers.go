package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/benvon/askdev/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AnswerHandler handles answer requests
type AnswerHandler struct {
	questions database.QuestionStore
	answers   database.AnswerStore
	notify    notifier
	logger    *zap.Logger
}

// NewAnswerHandler creates a new answer handler. notifications may be nil.
func NewAnswerHandler(questions database.QuestionStore, answers database.AnswerStore, notifications database.NotificationStore, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{
		questions: questions,
		answers:   answers,
		notify:    notifier{store: notifications, logger: logger},
		logger:    logger,
	}
}

// RegisterRoutes registers answer routes on the API router
func (h *AnswerHandler) RegisterRoutes(r *mux.Router, g Guards) {
	r.Handle("/questions/{id}/answers", g.optional(h.ListAnswers)).Methods("GET")
	r.Handle("/questions/{id}/answers", g.required(h.CreateAnswer)).Methods("POST")
}

// CreateAnswerRequest represents a create answer request
type CreateAnswerRequest struct {
	Content string `json:"content" validate:"required,max=30000"`
}

// ListAnswers returns a question's answers, oldest first
func (h *AnswerHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid question ID")
		return
	}
	answers, err := h.answers.ListByQuestion(r.Context(), id)
	if err != nil {
		h.logger.Error("answer_list_failed",
			zap.String("question_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve answers")
		return
	}
	respondJSON(w, http.StatusOK, answers)
}

// CreateAnswer posts an answer and notifies the question author
func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	questionID, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid question ID")
		return
	}

	var req CreateAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Content = validation.SanitizeText(req.Content)
	if !validateStruct(w, &req) {
		return
	}

	ctx := r.Context()
	question, err := h.questions.GetByID(ctx, questionID)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Question not found")
		return
	}
	if err != nil {
		h.logger.Error("question_get_failed",
			zap.String("question_id", questionID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve question")
		return
	}

	answer := &models.Answer{
		QuestionID: questionID,
		AuthorID:   user.ID,
		Content:    req.Content,
		AuthorName: user.Username,
	}
	if err := h.answers.Create(ctx, answer); err != nil {
		h.logger.Error("answer_create_failed",
			zap.String("question_id", questionID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(ctx)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create answer")
		return
	}

	h.notify.send(ctx, answerNotification(question, answer, user))
	respondJSON(w, http.StatusCreated, answer)
}
