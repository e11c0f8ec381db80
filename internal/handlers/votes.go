package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// VoteHandler handles votes on questions and answers
type VoteHandler struct {
	votes     database.VoteStore
	questions database.QuestionStore
	answers   database.AnswerStore
	notify    notifier
	logger    *zap.Logger
}

// NewVoteHandler creates a new vote handler. notifications may be nil.
func NewVoteHandler(votes database.VoteStore, questions database.QuestionStore, answers database.AnswerStore, notifications database.NotificationStore, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		votes:     votes,
		questions: questions,
		answers:   answers,
		notify:    notifier{store: notifications, logger: logger},
		logger:    logger,
	}
}

// RegisterRoutes registers vote routes on the API router
func (h *VoteHandler) RegisterRoutes(r *mux.Router, g Guards) {
	r.Handle("/questions/{id}/votes", g.optional(h.GetQuestionVotes)).Methods("GET")
	r.Handle("/questions/{id}/votes", g.required(h.CastQuestionVote)).Methods("POST")
	r.Handle("/answers/{id}/votes", g.optional(h.GetAnswerVotes)).Methods("GET")
	r.Handle("/answers/{id}/votes", g.required(h.CastAnswerVote)).Methods("POST")
	r.Handle("/votes/summary", g.optional(h.Summaries)).Methods("POST")
}

// CastVoteRequest represents a vote request
type CastVoteRequest struct {
	VoteType models.VoteType `json:"vote_type" validate:"required,vote_type"`
}

// VoteSummariesRequest asks for the tallies of up to 100 questions
type VoteSummariesRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" validate:"max=100"`
}

// voteSubject is what a vote lands on: its author, the question it belongs
// to and a title for the notification.
type voteSubject struct {
	author     uuid.UUID
	questionID uuid.UUID
	answerID   *uuid.UUID
	title      string
}

// GetQuestionVotes returns the tally for a question
func (h *VoteHandler) GetQuestionVotes(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, models.QuestionTarget)
}

// GetAnswerVotes returns the tally for an answer
func (h *VoteHandler) GetAnswerVotes(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, models.AnswerTarget)
}

func (h *VoteHandler) summary(w http.ResponseWriter, r *http.Request, target func(uuid.UUID) models.VoteTarget) {
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid ID")
		return
	}
	s, err := h.votes.Summary(r.Context(), target(id), request.UserID(r))
	if err != nil {
		h.logger.Error("vote_summary_failed",
			zap.String("target_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve votes")
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// CastQuestionVote casts, switches or removes the caller's vote on a question
func (h *VoteHandler) CastQuestionVote(w http.ResponseWriter, r *http.Request) {
	h.cast(w, r, models.QuestionTarget, func(r *http.Request, id uuid.UUID) (*voteSubject, error) {
		q, err := h.questions.GetByID(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return &voteSubject{author: q.AuthorID, questionID: q.ID, title: q.Title}, nil
	})
}

// CastAnswerVote casts, switches or removes the caller's vote on an answer
func (h *VoteHandler) CastAnswerVote(w http.ResponseWriter, r *http.Request) {
	h.cast(w, r, models.AnswerTarget, func(r *http.Request, id uuid.UUID) (*voteSubject, error) {
		a, err := h.answers.GetByID(r.Context(), id)
		if err != nil {
			return nil, err
		}
		subject := &voteSubject{author: a.AuthorID, questionID: a.QuestionID, answerID: &a.ID}
		if q, err := h.questions.GetByID(r.Context(), a.QuestionID); err == nil {
			subject.title = q.Title
		}
		return subject, nil
	})
}

func (h *VoteHandler) cast(w http.ResponseWriter, r *http.Request, target func(uuid.UUID) models.VoteTarget, lookup func(*http.Request, uuid.UUID) (*voteSubject, error)) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid ID")
		return
	}

	var req CastVoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	subject, err := lookup(r, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Vote target not found")
		return
	}
	if err != nil {
		h.logger.Error("vote_target_lookup_failed",
			zap.String("target_id", id.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record vote")
		return
	}

	result, err := h.votes.Cast(ctx, user.ID, target(id), req.VoteType)
	if err != nil {
		h.logger.Error("vote_cast_failed",
			zap.String("target_id", id.String()),
			zap.String("user_id", user.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(ctx)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record vote")
		return
	}

	if result.Action == models.VoteInserted || result.Action == models.VoteSwitched {
		h.notify.send(ctx, voteNotification(subject.author, req.VoteType, subject.questionID, subject.answerID, subject.title, user))
	}

	respondJSON(w, http.StatusOK, result)
}

// Summaries returns vote tallies for a batch of questions, keyed by question id
func (h *VoteHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	var req VoteSummariesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	out, err := h.votes.SummariesForQuestions(r.Context(), req.QuestionIDs, request.UserID(r))
	if err != nil {
		h.logger.Error("vote_summaries_failed",
			zap.Int("count", len(req.QuestionIDs)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve votes")
		return
	}
	respondJSON(w, http.StatusOK, out)
}
