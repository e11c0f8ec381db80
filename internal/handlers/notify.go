package handlers

import (
	"context"
	"fmt"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTitleInMessage = 80

// notifier stores notifications for content authors. Failures are logged
// and never fail the request that triggered them.
type notifier struct {
	store  database.NotificationStore
	logger *zap.Logger
}

func (n notifier) send(ctx context.Context, note *models.Notification) {
	if n.store == nil {
		return
	}
	if note.TriggeredBy != nil && *note.TriggeredBy == note.UserID {
		return
	}
	if err := n.store.Create(ctx, note); err != nil {
		n.logger.Warn("notification_create_failed",
			zap.String("type", string(note.Type)),
			zap.String("user_id", note.UserID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}

// answerNotification tells the question author about a new answer.
func answerNotification(q *models.Question, a *models.Answer, by *models.Profile) *models.Notification {
	return &models.Notification{
		UserID:      q.AuthorID,
		Type:        models.NotificationAnswer,
		Title:       "New answer",
		Message:     fmt.Sprintf("%s answered your question %q", by.Username, shorten(q.Title)),
		Data:        map[string]any{"question_title": q.Title},
		QuestionID:  &q.ID,
		AnswerID:    &a.ID,
		TriggeredBy: &by.ID,
	}
}

// voteNotification tells a question or answer author about a vote.
// questionID is always set; answerID only for answer votes.
func voteNotification(author uuid.UUID, voteType models.VoteType, questionID uuid.UUID, answerID *uuid.UUID, subject string, by *models.Profile) *models.Notification {
	typ := models.NotificationUpvote
	verb := "upvoted"
	if voteType == models.VoteDown {
		typ = models.NotificationDownvote
		verb = "downvoted"
	}
	what := "question"
	if answerID != nil {
		what = "answer to"
	}
	return &models.Notification{
		UserID:      author,
		Type:        typ,
		Title:       fmt.Sprintf("New %s", typ),
		Message:     fmt.Sprintf("%s %s your %s %q", by.Username, verb, what, shorten(subject)),
		Data:        map[string]any{"vote_type": string(voteType)},
		QuestionID:  &questionID,
		AnswerID:    answerID,
		TriggeredBy: &by.ID,
	}
}

func shorten(s string) string {
	return logpkg.SanitizeString(s, maxTitleInMessage)
}
