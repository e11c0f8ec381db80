package database

import (
	"context"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/tags"
	"github.com/google/uuid"
)

// QuestionStore is the question persistence used by handlers.
type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	List(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error)
}

// TagSource feeds stored question tags into the analytics engine.
type TagSource interface {
	TaggedSince(ctx context.Context, since time.Time) ([]tags.TaggedItem, error)
	AllTags(ctx context.Context) ([]string, error)
}

type AnswerStore interface {
	Create(ctx context.Context, a *models.Answer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Answer, error)
}

type VoteStore interface {
	Cast(ctx context.Context, userID uuid.UUID, target models.VoteTarget, voteType models.VoteType) (*models.VoteResult, error)
	Summary(ctx context.Context, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error)
	SummariesForQuestions(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
}

// Ensure concrete types implement the interfaces
var (
	_ QuestionStore     = (*QuestionRepository)(nil)
	_ TagSource         = (*QuestionRepository)(nil)
	_ AnswerStore       = (*AnswerRepository)(nil)
	_ VoteStore         = (*VoteRepository)(nil)
	_ NotificationStore = (*NotificationRepository)(nil)
	_ ProfileStore      = (*ProfileRepository)(nil)
)
