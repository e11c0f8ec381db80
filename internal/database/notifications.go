package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
)

const maxNotificationLimit = 100

// NotificationRepository handles notification database operations.
// Every read and write is scoped to the owning user.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, data, question_id, answer_id, triggered_by, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
		RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, dataJSON,
		nullUUID(n.QuestionID), nullUUID(n.AnswerID), nullUUID(n.TriggeredBy), time.Now(),
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns the newest notifications for userID with the triggering
// profile attached. A non-positive limit means DefaultNotificationLimit.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = models.DefaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.user_id, n.type, n.title, n.message, n.data, n.question_id, n.answer_id,
			n.triggered_by, n.is_read, n.created_at,
			p.id, p.username, p.email, p.avatar_url
		FROM notifications n
		LEFT JOIN profiles p ON p.id = n.triggered_by
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*models.Notification{}
	for rows.Next() {
		n := &models.Notification{}
		var dataJSON []byte
		var questionID, answerID, triggeredBy uuid.NullUUID
		var profileID uuid.NullUUID
		var username, email, avatar sql.NullString
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &dataJSON,
			&questionID, &answerID, &triggeredBy, &n.IsRead, &n.CreatedAt,
			&profileID, &username, &email, &avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		n.QuestionID = uuidPtr(questionID)
		n.AnswerID = uuidPtr(answerID)
		n.TriggeredBy = uuidPtr(triggeredBy)
		if profileID.Valid {
			n.TriggeredByProfile = &models.Profile{
				ID:       profileID.UUID,
				Username: username.String,
				Email:    email.String,
			}
			if avatar.Valid {
				n.TriggeredByProfile.AvatarURL = &avatar.String
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

// UnreadCount returns how many of userID's notifications are unread.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireAffected(res, "notification", id)
}

// MarkAllRead marks every unread notification of userID read and returns how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Delete removes one notification.
func (r *NotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return requireAffected(res, "notification", id)
}

func requireAffected(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
