package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationUpvote   NotificationType = "upvote"
	NotificationDownvote NotificationType = "downvote"
	NotificationAnswer   NotificationType = "answer"
	NotificationComment  NotificationType = "comment"
	NotificationMention  NotificationType = "mention"
)

// DefaultNotificationLimit is the page size when none is given.
const DefaultNotificationLimit = 20

// Notification is a stored message for a user about activity on their content.
type Notification struct {
	ID                 uuid.UUID        `json:"id"`
	UserID             uuid.UUID        `json:"user_id"`
	Type               NotificationType `json:"type"`
	Title              string           `json:"title"`
	Message            string           `json:"message"`
	Data               map[string]any   `json:"data,omitempty"`
	QuestionID         *uuid.UUID       `json:"question_id,omitempty"`
	AnswerID           *uuid.UUID       `json:"answer_id,omitempty"`
	TriggeredBy        *uuid.UUID       `json:"triggered_by,omitempty"`
	IsRead             bool             `json:"is_read"`
	CreatedAt          time.Time        `json:"created_at"`
	TriggeredByProfile *Profile         `json:"triggered_by_profile,omitempty"`
}

// Profile is the public face of a user.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
