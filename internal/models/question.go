package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a user-posted question.
// VoteCount is upvotes minus downvotes.
type Question struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorName  string    `json:"author_name,omitempty"`
	VoteCount   int       `json:"vote_count"`
	AnswerCount int       `json:"answer_count"`
}

// QuestionFilter narrows a question listing. Tags must all be present.
type QuestionFilter struct {
	Search   string `validate:"max=200"`
	Tags     []string
	Page     int
	PageSize int
}

// Answer is a reply to a question.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AuthorName string    `json:"author_name,omitempty"`
	VoteCount  int       `json:"vote_count"`
}

// QuestionDetail is a question together with its answers and the vote
// tally of the question.
type QuestionDetail struct {
	Question *Question    `json:"question"`
	Answers  []*Answer    `json:"answers"`
	Votes    *VoteSummary `json:"votes,omitempty"`
}
