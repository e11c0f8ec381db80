package models

import (
	"errors"

	"github.com/google/uuid"
)

// VoteType is the direction of a vote
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is a known vote direction.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// VoteAction describes what casting a vote did.
type VoteAction string

const (
	VoteInserted VoteAction = "inserted"
	VoteSwitched VoteAction = "switched"
	VoteRemoved  VoteAction = "removed"
)

// VoteTarget points at exactly one of a question or an answer.
type VoteTarget struct {
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	AnswerID   *uuid.UUID `json:"answer_id,omitempty"`
}

var ErrInvalidVoteTarget = errors.New("vote target must name exactly one of question or answer")

// QuestionTarget returns a target for a question.
func QuestionTarget(id uuid.UUID) VoteTarget {
	return VoteTarget{QuestionID: &id}
}

// AnswerTarget returns a target for an answer.
func AnswerTarget(id uuid.UUID) VoteTarget {
	return VoteTarget{AnswerID: &id}
}

func (t VoteTarget) Validate() error {
	if (t.QuestionID == nil) == (t.AnswerID == nil) {
		return ErrInvalidVoteTarget
	}
	return nil
}

// ID returns whichever id is set.
func (t VoteTarget) ID() uuid.UUID {
	if t.QuestionID != nil {
		return *t.QuestionID
	}
	if t.AnswerID != nil {
		return *t.AnswerID
	}
	return uuid.Nil
}

// VoteSummary is the tally for one target plus the caller's own vote.
type VoteSummary struct {
	TargetID  uuid.UUID `json:"target_id"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	UserVote  *VoteType `json:"user_vote"`
}

// Score is upvotes minus downvotes.
func (s VoteSummary) Score() int {
	return s.Upvotes - s.Downvotes
}

// VoteResult is returned after casting a vote.
type VoteResult struct {
	Action  VoteAction  `json:"action"`
	Summary VoteSummary `json:"summary"`
}
