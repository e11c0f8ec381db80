package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestVoteTarget_Validate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		target  VoteTarget
		wantErr bool
	}{
		{name: "question", target: QuestionTarget(id)},
		{name: "answer", target: AnswerTarget(id)},
		{name: "neither", target: VoteTarget{}, wantErr: true},
		{name: "both", target: VoteTarget{QuestionID: &id, AnswerID: &other}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if got := AnswerTarget(id).ID(); got != id {
		t.Errorf("ID() = %v, want %v", got, id)
	}
	if got := (VoteTarget{}).ID(); got != uuid.Nil {
		t.Errorf("ID() of empty target = %v", got)
	}
}

func TestVoteType_Valid(t *testing.T) {
	t.Parallel()

	for _, v := range []VoteType{VoteUp, VoteDown} {
		if !v.Valid() {
			t.Errorf("%q should be valid", v)
		}
	}
	if VoteType("sideways").Valid() {
		t.Error("sideways should be invalid")
	}
	if got := (VoteSummary{Upvotes: 5, Downvotes: 2}).Score(); got != 3 {
		t.Errorf("Score() = %d, want 3", got)
	}
}
