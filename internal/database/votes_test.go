package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func TestVoteRepository_Cast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		existing   string // "" means no vote yet
		cast       models.VoteType
		wantAction models.VoteAction
	}{
		{name: "first vote inserts", existing: "", cast: models.VoteUp, wantAction: models.VoteInserted},
		{name: "same vote removes", existing: "up", cast: models.VoteUp, wantAction: models.VoteRemoved},
		{name: "other vote switches", existing: "down", cast: models.VoteUp, wantAction: models.VoteSwitched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			repo := NewVoteRepository(db)
			userID := uuid.New()
			questionID := uuid.New()
			voteID := uuid.New()

			mock.ExpectBegin()
			existingRows := sqlmock.NewRows([]string{"id", "vote_type"})
			if tt.existing != "" {
				existingRows.AddRow(voteID.String(), tt.existing)
			}
			mock.ExpectQuery("SELECT id, vote_type FROM votes WHERE user_id = \\$1 AND question_id = \\$2 FOR UPDATE").
				WithArgs(userID, questionID).
				WillReturnRows(existingRows)

			switch tt.wantAction {
			case models.VoteInserted:
				mock.ExpectExec("INSERT INTO votes").
					WithArgs(sqlmock.AnyArg(), userID, questionID, "up", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			case models.VoteRemoved:
				mock.ExpectExec("DELETE FROM votes").
					WithArgs(voteID).
					WillReturnResult(sqlmock.NewResult(0, 1))
			case models.VoteSwitched:
				mock.ExpectExec("UPDATE votes SET vote_type").
					WithArgs("up", voteID).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			own := any("up")
			if tt.wantAction == models.VoteRemoved {
				own = nil
			}
			mock.ExpectQuery("FROM votes").
				WithArgs(questionID, userID).
				WillReturnRows(sqlmock.NewRows([]string{"up", "down", "own"}).AddRow(4, 1, own))
			mock.ExpectCommit()

			res, err := repo.Cast(context.Background(), userID, models.QuestionTarget(questionID), tt.cast)
			if err != nil {
				t.Fatalf("Cast() error = %v", err)
			}
			if res.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", res.Action, tt.wantAction)
			}
			if res.Summary.Upvotes != 4 || res.Summary.Downvotes != 1 {
				t.Errorf("Summary = %+v", res.Summary)
			}
			if (res.Summary.UserVote == nil) != (tt.wantAction == models.VoteRemoved) {
				t.Errorf("UserVote = %v", res.Summary.UserVote)
			}
		})
	}
}

func TestVoteRepository_Cast_RollsBackOnError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewVoteRepository(db)
	answerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("AND answer_id = \\$2 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "vote_type"}))
	mock.ExpectExec("INSERT INTO votes").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	if _, err := repo.Cast(context.Background(), uuid.New(), models.AnswerTarget(answerID), models.VoteDown); err == nil {
		t.Error("expected error")
	}
}

func TestVoteRepository_Cast_RetriesConcurrentFirstVote(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewVoteRepository(db)
	userID := uuid.New()
	questionID := uuid.New()
	otherVoteID := uuid.New()

	// First attempt: no row yet, but the insert loses to a parallel request.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, vote_type FROM votes WHERE user_id = \\$1 AND question_id = \\$2 FOR UPDATE").
		WithArgs(userID, questionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vote_type"}))
	mock.ExpectExec("INSERT INTO votes").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_votes_user_question"})
	mock.ExpectRollback()

	// Second attempt sees the committed down vote and switches it.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, vote_type FROM votes WHERE user_id = \\$1 AND question_id = \\$2 FOR UPDATE").
		WithArgs(userID, questionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vote_type"}).AddRow(otherVoteID.String(), "down"))
	mock.ExpectExec("UPDATE votes SET vote_type").
		WithArgs("up", otherVoteID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM votes").
		WithArgs(questionID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"up", "down", "own"}).AddRow(1, 0, "up"))
	mock.ExpectCommit()

	res, err := repo.Cast(context.Background(), userID, models.QuestionTarget(questionID), models.VoteUp)
	if err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if res.Action != models.VoteSwitched {
		t.Errorf("Action = %q, want %q", res.Action, models.VoteSwitched)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestVoteRepository_Cast_GivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewVoteRepository(db)

	for i := 0; i < castAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id", "vote_type"}))
		mock.ExpectExec("INSERT INTO votes").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()
	}

	_, err := repo.Cast(context.Background(), uuid.New(), models.QuestionTarget(uuid.New()), models.VoteUp)
	if !isUniqueViolation(err) {
		t.Errorf("Cast() error = %v, want unique violation", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "other pq code", err: &pq.Error{Code: "23503"}, want: false},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped", err: fmt.Errorf("failed to insert vote: %w", &pq.Error{Code: "23505"}), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoteRepository_Cast_RejectsBadInput(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	repo := NewVoteRepository(db)

	if _, err := repo.Cast(context.Background(), uuid.New(), models.VoteTarget{}, models.VoteUp); !errors.Is(err, models.ErrInvalidVoteTarget) {
		t.Errorf("error = %v, want ErrInvalidVoteTarget", err)
	}
	if _, err := repo.Cast(context.Background(), uuid.New(), models.QuestionTarget(uuid.New()), "meh"); err == nil {
		t.Error("expected error for invalid vote type")
	}
}

func TestVoteRepository_SummariesForQuestions(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewVoteRepository(db)
	voted := uuid.New()
	quiet := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("GROUP BY question_id").
		WithArgs(sqlmock.AnyArg(), userID).
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "up", "down", "own"}).
			AddRow(voted.String(), 2, 1, "down"))

	got, err := repo.SummariesForQuestions(context.Background(), []uuid.UUID{voted, quiet}, &userID)
	if err != nil {
		t.Fatalf("SummariesForQuestions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if s := got[voted]; s.Score() != 1 || s.UserVote == nil || *s.UserVote != models.VoteDown {
		t.Errorf("voted = %+v", s)
	}
	if s := got[quiet]; s.TargetID != quiet || s.Upvotes != 0 || s.UserVote != nil {
		t.Errorf("quiet = %+v", s)
	}
}

func TestVoteRepository_SummariesForQuestions_Empty(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	got, err := NewVoteRepository(db).SummariesForQuestions(context.Background(), nil, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestVoteRepository_Summary_Anonymous(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewVoteRepository(db)
	id := uuid.New()

	mock.ExpectQuery("WHERE question_id = \\$1").
		WithArgs(id, uuid.Nil).
		WillReturnRows(sqlmock.NewRows([]string{"up", "down", "own"}).AddRow(0, 3, nil))

	s, err := repo.Summary(context.Background(), models.QuestionTarget(id), nil)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Score() != -3 || s.UserVote != nil {
		t.Errorf("Summary = %+v", s)
	}
}
