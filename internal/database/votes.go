package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// VoteRepository handles vote database operations
type VoteRepository struct {
	db *DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// targetColumn is the votes column that references the target.
func targetColumn(t models.VoteTarget) string {
	if t.AnswerID != nil {
		return "answer_id"
	}
	return "question_id"
}

// Cast records userID's vote on target. Repeating the current vote removes it,
// a different vote replaces it, and otherwise a new vote is inserted.
func (r *VoteRepository) Cast(ctx context.Context, userID uuid.UUID, target models.VoteTarget, voteType models.VoteType) (*models.VoteResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !voteType.Valid() {
		return nil, fmt.Errorf("invalid vote type %q", voteType)
	}

	// A concurrent first vote by the same user can win the unique index; the
	// retry then sees its row and toggles or switches it.
	var result *models.VoteResult
	var err error
	for attempt := 0; attempt < castAttempts; attempt++ {
		result, err = r.cast(ctx, userID, target, voteType)
		if !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

const (
	castAttempts = 2

	uniqueViolation pq.ErrorCode = "23505"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *VoteRepository) cast(ctx context.Context, userID uuid.UUID, target models.VoteTarget, voteType models.VoteType) (*models.VoteResult, error) {
	col := targetColumn(target)
	targetID := target.ID()
	result := &models.VoteResult{}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var voteID uuid.UUID
		var existing models.VoteType
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT id, vote_type FROM votes WHERE user_id = $1 AND %s = $2 FOR UPDATE`, col),
			userID, targetID,
		).Scan(&voteID, &existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO votes (id, user_id, %s, vote_type, created_at) VALUES ($1, $2, $3, $4, $5)`, col),
				uuid.New(), userID, targetID, voteType, time.Now(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
			result.Action = models.VoteInserted
		case err != nil:
			return fmt.Errorf("failed to read vote: %w", err)
		case existing == voteType:
			if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, voteID); err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
			result.Action = models.VoteRemoved
		default:
			if _, err := tx.ExecContext(ctx, `UPDATE votes SET vote_type = $1 WHERE id = $2`, voteType, voteID); err != nil {
				return fmt.Errorf("failed to switch vote: %w", err)
			}
			result.Action = models.VoteSwitched
		}

		summary, err := summarize(ctx, tx, target, &userID)
		if err != nil {
			return err
		}
		result.Summary = *summary
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Summary returns the tally for target. userID may be nil for anonymous callers.
func (r *VoteRepository) Summary(ctx context.Context, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return summarize(ctx, r.db, target, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func summarize(ctx context.Context, q queryRower, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error) {
	caller := uuid.Nil
	if userID != nil {
		caller = *userID
	}
	s := &models.VoteSummary{TargetID: target.ID()}
	var own sql.NullString
	err := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE vote_type = 'up'),
			COUNT(*) FILTER (WHERE vote_type = 'down'),
			MAX(CASE WHEN user_id = $2 THEN vote_type END)
		FROM votes
		WHERE %s = $1
	`, targetColumn(target)), target.ID(), caller).Scan(&s.Upvotes, &s.Downvotes, &own)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize votes: %w", err)
	}
	if own.Valid {
		v := models.VoteType(own.String)
		s.UserVote = &v
	}
	return s, nil
}

// SummariesForQuestions returns one summary per question id. Questions
// without votes get a zero summary.
func (r *VoteRepository) SummariesForQuestions(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error) {
	out := make(map[uuid.UUID]models.VoteSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = models.VoteSummary{TargetID: id}
	}

	caller := uuid.Nil
	if userID != nil {
		caller = *userID
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			question_id,
			COUNT(*) FILTER (WHERE vote_type = 'up'),
			COUNT(*) FILTER (WHERE vote_type = 'down'),
			MAX(CASE WHEN user_id = $2 THEN vote_type END)
		FROM votes
		WHERE question_id = ANY($1::uuid[])
		GROUP BY question_id
	`, pq.Array(strIDs), caller)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s models.VoteSummary
		var own sql.NullString
		if err := rows.Scan(&s.TargetID, &s.Upvotes, &s.Downvotes, &own); err != nil {
			return nil, fmt.Errorf("failed to scan vote summary: %w", err)
		}
		if own.Valid {
			v := models.VoteType(own.String)
			s.UserVote = &v
		}
		out[s.TargetID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote summaries: %w", err)
	}
	return out, nil
}
