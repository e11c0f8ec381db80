package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
)

const answerColumns = `
	a.id, a.question_id, a.author_id, a.content, a.created_at, a.updated_at,
	COALESCE(p.username, ''),
	COALESCE((SELECT SUM(CASE WHEN v.vote_type = 'up' THEN 1 ELSE -1 END) FROM votes v WHERE v.answer_id = a.id), 0)`

// AnswerRepository handles answer database operations
type AnswerRepository struct {
	db *DB
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Create inserts an answer
func (r *AnswerRepository) Create(ctx context.Context, a *models.Answer) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO answers (id, question_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, a.ID, a.QuestionID, a.AuthorID, a.Content, now, now).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

// GetByID retrieves an answer by ID
func (r *AnswerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+answerColumns+`
		FROM answers a
		LEFT JOIN profiles p ON p.id = a.author_id
		WHERE a.id = $1
	`, id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

// ListByQuestion returns a question's answers, oldest first.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+answerColumns+`
		FROM answers a
		LEFT JOIN profiles p ON p.id = a.author_id
		WHERE a.question_id = $1
		ORDER BY a.created_at ASC
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	answers := []*models.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}
	return answers, nil
}

func scanAnswer(s rowScanner) (*models.Answer, error) {
	a := &models.Answer{}
	err := s.Scan(
		&a.ID,
		&a.QuestionID,
		&a.AuthorID,
		&a.Content,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.AuthorName,
		&a.VoteCount,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
