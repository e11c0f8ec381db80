package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/tags"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// questionColumns selects a question with its author name, score and answer count.
const questionColumns = `
	q.id, q.author_id, q.title, q.content, q.tags, q.created_at, q.updated_at,
	COALESCE(p.username, ''),
	COALESCE((SELECT SUM(CASE WHEN v.vote_type = 'up' THEN 1 ELSE -1 END) FROM votes v WHERE v.question_id = q.id), 0),
	(SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id)`

// QuestionRepository handles question database operations
type QuestionRepository struct {
	db *DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Create inserts a question. Tags are stored as given; callers normalize them.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO questions (id, author_id, title, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, q.ID, q.AuthorID, q.Title, q.Content, pq.Array(q.Tags), now, now).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetByID retrieves a question by ID
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions q
		LEFT JOIN profiles p ON p.id = q.author_id
		WHERE q.id = $1
	`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// List returns one page of questions, newest first, plus the total match count.
// Search matches the title or any tag, case-insensitively; every filter tag must be present.
func (r *QuestionRepository) List(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
	page, pageSize := normalizePage(f.Page, f.PageSize)

	var where []string
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(q.title ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(q.tags) t WHERE t ILIKE $%d))", n, n))
	}
	if len(f.Tags) > 0 {
		args = append(args, pq.Array(f.Tags))
		where = append(where, fmt.Sprintf("q.tags @> $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions q"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query := `SELECT ` + questionColumns + `
		FROM questions q
		LEFT JOIN profiles p ON p.id = q.author_id` + clause +
		fmt.Sprintf(" ORDER BY q.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	questions := []*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, total, nil
}

// TaggedSince returns the tags and creation time of questions created at or
// after since. Questions with NULL tags are left out.
func (r *QuestionRepository) TaggedSince(ctx context.Context, since time.Time) ([]tags.TaggedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tags, created_at
		FROM questions
		WHERE created_at >= $1 AND tags IS NOT NULL
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query tagged questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []tags.TaggedItem{}
	for rows.Next() {
		var arr pq.StringArray
		var createdAt time.Time
		if err := rows.Scan(&arr, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan tagged question: %w", err)
		}
		if arr == nil {
			continue
		}
		items = append(items, tags.TaggedItem{Tags: []string(arr), CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tagged questions: %w", err)
	}
	return items, nil
}

// AllTags returns every tag in use, ordered by first use.
func (r *QuestionRepository) AllTags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.tag
		FROM questions q, unnest(q.tags) AS t(tag)
		WHERE t.tag <> ''
		GROUP BY t.tag
		ORDER BY MIN(q.created_at), t.tag
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(s rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var arr pq.StringArray
	if err := s.Scan(
		&q.ID,
		&q.AuthorID,
		&q.Title,
		&q.Content,
		&arr,
		&q.CreatedAt,
		&q.UpdatedAt,
		&q.AuthorName,
		&q.VoteCount,
		&q.AnswerCount,
	); err != nil {
		return nil, err
	}
	q.Tags = []string(arr)
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
