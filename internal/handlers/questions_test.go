package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zaptest"
)

func validQuestion() map[string]any {
	return map[string]any{
		"title":   "How do I debounce a React hook?",
		"content": "I want to debounce an input field in a React component without re-rendering on every keystroke.",
		"tags":    []string{" React ", "hooks", "react"},
	}
}

func TestQuestionHandler_CreateQuestion(t *testing.T) {
	t.Parallel()

	user := &models.Profile{ID: uuid.New(), Username: "ada"}

	tests := []struct {
		name        string
		body        any
		user        *models.Profile
		createErr   error
		wantStatus  int
		wantRefresh bool
	}{
		{name: "created", body: validQuestion(), user: user, wantStatus: http.StatusCreated, wantRefresh: true},
		{name: "anonymous", body: validQuestion(), wantStatus: http.StatusUnauthorized},
		{
			name: "short title",
			body: func() map[string]any {
				q := validQuestion()
				q["title"] = "React?"
				return q
			}(),
			user:       user,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "too many tags after normalization",
			body: func() map[string]any {
				q := validQuestion()
				q["tags"] = []string{"a", "b", "c", "d", "e", "f"}
				return q
			}(),
			user:       user,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "blank tags only",
			body: func() map[string]any {
				q := validQuestion()
				q["tags"] = []string{" ", ""}
				return q
			}(),
			user:       user,
			wantStatus: http.StatusBadRequest,
		},
		{name: "malformed body", body: "not an object", user: user, wantStatus: http.StatusBadRequest},
		{name: "store failure", body: validQuestion(), user: user, createErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stored *models.Question
			questions := &mockQuestionStore{createFunc: func(ctx context.Context, q *models.Question) error {
				if tt.createErr != nil {
					return tt.createErr
				}
				q.ID = uuid.New()
				stored = q
				return nil
			}}
			refresher := &mockRefresher{}
			h := NewQuestionHandler(questions, &mockAnswerStore{}, &mockVoteStore{}, refresher, zaptest.NewLogger(t))

			w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) },
				newTestRequest("POST", "/questions", tt.body), tt.user)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := len(refresher.reasons) > 0; got != tt.wantRefresh {
				t.Errorf("refresh requested = %v, want %v", got, tt.wantRefresh)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			if strings.Join(stored.Tags, ",") != "react,hooks" {
				t.Errorf("stored tags = %v, want [react hooks]", stored.Tags)
			}
			if stored.AuthorID != user.ID {
				t.Errorf("author = %v, want %v", stored.AuthorID, user.ID)
			}
			if refresher.reasons[0] != "question_created" {
				t.Errorf("refresh reason = %q", refresher.reasons[0])
			}
		})
	}
}

func TestQuestionHandler_CreateQuestion_RefreshFailureStillCreates(t *testing.T) {
	t.Parallel()

	refresher := &mockRefresher{err: errors.New("queue closed")}
	h := NewQuestionHandler(&mockQuestionStore{}, &mockAnswerStore{}, &mockVoteStore{}, refresher, zaptest.NewLogger(t))
	w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) },
		newTestRequest("POST", "/questions", validQuestion()), &models.Profile{ID: uuid.New()})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestQuestionHandler_ListQuestions(t *testing.T) {
	t.Parallel()

	q1 := &models.Question{ID: uuid.New(), Title: "first", Tags: []string{"react"}}
	q2 := &models.Question{ID: uuid.New(), Title: "second", Tags: []string{"react", "css"}}

	var gotFilter models.QuestionFilter
	questions := &mockQuestionStore{listFunc: func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
		gotFilter = f
		return []*models.Question{q1, q2}, 45, nil
	}}
	votes := &mockVoteStore{summariesFunc: func(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error) {
		if len(ids) != 2 {
			t.Errorf("summaries for %d ids, want 2", len(ids))
		}
		return map[uuid.UUID]models.VoteSummary{q1.ID: {TargetID: q1.ID, Upvotes: 3}}, nil
	}}
	h := NewQuestionHandler(questions, &mockAnswerStore{}, votes, nil, zaptest.NewLogger(t))

	w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) },
		newTestRequest("GET", "/questions?search=hooks&tags=React,,css&page=2&page_size=500", nil), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if gotFilter.Search != "hooks" || strings.Join(gotFilter.Tags, ",") != "react,css" {
		t.Errorf("filter = %+v", gotFilter)
	}
	if gotFilter.Page != 2 || gotFilter.PageSize != database.MaxPageSize {
		t.Errorf("paging = %d/%d", gotFilter.Page, gotFilter.PageSize)
	}

	var resp ListQuestionsResponse
	decodeData(t, w, &resp)
	if len(resp.Questions) != 2 || resp.Total != 45 || resp.TotalPages != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Votes[q1.ID].Upvotes != 3 {
		t.Errorf("votes = %+v", resp.Votes)
	}
}

func TestQuestionHandler_ListQuestions_Failures(t *testing.T) {
	t.Parallel()

	t.Run("search too long", func(t *testing.T) {
		t.Parallel()
		called := false
		questions := &mockQuestionStore{listFunc: func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
			called = true
			return nil, 0, nil
		}}
		h := NewQuestionHandler(questions, &mockAnswerStore{}, &mockVoteStore{}, nil, zaptest.NewLogger(t))
		long := strings.Repeat("a", validation.MaxSearchLength+1)
		w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) }, newTestRequest("GET", "/questions?search="+long, nil), nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if called {
			t.Error("store should not be queried")
		}
	})

	t.Run("search at limit is passed through intact", func(t *testing.T) {
		t.Parallel()
		var got string
		questions := &mockQuestionStore{listFunc: func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
			got = f.Search
			return nil, 0, nil
		}}
		h := NewQuestionHandler(questions, &mockAnswerStore{}, &mockVoteStore{}, nil, zaptest.NewLogger(t))
		search := strings.Repeat("b", validation.MaxSearchLength)
		w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) }, newTestRequest("GET", "/questions?search="+search, nil), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		if got != search {
			t.Errorf("search = %d bytes, want the %d byte input unchanged", len(got), len(search))
		}
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		questions := &mockQuestionStore{listFunc: func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
			return nil, 0, errors.New("boom")
		}}
		h := NewQuestionHandler(questions, &mockAnswerStore{}, &mockVoteStore{}, nil, zaptest.NewLogger(t))
		w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) }, newTestRequest("GET", "/questions", nil), nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})

	t.Run("vote summaries unavailable", func(t *testing.T) {
		t.Parallel()
		questions := &mockQuestionStore{listFunc: func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
			return []*models.Question{{ID: uuid.New()}}, 1, nil
		}}
		votes := &mockVoteStore{summariesFunc: func(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error) {
			return nil, errors.New("boom")
		}}
		h := NewQuestionHandler(questions, &mockAnswerStore{}, votes, nil, zaptest.NewLogger(t))
		w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) }, newTestRequest("GET", "/questions", nil), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp ListQuestionsResponse
		decodeData(t, w, &resp)
		if len(resp.Questions) != 1 || resp.Votes == nil {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestQuestionHandler_GetQuestion(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	caller := &models.Profile{ID: uuid.New()}

	tests := []struct {
		name       string
		path       string
		getErr     error
		summaryErr error
		wantStatus int
		wantVotes  bool
	}{
		{name: "found", path: "/questions/" + id.String(), wantStatus: http.StatusOK, wantVotes: true},
		{name: "votes unavailable", path: "/questions/" + id.String(), summaryErr: errors.New("boom"), wantStatus: http.StatusOK},
		{name: "not found", path: "/questions/" + id.String(), getErr: fmt.Errorf("question: %w", database.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "store failure", path: "/questions/" + id.String(), getErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
		{name: "bad id", path: "/questions/not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			questions := &mockQuestionStore{getByIDFunc: func(ctx context.Context, qid uuid.UUID) (*models.Question, error) {
				if tt.getErr != nil {
					return nil, tt.getErr
				}
				return &models.Question{ID: qid, Title: "t"}, nil
			}}
			answers := &mockAnswerStore{listByQuestionFunc: func(ctx context.Context, qid uuid.UUID) ([]*models.Answer, error) {
				return []*models.Answer{{ID: uuid.New(), QuestionID: qid}}, nil
			}}
			votes := &mockVoteStore{summaryFunc: func(ctx context.Context, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error) {
				if tt.summaryErr != nil {
					return nil, tt.summaryErr
				}
				if userID == nil || *userID != caller.ID {
					t.Errorf("summary userID = %v, want caller", userID)
				}
				up := models.VoteUp
				return &models.VoteSummary{TargetID: target.ID(), Upvotes: 1, UserVote: &up}, nil
			}}
			h := NewQuestionHandler(questions, answers, votes, nil, zaptest.NewLogger(t))

			w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards) }, newTestRequest("GET", tt.path, nil), caller)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var detail models.QuestionDetail
			decodeData(t, w, &detail)
			if detail.Question.ID != id || len(detail.Answers) != 1 {
				t.Errorf("detail = %+v", detail)
			}
			if (detail.Votes != nil) != tt.wantVotes {
				t.Errorf("votes = %+v, want present %v", detail.Votes, tt.wantVotes)
			}
		})
	}
}
