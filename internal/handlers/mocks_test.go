package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/benvon/askdev/internal/tags"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type mockQuestionStore struct {
	createFunc  func(ctx context.Context, q *models.Question) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Question, error)
	listFunc    func(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error)
}

func (m *mockQuestionStore) Create(ctx context.Context, q *models.Question) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, q)
	}
	q.ID = uuid.New()
	return nil
}

func (m *mockQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockQuestionStore) List(ctx context.Context, f models.QuestionFilter) ([]*models.Question, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, f)
	}
	return []*models.Question{}, 0, nil
}

type mockAnswerStore struct {
	createFunc         func(ctx context.Context, a *models.Answer) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.Answer, error)
	listByQuestionFunc func(ctx context.Context, questionID uuid.UUID) ([]*models.Answer, error)
}

func (m *mockAnswerStore) Create(ctx context.Context, a *models.Answer) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	a.ID = uuid.New()
	return nil
}

func (m *mockAnswerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockAnswerStore) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Answer, error) {
	if m.listByQuestionFunc != nil {
		return m.listByQuestionFunc(ctx, questionID)
	}
	return []*models.Answer{}, nil
}

type mockVoteStore struct {
	castFunc      func(ctx context.Context, userID uuid.UUID, target models.VoteTarget, voteType models.VoteType) (*models.VoteResult, error)
	summaryFunc   func(ctx context.Context, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error)
	summariesFunc func(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error)
}

func (m *mockVoteStore) Cast(ctx context.Context, userID uuid.UUID, target models.VoteTarget, voteType models.VoteType) (*models.VoteResult, error) {
	if m.castFunc != nil {
		return m.castFunc(ctx, userID, target, voteType)
	}
	return &models.VoteResult{Action: models.VoteInserted, Summary: models.VoteSummary{TargetID: target.ID()}}, nil
}

func (m *mockVoteStore) Summary(ctx context.Context, target models.VoteTarget, userID *uuid.UUID) (*models.VoteSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, target, userID)
	}
	return &models.VoteSummary{TargetID: target.ID()}, nil
}

func (m *mockVoteStore) SummariesForQuestions(ctx context.Context, ids []uuid.UUID, userID *uuid.UUID) (map[uuid.UUID]models.VoteSummary, error) {
	if m.summariesFunc != nil {
		return m.summariesFunc(ctx, ids, userID)
	}
	out := make(map[uuid.UUID]models.VoteSummary, len(ids))
	for _, id := range ids {
		out[id] = models.VoteSummary{TargetID: id}
	}
	return out, nil
}

// mockNotificationStore keeps notifications in memory.
type mockNotificationStore struct {
	mu        sync.Mutex
	created   []*models.Notification
	createErr error
	listFunc  func(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	markErr   error
	deleteErr error
	unread    int
	countErr  error
}

func (m *mockNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, limit)
	}
	return []*models.Notification{}, nil
}

func (m *mockNotificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.unread, m.countErr
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.markErr
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(m.unread), m.markErr
}

func (m *mockNotificationStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.deleteErr
}

func (m *mockNotificationStore) sent() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Notification(nil), m.created...)
}

type mockRefresher struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (m *mockRefresher) RequestRefresh(ctx context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, reason)
	return m.err
}

type mockTrendReader struct {
	trend      tags.Trend
	hot        []string
	categories tags.Categories
	suggest    tags.Suggestions
	err        error
	days       []int
}

func (m *mockTrendReader) Trending(ctx context.Context, days int) (tags.Trend, error) {
	m.days = append(m.days, days)
	return m.trend, m.err
}

func (m *mockTrendReader) Hot(ctx context.Context) ([]string, error) { return m.hot, m.err }

func (m *mockTrendReader) Categories(ctx context.Context) (tags.Categories, error) {
	return m.categories, m.err
}

func (m *mockTrendReader) Suggest(ctx context.Context, title, content string) (tags.Suggestions, error) {
	return m.suggest, m.err
}

type mockSuggester struct {
	suggestFunc func(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error)
}

func (m *mockSuggester) SuggestTags(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
	return m.suggestFunc(ctx, title, content, known)
}

var (
	_ database.QuestionStore     = (*mockQuestionStore)(nil)
	_ database.AnswerStore       = (*mockAnswerStore)(nil)
	_ database.VoteStore         = (*mockVoteStore)(nil)
	_ database.NotificationStore = (*mockNotificationStore)(nil)
)

// requireUser stands in for the authenticator: it rejects requests without
// a profile in context.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if request.UserFromContext(r) == nil {
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var testGuards = Guards{Required: requireUser}

// serve routes req through a fresh router so mux variables are populated.
func serve(register func(*mux.Router), req *http.Request, user *models.Profile) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	register(r)
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the success envelope into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("envelope success = false, body data %s", env.Data)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeJSONString(t *testing.T, raw string, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
}
