package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/services/ai"
	"github.com/benvon/askdev/internal/tags"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zaptest"
)

func emptyReader(err error) *mockTrendReader {
	return &mockTrendReader{
		trend:      tags.EmptyTrend(),
		hot:        []string{},
		categories: tags.NewEngine().Categorize(nil),
		suggest:    tags.Compose(nil, tags.EmptyTrend(), nil),
		err:        err,
	}
}

func TestTagHandler_StoreFailureAnswersEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   string
	}{
		{name: "trending", method: "GET", path: "/tags/trending", want: `{"analytics":[],"tags":[]}`},
		{name: "hot", method: "GET", path: "/tags/hot", want: `[]`},
		{name: "suggestions", method: "POST", path: "/tags/suggestions", body: map[string]string{"title": "react hooks"}, want: `{"all":[],"analytics":[],"content_based":[],"hot":[],"trending":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewTagHandler(emptyReader(errors.New("db down")), nil, zaptest.NewLogger(t))
			w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards, nil) },
				newTestRequest(tt.method, tt.path, tt.body), nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var got any
			decodeData(t, w, &got)
			var want any
			decodeJSONString(t, tt.want, &want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("data = %v, want %v", got, want)
			}
		})
	}
}

func TestTagHandler_Categories(t *testing.T) {
	t.Parallel()

	h := NewTagHandler(emptyReader(errors.New("db down")), nil, zaptest.NewLogger(t))
	w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards, nil) }, newTestRequest("GET", "/tags/categories", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string][]string
	decodeData(t, w, &got)
	if len(got) != 6 {
		t.Errorf("buckets = %v, want six", got)
	}
	for name, bucket := range got {
		if len(bucket) != 0 {
			t.Errorf("bucket %s = %v, want empty", name, bucket)
		}
	}
}

func TestTagHandler_TrendingDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query      string
		wantStatus int
		wantDays   int
	}{
		{query: "", wantStatus: http.StatusOK, wantDays: 0},
		{query: "?days=30", wantStatus: http.StatusOK, wantDays: 30},
		{query: "?days=0", wantStatus: http.StatusBadRequest},
		{query: "?days=366", wantStatus: http.StatusBadRequest},
		{query: "?days=week", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			reader := &mockTrendReader{trend: tags.Trend{Tags: []string{"react"}, Analytics: []tags.TagAnalytics{{Tag: "react", Count: 2}}}}
			h := NewTagHandler(reader, nil, zaptest.NewLogger(t))
			w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards, nil) },
				newTestRequest("GET", "/tags/trending"+tt.query, nil), nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if len(reader.days) != 0 {
					t.Error("invalid days should not reach the service")
				}
				return
			}
			if len(reader.days) != 1 || reader.days[0] != tt.wantDays {
				t.Errorf("days = %v, want %d", reader.days, tt.wantDays)
			}
			var trend tags.Trend
			decodeData(t, w, &trend)
			if len(trend.Tags) != 1 || trend.Analytics[0].Count != 2 {
				t.Errorf("trend = %+v", trend)
			}
		})
	}
}

func TestTagHandler_AISuggestions(t *testing.T) {
	t.Parallel()

	user := &models.Profile{ID: uuid.New()}
	body := map[string]string{"title": "React state", "content": "How do I share state between react components with hooks?"}

	tests := []struct {
		name       string
		suggester  ai.TagSuggester
		user       *models.Profile
		body       any
		wantStatus int
		wantTags   []string
	}{
		{
			name: "suggested",
			suggester: &mockSuggester{suggestFunc: func(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
				if len(known) != 1 || known[0].Tag != "react" {
					return nil, errors.New("known tags not passed through")
				}
				return []string{"react", "state-management"}, nil
			}},
			user: user, body: body, wantStatus: http.StatusOK, wantTags: []string{"react", "state-management"},
		},
		{name: "not configured", suggester: nil, user: user, body: body, wantStatus: http.StatusServiceUnavailable},
		{name: "anonymous", suggester: &mockSuggester{}, body: body, wantStatus: http.StatusUnauthorized},
		{name: "empty draft", suggester: &mockSuggester{}, user: user, body: map[string]string{}, wantStatus: http.StatusBadRequest},
		{
			name: "provider rate limited",
			suggester: &mockSuggester{suggestFunc: func(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
				return nil, &ai.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
			}},
			user: user, body: body, wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "quota exhausted",
			suggester: &mockSuggester{suggestFunc: func(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
				return nil, &ai.APIError{StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota", IsPermanent: true}
			}},
			user: user, body: body, wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "provider failure",
			suggester: &mockSuggester{suggestFunc: func(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
				return nil, errors.New("connection reset")
			}},
			user: user, body: body, wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reader := &mockTrendReader{trend: tags.Trend{Tags: []string{"react"}, Analytics: []tags.TagAnalytics{{Tag: "react", Count: 4}}}}
			h := NewTagHandler(reader, tt.suggester, zaptest.NewLogger(t))

			limited := 0
			aiLimit := func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					limited++
					next.ServeHTTP(w, r)
				})
			}
			w := serve(func(r *mux.Router) { h.RegisterRoutes(r, testGuards, aiLimit) },
				newTestRequest("POST", "/tags/suggestions/ai", tt.body), tt.user)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.user == nil && limited != 0 {
				t.Error("anonymous requests must be rejected before the AI rate limiter")
			}
			if tt.wantTags == nil {
				return
			}
			var resp AISuggestionsResponse
			decodeData(t, w, &resp)
			if !reflect.DeepEqual(resp.Tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", resp.Tags, tt.wantTags)
			}
			if len(resp.ContentBased) == 0 {
				t.Error("content based tags should be included")
			}
		})
	}
}

func TestGuards_NilPassThrough(t *testing.T) {
	t.Parallel()

	called := false
	h := Guards{}.required(func(w http.ResponseWriter, r *http.Request) { called = true })
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("nil guard should pass through")
	}
}
