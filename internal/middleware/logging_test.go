package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		wantWarn      string
	}{
		{name: "GET request", method: "GET", path: "/api/v1/questions", handlerStatus: http.StatusOK},
		{name: "POST request", method: "POST", path: "/api/v1/questions", handlerStatus: http.StatusCreated},
		{name: "unauthorized", method: "POST", path: "/api/v1/questions", handlerStatus: http.StatusUnauthorized, wantWarn: "security_event"},
		{name: "throttled", method: "GET", path: "/api/v1/tags/trending", handlerStatus: http.StatusTooManyRequests, wantWarn: "rate_limit_violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				w.WriteHeader(http.StatusTeapot)
			})

			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("got %d http_request entries, want 1", len(entries))
			}
			if got := entries[0].ContextMap()["status_code"]; got != int64(tt.handlerStatus) {
				t.Errorf("status_code = %v, want %d", got, tt.handlerStatus)
			}
			if tt.wantWarn != "" && logs.FilterMessage(tt.wantWarn).Len() != 1 {
				t.Errorf("expected %s entry", tt.wantWarn)
			}
			if tt.wantWarn == "" && logs.FilterLevelExact(zapcore.WarnLevel).Len() != 0 {
				t.Error("unexpected warn entry")
			}
		})
	}
}

func TestLogging_ImplicitOK(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test"))
	})

	w := httptest.NewRecorder()
	Logging(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusOK || w.Body.String() != "test" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
	if got := logs.All()[0].ContextMap()["status_code"]; got != int64(http.StatusOK) {
		t.Errorf("status_code = %v", got)
	}
}
