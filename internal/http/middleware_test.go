package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches request id and logger to the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		var gotID string
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := RequestIDFromContext(r.Context())
			if !ok {
				t.Error("expected request id in context")
			}
			if LoggerFromContext(r.Context()) == nil {
				t.Error("expected logger in context")
			}
			gotID = id
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))

		if gotID != "1" || rec.Header().Get(RequestIDHeader) != "1" {
			t.Fatalf("unexpected request id %q / header %q", gotID, rec.Header().Get(RequestIDHeader))
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected start and completion entries, got %q", buf.String())
		}
		var completed map[string]any
		if err := json.Unmarshal([]byte(lines[1]), &completed); err != nil {
			t.Fatalf("failed to decode log entry: %v", err)
		}
		if completed["msg"] != "request completed" || completed["status"] != float64(http.StatusTeapot) || completed["path"] != "/devices" {
			t.Fatalf("unexpected completion entry %v", completed)
		}
	})

	t.Run("reuses an incoming request id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get(RequestIDHeader) != "abc-123" {
			t.Fatalf("expected request id to be echoed, got %q", rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	handler := Recoverer(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("panic value leaked into response: %s", rec.Body.String())
	}
}
