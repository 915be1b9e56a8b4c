package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("hello"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/notes", nil))

		line := buf.String()
		if !strings.Contains(line, tt.level) {
			t.Errorf("status %d logged %q, want %s", tt.status, line, tt.level)
		}
		if !strings.Contains(line, "bytes=5") || !strings.Contains(line, "path=/api/notes") {
			t.Errorf("missing attrs in %q", line)
		}
	}
}

func TestStatusRecorderUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	if sr.Unwrap() != http.ResponseWriter(rec) {
		t.Error("Unwrap should return the wrapped writer")
	}
}

func TestRequestLoggerRecordsOwner(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RequestLogger(logger)(Identify(nil, logger)(inner))

	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("X-Guest-Key", "0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "owner=guest:0f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a") {
		t.Errorf("owner missing from %q", buf.String())
	}
}
