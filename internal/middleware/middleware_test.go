package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "GET", "GET"},
		{"newline", "a\nb", "a b"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "a\x1b[31mb", "a[31mb"},
		{"tab preserved", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	config := LoggingConfig{
		SkipPaths:       []string{"/internal"},
		SkipExtensions:  []string{".css"},
		LogStaticFiles:  false,
		LogHealthChecks: false,
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/browse", false},
		{"/internal/debug", true},
		{"/style.css", true},
		{"/healthz", true},
		{"/api/thumbnail/a.jpg", false},
	}

	for _, tt := range tests {
		if got := shouldSkip(tt.path, config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := getClientIP(r); got != "10.0.0.1" {
		t.Errorf("remote addr ip = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := getClientIP(r); got != "10.0.0.2" {
		t.Errorf("x-real-ip = %q, want 10.0.0.2", got)
	}

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if got := getClientIP(r); got != "10.0.0.3" {
		t.Errorf("x-forwarded-for = %q, want first hop 10.0.0.3", got)
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api/browse", "/api/browse"},
		{"/api/thumbnail/photos", "/api/thumbnail/photos"},
		{"/api/thumbnail/photos/deep/nested/file.jpg", "/api/thumbnail/photos/{path}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()

	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/browse", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestCompressionCompressesLargeJSON(t *testing.T) {
	t.Parallel()

	body := strings.Repeat(`{"name":"photo"},`, 200)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/browse", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatal("expected gzip encoding for large JSON response")
	}

	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("failed to open gzip reader: %v", err)
	}
	decoded, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if string(decoded) != body {
		t.Error("decompressed body does not match original")
	}
}

func TestCompressionSkipsSmallResponses(t *testing.T) {
	t.Parallel()

	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("small response should not be compressed")
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestCompressionSkipsEventStreams(t *testing.T) {
	t.Parallel()

	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(strings.Repeat("data: x\n\n", 500)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("event stream must not be compressed")
	}
}
