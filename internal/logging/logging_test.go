package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewDevMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("test debug")
	logger.Info("test info")

	if !bytes.Contains(buf.Bytes(), []byte("test debug")) {
		t.Error("expected debug message visible in dev mode")
	}
	if !bytes.Contains(buf.Bytes(), []byte("test info")) {
		t.Error("expected info message visible in dev mode")
	}
}

func TestNewProdMode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug should be suppressed in prod mode")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "shown" || entry["key"] != "value" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetup(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(false)
	if slog.Default() == old {
		t.Error("expected Setup to replace the default logger")
	}
}

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func serve(handler http.Handler, path string) {
	req := httptest.NewRequest("GET", path, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequestLogger(t *testing.T) {
	buf := captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	serve(handler, "/api/travel")

	if buf.Len() == 0 {
		t.Fatal("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("GET")) {
		t.Error("expected method in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("/api/travel")) {
		t.Error("expected path in log")
	}
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf := captureDefault(t)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			serve(handler, path)

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s", path)
			}
		})
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	serve(handler, "/missing")

	if !bytes.Contains(buf.Bytes(), []byte("404")) {
		t.Error("expected 404 status in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("level=WARN")) {
		t.Error("expected 4xx logged at warn")
	}
}

func TestRequestLoggerCountsBytes(t *testing.T) {
	buf := captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	serve(handler, "/api/cities/FR")

	if !bytes.Contains(buf.Bytes(), []byte("bytes=5")) {
		t.Errorf("expected body size in log, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("status=200")) {
		t.Errorf("expected implicit 200 in log, got %s", buf.String())
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{302, slog.LevelInfo},
		{401, slog.LevelWarn},
		{429, slog.LevelWarn},
		{500, slog.LevelError},
		{502, slog.LevelError},
	}
	for _, tt := range tests {
		if got := levelFor(tt.status); got != tt.want {
			t.Errorf("levelFor(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClientName(t *testing.T) {
	if got := clientName(""); got != "" {
		t.Errorf("clientName(\"\") = %q, want empty", got)
	}

	firefox := "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
	if got := clientName(firefox); !strings.HasPrefix(got, "Firefox/") {
		t.Errorf("clientName(firefox) = %q, want Firefox/<os>", got)
	}

	googlebot := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	if got := clientName(googlebot); got != "bot" {
		t.Errorf("clientName(googlebot) = %q, want bot", got)
	}
}
