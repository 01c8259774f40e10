package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mssola/useragent"
)

// quietPaths are health check and scrape endpoints that are not logged.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// responseWriter records the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// levelFor logs server errors at error, client errors at warn and the
// rest at info.
func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// clientName condenses a User-Agent header to "browser/os", or "bot".
func clientName(header string) string {
	if header == "" {
		return ""
	}
	ua := useragent.New(header)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	if platform := ua.OS(); platform != "" {
		return name + "/" + platform
	}
	return name
}

// RequestLogger is middleware that logs one line per HTTP request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.LogAttrs(r.Context(), levelFor(rw.status), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Int("bytes", rw.bytes),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", r.RemoteAddr),
			slog.String("client", clientName(r.UserAgent())),
		)
	})
}
