package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UserIDHeader carries the authenticated caller, set by the upstream
// authentication proxy.
const UserIDHeader = "X-User-ID"

// responseWriter records the status and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// LoggingConfig holds configuration for the access log middleware
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default access log configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// accessEntry is one W3C Extended Log Format line:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs-bytes cs(X-User-ID) cs(User-Agent) cs(Referer)
//
// cs-bytes is the declared upload size, "-" when unknown.
type accessEntry struct {
	at        time.Time
	clientIP  string
	method    string
	stem      string
	query     string
	status    int
	sent      int64
	took      time.Duration
	received  int64
	userID    string
	userAgent string
	referer   string
}

func newAccessEntry(r *http.Request, rw *responseWriter, took time.Duration) accessEntry {
	return accessEntry{
		at:        time.Now().UTC(),
		clientIP:  getClientIP(r),
		method:    r.Method,
		stem:      r.URL.Path,
		query:     r.URL.RawQuery,
		status:    rw.statusCode,
		sent:      rw.bytesWritten,
		took:      took,
		received:  r.ContentLength,
		userID:    r.Header.Get(UserIDHeader),
		userAgent: r.Header.Get("User-Agent"),
		referer:   r.Header.Get("Referer"),
	}
}

// String renders the entry. Every request-controlled field is sanitized.
func (e accessEntry) String() string {
	received := "-"
	if e.received >= 0 {
		received = strconv.FormatInt(e.received, 10)
	}
	return fmt.Sprintf("%s %s %s %s %s %d %d %d %s %s %s",
		e.at.Format("2006-01-02 15:04:05"),
		field(e.clientIP),
		field(e.method),
		field(e.stem),
		field(e.query),
		e.status,
		e.sent,
		e.took.Milliseconds(),
		received,
		field(e.userID),
		field(e.userAgent),
		field(e.referer),
	)
}

// field sanitizes s and renders it as a W3C field, "-" when empty.
func field(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return escapeW3CField(s)
}

// sanitizeLogField strips characters that could forge log lines or inject
// terminal escapes. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeW3CField quotes values containing whitespace or quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Logger returns HTTP access log middleware using W3C Extended Log Format
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			//nolint:gosec // fields are sanitized in accessEntry.String
			log.Println(newAccessEntry(r, wrapped, time.Since(start)))
		})
	}
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return !config.LogHealthChecks && healthCheckPaths[path]
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
