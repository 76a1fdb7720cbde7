package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/folio/internal/tracing"
)

// loggingTransport wraps an http.RoundTripper to add:
//   - User-Agent header injection
//   - Correlation ID propagation
//   - One log entry per round trip with a sanitized URL, plus sanitized
//     request headers at debug level
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

func newLoggingTransport(base http.RoundTripper, userAgent string, logger *slog.Logger) *loggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &loggingTransport{
		base:      base,
		userAgent: userAgent,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	tracing.InjectIntoRequest(req.Context(), req)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	logURL := sanitizeURL(req.URL)

	if err != nil {
		t.logger.WarnContext(req.Context(), "http request failed",
			"method", req.Method,
			"url", logURL,
			"duration_ms", duration,
			"error", err.Error(),
		)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelWarn
	}
	attrs := []any{
		"method", req.Method,
		"url", logURL,
		"status", resp.StatusCode,
		"authorized", req.Header.Get("Authorization") != "",
		"duration_ms", duration,
	}
	if t.logger.Enabled(req.Context(), slog.LevelDebug) {
		attrs = append(attrs, "headers", sanitizeHeaders(req.Header))
	}
	t.logger.Log(req.Context(), level, "http request", attrs...)

	return resp, nil
}
