package httpclient

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tombee/folio/internal/tracing"
)

func TestLoggingTransport_PreservesExistingUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	transport := newLoggingTransport(http.DefaultTransport, "folio/1.0", nil)
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("User-Agent", "custom/2.0")

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "custom/2.0" {
		t.Errorf("expected User-Agent custom/2.0, got %q", got)
	}
}

func TestLoggingTransport_InjectsCorrelationID(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(tracing.HeaderCorrelationID)
	}))
	defer server.Close()

	id := tracing.NewCorrelationID()
	ctx := tracing.ToContext(context.Background(), id)

	transport := newLoggingTransport(http.DefaultTransport, "folio/1.0", nil)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != id.String() {
		t.Errorf("expected correlation ID %q, got %q", id, got)
	}
}

func TestLoggingTransport_LogsWithoutSecrets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	transport := newLoggingTransport(http.DefaultTransport, "folio/1.0", logger)
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/posts?token=leaky", nil)
	req.Header.Set("Authorization", "Bearer very-secret-token")

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	if !strings.Contains(out, "status=401") {
		t.Errorf("expected status in log, got %q", out)
	}
	if !strings.Contains(out, "authorized=true") {
		t.Errorf("expected authorized flag in log, got %q", out)
	}
	if !strings.Contains(out, "Bearer ****oken") {
		t.Errorf("expected masked authorization header at debug level, got %q", out)
	}
	for _, secret := range []string{"leaky", "very-secret-token"} {
		if strings.Contains(out, secret) {
			t.Errorf("log leaked %q: %q", secret, out)
		}
	}
}
