// Package httpclient provides the HTTP transport stack folio sends API calls through.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
// Customize configuration:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.UserAgent = "folio-admin/2.0"
//	cfg.RateLimit = 5 // requests per second
//	client, err := httpclient.New(cfg)
//
// # Layers
//
// From the outside in:
//   - retry: exponential backoff for 5xx, 408, 429 and transient network errors,
//     idempotent methods only, disabled unless RetryAttempts > 0
//   - rate limit: token bucket shared by all requests, disabled unless RateLimit > 0
//   - logging: User-Agent injection, correlation ID propagation, one log line per round trip
//
// Session semantics (credentials, guest retries, 401/403 handling) live in
// internal/client, above this package. A 401 or 403 is never retried here.
//
// # Security
//
//   - Sensitive query parameters (api_key, token, password, etc.) are redacted from logs
//   - Authorization headers are never logged
//   - TLS 1.2 minimum with certificate validation enabled
package httpclient
