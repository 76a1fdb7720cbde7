package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// New creates an HTTP client with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: Wrap(baseTransport, cfg),
		Timeout:   cfg.Timeout,
	}, nil
}

// Wrap layers the logging, rate limit and retry transports around base.
// cfg is assumed valid.
func Wrap(base http.RoundTripper, cfg Config) http.RoundTripper {
	var rt http.RoundTripper = newLoggingTransport(base, cfg.UserAgent, cfg.Logger)

	if cfg.RateLimit > 0 {
		rt = newRateLimitTransport(rt, cfg.RateLimit, cfg.RateBurst)
	}

	if cfg.RetryAttempts > 0 {
		rt = newRetryTransport(rt, cfg)
	}

	return rt
}
