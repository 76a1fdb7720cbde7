package httpclient

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimitTransport blocks each request until the shared limiter admits it.
type rateLimitTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func newRateLimitTransport(base http.RoundTripper, rps float64, burst int) *rateLimitTransport {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
