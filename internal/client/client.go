// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/folio/internal/credential"
	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/notify"
	"github.com/tombee/folio/internal/provenance"
	"github.com/tombee/folio/internal/storage"
	"github.com/tombee/folio/internal/tracing"
	"github.com/tombee/folio/pkg/httpclient"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// Client dispatches requests to the content API. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	origin      string
	referrer    string
	credentials *credential.Store
	provenance  *provenance.Store
	publisher   notify.Publisher
	policy      Policy
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// New creates a new client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		policy:  DefaultPolicy(),
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.tracer == nil {
		c.tracer = tracing.Tracer(nil)
	}

	if c.logger == nil {
		c.logger = internallog.Discard()
	}
	c.logger = internallog.WithComponent(c.logger, "client")

	// If no HTTP client set, create default with transport
	if c.httpClient == nil {
		cfg := httpclient.DefaultConfig()
		cfg.Logger = c.logger
		hc, err := httpclient.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		c.httpClient = hc
	}

	if c.credentials == nil {
		c.credentials = credential.NewStore(storage.NewMemoryBackend(), credential.WithLogger(c.logger))
	}

	if c.origin == "" {
		c.origin = originOf(c.baseURL)
	}

	return c, nil
}

// Credentials returns the credential store the client attaches tokens from.
func (c *Client) Credentials() *credential.Store {
	return c.credentials
}

// Policy returns the endpoint policy in effect.
func (c *Client) Policy() Policy {
	return c.policy
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithTransport sets a custom transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{Transport: transport}
		return nil
	}
}

// WithBaseURL sets the API base URL. Request paths are appended to it.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q", baseURL)
		}
		c.baseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithCredentials sets the credential store. Defaults to an in-memory store.
func WithCredentials(store *credential.Store) Option {
	return func(c *Client) error {
		c.credentials = store
		return nil
	}
}

// WithProvenance sets the navigation provenance store consulted for article
// attribution. Without one, only the configured referrer is used.
func WithProvenance(store *provenance.Store) Option {
	return func(c *Client) error {
		c.provenance = store
		return nil
	}
}

// WithPublisher sets where session events are published.
func WithPublisher(p notify.Publisher) Option {
	return func(c *Client) error {
		c.publisher = p
		return nil
	}
}

// WithPolicy sets the endpoint policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) error {
		if err := p.Validate(); err != nil {
			return err
		}
		c.policy = p
		return nil
	}
}

// WithOrigin sets the site origin used to decide whether a referrer is
// internal. Defaults to the origin of the base URL.
func WithOrigin(origin string) Option {
	return func(c *Client) error {
		c.origin = strings.TrimRight(origin, "/")
		return nil
	}
}

// WithReferrer sets the fallback referrer sent on article reads when no
// provenance was captured.
func WithReferrer(referrer string) Option {
	return func(c *Client) error {
		c.referrer = referrer
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithClock overrides the clock used for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}

// WithTracerProvider sets the provider spans are created from. Defaults to
// the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) error {
		c.tracer = tracing.Tracer(tp)
		return nil
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
