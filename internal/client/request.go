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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/folio/internal/credential"
	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/notify"
	"github.com/tombee/folio/internal/tracing"
)

// Request describes one logical API call.
type Request struct {
	// Path is appended to the base URL and may carry a query string.
	Path string
	// Method defaults to GET.
	Method string
	// Header values override the defaults the client sets.
	Header http.Header
	// Body is sent as is when it is []byte, json.RawMessage or io.Reader;
	// any other non-nil value is encoded as JSON.
	Body any
}

// attempt is the per-call state carried across the guest retry.
type attempt struct {
	method      string
	path        string
	header      http.Header
	body        []byte
	attribution http.Header
	token       string
	retried     bool
}

// Execute runs req through the session state machine and returns the raw
// JSON payload of a successful response. Classified failures are returned as
// *Error; transport failures are returned wrapped and leave the session
// untouched.
func (c *Client) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	path := normalizePath(req.Path)

	ctx, id := tracing.EnsureContext(ctx)
	ctx, span := tracing.StartSpan(ctx, c.tracer, "folio.execute", method, path)
	span.SetAttributes(tracing.AttrCorrelation.String(id.String()))
	start := time.Now()

	payload, status, err := c.execute(ctx, span, method, path, req)

	requestDuration.WithLabelValues(method, outcomeLabel(err)).Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, status, err)
	return payload, err
}

func (c *Client) execute(ctx context.Context, span trace.Span, method, path string, req Request) (json.RawMessage, int, error) {
	logger := internallog.WithRequest(c.logger, method, path)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, 0, err
	}

	a := &attempt{
		method: method,
		path:   path,
		header: req.Header,
		body:   body,
		token:  c.credentials.Get(ctx),
	}

	// Preflight
	if a.token != "" && credential.IsExpired(a.token, c.now()) {
		logger.Info("stored credential expired", slog.String("token", internallog.SanitizeToken(a.token)))
		c.credentials.Clear(ctx)
		c.publish(logger, notify.Event{
			Reason:  notify.ReasonTokenExpired,
			Status:  http.StatusUnauthorized,
			Message: msgSessionExpired,
			Path:    path,
		})
		a.token = ""
		if method != http.MethodGet || !c.policy.IsPublic(path) {
			return nil, http.StatusUnauthorized, &Error{Status: http.StatusUnauthorized, Message: msgSessionExpired}
		}
	}

	a.attribution = c.attribution(ctx, method, path)

	for {
		span.SetAttributes(tracing.AttrAuthorized.Bool(a.token != ""))
		resp, err := c.dispatch(ctx, a)
		if err != nil {
			return nil, 0, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			payload, err := readPayload(resp)
			return payload, resp.StatusCode, err
		}

		apiErr := readError(resp)
		resp.Body.Close()

		switch apiErr.Status {
		case http.StatusUnauthorized:
			attached := a.token != ""
			if attached {
				c.credentials.Clear(ctx)
			}
			if !c.policy.IsSilent(path) {
				c.publish(logger, notify.Event{
					Reason:  notify.ReasonUnauthorized,
					Status:  apiErr.Status,
					Message: apiErr.Message,
					Path:    path,
				})
			}
			if method == http.MethodGet && c.policy.IsPublic(path) && attached && !a.retried {
				logger.Debug("retrying public read as guest")
				guestRetriesTotal.Inc()
				span.SetAttributes(tracing.AttrGuestRetry.Bool(true))
				a.retried = true
				a.token = ""
				continue
			}
		case http.StatusForbidden:
			if c.credentials.Get(ctx) == "" {
				c.publish(logger, notify.Event{
					Reason:  notify.ReasonForbiddenNoToken,
					Status:  apiErr.Status,
					Message: apiErr.Message,
					Path:    path,
				})
			}
		}

		logger.Debug("request failed", slog.Int(internallog.StatusKey, apiErr.Status))
		return nil, apiErr.Status, apiErr
	}
}

func (c *Client) dispatch(ctx context.Context, a *attempt) (*http.Response, error) {
	var body io.Reader
	if a.body != nil {
		body = bytes.NewReader(a.body)
	}

	req, err := http.NewRequestWithContext(ctx, a.method, c.baseURL+a.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.InjectIntoRequest(ctx, req)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for k, vs := range a.attribution {
		req.Header[k] = vs
	}
	for k, vs := range a.header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	attemptsTotal.WithLabelValues(a.method, authLabel(a.token != "")).Inc()
	return c.httpClient.Do(req)
}

func (c *Client) publish(logger *slog.Logger, e notify.Event) {
	sessionEventsTotal.WithLabelValues(string(e.Reason)).Inc()
	logger.Info("session event", slog.String(internallog.ReasonKey, string(e.Reason)), slog.Int(internallog.StatusKey, e.Status))
	if c.publisher != nil {
		c.publisher.Publish(e)
	}
}

// Get executes a GET of path.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Execute(ctx, Request{Path: path, Method: http.MethodGet})
}

// Post executes a POST of body to path.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Execute(ctx, Request{Path: path, Method: http.MethodPost, Body: body})
}

// Put executes a PUT of body to path.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Execute(ctx, Request{Path: path, Method: http.MethodPut, Body: body})
}

// Delete executes a DELETE of path.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Execute(ctx, Request{Path: path, Method: http.MethodDelete})
}

// Do executes req and decodes the payload into T. An empty payload yields
// the zero value.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	payload, err := c.Execute(ctx, req)
	if err != nil {
		return out, err
	}
	if len(payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return data, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		return data, nil
	}
}

// readPayload reads a successful response. An empty body yields nil.
func readPayload(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	return json.RawMessage(data), nil
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
