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
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/tombee/folio/internal/tracing"
)

// File is one file part of a multipart upload.
type File struct {
	// Field is the form field name.
	Field string
	// Name is the file name reported to the server.
	Name    string
	Content io.Reader
	// ContentType defaults to application/octet-stream.
	ContentType string
}

// Upload POSTs a multipart form to path with the stored credential attached.
// Unlike Execute it performs no expiry preflight and no guest retry, and
// never touches the credential store or the publisher.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, files ...File) (json.RawMessage, error) {
	path = normalizePath(path)

	ctx, id := tracing.EnsureContext(ctx)
	ctx, span := tracing.StartSpan(ctx, c.tracer, "folio.upload", http.MethodPost, path)
	span.SetAttributes(tracing.AttrCorrelation.String(id.String()))
	start := time.Now()

	payload, status, err := c.upload(ctx, path, fields, files)

	requestDuration.WithLabelValues(http.MethodPost, outcomeLabel(err)).Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, status, err)
	return payload, err
}

func (c *Client) upload(ctx context.Context, path string, fields map[string]string, files []File) (json.RawMessage, int, error) {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	tracing.InjectIntoRequest(ctx, req)
	token := c.credentials.Get(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	attemptsTotal.WithLabelValues(http.MethodPost, authLabel(token != "")).Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		payload, err := readPayload(resp)
		return payload, resp.StatusCode, err
	}

	apiErr := readError(resp)
	resp.Body.Close()
	return nil, apiErr.Status, apiErr
}

func encodeMultipart(fields map[string]string, files []File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", k, err)
		}
	}

	for _, f := range files {
		if f.Field == "" {
			return nil, "", fmt.Errorf("upload file %q has no field name", f.Name)
		}
		if f.Content == nil {
			return nil, "", fmt.Errorf("upload file %q has no content", f.Name)
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.Name)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write part %q: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
