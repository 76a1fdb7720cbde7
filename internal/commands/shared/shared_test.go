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

package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/folio/internal/client"
	"github.com/tombee/folio/internal/notify"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "usage", err: NewUsageError("bad flag", nil), want: ExitUsage},
		{name: "config", err: NewConfigError("bad config", errors.New("x")), want: ExitConfig},
		{name: "unauthorized", err: NewRequestError("request failed", &client.Error{Status: 401}), want: ExitAuth},
		{name: "forbidden", err: NewRequestError("request failed", &client.Error{Status: 403}), want: ExitAuth},
		{name: "not found", err: NewRequestError("request failed", &client.Error{Status: 404}), want: ExitFailure},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewUsageError("inner", nil)), want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrintError_WithSuggestion(t *testing.T) {
	var buf bytes.Buffer
	err := NewRequestError("request failed", &client.Error{Status: 401, Message: "session expired"})

	code := PrintError(&buf, err)
	assert.Equal(t, ExitAuth, code)
	assert.Contains(t, buf.String(), "Error: request failed: api error 401: session expired")
	assert.Contains(t, buf.String(), "Suggestion: Sign in again with 'folio auth login'")
}

func TestPrintError_WithoutSuggestion(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestRenderNotice(t *testing.T) {
	expired := notify.Event{Reason: notify.ReasonTokenExpired}
	forbidden := notify.Event{Reason: notify.ReasonForbiddenNoToken}

	assert.Equal(t, "Notice: Session expired, run `folio auth login` to sign in again.", RenderNotice(expired, false))
	assert.Contains(t, RenderNotice(forbidden, false), "requires signing in")
	assert.Contains(t, RenderNotice(expired, true), "Session expired")
	assert.Equal(t, NoticeText(expired), NoticeText(notify.Event{Reason: notify.ReasonUnauthorized}))
}

func TestPrintPayload(t *testing.T) {
	payload := json.RawMessage(`[{"id":1,"title":"One"},{"id":2,"title":"Two"}]`)
	ctx := context.Background()

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintPayload(ctx, &buf, json.RawMessage(`{"a":1}`), OutputOptions{}))
		assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
	})

	t.Run("filter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintPayload(ctx, &buf, payload, OutputOptions{Filter: ".[].title"}))
		assert.Equal(t, "\"One\"\n\"Two\"\n", buf.String())
	})

	t.Run("raw filter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintPayload(ctx, &buf, payload, OutputOptions{Filter: ".[].title", Raw: true}))
		assert.Equal(t, "One\nTwo\n", buf.String())
	})

	t.Run("empty payload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintPayload(ctx, &buf, nil, OutputOptions{}))
		assert.Empty(t, buf.String())
	})

	t.Run("bad filter", func(t *testing.T) {
		var buf bytes.Buffer
		err := PrintPayload(ctx, &buf, payload, OutputOptions{Filter: ".["})
		require.Error(t, err)
		assert.Equal(t, ExitUsage, ExitCode(err))
	})
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	line, err := ReadLine(strings.NewReader("alice\r\nrest"), &out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", line)
	assert.Equal(t, "Username: ", out.String())

	line, err = ReadLine(strings.NewReader("no newline"), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "no newline", line)

	_, err = ReadLine(strings.NewReader(""), &out, "")
	assert.Error(t, err)
}

func TestReadSecret_FromPipe(t *testing.T) {
	var out bytes.Buffer
	secret, err := ReadSecret(strings.NewReader("  hunter2\nnext line\n"), &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret, "only the first line is the secret")
	assert.Equal(t, "Password: ", out.String())

	out.Reset()
	secret, err = ReadSecret(strings.NewReader("no newline"), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "no newline", secret)
	assert.Empty(t, out.String())

	secret, err = ReadSecret(strings.NewReader(""), &out, "")
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestIsNonInteractive_Env(t *testing.T) {
	t.Setenv("FOLIO_NON_INTERACTIVE", "true")
	assert.True(t, IsNonInteractive())

	t.Setenv("FOLIO_NON_INTERACTIVE", "")
	t.Setenv("CI", "1")
	assert.True(t, IsNonInteractive())
}

func TestSpinner_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)
	s.Start("Uploading")
	s.Start("ignored")
	s.Stop()
	assert.Equal(t, "Uploading\n", buf.String())
	assert.Equal(t, time.Duration(0), s.Stop())
}

func TestByteCounter(t *testing.T) {
	s := NewSpinner(&bytes.Buffer{})
	counter := NewByteCounter(s)

	data, err := io.ReadAll(counter.Wrap(strings.NewReader(strings.Repeat("x", 1500))))
	require.NoError(t, err)
	assert.Len(t, data, 1500)
	_, err = io.ReadAll(counter.Wrap(strings.NewReader("abc")))
	require.NoError(t, err)

	assert.Equal(t, int64(1503), counter.Total())
	assert.Equal(t, "1.5 KiB sent", s.detail)

	assert.Equal(t, int64(0), NewByteCounter(nil).Total())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1023 B", FormatBytes(1023))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "2.5 MiB", FormatBytes(5*1024*1024/2))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "12s", formatElapsed(12*time.Second))
	assert.Equal(t, "2m", formatElapsed(2*time.Minute))
	assert.Equal(t, "1m 23s", formatElapsed(83*time.Second))
}
