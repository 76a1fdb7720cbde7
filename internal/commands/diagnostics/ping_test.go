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

package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/folio/internal/cli"
	"github.com/tombee/folio/internal/commands/shared"
	"github.com/tombee/folio/internal/credential"
	"github.com/tombee/folio/internal/storage"
)

func setupEnv(t *testing.T, serverURL string) *credential.Store {
	t.Helper()
	for _, name := range []string{
		"FOLIO_ORIGIN", "FOLIO_REFERRER", "FOLIO_MASTER_KEY", "FOLIO_TIMEOUT", "FOLIO_RATE_LIMIT",
		"FOLIO_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
		"FOLIO_TRACE_EXPORTER", "FOLIO_TRACE_ENDPOINT", "FOLIO_TRACE_INSECURE", "FOLIO_METRICS_FILE",
	} {
		t.Setenv(name, "")
	}
	state := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("FOLIO_BASE_URL", serverURL)
	t.Setenv("FOLIO_STORAGE", "file")
	t.Setenv("FOLIO_STATE_DIR", state)
	t.Setenv("NO_COLOR", "1")

	backend, err := storage.NewFileBackend(state, "")
	require.NoError(t, err)
	return credential.NewStore(backend)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	shared.ResetFlagsForTest()
	t.Cleanup(shared.ResetFlagsForTest)

	root := cli.NewRootCommand()
	root.AddCommand(NewPingCommand())

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret-key-32-bytes-long!!"))
	require.NoError(t, err)
	return s
}

func newAPI(t *testing.T, accepted string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /site", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"title":"Blog"}`)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if accepted == "" || r.Header.Get("Authorization") != "Bearer "+accepted {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"id":1,"username":"alice"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPing_Guest(t *testing.T) {
	srv := newAPI(t, "")
	setupEnv(t, srv.URL)

	out, err := runCLI(t, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "Testing API: "+srv.URL)
	assert.Contains(t, out, "Status: Healthy")
	assert.NotContains(t, out, "Authenticated:")
}

func TestPing_SignedIn(t *testing.T) {
	tok := token(t, "alice")
	srv := newAPI(t, tok)
	creds := setupEnv(t, srv.URL)
	creds.Set(context.Background(), tok)

	out, err := runCLI(t, "ping", "--json")
	require.NoError(t, err)

	var result PingResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Reachable)
	assert.True(t, result.SignedIn)
	assert.True(t, result.Authenticated)
	assert.True(t, result.Healthy)
	assert.Equal(t, "alice", result.User)
}

func TestPing_RejectedSession(t *testing.T) {
	srv := newAPI(t, "something-else")
	creds := setupEnv(t, srv.URL)
	creds.Set(context.Background(), token(t, "alice"))

	out, err := runCLI(t, "ping", "--json")
	require.Error(t, err)
	assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))

	var result PingResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Reachable)
	assert.True(t, result.SignedIn)
	assert.False(t, result.Authenticated)
	assert.Equal(t, stepAuthenticated, result.ErrorStep)
	assert.Empty(t, creds.Get(context.Background()), "rejected token is cleared")
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	setupEnv(t, url)

	out, err := runCLI(t, "ping", "--timeout", "5s")
	require.Error(t, err)
	assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))
	assert.Contains(t, out, "Status: Failed")
	assert.True(t, strings.Contains(out, "folio config show"))
}

func TestPing_ServerErrorStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	out, err := runCLI(t, "ping", "--json")
	require.NoError(t, err)

	var result PingResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Reachable)
	assert.True(t, result.Healthy)
}
