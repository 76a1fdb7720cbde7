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

package auth

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

	"github.com/tombee/folio/internal/api"
	"github.com/tombee/folio/internal/cli"
	"github.com/tombee/folio/internal/commands/shared"
)

func setupEnv(t *testing.T, serverURL string) {
	t.Helper()
	for _, name := range []string{
		"FOLIO_ORIGIN", "FOLIO_REFERRER", "FOLIO_MASTER_KEY", "FOLIO_TIMEOUT", "FOLIO_RATE_LIMIT",
		"FOLIO_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
		"FOLIO_TRACE_EXPORTER", "FOLIO_TRACE_ENDPOINT", "FOLIO_TRACE_INSECURE", "FOLIO_METRICS_FILE",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("FOLIO_BASE_URL", serverURL)
	t.Setenv("FOLIO_STORAGE", "file")
	t.Setenv("FOLIO_STATE_DIR", t.TempDir())
	t.Setenv("FOLIO_NON_INTERACTIVE", "true")
	t.Setenv("NO_COLOR", "1")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	shared.ResetFlagsForTest()
	t.Cleanup(shared.ResetFlagsForTest)

	root := cli.NewRootCommand()
	root.AddCommand(NewCommand())

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iss": "folio-test",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret-key-32-bytes-long!!"))
	require.NoError(t, err)
	return s
}

// authServer accepts alice/secret and tracks the issued token.
type authServer struct {
	*httptest.Server
	token   string
	logouts int
	// sessionGone makes logout answer 401.
	sessionGone bool
}

func newAuthServer(t *testing.T, token string) *authServer {
	t.Helper()
	as := &authServer{token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds api.Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Username != "alice" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"bad credentials"}`)
			return
		}
		json.NewEncoder(w).Encode(api.LoginResult{Token: as.token, User: &api.User{ID: 1, Username: "alice"}})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		as.logouts++
		if as.sessionGone {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+as.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(api.User{ID: 1, Username: "alice"})
	})
	as.Server = httptest.NewServer(mux)
	t.Cleanup(as.Close)
	return as
}

func TestLoginStatusLogout(t *testing.T) {
	tok := signToken(t, "alice", time.Now().Add(time.Hour))
	srv := newAuthServer(t, tok)
	setupEnv(t, srv.URL)

	out, _, err := runCLI(t, "secret\n", "auth", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice")

	out, _, err = runCLI(t, "", "auth", "status", "--json", "--verify")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.SignedIn)
	assert.False(t, st.Expired)
	assert.Equal(t, "alice", st.Subject)
	assert.Equal(t, "folio-test", st.Issuer)
	assert.Equal(t, "file", st.Backend)
	assert.NotEqual(t, tok, st.Token, "status must not print the raw token")

	out, _, err = runCLI(t, "", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.Equal(t, 1, srv.logouts)

	out, _, err = runCLI(t, "", "auth", "status")
	require.Error(t, err)
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
	assert.Contains(t, out, "Not signed in")

	// nothing stored: logout is local only
	_, _, err = runCLI(t, "", "auth", "logout")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.logouts)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newAuthServer(t, signToken(t, "alice", time.Now().Add(time.Hour)))
	setupEnv(t, srv.URL)

	_, _, err := runCLI(t, "wrong", "auth", "login", "-u", "alice", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
	assert.Contains(t, err.Error(), "bad credentials")

	_, _, err = runCLI(t, "", "auth", "status")
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
}

func TestLogin_ReplacesExpiredToken(t *testing.T) {
	srv := newAuthServer(t, signToken(t, "alice", time.Now().Add(-time.Minute)))
	setupEnv(t, srv.URL)

	// the server hands out an already expired token first
	_, _, err := runCLI(t, "secret", "auth", "login", "-u", "alice", "--password-stdin", "-q")
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "auth", "status")
	require.Error(t, err)
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
	assert.Contains(t, out, "Session expired")

	srv.token = signToken(t, "alice", time.Now().Add(time.Hour))
	_, _, err = runCLI(t, "secret", "auth", "login", "-u", "alice", "--password-stdin", "-q")
	require.NoError(t, err)

	_, _, err = runCLI(t, "", "auth", "status", "-q")
	require.NoError(t, err)
}

func TestStatus_VerifyRejected(t *testing.T) {
	srv := newAuthServer(t, signToken(t, "alice", time.Now().Add(time.Hour)))
	setupEnv(t, srv.URL)

	_, _, err := runCLI(t, "secret", "auth", "login", "-u", "alice", "--password-stdin", "-q")
	require.NoError(t, err)

	// server rotates its token, the stored one is now stale
	srv.token = signToken(t, "bob", time.Now().Add(time.Hour))

	_, stderr, err := runCLI(t, "", "auth", "status", "--verify")
	require.Error(t, err)
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
	assert.Contains(t, stderr, "Notice: Session expired")

	_, _, err = runCLI(t, "", "auth", "status", "-q")
	assert.Equal(t, shared.ExitAuth, shared.ExitCode(err), "rejected credential is cleared")
}

func TestLogout_StaleSessionIsQuiet(t *testing.T) {
	t.Run("expired token", func(t *testing.T) {
		srv := newAuthServer(t, signToken(t, "alice", time.Now().Add(-time.Minute)))
		setupEnv(t, srv.URL)

		_, _, err := runCLI(t, "secret", "auth", "login", "-u", "alice", "--password-stdin", "-q")
		require.NoError(t, err)

		out, stderr, err := runCLI(t, "", "auth", "logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Signed out")
		assert.NotContains(t, stderr, "Notice:")
		assert.Equal(t, 0, srv.logouts, "expired token is dropped locally")
	})

	t.Run("server rejects token", func(t *testing.T) {
		srv := newAuthServer(t, signToken(t, "alice", time.Now().Add(time.Hour)))
		srv.sessionGone = true
		setupEnv(t, srv.URL)

		_, _, err := runCLI(t, "secret", "auth", "login", "-u", "alice", "--password-stdin", "-q")
		require.NoError(t, err)

		out, stderr, err := runCLI(t, "", "auth", "logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Signed out")
		assert.NotContains(t, stderr, "Notice:")
		assert.Equal(t, 1, srv.logouts)

		_, _, err = runCLI(t, "", "auth", "status", "-q")
		assert.Equal(t, shared.ExitAuth, shared.ExitCode(err))
	})
}

func TestLogin_NonInteractiveUsage(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	_, _, err := runCLI(t, "", "auth", "login")
	assert.Equal(t, shared.ExitUsage, shared.ExitCode(err))

	_, _, err = runCLI(t, "", "auth", "login", "-u", "alice")
	assert.Equal(t, shared.ExitUsage, shared.ExitCode(err))

	_, _, err = runCLI(t, "", "auth", "login", "-u", "alice", "--password-stdin")
	assert.Equal(t, shared.ExitUsage, shared.ExitCode(err), "empty password")
}

func TestStatusOf(t *testing.T) {
	now := time.Now()

	st := statusOf("", "memory", now)
	assert.False(t, st.SignedIn)
	assert.Equal(t, "memory", st.Backend)

	st = statusOf("opaque-token-value", "memory", now)
	assert.True(t, st.SignedIn)
	assert.False(t, st.Expired)
	assert.Nil(t, st.ExpiresAt)

	st = statusOf(signToken(t, "carol", now.Add(-time.Hour)), "keychain", now)
	assert.True(t, st.Expired)
	assert.Equal(t, "carol", st.Subject)
	require.NotNil(t, st.ExpiresAt)
	assert.WithinDuration(t, now.Add(-time.Hour), *st.ExpiresAt, time.Second)
}
