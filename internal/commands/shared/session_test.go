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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEnv(t *testing.T, baseURL string) {
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
	t.Setenv("FOLIO_BASE_URL", baseURL)
	t.Setenv("FOLIO_STORAGE", "memory")
	t.Setenv("NO_COLOR", "1")
	ResetFlagsForTest()
}

func testCommand(stderr *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	return cmd
}

func TestSession_TelemetryOnClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Docs"}`))
	}))
	defer srv.Close()

	sessionEnv(t, srv.URL)
	metrics := filepath.Join(t.TempDir(), "folio.prom")
	t.Setenv("FOLIO_TRACE_EXPORTER", "stdout")
	t.Setenv("FOLIO_METRICS_FILE", metrics)

	var stderr bytes.Buffer
	sess, err := NewSession(testCommand(&stderr))
	require.NoError(t, err)

	_, err = sess.API.Site(context.Background())
	require.NoError(t, err)
	sess.Close()

	assert.Contains(t, stderr.String(), "folio.execute")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "folio_client_attempts_total")
}

func TestSession_NoticeOncePerReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	sessionEnv(t, srv.URL)

	var stderr bytes.Buffer
	sess, err := NewSession(testCommand(&stderr))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = sess.API.Site(context.Background())
		require.Error(t, err)
	}
	sess.Close()

	assert.Equal(t, 1, bytes.Count(stderr.Bytes(), []byte("Notice:")))
}

func TestSession_InvalidExporter(t *testing.T) {
	sessionEnv(t, "http://127.0.0.1:1")
	t.Setenv("FOLIO_TRACE_EXPORTER", "zipkin")

	var stderr bytes.Buffer
	_, err := NewSession(testCommand(&stderr))
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitConfig, exitErr.Code)
}

func TestSession_SQLiteStorage(t *testing.T) {
	sessionEnv(t, "http://127.0.0.1:1")
	state := t.TempDir()
	t.Setenv("FOLIO_STORAGE", "sqlite")
	t.Setenv("FOLIO_STATE_DIR", state)

	var stderr bytes.Buffer
	sess, err := NewSession(testCommand(&stderr))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", sess.Backend.Name())

	require.NoError(t, sess.Backend.Set(context.Background(), "auth_token", "abc"))
	sess.Close()

	assert.FileExists(t, filepath.Join(state, "folio.db"))
}
