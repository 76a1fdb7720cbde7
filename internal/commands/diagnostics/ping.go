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

// Package diagnostics implements the ping command.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/client"
	"github.com/tombee/folio/internal/commands/shared"
	"github.com/tombee/folio/internal/credential"
)

// PingResult contains the ping health check result
type PingResult struct {
	BaseURL       string `json:"base_url"`
	Reachable     bool   `json:"reachable"`
	LatencyMS     int64  `json:"latency_ms,omitempty"`
	SignedIn      bool   `json:"signed_in"`
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
	Healthy       bool   `json:"healthy"`
	Error         string `json:"error,omitempty"`
	ErrorStep     string `json:"error_step,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Steps reported in PingResult.ErrorStep.
const (
	stepReachable     = "reachable"
	stepAuthenticated = "authenticated"
)

// NewPingCommand creates the ping command
func NewPingCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Quick health check for the API and the stored session",
		Long: `Test connectivity with the API and, when signed in, whether the server
still accepts the stored session.

This performs a lightweight check:
  1. Reachable - GET /site answers
  2. Signed in - a session token is stored and not expired
  3. Authenticated - GET /me accepts the token

A rejected token is cleared, exactly as any other request would.

Exit codes:
  0 - API is reachable and the session (if any) is accepted
  1 - API unreachable or session rejected`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd, timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Overall time limit")

	return cmd
}

func runPing(cmd *cobra.Command, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sess, err := shared.NewSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	result := ping(ctx, sess, time.Now)

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		if err := shared.EmitJSON(out, result); err != nil {
			return err
		}
	} else if !shared.GetQuiet() {
		outputPingText(out, result)
	}

	if !result.Healthy {
		return &shared.ExitError{Code: shared.ExitFailure, Message: "ping failed: " + result.Error}
	}
	return nil
}

// ping runs the checks in order and stops at the first failure.
func ping(ctx context.Context, sess *shared.Session, now func() time.Time) PingResult {
	result := PingResult{BaseURL: sess.Client.BaseURL()}

	start := now()
	_, err := sess.API.Site(ctx)
	var apiErr *client.Error
	if err != nil && !errors.As(err, &apiErr) {
		result.Error = err.Error()
		result.ErrorStep = stepReachable
		result.Message = "Check api.base_url with 'folio config show'."
		return result
	}
	result.Reachable = true
	result.LatencyMS = now().Sub(start).Milliseconds()

	token := sess.Credentials.Get(ctx)
	if token == "" || credential.IsExpired(token, now()) {
		result.Healthy = true
		return result
	}
	result.SignedIn = true

	user, err := sess.API.Me(ctx)
	if err != nil {
		result.Error = err.Error()
		result.ErrorStep = stepAuthenticated
		if client.IsUnauthorized(err) {
			result.Message = "Sign in again with 'folio auth login'."
		}
		return result
	}
	result.Authenticated = true
	if user != nil {
		result.User = user.Username
	}
	result.Healthy = true
	return result
}

// outputPingText outputs ping result in human-readable format
func outputPingText(w io.Writer, result PingResult) {
	fmt.Fprintf(w, "Testing API: %s\n", result.BaseURL)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Reachable:     %s\n", checkMark(result.Reachable))
	if result.Reachable {
		fmt.Fprintf(w, "  Latency:       %dms\n", result.LatencyMS)
	}
	fmt.Fprintf(w, "  Signed in:     %s\n", checkMark(result.SignedIn))
	if result.SignedIn {
		fmt.Fprintf(w, "  Authenticated: %s\n", checkMark(result.Authenticated))
	}
	if result.User != "" {
		fmt.Fprintf(w, "  User:          %s\n", result.User)
	}

	fmt.Fprintln(w)

	if result.Healthy {
		fmt.Fprintln(w, "Status: Healthy")
		return
	}
	fmt.Fprintln(w, "Status: Failed")
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}
	if result.Message != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, result.Message)
	}
}

func checkMark(ok bool) string {
	if ok {
		return shared.StatusOK.Render(shared.SymbolOK)
	}
	return shared.StatusError.Render(shared.SymbolError)
}
