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

// Package auth implements the auth login, logout and status commands.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/api"
	"github.com/tombee/folio/internal/commands/shared"
	"github.com/tombee/folio/internal/credential"
	internallog "github.com/tombee/folio/internal/log"
)

// NewCommand creates the auth command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored sign-in",
	}
	cmd.AddCommand(newLoginCommand(), newLogoutCommand(), newStatusCommand())
	return cmd
}

func newLoginCommand() *cobra.Command {
	var (
		username      string
		passwordStdin bool
		accessible    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in with a username and password. The returned token is stored
in the configured storage backend and attached to later requests.

The password is prompted for without echo. Use --password-stdin to pipe it in,
or --accessible (FOLIO_ACCESSIBLE=1) for plain line prompts instead of the form.`,
		Example: `  folio auth login -u alice
  echo "$PASSWORD" | folio auth login -u alice --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, errOut := cmd.InOrStdin(), cmd.ErrOrStderr()

			var password string
			switch {
			case passwordStdin:
				if username == "" {
					return shared.NewUsageError("--username is required with --password-stdin", nil)
				}
				var err error
				if password, err = shared.ReadSecret(in, errOut, ""); err != nil {
					return shared.NewUsageError("failed to read password", err)
				}
			case shared.IsNonInteractive():
				if username == "" {
					return shared.NewUsageError("--username is required when not running interactively", nil)
				}
				return shared.NewUsageError("use --password-stdin when not running interactively", shared.ErrNonInteractive)
			default:
				var err error
				username, password, err = promptCredentials(in, errOut, username, useAccessiblePrompts(accessible, in))
				if err != nil {
					return shared.NewUsageError("failed to read credentials", err)
				}
			}
			if password == "" {
				return shared.NewUsageError("password must not be empty", nil)
			}

			sess, err := shared.NewSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			res, err := sess.API.Login(cmd.Context(), api.Credentials{Username: username, Password: password})
			if err != nil {
				return shared.NewRequestError("login failed", err)
			}

			name := username
			if res.User != nil && res.User.Username != "" {
				name = res.User.Username
			}
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), statusOf(res.Token, sess.Backend.Name(), time.Now()))
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Signed in as "+name))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&accessible, "accessible", false, "Use plain text prompts instead of the sign-in form")

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := shared.NewSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.API.Logout(cmd.Context()); err != nil {
				return shared.NewRequestError("logout failed", err)
			}
			// an expired or rejected token is what logout was asked to drop
			sess.Discard()
			if !shared.GetQuiet() {
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Signed out"))
			}
			return nil
		},
	}
}

// Status describes the stored credential.
type Status struct {
	SignedIn  bool       `json:"signed_in"`
	Expired   bool       `json:"expired,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Token     string     `json:"token,omitempty"`
	Backend   string     `json:"backend"`
}

// errSignedOut is returned by status when no usable credential is stored.
var errSignedOut = errors.New("not signed in")

func newStatusCommand() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored sign-in",
		Long: `Show whether a session token is stored and what it claims. The token's
expiry is read without verifying its signature. Use --verify to ask the
server.

Exits with status 3 when signed out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := shared.NewSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			st := statusOf(sess.Credentials.Get(cmd.Context()), sess.Backend.Name(), time.Now())
			if verify && st.SignedIn && !st.Expired {
				if _, err := sess.API.Me(cmd.Context()); err != nil {
					return shared.NewRequestError("session rejected by server", err)
				}
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				if err := shared.EmitJSON(out, st); err != nil {
					return err
				}
			} else if !shared.GetQuiet() {
				printStatus(cmd, st)
			}

			if !st.SignedIn || st.Expired {
				return &shared.ExitError{Code: shared.ExitAuth, Message: errSignedOut.Error()}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the server")
	return cmd
}

func statusOf(token, backend string, now time.Time) Status {
	st := Status{Backend: backend}
	if token == "" {
		return st
	}
	st.SignedIn = true
	st.Token = internallog.SanitizeToken(token)

	claims := credential.Inspect(token)
	st.Subject = claims.Subject
	st.Issuer = claims.Issuer
	if claims.HasExpiry() {
		exp := claims.ExpiresAt
		st.ExpiresAt = &exp
		st.Expired = credential.IsExpired(token, now)
	}
	return st
}

func printStatus(cmd *cobra.Command, st Status) {
	out := cmd.OutOrStdout()
	switch {
	case !st.SignedIn:
		fmt.Fprintln(out, shared.RenderError("Not signed in"))
	case st.Expired:
		fmt.Fprintln(out, shared.RenderWarn("Session expired"))
	default:
		fmt.Fprintln(out, shared.RenderOK("Signed in"))
	}
	if st.Subject != "" {
		fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("user:"), st.Subject)
	}
	if st.ExpiresAt != nil {
		fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("expires:"), st.ExpiresAt.Local().Format(time.RFC1123))
	}
	if st.Token != "" {
		fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("token:"), st.Token)
	}
	fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("storage:"), st.Backend)
}
