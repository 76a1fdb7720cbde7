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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/folio/internal/client"
	pkgerrors "github.com/tombee/folio/pkg/errors"
)

// Exit codes for folio commands
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
	// ExitAuth is used when the API rejected the session (401 or 403).
	ExitAuth   = 3
	ExitConfig = 78 // EX_CONFIG from sysexits.h
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUsageError creates an error for invalid arguments or flags
func NewUsageError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: msg, Cause: cause}
}

// NewConfigError creates an error for configuration failures
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Cause: cause}
}

// NewRequestError wraps an API call failure, using ExitAuth for session
// rejections.
func NewRequestError(msg string, cause error) *ExitError {
	code := ExitFailure
	if client.IsUnauthorized(cause) || client.IsForbidden(cause) {
		code = ExitAuth
	}
	return &ExitError{Code: code, Message: msg, Cause: cause}
}

// ExitCode returns the exit code err maps to.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// HandleExitError prints err and exits with its code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(PrintError(os.Stderr, err))
}

// PrintError writes err and any suggestion to w and returns the exit code.
func PrintError(w io.Writer, err error) int {
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, "Error:", msg)
	}
	printUserVisibleSuggestion(w, err)
	return ExitCode(err)
}

// printUserVisibleSuggestion prints the suggestion of the first
// UserVisibleError in err's chain.
func printUserVisibleSuggestion(w io.Writer, err error) {
	if userErr, ok := pkgerrors.AsUserVisible(err); ok {
		if suggestion := userErr.Suggestion(); suggestion != "" {
			fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
		}
	}
}
