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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// msgSessionExpired is the message of the local 401 raised for an expired
// credential.
const msgSessionExpired = "session expired"

// Error is a classified API failure: a non-2xx response, or a protected
// request refused locally because the credential expired.
type Error struct {
	Status  int
	Message string
	// Payload is the decoded JSON error body when it was an object.
	Payload map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUserVisible implements errors.UserVisibleError.
func (e *Error) IsUserVisible() bool { return true }

// UserMessage implements errors.UserVisibleError.
func (e *Error) UserMessage() string { return e.Message }

// Suggestion implements errors.UserVisibleError.
func (e *Error) Suggestion() string {
	switch e.Status {
	case http.StatusUnauthorized:
		return "Sign in again with 'folio auth login'"
	case http.StatusForbidden:
		return "The signed-in account is not allowed to do this"
	default:
		return ""
	}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 *Error.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 *Error.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// readError builds an *Error from a non-2xx response. The body is read as
// text first; a JSON object with a message or msg field supplies the message,
// otherwise the status text does.
func readError(resp *http.Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: statusText(resp),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return apiErr
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}
	apiErr.Payload = payload
	for _, key := range []string{"message", "msg"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = "status " + strconv.Itoa(resp.StatusCode)
	}
	return text
}
