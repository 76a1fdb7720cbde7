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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptCredentials_Plain(t *testing.T) {
	var out bytes.Buffer
	user, pass, err := promptCredentials(strings.NewReader("alice\nsecret\ntrailing\n"), &out, "", true)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)
	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")
}

func TestPromptCredentials_KnownUsername(t *testing.T) {
	var out bytes.Buffer
	user, pass, err := promptCredentials(strings.NewReader("secret\n"), &out, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
	assert.Equal(t, "secret", pass)
	assert.NotContains(t, out.String(), "Username: ")
}

func TestPromptCredentials_BlankUsername(t *testing.T) {
	_, _, err := promptCredentials(strings.NewReader("  \nsecret\n"), &bytes.Buffer{}, "", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username is required")
}

func TestUseAccessiblePrompts(t *testing.T) {
	t.Setenv("FOLIO_ACCESSIBLE", "")
	assert.True(t, useAccessiblePrompts(true, nil))
	assert.True(t, useAccessiblePrompts(false, strings.NewReader("")), "non-file input")

	t.Setenv("FOLIO_ACCESSIBLE", "1")
	assert.True(t, useAccessiblePrompts(false, nil))
}

func TestRequireValue(t *testing.T) {
	check := requireValue("password")
	assert.NoError(t, check("hunter2"))

	err := check(" ")
	require.Error(t, err)
	assert.Equal(t, "password is required", err.Error())
}
