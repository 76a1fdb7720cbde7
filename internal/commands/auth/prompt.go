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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tombee/folio/internal/commands/shared"
)

// errLoginCancelled is returned when the sign-in form is dismissed.
var errLoginCancelled = errors.New("login cancelled")

// useAccessiblePrompts reports whether plain line prompts should replace
// the sign-in form.
func useAccessiblePrompts(flagValue bool, in io.Reader) bool {
	if flagValue || os.Getenv("FOLIO_ACCESSIBLE") == "1" {
		return true
	}
	f, ok := in.(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}

// promptCredentials asks for the username (unless already known) and the
// password.
func promptCredentials(in io.Reader, out io.Writer, username string, accessible bool) (string, string, error) {
	if accessible {
		return promptPlain(in, out, username)
	}

	var password string
	fields := []huh.Field{}
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(requireValue("username")))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Validate(requireValue("password")))

	form := huh.NewForm(huh.NewGroup(fields...)).WithOutput(out)
	if !shared.ColorEnabled() {
		form = form.WithTheme(huh.ThemeBase())
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", errLoginCancelled
		}
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

func promptPlain(in io.Reader, out io.Writer, username string) (string, string, error) {
	// one buffer for both reads so a piped password survives the username read
	br := bufio.NewReader(in)
	secretIn := io.Reader(br)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secretIn = f
	}

	if username == "" {
		var err error
		if username, err = shared.ReadLine(br, out, "Username: "); err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		if err := requireValue("username")(username); err != nil {
			return "", "", err
		}
	}
	password, err := shared.ReadSecret(secretIn, out, "Password: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(username), password, nil
}

// requireValue rejects blank input without echoing it back.
func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
