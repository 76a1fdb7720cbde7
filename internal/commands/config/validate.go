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

package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/commands/shared"
	"github.com/tombee/folio/internal/config"
	"github.com/tombee/folio/internal/storage"
)

// ValidationResult represents the result of config validation.
type ValidationResult struct {
	Path     string   `json:"path,omitempty"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the 'config validate' subcommand.
func NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		Long: `Check the effective configuration and report every problem at once.

Checks performed:
  - YAML syntax and environment overrides
  - Base URL, origin, timeouts and limits
  - Endpoint prefixes and the article pattern
  - Storage backend and log settings

Warnings flag settings that work but weaken the session, such as a token
stored unsealed or sent over plain http. With --strict, warnings are treated
as errors.`,
		Example: `  # Validate configuration
  folio config validate

  # Validate with warnings as errors
  folio config validate --strict

  # Get validation result as JSON
  folio config validate --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

// runValidate performs configuration validation.
func runValidate(cmd *cobra.Command, strict bool) error {
	path, exists, err := resolvePath()
	if err != nil {
		return shared.NewConfigError("failed to determine config path", err)
	}

	result := ValidationResult{}
	source := ""
	if exists {
		source = path
		result.Path = path
	} else if shared.GetConfigPath() != "" {
		result.Errors = []string{fmt.Sprintf("no configuration file found at %s", path)}
		return outputValidationResult(cmd, result, strict)
	}

	cfg, err := config.Decode(source)
	if err != nil {
		result.Errors = []string{err.Error()}
		return outputValidationResult(cmd, result, strict)
	}

	validated := validateConfig(cfg)
	validated.Path = result.Path
	return outputValidationResult(cmd, validated, strict)
}

// validateConfig collects errors and warnings for cfg.
func validateConfig(cfg *config.Config) ValidationResult {
	errors := cfg.Problems()
	var warnings []string

	if u, err := url.Parse(cfg.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		warnings = append(warnings, "api.base_url uses plain http; the session token is sent unencrypted")
	}

	switch cfg.Storage.Backend {
	case storage.BackendMemory:
		warnings = append(warnings, "storage.backend is memory; the sign-in is lost when each command exits")
	case storage.BackendFile, storage.BackendSQLite:
		if cfg.Storage.MasterKey == "" {
			warnings = append(warnings, "storage.master_key is not set; the session token is stored unsealed")
		}
	case storage.BackendKeychain:
		if !storage.NewKeychainBackend("").Available() {
			errors = append(errors, "storage.backend is keychain but no system keychain is available")
		}
	}

	if len(cfg.Session.PublicPrefixes) == 0 {
		warnings = append(warnings, "session.public_prefixes is empty; nothing falls back to guest access")
	}

	return ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// outputValidationResult prints result and returns an error carrying the
// exit code.
func outputValidationResult(cmd *cobra.Command, result ValidationResult, strict bool) error {
	out := cmd.OutOrStdout()

	if shared.GetJSON() {
		if err := shared.EmitJSON(out, result); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	} else if !shared.GetQuiet() {
		if result.Valid {
			fmt.Fprintln(out, shared.RenderOK("Configuration is valid"))
		} else {
			fmt.Fprintln(out, shared.RenderError("Configuration validation failed"))
		}
		fmt.Fprintln(out)

		if len(result.Errors) > 0 {
			fmt.Fprintln(out, shared.Bold.Render("Errors:"))
			for _, err := range result.Errors {
				fmt.Fprintf(out, "  %s %s\n", shared.StatusError.Render(shared.SymbolError), err)
			}
			fmt.Fprintln(out)
		}

		if len(result.Warnings) > 0 {
			fmt.Fprintln(out, shared.Bold.Render("Warnings:"))
			for _, warn := range result.Warnings {
				fmt.Fprintf(out, "  %s %s\n", shared.StatusWarn.Render(shared.SymbolWarn), warn)
			}
			fmt.Fprintln(out)
		}

		if result.Valid && len(result.Warnings) == 0 {
			fmt.Fprintln(out, "No issues found.")
		}
	}

	if !result.Valid {
		return shared.NewConfigError("configuration is invalid", nil)
	}

	// In strict mode, warnings become errors
	if strict && len(result.Warnings) > 0 {
		return shared.NewConfigError("validation failed (strict mode: warnings treated as errors)", nil)
	}

	return nil
}
