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

// Package config implements the config command group.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/folio/internal/commands/shared"
	"github.com/tombee/folio/internal/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and check configuration",
		Long: `View and check folio configuration.

Subcommands:
  show     - Display the effective configuration
  path     - Show config file location
  validate - Check the configuration for problems`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(NewValidateCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd, args)
	}

	return cmd
}

// newConfigShowCommand creates the 'config show' subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration folio would run with: the config file merged
with defaults and environment overrides.

The storage master key is masked. Use --json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := resolvePath()
			if err != nil {
				return shared.NewConfigError("failed to determine config path", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// resolvePath returns the config file in effect and whether it exists.
func resolvePath() (string, bool, error) {
	path := shared.GetConfigPath()
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return "", false, err
		}
	}
	_, err := os.Stat(path)
	return path, err == nil, nil
}

// runConfigShow displays the effective configuration
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, exists, err := resolvePath()
	if err != nil {
		return shared.NewConfigError("failed to determine config path", err)
	}
	if !exists && shared.GetConfigPath() != "" {
		return shared.NewConfigError(fmt.Sprintf("no configuration file found at %s", path), nil)
	}

	source := path
	if !exists {
		source = ""
	}
	cfg, err := config.Decode(source)
	if err != nil {
		return shared.NewConfigError("failed to load config", err)
	}
	if u := shared.GetBaseURL(); u != "" {
		cfg.API.BaseURL = u
	}

	masked := maskSensitiveConfig(cfg)
	out := cmd.OutOrStdout()

	if shared.GetJSON() {
		doc, err := asDocument(masked)
		if err != nil {
			return err
		}
		return shared.EmitJSON(out, doc)
	}

	if exists {
		fmt.Fprintf(out, "Configuration: %s\n", path)
	} else {
		fmt.Fprintln(out, "Configuration: defaults (no config file)")
	}
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)
	return outputConfigYAML(out, masked)
}

// maskSensitiveConfig creates a copy of config with sensitive values masked
func maskSensitiveConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	masked.Storage.MasterKey = maskSecret(cfg.Storage.MasterKey)
	// exporter headers usually carry collector API keys
	if len(cfg.Telemetry.Headers) > 0 {
		masked.Telemetry.Headers = make(map[string]string, len(cfg.Telemetry.Headers))
		for k, v := range cfg.Telemetry.Headers {
			masked.Telemetry.Headers[k] = maskSecret(v)
		}
	}
	return &masked
}

// maskSecret masks a secret for display
func maskSecret(key string) string {
	if key == "" {
		return ""
	}

	// If it's an environment variable reference, don't mask
	if strings.HasPrefix(key, "${") && strings.HasSuffix(key, "}") {
		return key
	}

	// Show first 4 and last 4 characters
	if len(key) <= 8 {
		return "****"
	}

	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// asDocument converts cfg to a generic document keyed by its YAML names, so
// JSON output uses the same keys and duration strings as the config file.
func asDocument(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return doc, nil
}

// outputConfigYAML outputs config in YAML format
func outputConfigYAML(w io.Writer, cfg *config.Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return encoder.Close()
}
