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

// Package version implements the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/commands/shared"
)

// Info describes the running folio binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current returns the build information set by main.
func Current() Info {
	v, c, b := shared.GetVersion()
	return Info{
		Version:   v,
		Commit:    c,
		BuildDate: b,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the folio version, commit, build date and platform.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := Current()
			out := cmd.OutOrStdout()

			switch {
			case shared.GetJSON():
				return shared.EmitJSON(out, info)
			case short:
				fmt.Fprintln(out, info.Version)
				return nil
			}

			fmt.Fprintf(out, "folio version %s\n", info.Version)
			fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("commit:    "), info.Commit)
			fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("built:     "), info.BuildDate)
			fmt.Fprintf(out, "  %s %s %s\n", shared.RenderLabel("runtime:   "), info.GoVersion, info.Platform)
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
