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

package main

import (
	"github.com/tombee/folio/internal/cli"
	"github.com/tombee/folio/internal/commands/auth"
	"github.com/tombee/folio/internal/commands/completion"
	"github.com/tombee/folio/internal/commands/config"
	"github.com/tombee/folio/internal/commands/diagnostics"
	"github.com/tombee/folio/internal/commands/open"
	"github.com/tombee/folio/internal/commands/request"
	"github.com/tombee/folio/internal/commands/upload"
	versioncmd "github.com/tombee/folio/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// API requests
	rootCmd.AddCommand(request.NewCommands()...)
	rootCmd.AddCommand(open.NewCommand())
	rootCmd.AddCommand(upload.NewCommand())

	// Session
	rootCmd.AddCommand(auth.NewCommand())

	// Configuration
	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(completion.NewCommand())

	// Diagnostics
	rootCmd.AddCommand(diagnostics.NewPingCommand())

	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
