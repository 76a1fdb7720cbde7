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

/*
Package cli provides the root command and shared configuration for folio's CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	folio
	├── get|post|put|delete   Raw API requests
	├── open                  Read a page and record it as the navigation source
	├── upload                Multipart upload
	├── auth                  login, logout, status
	├── config                show, path, validate
	├── ping                  Check the API and the stored session
	├── completion            Shell completion scripts
	└── version               Show version

# Global Flags

All commands inherit these flags:

	--verbose, -v    Enable debug logging
	--quiet, -q      Suppress non-error output and session notices
	--json           Output in JSON format
	--config         Path to config file
	--base-url       Override the API base URL

# Error Handling

Errors are handled centrally to ensure proper exit codes:

  - Exit 0: Success
  - Exit 1: General error
  - Exit 2: Invalid usage
  - Exit 3: Session rejected (401/403)
  - Exit 78: Configuration error
*/
package cli
