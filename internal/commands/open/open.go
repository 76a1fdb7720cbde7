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

// Package open implements the open command, which reads a page and records
// it as the navigation source for the next article read.
package open

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/commands/completion"
	"github.com/tombee/folio/internal/commands/shared"
)

// NewCommand creates the open command.
func NewCommand() *cobra.Command {
	var (
		page   string
		filter string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Read a page and remember it as where you came from",
		Long: `Read a page from the API, print it, and record the page URL as the
navigation source. The next article read within the provenance TTL reports it
as its referrer.

The page URL defaults to the site origin joined with <path>.`,
		Example: `  folio open /posts --page https://blog.example.com/archive
  folio get /posts/42`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteAPIPaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			sess, err := shared.NewSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			pageURL := page
			if pageURL == "" {
				pageURL, err = joinURL(sess.Origin(), path)
				if err != nil {
					return shared.NewUsageError("invalid path", err)
				}
			}

			payload, err := sess.Client.Get(cmd.Context(), path)
			if err != nil {
				return shared.NewRequestError(fmt.Sprintf("GET %s failed", path), err)
			}

			// leaving the page: record it for the next article read
			sess.Provenance.Capture(cmd.Context(), pageURL)

			if shared.GetQuiet() {
				return nil
			}
			return shared.PrintPayload(cmd.Context(), cmd.OutOrStdout(), payload, shared.OutputOptions{Filter: filter, Raw: raw})
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page URL to record (default: origin + path)")
	cmd.Flags().StringVar(&filter, "jq", "", "Filter the response with a jq expression")
	cmd.Flags().BoolVarP(&raw, "raw-output", "r", false, "Print string results without quotes")

	return cmd
}

func joinURL(origin, path string) (string, error) {
	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" {
		return "", fmt.Errorf("no site origin configured")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
