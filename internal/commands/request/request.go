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

// Package request implements the raw get, post, put and delete commands.
package request

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/client"
	"github.com/tombee/folio/internal/commands/completion"
	"github.com/tombee/folio/internal/commands/shared"
	folioerrors "github.com/tombee/folio/pkg/errors"
)

type options struct {
	data    string
	headers []string
	filter  string
	raw     bool
}

// NewCommands returns one command per HTTP method.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		newMethodCommand(http.MethodGet, false),
		newMethodCommand(http.MethodPost, true),
		newMethodCommand(http.MethodPut, true),
		newMethodCommand(http.MethodDelete, false),
	}
}

func newMethodCommand(method string, takesBody bool) *cobra.Command {
	var opts options
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request to the API", method),
		Long: fmt.Sprintf(`Send a %s request to the API and print the JSON response.

The stored credential is attached automatically. Public reads continue as a
guest when the session has lapsed.`, method),
		Example:           fmt.Sprintf("  folio %s /posts/42 --jq .title", name),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteAPIPaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, method, args[0], opts)
		},
	}

	if takesBody {
		cmd.Flags().StringVarP(&opts.data, "data", "d", "", "Request body; @file reads a file, - reads stdin")
	}
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&opts.filter, "jq", "", "Filter the response with a jq expression")
	cmd.Flags().BoolVarP(&opts.raw, "raw-output", "r", false, "Print string results without quotes")

	return cmd
}

func run(cmd *cobra.Command, method, path string, opts options) error {
	header, err := ParseHeaders(opts.headers)
	if err != nil {
		return shared.NewUsageError("invalid --header", err)
	}
	body, err := readBody(cmd.InOrStdin(), opts.data)
	if err != nil {
		return shared.NewUsageError("invalid --data", err)
	}

	sess, err := shared.NewSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	req := client.Request{Path: path, Method: method, Header: header}
	if body != nil {
		req.Body = body
	}
	payload, err := sess.Client.Execute(cmd.Context(), req)
	if err != nil {
		return shared.NewRequestError(fmt.Sprintf("%s %s failed", method, path), err)
	}

	if shared.GetQuiet() {
		return nil
	}
	return shared.PrintPayload(cmd.Context(), cmd.OutOrStdout(), payload, shared.OutputOptions{Filter: opts.filter, Raw: opts.raw})
}

// ParseHeaders parses 'Name: value' pairs.
func ParseHeaders(values []string) (http.Header, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := http.Header{}
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &folioerrors.ValidationError{
				Field:   "--header",
				Message: fmt.Sprintf("expected 'Name: value', got %q", v),
				Hint:    `pass headers as -H "Accept: text/plain"`,
			}
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}

func readBody(stdin io.Reader, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		return b, folioerrors.Wrapf(err, "failed to read request body from %s", data[1:])
	default:
		return []byte(data), nil
	}
}
