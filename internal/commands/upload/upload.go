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

// Package upload implements the upload command.
package upload

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/client"
	"github.com/tombee/folio/internal/commands/completion"
	"github.com/tombee/folio/internal/commands/shared"
	folioerrors "github.com/tombee/folio/pkg/errors"
)

// NewCommand creates the upload command.
func NewCommand() *cobra.Command {
	var (
		field  string
		form   []string
		filter string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "upload <path> <file>...",
		Short: "Upload files as a multipart form",
		Long: `POST one or more files to <path> as multipart/form-data with the stored
credential attached.

Uploads are never retried and do not change the stored session, even when the
server rejects them.`,
		Example: `  folio upload /me/avatar me.png
  folio upload /assets a.png b.png --field files -F album=trip`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: completion.CompleteUploadArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, names := args[0], args[1:]

			fields, err := parseFields(form)
			if err != nil {
				return shared.NewUsageError("invalid --form", err)
			}

			files := make([]client.File, 0, len(names))
			for _, name := range names {
				f, err := os.Open(name)
				if err != nil {
					return shared.NewUsageError("cannot read file", folioerrors.Wrap(err, "open upload file"))
				}
				defer f.Close()
				files = append(files, client.File{
					Field:       field,
					Name:        filepath.Base(name),
					Content:     f,
					ContentType: mime.TypeByExtension(filepath.Ext(name)),
				})
			}

			sess, err := shared.NewSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			var spinner *shared.Spinner
			if !shared.GetQuiet() {
				spinner = shared.NewSpinner(cmd.ErrOrStderr())
				spinner.Start(fmt.Sprintf("Uploading %d file(s)", len(files)))
			}
			counter := shared.NewByteCounter(spinner)
			for i := range files {
				files[i].Content = counter.Wrap(files[i].Content)
			}

			payload, err := sess.Client.Upload(cmd.Context(), path, fields, files...)
			var elapsed time.Duration
			if spinner != nil {
				elapsed = spinner.Stop()
			}
			sess.Logger.Debug("upload finished",
				slog.String("path", path),
				slog.Int64("bytes", counter.Total()),
				slog.Int64("duration_ms", elapsed.Milliseconds()))
			if err != nil {
				return shared.NewRequestError(fmt.Sprintf("upload to %s failed", path), err)
			}

			if shared.GetQuiet() {
				return nil
			}
			return shared.PrintPayload(cmd.Context(), cmd.OutOrStdout(), payload, shared.OutputOptions{Filter: filter, Raw: raw})
		},
	}

	cmd.Flags().StringVar(&field, "field", "file", "Form field name for the files")
	cmd.Flags().StringArrayVarP(&form, "form", "F", nil, "Extra form field as key=value (repeatable)")
	cmd.Flags().StringVar(&filter, "jq", "", "Filter the response with a jq expression")
	cmd.Flags().BoolVarP(&raw, "raw-output", "r", false, "Print string results without quotes")

	return cmd
}

func parseFields(values []string) (map[string]string, error) {
	fields := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, &folioerrors.ValidationError{
				Field:   "--form",
				Message: fmt.Sprintf("expected key=value, got %q", v),
				Hint:    "pass extra form fields as -F album=trip",
			}
		}
		fields[key] = value
	}
	return fields, nil
}
