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

package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tombee/folio/internal/jq"
)

// OutputOptions controls how an API payload is printed.
type OutputOptions struct {
	// Filter is a jq expression applied to the payload.
	Filter string
	// Raw prints string results without JSON quoting.
	Raw bool
}

// PrintPayload writes payload to w, one value per line when a filter
// produces several. An empty payload prints nothing.
func PrintPayload(ctx context.Context, w io.Writer, payload json.RawMessage, opts OutputOptions) error {
	if len(payload) == 0 && opts.Filter == "" {
		return nil
	}

	if opts.Filter == "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	}

	results, err := jq.NewExecutor(0, 0).Filter(ctx, opts.Filter, payload)
	if err != nil {
		return NewUsageError("jq filter failed", err)
	}
	for _, v := range results {
		if s, ok := v.(string); ok && opts.Raw {
			fmt.Fprintln(w, s)
			continue
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		fmt.Fprintln(w, string(data))
	}
	return nil
}

// EmitJSON writes v to w as indented JSON.
func EmitJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
