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

package client

import (
	"context"
	"net/http"

	"github.com/tombee/folio/internal/provenance"
)

// Attribution header names.
const (
	HeaderReferrer = "X-Folio-Referrer"
	HeaderSource   = "X-Folio-Source"
)

// Attribution header length limits, in characters.
const (
	maxReferrerLen = 900
	maxSourceLen   = 200
)

// attribution returns the headers for an article read, or nil. The
// provenance mailbox is consumed here, so it must be called once per
// logical call.
func (c *Client) attribution(ctx context.Context, method, path string) http.Header {
	if method != http.MethodGet || !c.policy.IsArticle(path) {
		return nil
	}

	ref := ""
	if c.provenance != nil {
		ref = c.provenance.Consume(ctx)
	}
	if ref == "" {
		ref = c.referrer
	}
	if ref == "" {
		return nil
	}

	h := http.Header{}
	h.Set(HeaderReferrer, truncate(ref, maxReferrerLen))
	if label, ok := provenance.Classify(ref, c.origin); ok {
		h.Set(HeaderSource, truncate(label, maxSourceLen))
	}
	return h
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
