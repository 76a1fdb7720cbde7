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
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy classifies endpoints by path. Entries are path prefixes; entries
// containing glob metacharacters are matched against the whole path (without
// its query string) using doublestar syntax.
type Policy struct {
	// PublicPrefixes lists endpoints readable without a credential. A GET of a
	// public endpoint falls back to a guest request when the credential is
	// expired or rejected.
	PublicPrefixes []string
	// SilentPrefixes lists endpoints whose 401 responses are not announced.
	SilentPrefixes []string
	// ArticlePattern matches the single-article read that carries
	// attribution headers.
	ArticlePattern string
}

// DefaultArticlePattern matches GET /posts/<id>.
const DefaultArticlePattern = "/posts/*"

// DefaultPolicy returns the policy for the standard content API layout.
// Endpoints it does not list are protected.
func DefaultPolicy() Policy {
	return Policy{
		PublicPrefixes: []string{"/site", "/posts", "/categories", "/tags", "/about", "/comments"},
		SilentPrefixes: []string{"/analytics/page-view", "/analytics/client-ip"},
		ArticlePattern: DefaultArticlePattern,
	}
}

// Validate reports malformed glob entries.
func (p Policy) Validate() error {
	entries := append(append([]string{}, p.PublicPrefixes...), p.SilentPrefixes...)
	if p.ArticlePattern != "" {
		entries = append(entries, p.ArticlePattern)
	}
	for _, e := range entries {
		if e == "" {
			return fmt.Errorf("policy: empty entry")
		}
		if isGlob(e) && !doublestar.ValidatePattern(e) {
			return fmt.Errorf("policy: invalid pattern %q", e)
		}
	}
	return nil
}

// IsPublic reports whether path may be read as a guest.
func (p Policy) IsPublic(path string) bool {
	return matchAny(p.PublicPrefixes, path)
}

// IsSilent reports whether 401s on path are suppressed from the bus.
func (p Policy) IsSilent(path string) bool {
	return matchAny(p.SilentPrefixes, path)
}

// IsArticle reports whether path is the single-article read.
func (p Policy) IsArticle(path string) bool {
	if p.ArticlePattern == "" {
		return false
	}
	ok, _ := doublestar.Match(p.ArticlePattern, stripQuery(path))
	return ok
}

func matchAny(entries []string, path string) bool {
	for _, e := range entries {
		if isGlob(e) {
			if ok, _ := doublestar.Match(e, stripQuery(path)); ok {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, e) {
			return true
		}
	}
	return false
}

func isGlob(entry string) bool {
	return strings.ContainsAny(entry, "*?[{")
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
