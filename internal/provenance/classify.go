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

package provenance

import (
	"net/url"
	"strings"
)

// Labels for same-origin navigation sources.
const (
	LabelHome    = "home"
	LabelAdmin   = "admin area"
	LabelArchive = "archive"
	LabelArticle = "article"
	LabelTool    = "tool"
	LabelAbout   = "about"
	LabelLogin   = "login"

	// internalPrefix prefixes the label of an unrecognized internal path.
	internalPrefix = "internal: "
)

// sectionLabels maps a path's first segment to its label.
var sectionLabels = map[string]string{
	"admin":   LabelAdmin,
	"archive": LabelArchive,
	"article": LabelArticle,
	"posts":   LabelArticle,
	"tools":   LabelTool,
	"tool":    LabelTool,
	"about":   LabelAbout,
	"login":   LabelLogin,
}

// Classify labels rawURL when it points into origin.
// It returns ok=false for cross-origin or unparseable URLs: external
// attribution is left to the server, which sees richer referrer data.
func Classify(rawURL, origin string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", false
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)

	if !strings.EqualFold(resolved.Scheme, base.Scheme) || !strings.EqualFold(resolved.Host, base.Host) {
		return "", false
	}

	return labelForPath(resolved.Path), true
}

func labelForPath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return LabelHome
	}

	section, _, _ := strings.Cut(trimmed, "/")
	if label, ok := sectionLabels[strings.ToLower(section)]; ok {
		return label
	}
	return internalPrefix + path
}
