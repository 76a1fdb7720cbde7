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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	const origin = "https://blog.example.com"

	tests := []struct {
		name   string
		rawURL string
		want   string
		wantOK bool
	}{
		{name: "root", rawURL: "https://blog.example.com/", want: LabelHome, wantOK: true},
		{name: "relative root", rawURL: "/", want: LabelHome, wantOK: true},
		{name: "admin", rawURL: "/admin/posts/edit/4", want: LabelAdmin, wantOK: true},
		{name: "archive", rawURL: "https://blog.example.com/archive?year=2024", want: LabelArchive, wantOK: true},
		{name: "article", rawURL: "/article/5", want: LabelArticle, wantOK: true},
		{name: "post detail", rawURL: "/posts/5", want: LabelArticle, wantOK: true},
		{name: "tool", rawURL: "/tools/json", want: LabelTool, wantOK: true},
		{name: "about", rawURL: "/about", want: LabelAbout, wantOK: true},
		{name: "login", rawURL: "/login?next=/admin", want: LabelLogin, wantOK: true},
		{name: "unknown internal", rawURL: "/tags/go", want: "internal: /tags/go", wantOK: true},
		{name: "case-insensitive host", rawURL: "https://BLOG.example.com/about", want: LabelAbout, wantOK: true},
		{name: "other host", rawURL: "https://www.google.com/search?q=folio", wantOK: false},
		{name: "other scheme", rawURL: "http://blog.example.com/about", wantOK: false},
		{name: "other port", rawURL: "https://blog.example.com:8443/about", wantOK: false},
		{name: "empty", rawURL: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.rawURL, origin)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_InvalidOrigin(t *testing.T) {
	_, ok := Classify("/about", "")
	assert.False(t, ok)

	_, ok = Classify("/about", "not a url")
	assert.False(t, ok)
}
