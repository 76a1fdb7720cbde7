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

package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/client"
)

func TestPathCandidates(t *testing.T) {
	policy := client.Policy{
		PublicPrefixes: []string{"/posts", "/pages/*", "/tags"},
		SilentPrefixes: []string{"/analytics/page-view"},
		ArticlePattern: "/posts/*",
	}

	all := pathCandidates(policy, "")
	want := []string{
		"/posts\tPublic",
		"/tags\tPublic",
		"/analytics/page-view\tBackground",
		"/me\tSigned-in user",
		"/auth/login\tSign in",
		"/auth/logout\tSign out",
		"/assets\tMedia library",
	}
	if strings.Join(all, "|") != strings.Join(want, "|") {
		t.Errorf("pathCandidates() = %q, want %q", all, want)
	}

	got := pathCandidates(policy, "/a")
	if len(got) != 4 {
		t.Errorf("expected 4 candidates for /a, got %q", got)
	}
}

func TestCompleteUploadArgs(t *testing.T) {
	got, directive := CompleteUploadArgs(&cobra.Command{}, nil, "/me")
	if len(got) != 1 || !strings.HasPrefix(got[0], "/me/avatar") || directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("unexpected endpoint completion %q, %v", got, directive)
	}

	got, directive = CompleteUploadArgs(&cobra.Command{}, []string{"/assets"}, "")
	if len(got) != 0 || directive != cobra.ShellCompDirectiveDefault {
		t.Errorf("expected file completion after the endpoint, got %q, %v", got, directive)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := &cobra.Command{Use: "folio"}
			root.AddCommand(NewCommand())
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s failed: %v", shell, err)
			}
			if !strings.Contains(out.String(), "folio") {
				t.Errorf("script does not mention folio")
			}
		})
	}

	root := &cobra.Command{Use: "folio"}
	root.AddCommand(NewCommand())
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
