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
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/client"
)

// endpointHints are offered next to the configured prefixes.
var endpointHints = []string{
	"/me\tSigned-in user",
	"/auth/login\tSign in",
	"/auth/logout\tSign out",
	"/assets\tMedia library",
}

// uploadHints are the multipart endpoints.
var uploadHints = []string{
	"/assets\tMedia library",
	"/me/avatar\tProfile picture",
	"/posts/\tPost cover, /posts/<id>/cover",
}

// CompleteAPIPaths completes the path argument of the request commands.
func CompleteAPIPaths(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return pathCandidates(policyForCompletion(), toComplete), cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteUploadArgs completes an upload endpoint, then local files.
func CompleteUploadArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return []string{}, cobra.ShellCompDirectiveDefault
		}
		return filterHints(uploadHints, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
}

func policyForCompletion() client.Policy {
	cfg, err := LoadConfigForCompletion()
	if err != nil || cfg == nil {
		return client.DefaultPolicy()
	}
	return cfg.Policy()
}

// pathCandidates lists the literal prefixes of policy that start with
// toComplete, followed by matching hints. Glob entries are skipped.
func pathCandidates(policy client.Policy, toComplete string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(path, desc string) {
		if seen[path] || !strings.HasPrefix(path, toComplete) || strings.ContainsAny(path, "*?[{") {
			return
		}
		seen[path] = true
		out = append(out, path+"\t"+desc)
	}

	for _, p := range policy.PublicPrefixes {
		add(p, "Public")
	}
	for _, p := range policy.SilentPrefixes {
		add(p, "Background")
	}
	for _, hint := range endpointHints {
		path, desc, _ := strings.Cut(hint, "\t")
		add(path, desc)
	}
	return out
}

func filterHints(hints []string, toComplete string) []string {
	var out []string
	for _, hint := range hints {
		if strings.HasPrefix(hint, toComplete) {
			out = append(out, hint)
		}
	}
	return out
}
