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

package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/folio/internal/cli"
	"github.com/tombee/folio/internal/commands/shared"
)

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	shared.ResetFlagsForTest()
	t.Cleanup(shared.ResetFlagsForTest)
	shared.SetVersion("1.4.0", "abc1234", "2025-12-22")
	t.Cleanup(func() { shared.SetVersion("dev", "unknown", "unknown") })

	root := cli.NewRootCommand()
	root.AddCommand(NewVersionCommand())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"version"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestVersion_Text(t *testing.T) {
	out := runVersion(t)
	assert.Contains(t, out, "folio version 1.4.0")
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersion_Short(t *testing.T) {
	assert.Equal(t, "1.4.0\n", runVersion(t, "--short"))
}

func TestVersion_JSON(t *testing.T) {
	var info Info
	require.NoError(t, json.Unmarshal([]byte(runVersion(t, "--json")), &info))
	assert.Equal(t, Info{
		Version:   "1.4.0",
		Commit:    "abc1234",
		BuildDate: "2025-12-22",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}, info)
}
