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
	"net/url"

	"github.com/tombee/folio/internal/notify"
)

// NoticeText returns the message shown for a session event.
func NoticeText(e notify.Event) string {
	switch e.Reason {
	case notify.ReasonTokenExpired, notify.ReasonUnauthorized:
		return "Session expired, run `folio auth login` to sign in again."
	case notify.ReasonForbiddenNoToken:
		return "This content requires signing in, run `folio auth login`."
	default:
		return string(e.Reason)
	}
}

// RenderNotice renders e as a framed warning, or as a plain line when
// styled is false.
func RenderNotice(e notify.Event, styled bool) string {
	text := NoticeText(e)
	if !styled {
		return "Notice: " + text
	}
	return Notice.Render(RenderWarn(text))
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
