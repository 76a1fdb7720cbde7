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

/*
Package client is the session-aware request dispatcher for the folio content API.

Every call goes through Execute, which attaches the stored bearer credential,
interprets session failures and publishes them on a notify.Publisher:

	c, err := client.New(
	    client.WithBaseURL("https://blog.example.com/api"),
	    client.WithCredentials(credential.NewStore(backend)),
	    client.WithPublisher(notify.Default),
	)
	if err != nil {
	    return err
	}

	post, err := client.Do[api.Post](ctx, c, client.Request{Path: "/posts/42"})

# Session handling

Before dispatch, an expired credential is cleared and a token_expired event is
published. Reads of public endpoints then continue as a guest; everything else
fails locally with a 401 and no request is sent.

A 401 response clears the credential that was attached and publishes
unauthorized, except for paths listed as silent in the Policy. A GET of a
public endpoint that was rejected while carrying a credential is retried once
as a guest. A 403 publishes forbidden_no_token only when no credential is
stored.

# Attribution

Reads of a single article carry X-Folio-Referrer and X-Folio-Source headers
derived from the navigation provenance captured by the caller, falling back to
the configured referrer.

# Uploads

Upload sends a multipart form with the bearer credential attached. It has no
expiry preflight, no guest retry and no store or bus side effects.
*/
package client
