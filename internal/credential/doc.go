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
Package credential owns the bearer credential that authenticates API calls.

The Store wraps a single storage slot. It never returns errors: a slot that
cannot be read is treated as empty, and sentinel values such as "null" or
"undefined" left behind by other writers are cleared on sight.

The inspector functions decode a credential's claims without verifying its
signature. The server remains the authority on validity; the decoded expiry
only lets the client skip a request that is certain to be rejected. A
credential whose claims cannot be decoded is never reported as expired.
*/
package credential
