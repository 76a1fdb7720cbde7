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

// Package storage provides the key-value slots that back folio's session state.
//
// A slot holds one whole string value per key. Readers never observe a
// partially written value. The memory backend swaps values under a lock
// and the file backend writes to a temporary file and renames it into
// place. The sqlite backend upserts one row per key, and the keychain
// backend delegates to the operating system.
//
// Backends:
//   - memory: process-scoped, lost on exit
//   - file: one file per key under a state directory, optionally sealed with a master key
//   - keychain: the OS keychain via go-keyring
//   - sqlite: a single folio.db in the state directory, sealed like the file backend
package storage
