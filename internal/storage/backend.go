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

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a key has no value in the backend.
	ErrNotFound = errors.New("storage: key not found")

	// ErrBackendUnavailable is returned when a backend cannot be used in the current environment.
	ErrBackendUnavailable = errors.New("storage: backend unavailable")
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendKeychain = "keychain"
	BackendSQLite   = "sqlite"
)

// Backend is a key-value slot provider.
type Backend interface {
	// Name returns the backend identifier ("memory", "file", "keychain", "sqlite").
	Name() string

	// Get retrieves the value stored under key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Returns ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// Available reports whether the backend is usable in the current environment.
	Available() bool
}

// Options configures Open.
type Options struct {
	// Dir is the state directory used by the file and sqlite backends.
	Dir string

	// MasterKey seals file and sqlite backend values when non-empty.
	MasterKey string

	// Service is the keychain service name. Default: "folio".
	Service string
}

// Open returns the backend registered under name.
// An empty name selects the memory backend.
func Open(name string, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendFile:
		return NewFileBackend(opts.Dir, opts.MasterKey)
	case BackendKeychain:
		return NewKeychainBackend(opts.Service), nil
	case BackendSQLite:
		return NewSQLiteBackend(opts.Dir, opts.MasterKey)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", name)
	}
}
