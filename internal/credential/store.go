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

package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/storage"
)

// DefaultKey is the storage key holding the bearer credential.
const DefaultKey = "auth_token"

// Store holds at most one bearer credential.
type Store struct {
	backend storage.Backend
	key     string
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger used for swallowed storage errors.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a credential store over backend.
func NewStore(backend storage.Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  internallog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = internallog.WithComponent(s.logger, "credential")
	return s
}

// Get returns the stored credential, or "" when none is stored.
func (s *Store) Get(ctx context.Context) string {
	value, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("credential read failed, treating as absent",
				internallog.BackendKey, s.backend.Name(), internallog.Error(err))
		}
		return ""
	}

	if isSentinel(value) {
		s.logger.Debug("clearing sentinel credential value")
		s.Clear(ctx)
		return ""
	}

	return value
}

// Set replaces the stored credential. Sentinel values clear the slot instead.
func (s *Store) Set(ctx context.Context, token string) {
	if isSentinel(token) {
		s.Clear(ctx)
		return
	}

	if err := s.backend.Set(ctx, s.key, token); err != nil {
		s.logger.Warn("credential write failed",
			internallog.BackendKey, s.backend.Name(), internallog.Error(err))
		return
	}
	s.logger.Debug("credential stored", "token", internallog.SanitizeToken(token))
}

// Clear removes the stored credential. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("credential delete failed",
			internallog.BackendKey, s.backend.Name(), internallog.Error(err))
	}
}

// isSentinel reports values that must never be treated as a credential.
func isSentinel(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "null", "undefined":
		return true
	default:
		return false
	}
}
