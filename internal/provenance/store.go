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

// Package provenance remembers the page a visitor navigated away from, so the
// next page's first article read can report where the visitor came from.
//
// The record is a single-reader mailbox: Capture writes it on departure,
// Consume reads and deletes it on arrival, and a record older than the TTL is
// treated as absent.
package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/storage"
)

const (
	// DefaultKey is the storage key holding the provenance record.
	DefaultKey = "nav_provenance"

	// DefaultTTL is how long a captured record stays consumable.
	DefaultTTL = 15 * time.Second
)

// Record is the stored form of a captured page departure.
type Record struct {
	URL          string `json:"url"`
	CapturedAtMs int64  `json:"captured_at_ms"`
}

// Store is the navigation provenance mailbox.
type Store struct {
	backend storage.Backend
	key     string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	// mu serializes Consume so that concurrent readers see first-wins semantics.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for swallowed storage errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a provenance store over backend.
func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  internallog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = internallog.WithComponent(s.logger, "provenance")
	return s
}

// TTL returns the record lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Capture records url as the page being left.
func (s *Store) Capture(ctx context.Context, url string) {
	if url == "" {
		return
	}

	data, err := json.Marshal(Record{URL: url, CapturedAtMs: s.now().UnixMilli()})
	if err != nil {
		return
	}
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("provenance capture failed", internallog.Error(err))
	}
}

// Consume returns the captured url if it is younger than the TTL, or "".
// The record is deleted whether or not it was fresh.
func (s *Store) Consume(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("provenance read failed", internallog.Error(err))
		}
		return ""
	}

	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("provenance delete failed", internallog.Error(err))
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.URL == "" {
		return ""
	}

	age := s.now().UnixMilli() - rec.CapturedAtMs
	if age < 0 || age > s.ttl.Milliseconds() {
		return ""
	}
	return rec.URL
}
