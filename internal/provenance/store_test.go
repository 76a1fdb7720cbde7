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

package provenance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/folio/internal/storage"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock, storage.Backend) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	backend := storage.NewMemoryBackend()
	return NewStore(backend, WithClock(clock.Now)), clock, backend
}

func TestStore_CaptureThenConsume(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Capture(ctx, "/article/5")
	assert.Equal(t, "/article/5", store.Consume(ctx))
}

func TestStore_ConsumeIsReadOnce(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Capture(ctx, "/article/5")
	assert.Equal(t, "/article/5", store.Consume(ctx))
	assert.Empty(t, store.Consume(ctx))
}

func TestStore_ExpiredRecordIsAbsentAndDeleted(t *testing.T) {
	ctx := context.Background()
	store, clock, backend := newTestStore(t)

	store.Capture(ctx, "/article/5")
	clock.Advance(20 * time.Second)

	assert.Empty(t, store.Consume(ctx))
	_, err := backend.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	store.Capture(ctx, "/archive")
	clock.Advance(DefaultTTL)
	assert.Equal(t, "/archive", store.Consume(ctx))

	store.Capture(ctx, "/archive")
	clock.Advance(DefaultTTL + time.Millisecond)
	assert.Empty(t, store.Consume(ctx))
}

func TestStore_WithTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewStore(storage.NewMemoryBackend(), WithClock(clock.Now), WithTTL(time.Minute))
	assert.Equal(t, time.Minute, store.TTL())

	store.Capture(ctx, "/about")
	clock.Advance(30 * time.Second)
	assert.Equal(t, "/about", store.Consume(ctx))
}

func TestStore_CaptureOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Capture(ctx, "/")
	store.Capture(ctx, "/tags")
	assert.Equal(t, "/tags", store.Consume(ctx))
}

func TestStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	store, _, backend := newTestStore(t)

	require.NoError(t, backend.Set(ctx, DefaultKey, "{not json"))
	assert.Empty(t, store.Consume(ctx))

	_, err := backend.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ConcurrentConsumeFirstWins(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	store.Capture(ctx, "/article/9")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Consume(ctx) != "" {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestStore_SurvivesAcrossFileBackedInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := storage.NewFileBackend(dir, "")
	require.NoError(t, err)
	NewStore(first).Capture(ctx, "/posts/3")

	second, err := storage.NewFileBackend(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "/posts/3", NewStore(second).Consume(ctx))
}
