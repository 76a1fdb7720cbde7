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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/folio/internal/storage"
)

// failingBackend fails every operation with ErrBackendUnavailable.
type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Get(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: locked", storage.ErrBackendUnavailable)
}
func (failingBackend) Set(context.Context, string, string) error {
	return fmt.Errorf("%w: locked", storage.ErrBackendUnavailable)
}
func (failingBackend) Delete(context.Context, string) error {
	return fmt.Errorf("%w: locked", storage.ErrBackendUnavailable)
}
func (failingBackend) Available() bool { return false }

func TestStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryBackend())

	assert.Empty(t, store.Get(ctx))

	store.Set(ctx, "token-one")
	assert.Equal(t, "token-one", store.Get(ctx))

	store.Set(ctx, "token-two")
	assert.Equal(t, "token-two", store.Get(ctx))

	store.Clear(ctx)
	assert.Empty(t, store.Get(ctx))

	// Clearing twice is fine.
	store.Clear(ctx)
	assert.Empty(t, store.Get(ctx))
}

func TestStore_SentinelValuesSelfHeal(t *testing.T) {
	for _, sentinel := range []string{"null", "undefined", "", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", sentinel), func(t *testing.T) {
			ctx := context.Background()
			backend := storage.NewMemoryBackend()
			require.NoError(t, backend.Set(ctx, DefaultKey, sentinel))

			store := NewStore(backend)
			assert.Empty(t, store.Get(ctx))

			_, err := backend.Get(ctx, DefaultKey)
			assert.ErrorIs(t, err, storage.ErrNotFound, "sentinel should be cleared from the slot")
		})
	}
}

func TestStore_SetSentinelClears(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := NewStore(backend)

	store.Set(ctx, "real-token")
	store.Set(ctx, "undefined")

	_, err := backend.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_BackendFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingBackend{})

	assert.NotPanics(t, func() {
		store.Set(ctx, "token")
		assert.Empty(t, store.Get(ctx))
		store.Clear(ctx)
	})
}

func TestStore_WithKey(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, WithKey("admin_token"))

	store.Set(ctx, "abc")
	got, err := backend.Get(ctx, "admin_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
