// dao/memory_redirect_dao_test.go
package dao

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
)

func TestMemoryRedirectDAO_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRedirectDAO()

	created, err := store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/old", Destination: "/new", Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.FetchByID(ctx, "a", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/old", got.Source)

	_, err = store.FetchByID(ctx, "b", created.ID)
	assert.ErrorIs(t, err, relay_errors.ErrRedirectNotFound)

	got, err = store.FetchBySource(ctx, "a", "/old")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = store.FetchBySource(ctx, "b", "/old")
	assert.ErrorIs(t, err, relay_errors.ErrRedirectNotFound)

	patch := *created
	patch.Destination = "/newer"
	patch.Active = false
	patch.CreatedAt = time.Time{}
	patched, err := store.Patch(ctx, patch)
	require.NoError(t, err)
	assert.Equal(t, "/newer", patched.Destination)
	assert.False(t, patched.Active)
	assert.Equal(t, created.CreatedAt, patched.CreatedAt)

	active, err := store.FetchActiveRedirects(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, store.Delete(ctx, "b", created.ID), relay_errors.ErrRedirectNotFound)
	require.NoError(t, store.Delete(ctx, "a", created.ID))
	assert.ErrorIs(t, store.Delete(ctx, "a", created.ID), relay_errors.ErrRedirectNotFound)
}

func TestMemoryRedirectDAO_SourceUniquePerOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRedirectDAO()

	first, err := store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/one", Destination: "/x"})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/two", Destination: "/x"})
	require.NoError(t, err)

	_, err = store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/one", Destination: "/y"})
	assert.ErrorIs(t, err, relay_errors.ErrRedirectConflict)

	_, err = store.Create(ctx, model.RedirectRule{OwnerID: "b", Source: "/one", Destination: "/y"})
	assert.NoError(t, err)

	clash := *first
	clash.Source = "/two"
	_, err = store.Patch(ctx, clash)
	assert.ErrorIs(t, err, relay_errors.ErrRedirectConflict)
}

func TestMemoryRedirectDAO_ConcurrentCreatesKeepOneRule(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRedirectDAO()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/race", Destination: "/x"}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	rules, err := store.ListByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestMemoryRedirectDAO_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRedirectDAO()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/old", Destination: "/x", CreatedAt: base})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/newest", Destination: "/x", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.RedirectRule{OwnerID: "a", Source: "/tie", Destination: "/x", CreatedAt: base})
	require.NoError(t, err)

	rules, err := store.ListByOwner(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"/newest", "/tie", "/old"}, []string{rules[0].Source, rules[1].Source, rules[2].Source})
}
