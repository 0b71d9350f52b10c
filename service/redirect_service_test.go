// service/redirect_service_test.go
package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/relay/audit"
	"github.com/dev-mohitbeniwal/relay/dao"
	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
	"github.com/dev-mohitbeniwal/relay/redirect"
	"github.com/dev-mohitbeniwal/relay/service"
	test_mock "github.com/dev-mohitbeniwal/relay/test/mock"
	"github.com/dev-mohitbeniwal/relay/util"
)

const (
	ownerA = "owner-a"
	ownerB = "owner-b"
)

type recordingBroadcaster struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (b *recordingBroadcaster) Publish(ctx context.Context, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reasons = append(b.reasons, reason)
	return b.err
}

func (b *recordingBroadcaster) Reasons() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reasons...)
}

type fixture struct {
	store       *dao.MemoryRedirectDAO
	cache       *redirect.Cache
	router      *redirect.Router
	broadcaster *recordingBroadcaster
	audit       *test_mock.MockAuditService
	eventBus    *util.EventBus
	svc         *service.RedirectService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:       dao.NewMemoryRedirectDAO(),
		broadcaster: &recordingBroadcaster{},
		audit:       new(test_mock.MockAuditService),
		eventBus:    util.NewEventBus(),
	}
	// handlers must not outlive the test that published their event
	t.Cleanup(f.eventBus.Wait)
	f.audit.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.cache = redirect.NewCache(f.store, time.Minute)
	f.router = redirect.NewRouter(f.cache, []string{"/_next", "/api", "/static", "/studio"})
	f.svc = service.NewRedirectService(f.store, f.cache, f.broadcaster, f.audit,
		util.NewValidationUtil(), util.NewNotificationService(), f.eventBus)
	return f
}

func (f *fixture) request(path string) redirect.RouterDecision {
	return f.router.Handle(httptest.NewRequest("GET", "http://site.test"+path, nil))
}

func boolPtr(v bool) *bool { return &v }

func TestCreateRedirect_DefaultsAndStamps(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateRedirect(context.Background(), model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, ownerA, created.OwnerID)
	assert.True(t, created.Permanent)
	assert.True(t, created.Active)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateRedirect_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input model.RedirectInput
		field string
	}{
		{"MissingSource", model.RedirectInput{Destination: "/new"}, "source"},
		{"RelativeSource", model.RedirectInput{Source: "old", Destination: "/new"}, "source"},
		{"SchemeInSource", model.RedirectInput{Source: "/https://evil.test", Destination: "/new"}, "source"},
		{"MissingDestination", model.RedirectInput{Source: "/old", Destination: "  "}, "destination"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRedirect(context.Background(), tt.input, ownerA)
			require.Error(t, err)
			assert.True(t, errors.Is(err, relay_errors.ErrInvalidRedirectData))

			var verr *relay_errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	rules, err := f.store.ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestCreateRedirect_DuplicateSourceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)

	_, err = f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/other", Active: boolPtr(false)}, ownerA)
	assert.ErrorIs(t, err, relay_errors.ErrRedirectConflict)

	rules, err := f.store.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	// another owner may use the same source
	_, err = f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/theirs"}, ownerB)
	assert.NoError(t, err)
}

func TestUpdateRedirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/a", Destination: "/x", Permanent: boolPtr(false)}, ownerA)
	require.NoError(t, err)
	_, err = f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/b", Destination: "/y"}, ownerA)
	require.NoError(t, err)

	t.Run("KeepsOmittedFlags", func(t *testing.T) {
		updated, err := f.svc.UpdateRedirect(ctx, first.ID, model.RedirectInput{Source: "/a", Destination: "/z"}, ownerA)
		require.NoError(t, err)
		assert.Equal(t, "/z", updated.Destination)
		assert.False(t, updated.Permanent)
		assert.True(t, updated.Active)
		assert.Equal(t, first.CreatedAt, updated.CreatedAt)
		assert.Equal(t, first.ID, updated.ID)
	})

	t.Run("ChangesFlags", func(t *testing.T) {
		updated, err := f.svc.UpdateRedirect(ctx, first.ID, model.RedirectInput{Source: "/a", Destination: "/z", Active: boolPtr(false)}, ownerA)
		require.NoError(t, err)
		assert.False(t, updated.Active)
	})

	t.Run("SourceTakenByOtherRule", func(t *testing.T) {
		_, err := f.svc.UpdateRedirect(ctx, first.ID, model.RedirectInput{Source: "/b", Destination: "/z"}, ownerA)
		assert.ErrorIs(t, err, relay_errors.ErrRedirectConflict)
	})

	t.Run("NotOwned", func(t *testing.T) {
		_, err := f.svc.UpdateRedirect(ctx, first.ID, model.RedirectInput{Source: "/a", Destination: "/mine"}, ownerB)
		assert.ErrorIs(t, err, relay_errors.ErrRedirectNotFound)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := f.svc.UpdateRedirect(ctx, "missing", model.RedirectInput{Source: "/a", Destination: "/z"}, ownerA)
		assert.ErrorIs(t, err, relay_errors.ErrRedirectNotFound)
	})

	t.Run("InvalidSource", func(t *testing.T) {
		_, err := f.svc.UpdateRedirect(ctx, first.ID, model.RedirectInput{Source: "a", Destination: "/z"}, ownerA)
		assert.ErrorIs(t, err, relay_errors.ErrInvalidRedirectData)
	})
}

func TestDeleteRedirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteRedirect(ctx, created.ID, ownerB), relay_errors.ErrRedirectNotFound)
	assert.ErrorIs(t, f.svc.DeleteRedirect(ctx, "", ownerA), relay_errors.ErrMissingRedirectID)
	require.NoError(t, f.svc.DeleteRedirect(ctx, created.ID, ownerA))
	assert.ErrorIs(t, f.svc.DeleteRedirect(ctx, created.ID, ownerA), relay_errors.ErrRedirectNotFound)
}

func TestListRedirects_NewestFirstAndOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, src := range []string{"/one", "/two", "/three"} {
		_, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: src, Destination: "/x"}, ownerA)
		require.NoError(t, err)
	}
	_, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/foreign", Destination: "/x"}, ownerB)
	require.NoError(t, err)

	rules, err := f.svc.ListRedirects(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "/three", rules[0].Source)
	assert.Equal(t, "/one", rules[2].Source)

	empty, err := f.svc.ListRedirects(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestScenario_PermanentInternalRedirect(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateRedirect(context.Background(),
		model.RedirectInput{Source: "/old", Destination: "/new", Permanent: boolPtr(true), Active: boolPtr(true)}, ownerA)
	require.NoError(t, err)

	decision := f.request("/old")
	assert.True(t, decision.IsRedirect())
	assert.Equal(t, http.StatusMovedPermanently, decision.StatusCode)
	assert.Equal(t, "http://site.test/new", decision.Location)
}

func TestScenario_TemporaryExternalRedirect(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateRedirect(context.Background(),
		model.RedirectInput{Source: "/promo", Destination: "https://example.com", Permanent: boolPtr(false)}, ownerA)
	require.NoError(t, err)

	decision := f.request("/promo")
	assert.Equal(t, http.StatusFound, decision.StatusCode)
	assert.Equal(t, "https://example.com", decision.Location)
}

func TestScenario_DeleteThenRevalidatePassesThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)
	require.True(t, f.request("/old").IsRedirect())

	require.NoError(t, f.svc.DeleteRedirect(ctx, created.ID, ownerA))
	require.NoError(t, f.svc.Revalidate(ctx, ownerA))

	assert.Equal(t, redirect.PassThrough, f.request("/old").Action)
}

func TestScenario_MutationIsVisibleImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// warm the cache before the rule exists
	assert.False(t, f.request("/old").IsRedirect())

	created, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)
	assert.True(t, f.request("/old").IsRedirect())

	_, err = f.svc.UpdateRedirect(ctx, created.ID, model.RedirectInput{Source: "/old", Destination: "/new", Active: boolPtr(false)}, ownerA)
	require.NoError(t, err)
	assert.False(t, f.request("/old").IsRedirect())
}

func TestMutationsBroadcastAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRedirect(ctx, model.RedirectInput{Source: "/old", Destination: "/new"}, ownerA)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteRedirect(ctx, created.ID, ownerA))
	f.eventBus.Wait()

	assert.ElementsMatch(t, []string{util.EventRedirectCreated, util.EventRedirectDeleted}, f.broadcaster.Reasons())
	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(log audit.AuditLog) bool {
		return log.Action == audit.ActionCreateRedirect && log.ResourceID == created.ID && log.UserID == ownerA
	}))
	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(log audit.AuditLog) bool {
		return log.Action == audit.ActionDeleteRedirect && log.Source == "/old"
	}))
}

func TestRevalidate_BroadcastFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.broadcaster.err = errors.New("redis down")

	assert.NoError(t, f.svc.Revalidate(context.Background(), ownerA))
	f.eventBus.Wait()
	assert.Equal(t, []string{"revalidate"}, f.broadcaster.Reasons())
}

func TestRedirectHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.audit.On("QueryLogs", mock.Anything, mock.MatchedBy(func(q audit.LogQuery) bool {
		return q.UserID == ownerA
	})).Return([]audit.AuditLog{{ID: "1"}}, nil).Once()

	logs, err := f.svc.RedirectHistory(ctx, ownerA, audit.LogQuery{UserID: "someone-else", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	now := time.Now()
	_, err = f.svc.RedirectHistory(ctx, ownerA, audit.LogQuery{From: now, To: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, relay_errors.ErrInvalidTimeRange)
}

func TestCacheStats(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, redirect.CacheEmpty, f.svc.CacheStats().State)

	f.request("/anything")
	assert.Equal(t, redirect.CacheFresh, f.svc.CacheStats().State)
}
