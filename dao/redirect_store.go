// dao/redirect_store.go
package dao

import (
	"context"

	"github.com/dev-mohitbeniwal/relay/model"
)

// RedirectStore is the persistence contract for redirect rules. Lookups that
// take an ownerID only see that owner's rules.
type RedirectStore interface {
	FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.RedirectRule, error)
	FetchBySource(ctx context.Context, ownerID, source string) (*model.RedirectRule, error)
	FetchByID(ctx context.Context, ownerID, id string) (*model.RedirectRule, error)
	Create(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error)
	Patch(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error)
	Delete(ctx context.Context, ownerID, id string) error
}

var (
	_ RedirectStore = (*RedirectDAO)(nil)
	_ RedirectStore = (*GormRedirectDAO)(nil)
	_ RedirectStore = (*MemoryRedirectDAO)(nil)
)
