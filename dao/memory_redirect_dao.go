// dao/memory_redirect_dao.go

package dao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
)

// MemoryRedirectDAO keeps redirect rules in process memory. It backs local
// development (redirect.store=memory) and tests.
type MemoryRedirectDAO struct {
	mu    sync.RWMutex
	rules map[string]memoryRecord
	seq   uint64
	now   func() time.Time
}

type memoryRecord struct {
	rule model.RedirectRule
	seq  uint64
}

func NewMemoryRedirectDAO() *MemoryRedirectDAO {
	return &MemoryRedirectDAO{
		rules: make(map[string]memoryRecord),
		now:   time.Now,
	}
}

func (dao *MemoryRedirectDAO) FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	var records []memoryRecord
	for _, rec := range dao.rules {
		if rec.rule.Active {
			records = append(records, rec)
		}
	}
	return sortNewestFirst(records), nil
}

func (dao *MemoryRedirectDAO) ListByOwner(ctx context.Context, ownerID string) ([]model.RedirectRule, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	var records []memoryRecord
	for _, rec := range dao.rules {
		if rec.rule.OwnerID == ownerID {
			records = append(records, rec)
		}
	}
	return sortNewestFirst(records), nil
}

func (dao *MemoryRedirectDAO) FetchBySource(ctx context.Context, ownerID, source string) (*model.RedirectRule, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	if rec, ok := dao.findBySource(ownerID, source); ok {
		rule := rec.rule
		return &rule, nil
	}
	return nil, relay_errors.ErrRedirectNotFound
}

func (dao *MemoryRedirectDAO) FetchByID(ctx context.Context, ownerID, id string) (*model.RedirectRule, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	rec, ok := dao.rules[id]
	if !ok || rec.rule.OwnerID != ownerID {
		return nil, relay_errors.ErrRedirectNotFound
	}
	rule := rec.rule
	return &rule, nil
}

func (dao *MemoryRedirectDAO) Create(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	if _, taken := dao.findBySource(rule.OwnerID, rule.Source); taken {
		return nil, relay_errors.ErrRedirectConflict
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if _, exists := dao.rules[rule.ID]; exists {
		return nil, relay_errors.ErrRedirectConflict
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = dao.now()
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = rule.CreatedAt
	}

	dao.seq++
	dao.rules[rule.ID] = memoryRecord{rule: rule, seq: dao.seq}
	return &rule, nil
}

func (dao *MemoryRedirectDAO) Patch(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	rec, ok := dao.rules[rule.ID]
	if !ok || rec.rule.OwnerID != rule.OwnerID {
		return nil, relay_errors.ErrRedirectNotFound
	}
	if other, taken := dao.findBySource(rule.OwnerID, rule.Source); taken && other.rule.ID != rule.ID {
		return nil, relay_errors.ErrRedirectConflict
	}

	updated := rec.rule
	updated.Source = rule.Source
	updated.Destination = rule.Destination
	updated.Permanent = rule.Permanent
	updated.Active = rule.Active
	updated.UpdatedAt = rule.UpdatedAt
	if updated.UpdatedAt.IsZero() {
		updated.UpdatedAt = dao.now()
	}

	rec.rule = updated
	dao.rules[rule.ID] = rec
	return &updated, nil
}

func (dao *MemoryRedirectDAO) Delete(ctx context.Context, ownerID, id string) error {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	rec, ok := dao.rules[id]
	if !ok || rec.rule.OwnerID != ownerID {
		return relay_errors.ErrRedirectNotFound
	}
	delete(dao.rules, id)
	return nil
}

func (dao *MemoryRedirectDAO) findBySource(ownerID, source string) (memoryRecord, bool) {
	for _, rec := range dao.rules {
		if rec.rule.OwnerID == ownerID && rec.rule.Source == source {
			return rec, true
		}
	}
	return memoryRecord{}, false
}

// newest first; insertion order breaks ties between equal timestamps
func sortNewestFirst(records []memoryRecord) []model.RedirectRule {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].rule.CreatedAt.Equal(records[j].rule.CreatedAt) {
			return records[i].rule.CreatedAt.After(records[j].rule.CreatedAt)
		}
		return records[i].seq > records[j].seq
	})
	rules := make([]model.RedirectRule, 0, len(records))
	for _, rec := range records {
		rules = append(rules, rec.rule)
	}
	return rules
}
