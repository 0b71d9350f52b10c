// service/redirect_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/relay/audit"
	"github.com/dev-mohitbeniwal/relay/dao"
	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/model"
	"github.com/dev-mohitbeniwal/relay/redirect"
	"github.com/dev-mohitbeniwal/relay/util"
)

// IRedirectService defines the owner scoped redirect operations of the admin API
type IRedirectService interface {
	ListRedirects(ctx context.Context, ownerID string) ([]model.RedirectRule, error)
	CreateRedirect(ctx context.Context, input model.RedirectInput, ownerID string) (*model.RedirectRule, error)
	UpdateRedirect(ctx context.Context, redirectID string, input model.RedirectInput, ownerID string) (*model.RedirectRule, error)
	DeleteRedirect(ctx context.Context, redirectID string, ownerID string) error
	Revalidate(ctx context.Context, ownerID string) error
	RedirectHistory(ctx context.Context, ownerID string, query audit.LogQuery) ([]audit.AuditLog, error)
	CacheStats() redirect.CacheStats
}

// RedirectCache is the part of the redirect cache the admin side drives.
type RedirectCache interface {
	Invalidate()
	Stats() redirect.CacheStats
}

// Broadcaster tells other instances to drop their cached redirects.
type Broadcaster interface {
	Publish(ctx context.Context, reason string) error
}

// RedirectEvent is the payload of redirect.created/updated/deleted events.
type RedirectEvent struct {
	Rule     model.RedirectRule
	Previous *model.RedirectRule
	UserID   string
}

// RevalidateEvent is the payload of redirect.revalidated events.
type RevalidateEvent struct {
	UserID string
}

// RedirectService handles business logic for redirect operations
type RedirectService struct {
	store           dao.RedirectStore
	cache           RedirectCache
	broadcaster     Broadcaster
	auditService    audit.Service
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
	now             func() time.Time
}

// NewRedirectService wires the service and subscribes its event handlers.
// broadcaster may be nil when instances do not share invalidations.
func NewRedirectService(
	store dao.RedirectStore,
	cache RedirectCache,
	broadcaster Broadcaster,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *RedirectService {
	service := &RedirectService{
		store:           store,
		cache:           cache,
		broadcaster:     broadcaster,
		auditService:    auditService,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		now:             time.Now,
	}

	eventBus.Subscribe(util.EventRedirectCreated, service.handleRedirectCreated)
	eventBus.Subscribe(util.EventRedirectUpdated, service.handleRedirectUpdated)
	eventBus.Subscribe(util.EventRedirectDeleted, service.handleRedirectDeleted)
	eventBus.Subscribe(util.EventRedirectRevalidated, service.handleRedirectsRevalidated)

	return service
}

func (s *RedirectService) ListRedirects(ctx context.Context, ownerID string) ([]model.RedirectRule, error) {
	rules, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("Error listing redirects", zap.Error(err), zap.String("userID", ownerID))
		return nil, fmt.Errorf("failed to list redirects: %w", err)
	}
	if rules == nil {
		rules = []model.RedirectRule{}
	}
	return rules, nil
}

// CreateRedirect validates and persists a new rule. Flags default to true.
func (s *RedirectService) CreateRedirect(ctx context.Context, input model.RedirectInput, ownerID string) (*model.RedirectRule, error) {
	if err := s.validationUtil.ValidateRedirect(input); err != nil {
		return nil, err
	}

	if err := s.ensureSourceAvailable(ctx, ownerID, input.Source, ""); err != nil {
		return nil, err
	}

	now := s.now()
	rule := model.RedirectRule{
		OwnerID:     ownerID,
		Source:      input.Source,
		Destination: input.Destination,
		Permanent:   boolOrDefault(input.Permanent, true),
		Active:      boolOrDefault(input.Active, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.store.Create(ctx, rule)
	if err != nil {
		if errors.Is(err, relay_errors.ErrRedirectConflict) {
			return nil, relay_errors.ErrRedirectConflict
		}
		logger.Error("Error creating redirect", zap.Error(err), zap.String("userID", ownerID))
		return nil, fmt.Errorf("failed to create redirect: %w", err)
	}

	s.cache.Invalidate()
	s.eventBus.Publish(ctx, util.EventRedirectCreated, RedirectEvent{Rule: *created, UserID: ownerID})

	logger.Info("Redirect created successfully",
		zap.String("redirectID", created.ID),
		zap.String("source", created.Source),
		zap.String("userID", ownerID))
	return created, nil
}

// UpdateRedirect replaces source and destination of an owned rule. Flags left
// out of input keep their current value.
func (s *RedirectService) UpdateRedirect(ctx context.Context, redirectID string, input model.RedirectInput, ownerID string) (*model.RedirectRule, error) {
	if redirectID == "" {
		return nil, relay_errors.ErrMissingRedirectID
	}
	if err := s.validationUtil.ValidateRedirect(input); err != nil {
		return nil, err
	}

	existing, err := s.fetchOwned(ctx, ownerID, redirectID)
	if err != nil {
		return nil, err
	}

	if input.Source != existing.Source {
		if err := s.ensureSourceAvailable(ctx, ownerID, input.Source, redirectID); err != nil {
			return nil, err
		}
	}

	rule := *existing
	rule.Source = input.Source
	rule.Destination = input.Destination
	rule.Permanent = boolOrDefault(input.Permanent, existing.Permanent)
	rule.Active = boolOrDefault(input.Active, existing.Active)
	rule.UpdatedAt = s.now()

	updated, err := s.store.Patch(ctx, rule)
	if err != nil {
		switch {
		case errors.Is(err, relay_errors.ErrRedirectConflict):
			return nil, relay_errors.ErrRedirectConflict
		case errors.Is(err, relay_errors.ErrRedirectNotFound):
			return nil, relay_errors.ErrRedirectNotFound
		}
		logger.Error("Error updating redirect", zap.Error(err), zap.String("redirectID", redirectID), zap.String("userID", ownerID))
		return nil, fmt.Errorf("failed to update redirect: %w", err)
	}

	s.cache.Invalidate()
	s.eventBus.Publish(ctx, util.EventRedirectUpdated, RedirectEvent{Rule: *updated, Previous: existing, UserID: ownerID})

	logger.Info("Redirect updated successfully", zap.String("redirectID", redirectID), zap.String("userID", ownerID))
	return updated, nil
}

func (s *RedirectService) DeleteRedirect(ctx context.Context, redirectID string, ownerID string) error {
	if redirectID == "" {
		return relay_errors.ErrMissingRedirectID
	}

	existing, err := s.fetchOwned(ctx, ownerID, redirectID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, ownerID, redirectID); err != nil {
		if errors.Is(err, relay_errors.ErrRedirectNotFound) {
			return relay_errors.ErrRedirectNotFound
		}
		logger.Error("Error deleting redirect", zap.Error(err), zap.String("redirectID", redirectID), zap.String("userID", ownerID))
		return fmt.Errorf("failed to delete redirect: %w", err)
	}

	s.cache.Invalidate()
	s.eventBus.Publish(ctx, util.EventRedirectDeleted, RedirectEvent{Rule: *existing, UserID: ownerID})

	logger.Info("Redirect deleted successfully", zap.String("redirectID", redirectID), zap.String("userID", ownerID))
	return nil
}

// Revalidate drops the local snapshot and asks every other instance to do the
// same. A failed broadcast is logged; peers then catch up within one TTL.
func (s *RedirectService) Revalidate(ctx context.Context, ownerID string) error {
	s.cache.Invalidate()

	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, "revalidate"); err != nil {
			logger.Warn("Failed to broadcast redirect revalidation", zap.Error(err), zap.String("userID", ownerID))
		}
	}

	s.eventBus.Publish(ctx, util.EventRedirectRevalidated, RevalidateEvent{UserID: ownerID})
	logger.Info("Redirects revalidated", zap.String("userID", ownerID))
	return nil
}

// RedirectHistory returns the audit trail of the owner's own changes.
func (s *RedirectService) RedirectHistory(ctx context.Context, ownerID string, query audit.LogQuery) ([]audit.AuditLog, error) {
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return nil, relay_errors.ErrInvalidTimeRange
	}
	query.UserID = ownerID

	logs, err := s.auditService.QueryLogs(ctx, query)
	if err != nil {
		if errors.Is(err, audit.ErrQueryUnsupported) {
			return nil, err
		}
		logger.Error("Error querying redirect history", zap.Error(err), zap.String("userID", ownerID))
		return nil, fmt.Errorf("failed to query redirect history: %w", err)
	}
	if logs == nil {
		logs = []audit.AuditLog{}
	}
	return logs, nil
}

func (s *RedirectService) CacheStats() redirect.CacheStats {
	return s.cache.Stats()
}

// fetchOwned hides rules of other owners behind ErrRedirectNotFound.
func (s *RedirectService) fetchOwned(ctx context.Context, ownerID, redirectID string) (*model.RedirectRule, error) {
	rule, err := s.store.FetchByID(ctx, ownerID, redirectID)
	if err != nil {
		if errors.Is(err, relay_errors.ErrRedirectNotFound) {
			return nil, relay_errors.ErrRedirectNotFound
		}
		logger.Error("Error retrieving redirect", zap.Error(err), zap.String("redirectID", redirectID))
		return nil, fmt.Errorf("failed to retrieve redirect: %w", err)
	}
	return rule, nil
}

// ensureSourceAvailable fails with ErrRedirectConflict when another rule of the
// owner already uses source. excludeID is the rule being updated, if any.
func (s *RedirectService) ensureSourceAvailable(ctx context.Context, ownerID, source, excludeID string) error {
	existing, err := s.store.FetchBySource(ctx, ownerID, source)
	if err != nil {
		if errors.Is(err, relay_errors.ErrRedirectNotFound) {
			return nil
		}
		logger.Error("Error checking redirect source", zap.Error(err), zap.String("source", source))
		return fmt.Errorf("failed to check redirect source: %w", err)
	}
	if existing.ID == excludeID {
		return nil
	}
	logger.Warn("Duplicate redirect source rejected",
		zap.String("source", source),
		zap.String("existingID", existing.ID),
		zap.String("userID", ownerID))
	return relay_errors.ErrRedirectConflict
}

func (s *RedirectService) handleRedirectCreated(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(RedirectEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.notificationSvc.NotifyRedirectChange(ctx, "created", payload.Rule); err != nil {
		logger.Warn("Failed to send redirect creation notification", zap.Error(err), zap.String("redirectID", payload.Rule.ID))
	}
	s.broadcast(ctx, util.EventRedirectCreated)
	return s.recordAudit(ctx, audit.ActionCreateRedirect, payload)
}

func (s *RedirectService) handleRedirectUpdated(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(RedirectEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.notificationSvc.NotifyRedirectChange(ctx, "updated", payload.Rule); err != nil {
		logger.Warn("Failed to send redirect update notification", zap.Error(err), zap.String("redirectID", payload.Rule.ID))
	}
	s.broadcast(ctx, util.EventRedirectUpdated)
	return s.recordAudit(ctx, audit.ActionUpdateRedirect, payload)
}

func (s *RedirectService) handleRedirectDeleted(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(RedirectEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.notificationSvc.NotifyRedirectChange(ctx, "deleted", payload.Rule); err != nil {
		logger.Warn("Failed to send redirect deletion notification", zap.Error(err), zap.String("redirectID", payload.Rule.ID))
	}
	s.broadcast(ctx, util.EventRedirectDeleted)
	return s.recordAudit(ctx, audit.ActionDeleteRedirect, payload)
}

func (s *RedirectService) handleRedirectsRevalidated(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(RevalidateEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}
	return s.auditService.Record(ctx, audit.AuditLog{
		UserID: payload.UserID,
		Action: audit.ActionRevalidateRedirect,
	})
}

func (s *RedirectService) broadcast(ctx context.Context, reason string) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, reason); err != nil {
		logger.Warn("Failed to broadcast redirect invalidation", zap.Error(err), zap.String("reason", reason))
	}
}

func (s *RedirectService) recordAudit(ctx context.Context, action string, payload RedirectEvent) error {
	changes, err := json.Marshal(map[string]interface{}{
		"old": payload.Previous,
		"new": payload.Rule,
	})
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := audit.AuditLog{
		UserID:        payload.UserID,
		Action:        action,
		ResourceID:    payload.Rule.ID,
		Source:        payload.Rule.Source,
		Destination:   payload.Rule.Destination,
		ChangeDetails: changes,
	}
	if err := s.auditService.Record(ctx, entry); err != nil {
		logger.Error("Failed to write redirect audit log", zap.Error(err), zap.String("redirectID", payload.Rule.ID))
		return err
	}
	return nil
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
