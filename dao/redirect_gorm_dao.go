// dao/redirect_gorm_dao.go

package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/model"
)

// redirectRow is the mysql row of a redirect rule. Owner and source use a
// binary collation: sources are matched byte for byte, so /About and /about
// are different rules.
type redirectRow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string    `gorm:"type:varchar(191) COLLATE utf8mb4_bin;not null;uniqueIndex:uk_redirect_owner_source,priority:1"`
	Source      string    `gorm:"type:varchar(512) COLLATE utf8mb4_bin;not null;uniqueIndex:uk_redirect_owner_source,priority:2"`
	Destination string    `gorm:"type:varchar(2048);not null"`
	Permanent   bool      `gorm:"not null;default:true"`
	Active      bool      `gorm:"not null;default:true;index:idx_redirect_active"`
	CreatedAt   time.Time `gorm:"not null;index:idx_redirect_created_at"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (redirectRow) TableName() string {
	return "redirects"
}

func (r redirectRow) toModel() model.RedirectRule {
	return model.RedirectRule{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Source:      r.Source,
		Destination: r.Destination,
		Permanent:   r.Permanent,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// GormRedirectDAO stores redirect rules in mysql
type GormRedirectDAO struct {
	DB *gorm.DB
}

func NewGormRedirectDAO(db *gorm.DB) (*GormRedirectDAO, error) {
	if err := db.AutoMigrate(&redirectRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate redirects table: %w", err)
	}
	return &GormRedirectDAO{DB: db}, nil
}

func (dao *GormRedirectDAO) FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error) {
	var rows []redirectRow
	err := dao.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to fetch active redirects", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}
	return rowsToModels(rows), nil
}

func (dao *GormRedirectDAO) ListByOwner(ctx context.Context, ownerID string) ([]model.RedirectRule, error) {
	var rows []redirectRow
	err := dao.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to list redirects", zap.Error(err), zap.String("ownerID", ownerID))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}
	return rowsToModels(rows), nil
}

func (dao *GormRedirectDAO) FetchBySource(ctx context.Context, ownerID, source string) (*model.RedirectRule, error) {
	return dao.first(ctx, "owner_id = ? AND source = ?", ownerID, source)
}

func (dao *GormRedirectDAO) FetchByID(ctx context.Context, ownerID, id string) (*model.RedirectRule, error) {
	return dao.first(ctx, "id = ? AND owner_id = ?", id, ownerID)
}

func (dao *GormRedirectDAO) Create(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = rule.CreatedAt
	}

	row := redirectRow{
		ID:          rule.ID,
		OwnerID:     rule.OwnerID,
		Source:      rule.Source,
		Destination: rule.Destination,
		Permanent:   rule.Permanent,
		Active:      rule.Active,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
	// Select("*") so false booleans are written instead of the column default
	if err := dao.DB.WithContext(ctx).Select("*").Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, relay_errors.ErrRedirectConflict
		}
		logger.Error("Failed to create redirect", zap.Error(err), zap.String("source", rule.Source))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}

	created := row.toModel()
	return &created, nil
}

func (dao *GormRedirectDAO) Patch(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = time.Now()
	}

	var updated redirectRow
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND owner_id = ?", rule.ID, rule.OwnerID).First(&updated).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return relay_errors.ErrRedirectNotFound
		}
		if err != nil {
			return err
		}
		return tx.Model(&updated).Updates(map[string]any{
			"source":      rule.Source,
			"destination": rule.Destination,
			"permanent":   rule.Permanent,
			"active":      rule.Active,
			"updated_at":  rule.UpdatedAt,
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, relay_errors.ErrRedirectNotFound):
			return nil, err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, relay_errors.ErrRedirectConflict
		}
		logger.Error("Failed to update redirect", zap.Error(err), zap.String("id", rule.ID))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}

	updated.Source = rule.Source
	updated.Destination = rule.Destination
	updated.Permanent = rule.Permanent
	updated.Active = rule.Active
	updated.UpdatedAt = rule.UpdatedAt
	out := updated.toModel()
	return &out, nil
}

func (dao *GormRedirectDAO) Delete(ctx context.Context, ownerID, id string) error {
	res := dao.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&redirectRow{})
	if res.Error != nil {
		logger.Error("Failed to delete redirect", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, res.Error)
	}
	if res.RowsAffected == 0 {
		return relay_errors.ErrRedirectNotFound
	}
	return nil
}

func (dao *GormRedirectDAO) first(ctx context.Context, query string, args ...any) (*model.RedirectRule, error) {
	var row redirectRow
	err := dao.DB.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, relay_errors.ErrRedirectNotFound
		}
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}
	rule := row.toModel()
	return &rule, nil
}

func rowsToModels(rows []redirectRow) []model.RedirectRule {
	rules := make([]model.RedirectRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, row.toModel())
	}
	return rules
}
