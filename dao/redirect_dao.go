// dao/redirect_dao.go

package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/model"
	relay_neo4j "github.com/dev-mohitbeniwal/relay/model/neo4j"
	helper_util "github.com/dev-mohitbeniwal/relay/util/helper"
)

const neo4jConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

type RedirectDAO struct {
	Driver neo4j.DriverWithContext
}

func NewRedirectDAO(driver neo4j.DriverWithContext) *RedirectDAO {
	dao := &RedirectDAO{Driver: driver}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dao.EnsureUniqueConstraints(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraints for Redirect", zap.Error(err))
	}
	return dao
}

func (dao *RedirectDAO) EnsureUniqueConstraints(ctx context.Context) error {
	logger.Info("Ensuring unique constraints on Redirect")
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT ` + relay_neo4j.ConstraintRedirectID + ` IF NOT EXISTS
		FOR (r:` + relay_neo4j.LabelRedirect + `) REQUIRE r.id IS UNIQUE`,
		`CREATE CONSTRAINT ` + relay_neo4j.ConstraintRedirectOwnerSource + ` IF NOT EXISTS
		FOR (r:` + relay_neo4j.LabelRedirect + `) REQUIRE (r.ownerId, r.source) IS UNIQUE`,
	}
	for _, query := range queries {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, query, nil)
			return nil, err
		})
		if err != nil {
			logger.Error("Failed to ensure unique constraint on Redirect", zap.Error(err))
			return err
		}
	}

	logger.Info("Successfully ensured unique constraints on Redirect")
	return nil
}

func (dao *RedirectDAO) FetchActiveRedirects(ctx context.Context) ([]model.RedirectRule, error) {
	start := time.Now()
	query := `
	MATCH (r:` + relay_neo4j.LabelRedirect + `)
	WHERE r.active = true
	RETURN r
	ORDER BY r.createdAt DESC
	`
	rules, err := dao.readRules(ctx, query, nil)
	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to fetch active redirects", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}
	logger.Debug("Active redirects fetched",
		zap.Int("count", len(rules)),
		zap.Duration("duration", duration))
	return rules, nil
}

func (dao *RedirectDAO) ListByOwner(ctx context.Context, ownerID string) ([]model.RedirectRule, error) {
	start := time.Now()
	logger.Info("Listing redirects", zap.String("ownerID", ownerID))
	query := `
	MATCH (r:` + relay_neo4j.LabelRedirect + ` {ownerId: $ownerId})
	RETURN r
	ORDER BY r.createdAt DESC
	`
	rules, err := dao.readRules(ctx, query, map[string]any{"ownerId": ownerID})
	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to list redirects",
			zap.Error(err),
			zap.String("ownerID", ownerID),
			zap.Duration("duration", duration))
		return nil, err
	}
	logger.Info("Redirects listed successfully",
		zap.Int("count", len(rules)),
		zap.Duration("duration", duration))
	return rules, nil
}

func (dao *RedirectDAO) FetchBySource(ctx context.Context, ownerID, source string) (*model.RedirectRule, error) {
	query := `
	MATCH (r:` + relay_neo4j.LabelRedirect + ` {ownerId: $ownerId, source: $source})
	RETURN r
	LIMIT 1
	`
	return dao.readOne(ctx, query, map[string]any{"ownerId": ownerID, "source": source})
}

func (dao *RedirectDAO) FetchByID(ctx context.Context, ownerID, id string) (*model.RedirectRule, error) {
	query := `
	MATCH (r:` + relay_neo4j.LabelRedirect + ` {id: $id, ownerId: $ownerId})
	RETURN r
	`
	return dao.readOne(ctx, query, map[string]any{"id": id, "ownerId": ownerID})
}

func (dao *RedirectDAO) Create(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	start := time.Now()
	logger.Info("Creating new redirect", zap.String("source", rule.Source), zap.String("ownerID", rule.OwnerID))
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = rule.CreatedAt
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
		MERGE (u:` + relay_neo4j.LabelUser + ` {id: $ownerId})
		CREATE (r:` + relay_neo4j.LabelRedirect + ` {
			id: $id,
			ownerId: $ownerId,
			source: $source,
			destination: $destination,
			permanent: $permanent,
			active: $active,
			createdAt: $createdAt,
			updatedAt: $updatedAt
		})
		CREATE (u)-[:` + relay_neo4j.RelOwns + `]->(r)
		RETURN r
		`
		params := map[string]any{
			"id":          rule.ID,
			"ownerId":     rule.OwnerID,
			"source":      rule.Source,
			"destination": rule.Destination,
			"permanent":   rule.Permanent,
			"active":      rule.Active,
			"createdAt":   helper_util.FormatTimestamp(rule.CreatedAt),
			"updatedAt":   helper_util.FormatTimestamp(rule.UpdatedAt),
		}

		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return mapNodeToRedirect(res.Record().Values[0].(neo4j.Node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no redirect returned")
	})

	duration := time.Since(start)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, relay_errors.ErrRedirectConflict
		}
		logger.Error("Failed to create redirect",
			zap.Error(err),
			zap.String("source", rule.Source),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}

	created := result.(*model.RedirectRule)
	logger.Info("Redirect created successfully",
		zap.String("redirectID", created.ID),
		zap.Duration("duration", duration))
	return created, nil
}

func (dao *RedirectDAO) Patch(ctx context.Context, rule model.RedirectRule) (*model.RedirectRule, error) {
	start := time.Now()
	logger.Info("Updating redirect", zap.String("id", rule.ID))
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = time.Now()
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
		MATCH (r:` + relay_neo4j.LabelRedirect + ` {id: $id, ownerId: $ownerId})
		SET r.source = $source,
			r.destination = $destination,
			r.permanent = $permanent,
			r.active = $active,
			r.updatedAt = $updatedAt
		RETURN r
		`
		params := map[string]any{
			"id":          rule.ID,
			"ownerId":     rule.OwnerID,
			"source":      rule.Source,
			"destination": rule.Destination,
			"permanent":   rule.Permanent,
			"active":      rule.Active,
			"updatedAt":   helper_util.FormatTimestamp(rule.UpdatedAt),
		}

		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return mapNodeToRedirect(res.Record().Values[0].(neo4j.Node))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, relay_errors.ErrRedirectNotFound
	})

	duration := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, relay_errors.ErrRedirectNotFound):
			return nil, err
		case isConstraintViolation(err):
			return nil, relay_errors.ErrRedirectConflict
		}
		logger.Error("Failed to update redirect",
			zap.Error(err),
			zap.String("id", rule.ID),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}

	updated := result.(*model.RedirectRule)
	logger.Info("Redirect updated successfully",
		zap.String("id", updated.ID),
		zap.Duration("duration", duration))
	return updated, nil
}

func (dao *RedirectDAO) Delete(ctx context.Context, ownerID, id string) error {
	start := time.Now()
	logger.Info("Deleting redirect", zap.String("id", id))
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
		MATCH (r:` + relay_neo4j.LabelRedirect + ` {id: $id, ownerId: $ownerId})
		DETACH DELETE r
		`
		res, err := tx.Run(ctx, query, map[string]any{"id": id, "ownerId": ownerID})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, relay_errors.ErrRedirectNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, relay_errors.ErrRedirectNotFound) {
			return err
		}
		logger.Error("Failed to delete redirect",
			zap.Error(err),
			zap.String("id", id),
			zap.Duration("duration", duration))
		return fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}

	logger.Info("Redirect deleted successfully",
		zap.String("id", id),
		zap.Duration("duration", duration))
	return nil
}

func (dao *RedirectDAO) readRules(ctx context.Context, query string, params map[string]any) ([]model.RedirectRule, error) {
	session := dao.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		rules := []model.RedirectRule{}
		for res.Next(ctx) {
			rule, err := mapNodeToRedirect(res.Record().Values[0].(neo4j.Node))
			if err != nil {
				return nil, err
			}
			rules = append(rules, *rule)
		}
		return rules, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay_errors.ErrDatabaseOperation, err)
	}
	return result.([]model.RedirectRule), nil
}

func (dao *RedirectDAO) readOne(ctx context.Context, query string, params map[string]any) (*model.RedirectRule, error) {
	rules, err := dao.readRules(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, relay_errors.ErrRedirectNotFound
	}
	return &rules[0], nil
}

// Helper function to map Neo4j Node to RedirectRule struct
func mapNodeToRedirect(node neo4j.Node) (*model.RedirectRule, error) {
	rule := &model.RedirectRule{}
	var ok bool
	if rule.ID, ok = node.Props["id"].(string); !ok {
		return nil, fmt.Errorf("redirect node without id")
	}
	rule.OwnerID, _ = node.Props["ownerId"].(string)
	rule.Source, _ = node.Props["source"].(string)
	rule.Destination, _ = node.Props["destination"].(string)
	rule.Permanent, _ = node.Props["permanent"].(bool)
	rule.Active, _ = node.Props["active"].(bool)

	createdAt, err := helper_util.ParseNullableTime(node.Props["createdAt"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse createdAt: %w", err)
	}
	if createdAt != nil {
		rule.CreatedAt = *createdAt
	}
	updatedAt, err := helper_util.ParseNullableTime(node.Props["updatedAt"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updatedAt: %w", err)
	}
	if updatedAt != nil {
		rule.UpdatedAt = *updatedAt
	}
	return rule, nil
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == neo4jConstraintViolation
}
