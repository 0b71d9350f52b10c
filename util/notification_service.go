// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/model"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyRedirectChange(ctx context.Context, changeType string, rule model.RedirectRule) error {
	switch changeType {
	case "created":
		logger.Info("NOTIFICATION: New redirect created",
			zap.String("redirectID", rule.ID),
			zap.String("source", rule.Source),
			zap.String("destination", rule.Destination),
			zap.Int("status", rule.StatusCode()))
	case "updated":
		logger.Info("NOTIFICATION: Redirect updated",
			zap.String("redirectID", rule.ID),
			zap.String("source", rule.Source),
			zap.String("destination", rule.Destination),
			zap.Bool("active", rule.Active))
	case "deleted":
		logger.Info("NOTIFICATION: Redirect deleted",
			zap.String("redirectID", rule.ID),
			zap.String("source", rule.Source))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}
	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
