// service/services.go
package service

import (
	"github.com/dev-mohitbeniwal/relay/audit"
	"github.com/dev-mohitbeniwal/relay/dao"
	"github.com/dev-mohitbeniwal/relay/util"
)

type Services struct {
	Redirect IRedirectService
}

func InitializeServices(
	store dao.RedirectStore,
	cache RedirectCache,
	broadcaster Broadcaster,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	services := &Services{
		Redirect: NewRedirectService(store, cache, broadcaster, auditService, validationUtil, notificationSvc, eventBus),
	}

	return services, nil
}
