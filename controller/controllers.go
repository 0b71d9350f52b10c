// controller/controllers.go
package controller

import "github.com/dev-mohitbeniwal/relay/service"

type Controllers struct {
	Redirect *RedirectController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Redirect: NewRedirectController(services.Redirect),
	}
}
