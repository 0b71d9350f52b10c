// model/redirect.go
package model

import (
	"net/http"
	"strings"
	"time"
)

// RedirectRule maps an old site path to a new destination.
type RedirectRule struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Permanent   bool      `json:"permanent"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StatusCode is 301 for permanent rules and 302 otherwise.
func (r RedirectRule) StatusCode() int {
	if r.Permanent {
		return http.StatusMovedPermanently
	}
	return http.StatusFound
}

// RedirectInput is the body accepted by the create and update endpoints.
// Nil flags mean "not specified".
type RedirectInput struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Permanent   *bool  `json:"permanent,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// RedirectDecision is the outcome of resolving a path against the active rules.
type RedirectDecision struct {
	RuleID      string `json:"ruleId"`
	Destination string `json:"destination"`
	StatusCode  int    `json:"statusCode"`
	IsExternal  bool   `json:"isExternal"`
}

// IsExternalDestination reports whether destination is an absolute http(s) URL.
func IsExternalDestination(destination string) bool {
	return strings.HasPrefix(destination, "http://") || strings.HasPrefix(destination, "https://")
}
