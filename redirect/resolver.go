// redirect/resolver.go
package redirect

import (
	"github.com/dev-mohitbeniwal/relay/model"
)

// Resolve returns the decision for the first active rule whose source equals
// path exactly, or nil when no rule matches. Query strings are not normalised.
func Resolve(path string, rules []model.RedirectRule) *model.RedirectDecision {
	for _, rule := range rules {
		if !rule.Active || rule.Source != path {
			continue
		}
		return &model.RedirectDecision{
			RuleID:      rule.ID,
			Destination: rule.Destination,
			StatusCode:  rule.StatusCode(),
			IsExternal:  model.IsExternalDestination(rule.Destination),
		}
	}
	return nil
}
