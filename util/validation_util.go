// util/validation_util.go

package util

import (
	"strings"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidateRedirect checks the shape of a redirect body. The returned error is
// a *relay_errors.ValidationError naming the first rejected field.
func (v *ValidationUtil) ValidateRedirect(input model.RedirectInput) error {
	if err := v.ValidateSource(input.Source); err != nil {
		return err
	}
	if strings.TrimSpace(input.Destination) == "" {
		return relay_errors.NewValidationError("destination", "destination is required")
	}
	return nil
}

func (v *ValidationUtil) ValidateSource(source string) error {
	if source == "" {
		return relay_errors.NewValidationError("source", "source is required")
	}
	if !strings.HasPrefix(source, "/") {
		return relay_errors.NewValidationError("source", "source must start with /")
	}
	if strings.Contains(source, "://") {
		return relay_errors.NewValidationError("source", "source must be a path, not a URL")
	}
	return nil
}
