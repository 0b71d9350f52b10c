// util/validation_util_test.go
package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
)

func TestValidateRedirect(t *testing.T) {
	v := NewValidationUtil()

	tests := []struct {
		name  string
		input model.RedirectInput
		field string
	}{
		{"Valid", model.RedirectInput{Source: "/old", Destination: "/new"}, ""},
		{"ValidExternal", model.RedirectInput{Source: "/old", Destination: "https://example.com"}, ""},
		{"EmptySource", model.RedirectInput{Destination: "/new"}, "source"},
		{"NoLeadingSlash", model.RedirectInput{Source: "old", Destination: "/new"}, "source"},
		{"AbsoluteURLSource", model.RedirectInput{Source: "https://example.com/old", Destination: "/new"}, "source"},
		{"EmbeddedScheme", model.RedirectInput{Source: "/go/http://x", Destination: "/new"}, "source"},
		{"EmptyDestination", model.RedirectInput{Source: "/old"}, "destination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRedirect(tt.input)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *relay_errors.ValidationError
			if assert.True(t, errors.As(err, &verr)) {
				assert.Equal(t, tt.field, verr.Field)
			}
			assert.ErrorIs(t, err, relay_errors.ErrInvalidRedirectData)
		})
	}
}
