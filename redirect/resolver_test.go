// redirect/resolver_test.go
package redirect

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/relay/model"
)

func TestResolve(t *testing.T) {
	temporary := rule("2", "/promo", "https://example.com/sale")
	temporary.Permanent = false
	inactive := rule("3", "/off", "/elsewhere")
	inactive.Active = false

	rules := []model.RedirectRule{rule("1", "/old", "/new"), temporary, inactive}

	t.Run("PermanentInternal", func(t *testing.T) {
		decision := Resolve("/old", rules)
		require.NotNil(t, decision)
		assert.Equal(t, "1", decision.RuleID)
		assert.Equal(t, "/new", decision.Destination)
		assert.Equal(t, http.StatusMovedPermanently, decision.StatusCode)
		assert.False(t, decision.IsExternal)
	})

	t.Run("TemporaryExternal", func(t *testing.T) {
		decision := Resolve("/promo", rules)
		require.NotNil(t, decision)
		assert.Equal(t, http.StatusFound, decision.StatusCode)
		assert.True(t, decision.IsExternal)
	})

	t.Run("InactiveRuleIgnored", func(t *testing.T) {
		assert.Nil(t, Resolve("/off", rules))
	})

	t.Run("ExactMatchOnly", func(t *testing.T) {
		assert.Nil(t, Resolve("/old/", rules))
		assert.Nil(t, Resolve("/OLD", rules))
		assert.Nil(t, Resolve("/old?x=1", rules))
		assert.Nil(t, Resolve("/ol", rules))
	})

	t.Run("FirstMatchWins", func(t *testing.T) {
		dup := rule("9", "/old", "/second")
		decision := Resolve("/old", append(append([]model.RedirectRule{}, rules...), dup))
		require.NotNil(t, decision)
		assert.Equal(t, "1", decision.RuleID)
	})

	t.Run("NoRules", func(t *testing.T) {
		assert.Nil(t, Resolve("/old", nil))
	})
}
