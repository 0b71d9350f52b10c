// config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	assert.Equal(t, "8080", GetString("server.port"))
	assert.Equal(t, "neo4j", GetString("redirect.store"))
	assert.Equal(t, 60*time.Second, GetDuration("redirect.cacheTTL"))
	assert.Equal(t, 5*time.Second, GetDuration("redirect.storeTimeout"))
	assert.Equal(t, 5*time.Second, GetDuration("redirect.retryBackoff"))
	assert.Equal(t, DefaultSkipPrefixes, GetStringSlice("redirect.skipPrefixes"))
	assert.Equal(t, "hmac", GetString("auth.mode"))
	assert.Equal(t, 100, GetInt("ratelimit.requests"))
	assert.True(t, GetBool("redis.enabled"))
}

func TestGetStringSlice_SplitsCommaSeparatedValues(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("redirect.skipPrefixes", "/_next, /api ,,/assets")
	assert.Equal(t, []string{"/_next", "/api", "/assets"}, GetStringSlice("redirect.skipPrefixes"))

	viper.Set("auth.requiredGroups", "")
	assert.Empty(t, GetStringSlice("auth.requiredGroups"))
}

func TestInitConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("REDIRECT_CACHETTL", "15s")
	t.Setenv("REDIRECT_STORE", "memory")

	assert.NoError(t, InitConfig())
	assert.Equal(t, 15*time.Second, GetDuration("redirect.cacheTTL"))
	assert.Equal(t, "memory", GetString("redirect.store"))
	assert.Equal(t, "memory", GetConfig().Redirect.Store)
	assert.Equal(t, 15*time.Second, GetConfig().Redirect.CacheTTL)
}
