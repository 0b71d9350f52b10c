// config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Redirect      RedirectConfiguration
	Neo4j         DatabaseConfiguration
	MySQL         MySQLConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Audit         AuditConfiguration
	Auth          AuthConfiguration
	RateLimit     RateLimitConfiguration
	Content       ContentConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// RedirectConfiguration controls the redirect store, cache and router
type RedirectConfiguration struct {
	Store               string
	CacheTTL            time.Duration
	StoreTimeout        time.Duration
	RetryBackoff        time.Duration
	SkipPrefixes        []string
	InvalidationChannel string
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	URI      string
	Username string
	Password string
}

// MySQLConfiguration stores the DSN of the mysql redirect store
type MySQLConfiguration struct {
	DSN string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// AuditConfiguration selects where the audit trail is written
type AuditConfiguration struct {
	Enabled bool
	Index   string
}

// AuthConfiguration holds session token verification settings
type AuthConfiguration struct {
	Mode           string
	RequiredGroups []string
	JWT            JWTConfiguration
	Cognito        CognitoConfiguration
}

type JWTConfiguration struct {
	Secret string
	Issuer string
}

type CognitoConfiguration struct {
	AWSRegion  string `mapstructure:"aws_region"`
	UserPoolID string `mapstructure:"user_pool_id"`
}

// RateLimitConfiguration bounds admin API traffic per client
type RateLimitConfiguration struct {
	Requests int
	Duration time.Duration
}

// ContentConfiguration points at the site that receives passed-through requests
type ContentConfiguration struct {
	Upstream string
}

var config *Configuration

// DefaultSkipPrefixes are path prefixes the redirect router never resolves.
var DefaultSkipPrefixes = []string{"/_next", "/api", "/static", "/studio"}

func InitConfig() error {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	SetDefaults()

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// SetDefaults registers the default value of every known key
func SetDefaults() {
	viper.SetDefault("server.port", "8080")

	viper.SetDefault("redirect.store", "neo4j")
	viper.SetDefault("redirect.cacheTTL", "60s")
	viper.SetDefault("redirect.storeTimeout", "5s")
	viper.SetDefault("redirect.retryBackoff", "5s")
	viper.SetDefault("redirect.skipPrefixes", DefaultSkipPrefixes)
	viper.SetDefault("redirect.invalidationChannel", "redirects:invalidate")

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("mysql.dsn", "")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.dialTimeout", "5s")
	viper.SetDefault("redis.readTimeout", "3s")
	viper.SetDefault("redis.writeTimeout", "3s")
	viper.SetDefault("redis.poolSize", 10)

	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("audit.enabled", true)
	viper.SetDefault("audit.index", "redirect-audit")

	viper.SetDefault("auth.mode", "hmac")

	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.duration", "1m")

	viper.SetDefault("content.upstream", "")
	viper.SetDefault("log.dir", "logging")
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStringSlice retrieves a list value; comma separated strings from the
// environment are split
func GetStringSlice(key string) []string {
	var values []string
	if raw, ok := viper.Get(key).(string); ok {
		values = strings.Split(raw, ",")
	} else {
		values = viper.GetStringSlice(key)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
