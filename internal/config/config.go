// Package config loads the service's environment-driven settings with
// viper: a typed struct, environment variable overrides, and a handful
// of defaults safe enough to run locally without a .env file.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the full set of environment-driven knobs for both the
// HTTP server and the CLI.
type Settings struct {
	HTTPAddr           string
	MetricsAddr        string
	PostgresDSN        string
	PostgresMaxConns   int32
	PostgresMinConns   int32
	RequestTimeout     time.Duration
	DefaultLocalityID  string
	ServiceVersion     string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string // "json" or "console"
	APIKeys            []string
	AdminAPIKeys       []string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads settings from the environment (prefix CMS_PRICING_),
// falling back to the defaults below. envPrefix lets tests and the CLI
// isolate their own namespace if needed; pass "" to use the default.
func Load(envPrefix string) (Settings, error) {
	v := viper.New()
	if envPrefix == "" {
		envPrefix = "CMS_PRICING"
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("postgres_dsn", "postgres://localhost:5432/cms_pricing?sslmode=disable")
	v.SetDefault("postgres_max_conns", 10)
	v.SetDefault("postgres_min_conns", 2)
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("default_locality_id", "01")
	v.SetDefault("service_version", "dev")
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("api_keys", []string{})
	v.SetDefault("admin_api_keys", []string{})
	v.SetDefault("rate_limit_per_minute", 600)
	v.SetDefault("rate_limit_burst", 60)

	s := Settings{
		HTTPAddr:           v.GetString("http_addr"),
		MetricsAddr:        v.GetString("metrics_addr"),
		PostgresDSN:        v.GetString("postgres_dsn"),
		PostgresMaxConns:   int32(v.GetInt("postgres_max_conns")),
		PostgresMinConns:   int32(v.GetInt("postgres_min_conns")),
		RequestTimeout:     time.Duration(v.GetInt("request_timeout_seconds")) * time.Second,
		DefaultLocalityID:  v.GetString("default_locality_id"),
		ServiceVersion:     v.GetString("service_version"),
		CORSAllowedOrigins: v.GetStringSlice("cors_allowed_origins"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		APIKeys:            v.GetStringSlice("api_keys"),
		AdminAPIKeys:       v.GetStringSlice("admin_api_keys"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		RateLimitBurst:     v.GetInt("rate_limit_burst"),
	}
	return s, nil
}
