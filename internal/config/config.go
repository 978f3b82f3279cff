package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "LIBRARY"

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN)
	DatabaseURL string `mapstructure:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	// Maximum database connection pool size
	MaxDBConnections int `mapstructure:"max_db_connections"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	// JWTSecret keys the HS256 bearer tokens issued by the API surface.
	JWTSecret string `mapstructure:"jwt_secret"`

	// BcryptCost is the adaptive cost used when hashing passwords.
	BcryptCost int `mapstructure:"bcrypt_cost"`

	Session       SessionConfig       `mapstructure:"session"`
	VersionCache  VersionCacheConfig  `mapstructure:"version_cache"`
	Web           WebConfig           `mapstructure:"web"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SessionConfig controls the in-memory registry backing the web surface.
type SessionConfig struct {
	CookieName     string        `mapstructure:"cookie_name"`
	TTL            time.Duration `mapstructure:"ttl"`
	MaxPerIdentity int           `mapstructure:"max_per_identity"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// VersionCacheConfig tunes the optional identity version cache.
// A zero TTL disables the cache and every check goes to the database.
type VersionCacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

// WebConfig carries the form-login paths of the stateful surface.
type WebConfig struct {
	LoginPage       string `mapstructure:"login_page"`
	LoginProcessing string `mapstructure:"login_processing"`
	LoginSuccess    string `mapstructure:"login_success"`
	LoginFailure    string `mapstructure:"login_failure"`
	Logout          string `mapstructure:"logout"`
}

// ObservabilityConfig configures OpenTelemetry export.
// Telemetry is disabled when OTLPEndpoint is empty.
type ObservabilityConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPProtocol   string `mapstructure:"otlp_protocol"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`

	// MetricInterval is how often metrics are pushed to the collector.
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "file:library.db?cache=shared")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("debug", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("bcrypt_cost", 10)

	v.SetDefault("session.cookie_name", "LIBRARYSESSION")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.max_per_identity", 2)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("version_cache.ttl", time.Duration(0))
	v.SetDefault("version_cache.size", 1024)

	v.SetDefault("web.login_page", "/auth/login")
	v.SetDefault("web.login_processing", "/process_login")
	v.SetDefault("web.login_success", "/")
	v.SetDefault("web.login_failure", "/auth/login?error")
	v.SetDefault("web.logout", "/logout")

	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_protocol", "http/protobuf")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.service_name", "library-boot")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.metric_interval", 30*time.Second)
}

// Load reads configuration from the global viper instance. Values come from,
// in increasing priority: defaults, a config file already read into viper
// (see --config on the root command), and LIBRARY_ prefixed environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load against an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}
	if cfg.Session.MaxPerIdentity < 1 {
		return nil, fmt.Errorf("session.max_per_identity must be at least 1, got %d", cfg.Session.MaxPerIdentity)
	}
	if cfg.Session.CookieName == "" {
		return nil, fmt.Errorf("session.cookie_name must not be empty")
	}

	return cfg, nil
}

// ValidateServe checks the settings only the HTTP server needs, so that
// database and user commands run without them.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required (env: %s_JWT_SECRET)", EnvPrefix)
	}
	return nil
}
