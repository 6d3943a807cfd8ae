// Package config handles application configuration loading from defaults,
// an optional YAML file and environment variables. It provides a
// centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "change-me-in-production"
)

// Config holds all application configuration values. Every key maps to
// the upper-cased environment variable of the same name (app_host reads
// APP_HOST) and to the same key in the config file.
type Config struct {
	// Server settings
	Host          string `mapstructure:"app_host"`
	Port          string `mapstructure:"app_port"`
	Env           string `mapstructure:"app_env"` // "development", "production", "testing"
	PublicBaseURL string `mapstructure:"public_base_url"`

	// PostgreSQL connection
	DBHost     string `mapstructure:"postgres_host"`
	DBPort     string `mapstructure:"postgres_port"`
	DBUser     string `mapstructure:"postgres_user"`
	DBPassword string `mapstructure:"postgres_password"`
	DBName     string `mapstructure:"postgres_db"`
	DBSSLMode  string `mapstructure:"postgres_sslmode"`

	// Valkey (Redis-compatible cache)
	ValkeyHost     string `mapstructure:"valkey_host"`
	ValkeyPort     string `mapstructure:"valkey_port"`
	ValkeyPassword string `mapstructure:"valkey_password"`

	// AI enhancement (any OpenAI-compatible endpoint)
	LLMAPIKey        string        `mapstructure:"llm_api_key"`
	LLMBaseURL       string        `mapstructure:"llm_base_url"`
	LLMModelList     string        `mapstructure:"llm_models"` // comma separated
	LLMTimeout       time.Duration `mapstructure:"llm_timeout"`
	ModerationAPIKey string        `mapstructure:"moderation_api_key"`

	// Identity
	JWTSecret        string `mapstructure:"jwt_secret"`
	OIDCIssuer       string `mapstructure:"oidc_issuer"`
	OIDCClientID     string `mapstructure:"oidc_client_id"`
	OIDCClientSecret string `mapstructure:"oidc_client_secret"`
	OIDCRedirectURL  string `mapstructure:"oidc_redirect_url"`

	// Requests per minute per client IP.
	AuthRateLimit    int `mapstructure:"auth_rate_limit"`
	EnhanceRateLimit int `mapstructure:"enhance_rate_limit"`

	// Logging
	LogFormat string `mapstructure:"log_format"` // "json" or "text"
	LogLevel  string `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("public_base_url", "http://localhost:8080")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "letterlove")
	v.SetDefault("postgres_password", defaultDBPassword)
	v.SetDefault("postgres_db", "letterlove")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("valkey_host", "localhost")
	v.SetDefault("valkey_port", "6379")
	v.SetDefault("valkey_password", "")

	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm_models", "gemini-2.5-flash")
	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("moderation_api_key", "")

	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("oidc_issuer", "")
	v.SetDefault("oidc_client_id", "")
	v.SetDefault("oidc_client_secret", "")
	v.SetDefault("oidc_redirect_url", "")

	v.SetDefault("auth_rate_limit", 10)
	v.SetDefault("enhance_rate_limit", 20)

	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "info")
}

// Load reads configuration. When path is empty, a config.yaml in the
// working directory or /etc/letterlove/ is used if present. Environment
// variables override file values. Returns an error if production mode is
// left with default secrets.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/letterlove/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.PublicBaseURL); err != nil {
		return fmt.Errorf("PUBLIC_BASE_URL is not a valid URL: %w", err)
	}
	if len(c.LLMModels()) == 0 {
		return errors.New("LLM_MODELS must name at least one model")
	}
	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	if c.OIDCIssuer != "" && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		return errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set")
	}

	if c.Env == "production" {
		if c.DBPassword == defaultDBPassword {
			return errors.New("POSTGRES_PASSWORD must be set in production")
		}
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be set to at least 32 characters in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	sslmode := c.DBSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, sslmode,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// OIDCEnabled reports whether OpenID Connect sign-in is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// LLMModels returns the candidate model names for AI enhancement.
func (c *Config) LLMModels() []string {
	var models []string
	for _, m := range strings.Split(c.LLMModelList, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

// ShareURL returns the public link for a card.
func (c *Config) ShareURL(id string) string {
	return c.PublicBaseURL + "/share/" + id
}
