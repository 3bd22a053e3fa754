// Package config loads the server configuration from defaults, an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// minSecretLength is the shortest signing secret accepted (256 bits for HS256).
const minSecretLength = 32

var (
	// ErrMissingSecret is returned when a signing secret is not configured.
	ErrMissingSecret = errors.New("signing secret is not set")
	// ErrWeakSecret is returned when a signing secret is a placeholder or too short.
	ErrWeakSecret = errors.New("signing secret is too weak")
	// ErrSharedSecret is returned when access and refresh tokens would share a secret.
	ErrSharedSecret = errors.New("access and refresh secrets must differ")
)

// placeholderSecrets are values that ship in examples and must never sign real tokens.
var placeholderSecrets = map[string]struct{}{
	"access-secret":                        {},
	"refresh-secret":                       {},
	"secret":                               {},
	"changeme":                             {},
	"change-me":                            {},
	"your-secret-key-change-in-production": {},
}

// Config is the complete server configuration.
type Config struct {
	HTTP            HTTPConfig      `mapstructure:"http"`
	DB              DBConfig        `mapstructure:"db"`
	JWT             JWTConfig       `mapstructure:"jwt"`
	Redis           RedisConfig     `mapstructure:"redis"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Log             LogConfig       `mapstructure:"log"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

// HTTPConfig configures the Fiber listener.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

// DBConfig configures the SQLite database shared by the auth and task modules.
type DBConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// JWTConfig configures token signing and lifetimes.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	Issuer        string        `mapstructure:"issuer"`
}

// RedisConfig configures the Redis connection used for rate limiting.
// An empty Addr disables rate limiting.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig bounds requests per client IP on the public auth endpoints.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("db.path", "taskmanager.db")
	v.SetDefault("db.debug", false)
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "taskmanager")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("shutdown_timeout", 30*time.Second)
}

// Load reads the configuration. Environment variables use the upper-cased key
// with dots replaced by underscores (jwt.access_secret -> JWT_ACCESS_SECRET).
// path is optional; when set the file is read before the environment is applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if c.Redis.Addr != "" && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.requests and rate_limit.window must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// Validate checks both signing secrets and the token lifetimes.
func (c JWTConfig) Validate() error {
	if err := checkSecret("jwt.access_secret", c.AccessSecret); err != nil {
		return err
	}
	if err := checkSecret("jwt.refresh_secret", c.RefreshSecret); err != nil {
		return err
	}
	if c.AccessSecret == c.RefreshSecret {
		return ErrSharedSecret
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("jwt: token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("jwt: access_ttl must be shorter than refresh_ttl")
	}
	return nil
}

func checkSecret(key, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s: %w", key, ErrMissingSecret)
	}
	if _, ok := placeholderSecrets[strings.ToLower(secret)]; ok {
		return fmt.Errorf("%s: %w: placeholder value", key, ErrWeakSecret)
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("%s: %w: need at least %d bytes", key, ErrWeakSecret, minSecretLength)
	}
	return nil
}
