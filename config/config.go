package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "TOURS_"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string          `koanf:"env"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Query     QueryConfig     `koanf:"query"`
	Mail      MailConfig      `koanf:"mail"`
	NATS      NATSConfig      `koanf:"nats"`
	Log       LogConfig       `koanf:"log"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	BodyLimit       int64         `koanf:"body_limit"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	TrustProxy      bool          `koanf:"trust_proxy"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
}

type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTExpiresIn      time.Duration `koanf:"jwt_expires_in"`
	CookieExpiresDays int           `koanf:"cookie_expires_days"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type QueryConfig struct {
	DefaultLimit int  `koanf:"default_limit"`
	MaxLimit     int  `koanf:"max_limit"`
	LegacyLTE    bool `koanf:"legacy_lte"`
}

type MailConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       10 << 10,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{Driver: "mongo"},
		Mongo: MongoConfig{
			Database: "natours",
			Timeout:  5 * time.Second,
		},
		Auth: AuthConfig{
			JWTExpiresIn:      90 * 24 * time.Hour,
			CookieExpiresDays: 90,
			BcryptCost:        12,
		},
		RateLimit: RateLimitConfig{Requests: 20, Window: time.Minute},
		Query:     QueryConfig{DefaultLimit: 5, MaxLimit: 100},
		Mail: MailConfig{
			Driver: "log",
			Port:   587,
			From:   "Natours <hello@natours.io>",
		},
		NATS: NATSConfig{SubjectPrefix: "tours"},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

func (c *Config) Production() bool { return c.Env == EnvProduction }

type Loader struct {
	k        *koanf.Koanf
	filePath string
	dotenv   []string
}

type Option func(*Loader)

func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithDotenv loads the given .env files into the process environment before
// reading env vars. Missing files are ignored.
func WithDotenv(paths ...string) Option {
	return func(l *Loader) { l.dotenv = paths }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New(".")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads defaults < YAML file < env vars into a Config and verifies it.
func (l *Loader) Load() (*Config, error) {
	for _, p := range l.dotenv {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return nil, fmt.Errorf("load %s: %w", p, err)
			}
		}
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	// TOURS_AUTH_JWT_SECRET -> auth.jwt_secret
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}
	if err := l.k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyLegacyEnv(cfg)

	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLegacyEnv honours the unprefixed variable names used by existing
// deployments when the prefixed ones are absent.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("MONGODB_URI"); v != "" && cfg.Mongo.URI == "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv(EnvPrefix+"SERVER_PORT") == "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("NODE_ENV"); v != "" && os.Getenv(EnvPrefix+"ENV") == "" {
		cfg.Env = v
	}
}

func (c *Config) Verify() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.JWTExpiresIn <= 0 {
		return fmt.Errorf("auth.jwt_expires_in must be positive")
	}
	switch c.Storage.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("mail.host is required for the smtp driver")
		}
	default:
		return fmt.Errorf("unknown mail driver %q", c.Mail.Driver)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit requests and window must be positive")
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be positive")
	}
	return nil
}
