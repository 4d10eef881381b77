package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration required by the function processes.
// It is built once at start and passed down by pointer; nothing below main
// reads the environment directly.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Mongo   MongoConfig
	Storage StorageConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Content ContentConfig
}

type AppConfig struct {
	Env  string `yaml:"env" env:"APP_ENV" env-default:"local"`
	Port int    `yaml:"port" env:"APP_PORT" env-default:"8080"`
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are honored. Empty means the peer address is the client IP.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
}

type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string `yaml:"sslmode" env:"DB_SSLMODE"`
}

type MongoConfig struct {
	URI string `yaml:"uri" env:"MONGO_URI"`
}

type StorageConfig struct {
	Endpoint      string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKey     string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	BucketID      string `yaml:"bucket_id" env:"STORAGE_BUCKET_ID"`
	PublicBaseURL string `yaml:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type AuthConfig struct {
	AccessSecret    string        `yaml:"access_secret" env:"JWT_SECRET"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER"`
	Audience        string        `yaml:"audience" env:"JWT_AUDIENCE"`
	AccessTokenTTL  time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL" env-default:"168h"`
}

type ContentConfig struct {
	// Backend selects the document store: postgres or mongo.
	Backend    string `yaml:"backend" env:"DOCUMENT_BACKEND" env-default:"postgres"`
	DatabaseID string `yaml:"database_id" env:"DATABASE_ID" env-default:"portfolio"`

	PublicCacheTTL    time.Duration `yaml:"public_cache_ttl" env:"PUBLIC_CACHE_TTL" env-default:"60s"`
	ContactRateLimit  int           `yaml:"contact_rate_limit" env:"CONTACT_RATE_LIMIT" env-default:"5"`
	ContactRateWindow time.Duration `yaml:"contact_rate_window" env:"CONTACT_RATE_WINDOW" env-default:"1h"`
}

// Load reads an optional .env file, then CONFIG_PATH (YAML, overlaid by env)
// or the environment alone, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		if err := cleanenv.ReadConfig(p, &c); err != nil {
			return nil, fmt.Errorf("read config %q: %w", p, err)
		}
	} else if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every problem at once. It fills defaults that depend on
// the environment (sslmode outside production).
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	switch c.Content.Backend {
	case BackendPostgres:
		errs = append(errs, c.validatePostgres()...)
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when DOCUMENT_BACKEND=mongo"))
		}
		// the user directory and audit trail still live in postgres
		errs = append(errs, c.validatePostgres()...)
	default:
		errs = append(errs, fmt.Errorf("DOCUMENT_BACKEND must be postgres or mongo, got %q", c.Content.Backend))
	}
	if c.Content.DatabaseID == "" {
		errs = append(errs, errors.New("DATABASE_ID is required"))
	}

	if c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("STORAGE_ENDPOINT is required"))
	}
	if c.Storage.BucketID == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET_ID is required"))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Content.ContactRateLimit < 0 {
		errs = append(errs, fmt.Errorf("CONTACT_RATE_LIMIT must be >= 0, got %d", c.Content.ContactRateLimit))
	}
	if c.Content.ContactRateLimit > 0 && c.Content.ContactRateWindow <= 0 {
		errs = append(errs, errors.New("CONTACT_RATE_WINDOW must be positive when CONTACT_RATE_LIMIT is set"))
	}

	return joinErrors(errs)
}

func (c *Config) validatePostgres() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c *Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
