package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pharmacare"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "PHARMACARE_APP_ENV"
	EnvPort      = "PHARMACARE_APP_PORT"
	EnvDBDSN     = "PHARMACARE_DB_DSN"
	EnvRedisURL  = "PHARMACARE_REDIS_URL"
	EnvJWTSecret = "PHARMACARE_JWT_SECRET"
	EnvJWTIssuer = "PHARMACARE_JWT_ISSUER"
	EnvJWTExp    = "PHARMACARE_JWT_EXPIRATION_MINUTES"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMACARE_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMACARE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMACARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMACARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// Driver selects the dialector: sqlite (default, single-node deployments)
	// or postgres.
	Driver string `envconfig:"PHARMACARE_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"PHARMACARE_DB_DSN" default:"pharmacare.db"`

	MaxOpenConns    int           `envconfig:"PHARMACARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMACARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMACARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMACARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q (expected sqlite or postgres)", db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// IsSQLite reports whether the SQLite dialector is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMACARE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"PHARMACARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMACARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMACARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMACARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMACARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMACARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMACARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PHARMACARE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PHARMACARE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PHARMACARE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMACARE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMACARE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMACARE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMACARE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMACARE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PHARMACARE_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"PHARMACARE_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PHARMACARE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PHARMACARE_LOGIN_RATE_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"PHARMACARE_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"PHARMACARE_LOGIN_RATE_EMAIL_LIMIT" default:"8"`
}
