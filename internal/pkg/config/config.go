package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Directory drivers.
const (
	DirectoryMongo    = "mongo"
	DirectoryPostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Directory DirectoryConfig
	Webhooks  WebhookConfig
	Ingest    IngestConfig

	LegalGrossLimitLbs float64 `env:"LEGAL_GROSS_LIMIT_LBS, default=80000"`
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET, required"`
	Issuer    string `env:"AUTH_ISSUER"`
	Audience  string `env:"AUTH_AUDIENCE"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=weighbridge"`
	MaxPool  uint64 `env:"MONGO_MAX_POOL, default=100"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	DedupTTL time.Duration `env:"INGEST_DEDUP_TTL, default=72h"`
}

// DirectoryConfig selects where account records are read from.
type DirectoryConfig struct {
	Driver      string `env:"DIRECTORY_DRIVER, default=mongo"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

type WebhookConfig struct {
	Workers int           `env:"WEBHOOK_WORKERS, default=4"`
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT, default=5s"`
}

type IngestConfig struct {
	RatePerSec float64 `env:"INGEST_RATE_PER_SEC, default=10"`
	Burst      int     `env:"INGEST_BURST,        default=20"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Directory.Driver {
	case DirectoryMongo:
	case DirectoryPostgres:
		if c.Directory.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when DIRECTORY_DRIVER=%s", DirectoryPostgres)
		}
	default:
		return fmt.Errorf("config: unknown DIRECTORY_DRIVER %q", c.Directory.Driver)
	}
	if c.LegalGrossLimitLbs <= 0 {
		return fmt.Errorf("config: LEGAL_GROSS_LIMIT_LBS must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory, when present, is loaded first and
// never overrides variables already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
