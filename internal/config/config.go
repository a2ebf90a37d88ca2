package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverDynamo   = "dynamodb"
	DriverMemory   = "memory"
	StageLocal     = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	// service
	Stage       string `env:"STAGE" envDefault:"local"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"contacts"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	Port        string `env:"PORT" envDefault:"8001"`
	APIPrefix   string `env:"API_PREFIX" envDefault:"/api/v1"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	PublicDir   string `env:"PUBLIC_DIR"`

	// storage
	StoreDriver      string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI         string `env:"MONGODB_URI"`
	MongoSecretID    string `env:"MONGODB_SECRET_ID"`
	MongoDatabase    string `env:"MONGODB_DATABASE" envDefault:"contacts"`
	MongoCollection  string `env:"MONGODB_COLLECTION" envDefault:"contacts"`
	ContactTable     string `env:"CONTACT_TABLE" envDefault:"contacts"`
	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSProfile       string `env:"AWS_PROFILE"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	// list cache, disabled when RedisAddr is empty
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"contacts"`
	ListCacheTTL  time.Duration `env:"LIST_CACHE_TTL" envDefault:"1m"`

	// logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // json, text
	LogFile   string `env:"LOG_FILE"`

	// tracing
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env (when present) and the process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		if os.Getenv("STAGE") == StageLocal {
			log.Printf("WARN: cannot load env files %v: %v, using environment variables", files, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the driver specific settings.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" && c.MongoSecretID == "" {
			return errors.New("MONGODB_URI or MONGODB_SECRET_ID is required for the mongo driver")
		}
	case DriverDynamo:
		if c.ContactTable == "" {
			return errors.New("CONTACT_TABLE is required for the dynamodb driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
