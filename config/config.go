// Package config loads the service configuration from a YAML file overlaid
// by environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Environments.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Storage and broker drivers.
const (
	DriverMemory = "memory"
	DriverDynamo = "dynamo"
	DriverRedis  = "redis"
)

// Config is the root configuration.
// Sources, highest priority first:
//  1. explicit path from the -config flag;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment variables only.
//
// Environment variables always override values read from a file.
type Config struct {
	Env          string             `yaml:"env" env:"ENV" env-default:"local"`
	HTTP         HTTPConfig         `yaml:"http"`
	Storage      StorageConfig      `yaml:"storage"`
	Broker       BrokerConfig       `yaml:"broker"`
	Auth         AuthConfig         `yaml:"auth"`
	Media        MediaConfig        `yaml:"media"`
	Verification VerificationConfig `yaml:"verification"`
	Limits       LimitsConfig       `yaml:"limits"`
	Quota        QuotaConfig        `yaml:"quota"`
	Timeouts     TimeoutConfig      `yaml:"timeouts"`
}

type HTTPConfig struct {
	Host           string   `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port           string   `yaml:"port" env:"PORT" env-default:"8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"*"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type StorageConfig struct {
	Driver   string       `yaml:"driver" env:"STORAGE_DRIVER" env-default:"dynamo"`
	Region   string       `yaml:"region" env:"AWS_REGION" env-default:"eu-west-1"`
	Endpoint string       `yaml:"endpoint" env:"DYNAMODB_ENDPOINT"`
	Tables   TablesConfig `yaml:"tables"`
	// CreateTables provisions missing tables on startup (DynamoDB Local).
	CreateTables bool `yaml:"create_tables" env:"DYNAMODB_CREATE_TABLES" env-default:"false"`
}

type TablesConfig struct {
	Users        string `yaml:"users" env:"TABLE_USERS" env-default:"Users"`
	Interactions string `yaml:"interactions" env:"TABLE_INTERACTIONS" env-default:"Interactions"`
	Matches      string `yaml:"matches" env:"TABLE_MATCHES" env-default:"Matches"`
	Messages     string `yaml:"messages" env:"TABLE_MESSAGES" env-default:"Messages"`
}

type BrokerConfig struct {
	Driver        string `yaml:"driver" env:"BROKER_DRIVER" env-default:"memory"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_URL" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
}

// AuthConfig holds the identity token parameters.
type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET"`
	Issuer   string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"flamematch"`
	Audience string        `yaml:"audience" env:"JWT_AUDIENCE" env-default:"flamematch-app"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"24h"`
}

type MediaConfig struct {
	Bucket     string        `yaml:"bucket" env:"S3_BUCKET_NAME"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"5m"`
}

type VerificationConfig struct {
	SimilarityThreshold float32 `yaml:"similarity_threshold" env:"VERIFICATION_SIMILARITY" env-default:"90"`
}

// LimitsConfig bounds list sizes.
type LimitsConfig struct {
	DefaultFeed  int `yaml:"default_feed" env:"FEED_DEFAULT_LIMIT" env-default:"20"`
	MaxFeed      int `yaml:"max_feed" env:"FEED_MAX_LIMIT" env-default:"100"`
	MessagesPage int `yaml:"messages_page" env:"MESSAGES_PAGE" env-default:"50"`
}

// QuotaConfig is the daily allowance counters roll over to.
type QuotaConfig struct {
	DailyLikes         int `yaml:"daily_likes" env:"QUOTA_DAILY_LIKES" env-default:"50"`
	DailySuperLikes    int `yaml:"daily_super_likes" env:"QUOTA_DAILY_SUPER_LIKES" env-default:"1"`
	GoldSuperLikes     int `yaml:"gold_super_likes" env:"QUOTA_GOLD_SUPER_LIKES" env-default:"5"`
	PlatinumSuperLikes int `yaml:"platinum_super_likes" env:"QUOTA_PLATINUM_SUPER_LIKES" env-default:"25"`
}

type TimeoutConfig struct {
	Request  time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"10s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// MustLoad wraps Load and panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority: explicit path, CONFIG_PATH,
// ./local.yaml, environment only. The result is validated.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	switch {
	case path != "":
		if err := readFile(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			if err := readFile("local.yaml"); err != nil {
				return nil, err
			}
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to overlay env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsLocal reports whether development-only endpoints may be exposed.
func (c *Config) IsLocal() bool { return c.Env == EnvLocal }

func (c *Config) validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env: unknown value %q", c.Env))
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverDynamo:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown value %q", c.Storage.Driver))
	}
	switch c.Broker.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Broker.RedisAddr == "" {
			errs = append(errs, errors.New("broker.redis_addr: required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("broker.driver: unknown value %q", c.Broker.Driver))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret: required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl: must be positive"))
	}

	if c.Limits.DefaultFeed <= 0 || c.Limits.MaxFeed < c.Limits.DefaultFeed {
		errs = append(errs, fmt.Errorf("limits: need 0 < default_feed (%d) <= max_feed (%d)", c.Limits.DefaultFeed, c.Limits.MaxFeed))
	}
	if c.Limits.MessagesPage <= 0 {
		errs = append(errs, errors.New("limits.messages_page: must be positive"))
	}
	if c.Quota.DailyLikes < 0 || c.Quota.DailySuperLikes < 0 || c.Quota.GoldSuperLikes < 0 || c.Quota.PlatinumSuperLikes < 0 {
		errs = append(errs, errors.New("quota: allowances must not be negative"))
	}
	if c.Verification.SimilarityThreshold < 0 || c.Verification.SimilarityThreshold > 100 {
		errs = append(errs, errors.New("verification.similarity_threshold: must be within [0, 100]"))
	}
	if c.Timeouts.Request <= 0 {
		errs = append(errs, errors.New("timeouts.request: must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
