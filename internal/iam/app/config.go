package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// minSecretLength guards against weak HS256 keys; the secret doubles as the
// cross-service trust anchor for local-mode verification.
const minSecretLength = 32

type Config struct {
	Port      int    `envconfig:"PORT" default:"8080"`
	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DatabaseFile string `envconfig:"IAM_DATABASE_FILE" default:"iam.db"`

	JWTSecret string `envconfig:"IAM_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"IAM_ISSUER" default:"taskgrid-iam"`

	AccessTokenTTL  time.Duration `envconfig:"IAM_ACCESS_TOKEN_TTL" default:"5m"`
	RefreshTokenTTL time.Duration `envconfig:"IAM_REFRESH_TOKEN_TTL" default:"24h"`

	ShutdownGracePeriod  time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`
	HousekeepingInterval time.Duration `envconfig:"HOUSEKEEPING_INTERVAL" default:"1h"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if len(cfg.JWTSecret) < minSecretLength {
		return Config{}, fmt.Errorf("IAM_JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return Config{}, fmt.Errorf("refresh TTL (%s) must exceed access TTL (%s)",
			cfg.RefreshTokenTTL, cfg.AccessTokenTTL)
	}

	return cfg, nil
}
