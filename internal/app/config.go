package app

import (
	"fmt"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Config struct {
	Mode string
	Port string

	JWTSecret string
	TokenTTL  time.Duration

	// EmbeddedWorker runs the Temporal worker inside the API process; for
	// deployments where cmd/worker runs separately, leave it off.
	EmbeddedWorker bool

	// GeneratorDelay paces the stub provider so local progress polling is
	// observable.
	GeneratorDelay time.Duration
}

func LoadConfig(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Mode:           envutil.GetEnv("APP_MODE", "debug", log),
		Port:           envutil.GetEnv("PORT", "8080", log),
		JWTSecret:      envutil.GetEnv("JWT_SECRET", "", log),
		TokenTTL:       time.Duration(envutil.GetEnvAsInt("JWT_TTL_MINUTES", 60*24, log)) * time.Minute,
		EmbeddedWorker: envutil.GetEnv("EMBEDDED_WORKER", "false", log) == "true",
		GeneratorDelay: time.Duration(envutil.GetEnvAsInt("GENERATOR_DELAY_MS", 1500, log)) * time.Millisecond,
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}
