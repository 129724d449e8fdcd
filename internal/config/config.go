// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads once at startup. Per-request
// provider keys (wholesale, messaging, order APIs) are not part of it; they
// arrive in request headers.
type Config struct {
	Env             string        `envconfig:"APP_ENV" default:"development"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	NaverClientID     string `envconfig:"NAVER_CLIENT_ID"`
	NaverClientSecret string `envconfig:"NAVER_CLIENT_SECRET"`

	NaverBaseURL     string `envconfig:"NAVER_BASE_URL" default:"https://openapi.naver.com"`
	DomeggookBaseURL string `envconfig:"DOMEGGOOK_BASE_URL" default:"https://domeggook.com/ssl/api/"`
	KakaoBaseURL     string `envconfig:"KAKAO_BASE_URL" default:"https://kapi.kakao.com"`

	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	// Provider rates; unset or non-positive values use the provider default.
	NaverRatePerSec     float64 `envconfig:"NAVER_RATE_PER_SEC"`
	DomeggookRatePerSec float64 `envconfig:"DOMEGGOOK_RATE_PER_SEC"`
	KakaoRatePerSec     float64 `envconfig:"KAKAO_RATE_PER_SEC"`

	SeasonWorkers     int           `envconfig:"SEASON_WORKERS" default:"4"`
	SeasonRatePerSec  float64       `envconfig:"SEASON_RATE_PER_SEC" default:"2"`
	SeasonCacheTTL    time.Duration `envconfig:"SEASON_CACHE_TTL" default:"6h"`
	SeasonRefreshCron string        `envconfig:"SEASON_REFRESH_CRON" default:"0 5 * * *"`

	// RedisURL switches the season cache to Redis when set.
	RedisURL string `envconfig:"REDIS_URL"`
}

// Load reads an optional .env file (searched in the working directory)
// and then the process environment. Values already in the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if cfg.SeasonWorkers < 1 {
		cfg.SeasonWorkers = 1
	}
	return cfg, nil
}

// NaverConfigured reports whether both process-level Naver credentials are set.
func (c Config) NaverConfigured() bool {
	return c.NaverClientID != "" && c.NaverClientSecret != ""
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
