// Package main boots the seller margin HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guarzo/sellermargin/internal/cache"
	"github.com/guarzo/sellermargin/internal/config"
	"github.com/guarzo/sellermargin/internal/httpapi"
	"github.com/guarzo/sellermargin/internal/logx"
	"github.com/guarzo/sellermargin/internal/ratelimit"
	"github.com/guarzo/sellermargin/internal/seller"
	"github.com/guarzo/sellermargin/internal/upstream"
)

const seasonCacheSize = 12

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("load config")
	}
	logx.Init(cfg.IsProduction())
	logx.Info().Str("env", cfg.Env).Bool("naver_configured", cfg.NaverConfigured()).Msg("service_starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiters := ratelimit.NewCustomLimiters(cfg.NaverRatePerSec, cfg.DomeggookRatePerSec, cfg.KakaoRatePerSec)
	hc := &http.Client{Timeout: cfg.UpstreamTimeout}

	naver := upstream.NewNaver(upstream.NaverConfig{
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
		BaseURL:      cfg.NaverBaseURL,
	}, hc, limiters.Naver)

	store, closeStore := openSeasonCache(ctx, cfg)
	defer closeStore()

	ranker := seller.NewSeasonRanker(naver, store, seller.SeasonOptions{
		Workers:    cfg.SeasonWorkers,
		RatePerSec: cfg.SeasonRatePerSec,
		TTL:        cfg.SeasonCacheTTL,
		Timeout:    cfg.UpstreamTimeout,
	})
	if cfg.NaverConfigured() {
		go func() {
			if err := ranker.RefreshIfNeeded(ctx); err != nil {
				logx.Warn().Err(err).Msg("initial season refresh failed")
			}
		}()
	}

	var sched *seller.Scheduler
	if cfg.SeasonRefreshCron != "" && cfg.NaverConfigured() {
		sched, err = seller.NewScheduler(ranker, cfg.SeasonRefreshCron, cfg.UpstreamTimeout*time.Duration(cfg.SeasonWorkers+1))
		if err != nil {
			logx.Fatal().Err(err).Str("spec", cfg.SeasonRefreshCron).Msg("invalid season refresh schedule")
		}
		sched.Start()
	}

	svc := seller.NewService(seller.Deps{
		Naver:     naver,
		Wholesale: upstream.NewDomeggook(cfg.DomeggookBaseURL, hc, limiters.Domeggook),
		Messenger: upstream.NewKakao(cfg.KakaoBaseURL, hc, limiters.Kakao),
		Seasons:   ranker,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.HTTPAddr).Msg("http_listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("http_server_error")
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	logx.Info().Str("signal", s.String()).Msg("shutdown_signal")

	cancel()
	if sched != nil {
		sched.Stop()
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		logx.Error().Err(err).Msg("http_shutdown_error")
	}
	logx.Info().Msg("service_stopped")
}

// openSeasonCache uses Redis when REDIS_URL is set and reachable, and an
// in-process LRU otherwise.
func openSeasonCache(ctx context.Context, cfg config.Config) (cache.Store, func()) {
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.SeasonCacheTTL)
		if err == nil {
			logx.Info().Msg("season cache: redis")
			return rs, func() {
				if err := rs.Close(); err != nil {
					logx.Warn().Err(err).Msg("close redis")
				}
			}
		}
		logx.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
	}
	return cache.NewMemoryStore(seasonCacheSize, cfg.SeasonCacheTTL), func() {}
}
