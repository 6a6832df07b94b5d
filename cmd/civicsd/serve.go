package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/adapters"
	"github.com/tbourn/civics-backend/internal/cache"
	"github.com/tbourn/civics-backend/internal/config"
	httpapi "github.com/tbourn/civics-backend/internal/http"
	"github.com/tbourn/civics-backend/internal/observability"
	"github.com/tbourn/civics-backend/internal/repo"
	"github.com/tbourn/civics-backend/internal/services"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = time.Hour
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// newOrchestrator builds every provider adapter over one shared resilient
// client, so all of them report into the same breaker table.
func newOrchestrator(cfg config.Config, durable services.DurableCache) *services.Orchestrator {
	client := upstream.NewClient(upstream.OptionsFrom(cfg.Upstream))

	src := services.Sources{
		Members:   adapters.NewCongress(client, cfg.Keys.Congress),
		Finance:   adapters.NewFinance(client, cfg.Keys.FEC),
		Zip:       adapters.NewCivicInfo(client, cfg.Keys.GoogleCivic),
		Bio:       adapters.NewWikipedia(client),
		Facts:     adapters.NewWikidata(client),
		News:      adapters.NewNews(client, cfg.Keys.News),
		Synthesis: adapters.NewSynthesis(client, cfg.Keys.Anthropic, ""),
	}
	return services.NewOrchestrator(src,
		services.WithDurableCache(durable),
		services.WithStore(cache.NewStore(cfg.Cache.SweepThreshold)),
	)
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.BuildInfo{Version: version})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, store, closeStorage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	orch := newOrchestrator(cfg, store)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	h := httpapi.RegisterRoutes(r, httpapi.Deps{
		Profiles: orch,
		Analysis: orch,
		Usage:    repo.NewUsageRecorder(db),
		Health:   store,
		Limiter:  access.NewRateLimiter(),
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeLoop(ctx, store, purgeInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("api", cfg.APIBasePath).
			Str("cache", cfg.Cache.Backend).
			Str("version", version).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	h.Wait()
	return nil
}

// purgeLoop deletes expired durable-cache entries every interval until ctx
// is cancelled.
func purgeLoop(ctx context.Context, store durableStore, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge expired cache entries")
				continue
			}
			if n > 0 {
				log.Info().Int64("rows", n).Msg("purged expired cache entries")
			}
		}
	}
}
