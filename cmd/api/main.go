package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"photostyler/internal/adapter/repo"
	"photostyler/internal/cache"
	"photostyler/internal/domain"
	"photostyler/internal/generate"
	"photostyler/internal/http/handlers"
	"photostyler/internal/http/httpapi"
	"photostyler/internal/infra"
	"photostyler/internal/infra/geoip"
	"photostyler/internal/middleware"
	"photostyler/internal/providers/image"
	"photostyler/internal/providers/kolors"
	"photostyler/internal/providers/openai"
	"photostyler/internal/style"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	// Durable result cache; falls back to an in-process slot when no Redis
	// address is configured.
	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			UseTLS:   cfg.RedisUseTLS,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, cached results will not survive restarts")
		store = cache.NewMemoryStore()
	}

	providers := map[domain.Model]image.Generator{
		domain.ModelKolors: kolors.NewClient(kolors.Options{
			APIKey:  cfg.KolorsAPIKey,
			BaseURL: cfg.KolorsBaseURL,
			Model:   cfg.KolorsModel,
			Logger:  &logger,
		}),
		domain.ModelOpenAI: openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIImageModel,
			Logger:  &logger,
		}),
	}

	styles := style.NewCatalog()
	registry := generate.NewRegistry(styles, providers, store, logger)
	settings := repo.NewSettingsRepo(sqlRunner)
	app := handlers.NewApp(registry, styles, settings, logger)

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		if closer, ok := resolver.(*geoip.Resolver); ok {
			defer closer.Close()
		}
	}

	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
