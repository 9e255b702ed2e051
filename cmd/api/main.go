package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bazary-backend/api/controllers"
	"github.com/angelmondragon/bazary-backend/api/routes"
	"github.com/angelmondragon/bazary-backend/internal/appstate"
	"github.com/angelmondragon/bazary-backend/internal/catalog"
	"github.com/angelmondragon/bazary-backend/internal/drafts"
	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/internal/kvstore"
	"github.com/angelmondragon/bazary-backend/internal/orders"
	"github.com/angelmondragon/bazary-backend/internal/publishing"
	"github.com/angelmondragon/bazary-backend/internal/settings"
	"github.com/angelmondragon/bazary-backend/pkg/config"
	"github.com/angelmondragon/bazary-backend/pkg/db"
	"github.com/angelmondragon/bazary-backend/pkg/env"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/metrics"
	"github.com/angelmondragon/bazary-backend/pkg/migrate"
	"github.com/angelmondragon/bazary-backend/pkg/redis"
	"github.com/angelmondragon/bazary-backend/pkg/telegram"
)

const shutdownTimeout = 15 * time.Second

// configureJSON sets process-wide encoding options before any handler runs.
func configureJSON() {
	// The console reads prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	configureJSON()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store    kvstore.Store
		dbClient *db.Client
		redisCli *redis.Client
		pingers  = map[string]controllers.Pinger{}
	)

	if cfg.Store.UsesDB() {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		store = kvstore.NewDBStore(dbClient.DB())
		pingers["database"] = dbClient
	}

	if cfg.Redis.Enabled() {
		redisCli, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		pingers["redis"] = redisCli
	}
	if cfg.Store.UsesRedis() {
		store = kvstore.NewRedisStore(redisCli)
	}
	if cfg.Store.UsesMemory() {
		logg.Warn(ctx, "memory store selected; state is lost on restart")
		store = kvstore.NewMemoryStore()
	}

	state := appstate.New(store, logg)
	if err := state.Load(ctx); err != nil {
		logg.Error(ctx, "failed to load persisted state", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	providerMetrics := metrics.NewProviderMetrics(registry)

	gateway, err := generative.NewGateway(cfg.AI, logg, providerMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create generative gateway", err)
		os.Exit(1)
	}
	if !gateway.Configured() {
		logg.Warn(ctx, "AI key not configured; generative endpoints will reject requests")
	}

	tg := telegram.NewClient(
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithTimeout(cfg.Telegram.RequestTimeout),
	)

	catalogService, err := catalog.NewService(state)
	requireService(ctx, logg, "catalog", err)
	ordersService, err := orders.NewService(state)
	requireService(ctx, logg, "orders", err)
	settingsService, err := settings.NewService(state)
	requireService(ctx, logg, "settings", err)
	publishingService, err := publishing.NewService(tg, state, logg, providerMetrics)
	requireService(ctx, logg, "publishing", err)

	draftController, err := drafts.NewController(gateway, state, drafts.NewStatusBroker(), logg, drafts.Options{
		MaxFiles:        cfg.Media.MaxUploadFiles,
		MaxEdge:         cfg.Media.ImageMaxEdge,
		Quality:         cfg.Media.ImageQuality,
		DefaultCurrency: cfg.Drafts.DefaultCurrency,
	})
	requireService(ctx, logg, "drafts", err)

	deps := routes.Dependencies{
		Gate:       state,
		Catalog:    catalogService,
		Orders:     ordersService,
		Settings:   settingsService,
		Publishing: publishingService,
		Gateway:    gateway,
		Drafts:     draftController,
		Pingers:    pingers,
		Gatherer:   registry,
	}
	if redisCli != nil {
		deps.Limiter = redisCli
	}

	addr := ":" + env.First(cfg.App.Port, "PORT")
	id := env.First("local", "DYNO", "HOSTNAME")
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"store":    cfg.Store.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(context.WithoutCancel(ctx), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	shutdownErr = multierr.Append(shutdownErr, draftController.Shutdown(shutdownCtx))
	if redisCli != nil {
		shutdownErr = multierr.Append(shutdownErr, redisCli.Close())
	}
	if dbClient != nil {
		shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	}
	if shutdownErr != nil {
		logg.Error(shutdownCtx, "errors during shutdown", shutdownErr)
		exitCode = 1
	}

	logg.Info(shutdownCtx, "api server stopped")
	os.Exit(exitCode)
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+name+" service", err)
	os.Exit(1)
}
