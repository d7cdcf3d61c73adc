// @title        Weighbridge API
// @version      1.0
// @description  Multi-tenant truck weight management for trucking companies and city enforcement.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/haulscale/weighbridge/internal/api"
	"github.com/haulscale/weighbridge/internal/core/ports"
	"github.com/haulscale/weighbridge/internal/core/service"
	"github.com/haulscale/weighbridge/internal/infrastructure/auth"
	mongostore "github.com/haulscale/weighbridge/internal/infrastructure/db/mongo"
	pgstore "github.com/haulscale/weighbridge/internal/infrastructure/db/postgres"
	redisstore "github.com/haulscale/weighbridge/internal/infrastructure/db/redis"
	"github.com/haulscale/weighbridge/internal/infrastructure/queue"
	"github.com/haulscale/weighbridge/internal/infrastructure/webhook"
	"github.com/haulscale/weighbridge/internal/pkg/config"
	"github.com/haulscale/weighbridge/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "weighbridge",
	})

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPool,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	store := mongostore.NewStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	directory, closeDirectory, err := openDirectory(ctx, cfg, mongoClient, db)
	if err != nil {
		return err
	}
	defer closeDirectory()
	log.Info().Str("driver", cfg.Directory.Driver).Msg("account directory ready")

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return err
	}

	// --- Webhooks ---
	dispatcher := queue.NewDispatcher(cfg.Webhooks.Workers, store.Webhooks,
		webhook.NewSender(cfg.Webhooks.Timeout), logger.Component("webhooks"))

	// --- Services ---
	svcLog := logger.Component("service")
	apiKeys := service.NewAPIKeyService(store.APIKeys, svcLog)
	users := service.NewUserService(directory, svcLog)
	svc := api.Services{
		Authn:     service.NewAuthenticator(verifier, directory, logger.Component("auth")),
		KeyAuthn:  apiKeys,
		Companies: service.NewCompanyService(store.Companies, svcLog),
		Drivers:   service.NewDriverService(store.Drivers, svcLog),
		Vehicles:  service.NewVehicleService(store.Vehicles, svcLog),
		Scales:    service.NewScaleService(store.Scales, svcLog),
		Loads:     service.NewLoadService(store.Loads, store.Drivers, store.Vehicles, dispatcher, svcLog),
		Weights: service.NewWeightService(store.Weights, service.WeightRefs{
			Drivers:  store.Drivers,
			Vehicles: store.Vehicles,
			Loads:    store.Loads,
			Scales:   store.Scales,
		}, redisstore.NewTicketDedup(rdb, cfg.Redis.DedupTTL), dispatcher, cfg.LegalGrossLimitLbs, svcLog),
		APIKeys:  apiKeys,
		Webhooks: service.NewWebhookService(store.Webhooks, svcLog),
		Permits:  service.NewPermitService(store.Permits, svcLog),
		Users:    users,
		Cities:   service.NewCityService(store.Cities, svcLog),
		Dashboard: service.NewDashboardService(service.DashboardRepos{
			Drivers:  store.Drivers,
			Vehicles: store.Vehicles,
			Loads:    store.Loads,
			Weights:  store.Weights,
			Permits:  store.Permits,
		}, directory),
	}

	e := api.NewRouter(svc, api.Options{
		Log: logger.Component("http"),
		Health: map[string]func(context.Context) error{
			"mongodb":   func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"directory": directory.Ping,
		},
		IngestRate:         cfg.Ingest.RatePerSec,
		IngestBurst:        cfg.Ingest.Burst,
		LegalGrossLimitLbs: cfg.LegalGrossLimitLbs,
		DirectoryDriver:    cfg.Directory.Driver,
		WebhookWorkers:     cfg.Webhooks.Workers,
	})

	srv := newHTTPServer(cfg.Port, e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newHTTPServer returns the API server. Requests run on a background base
// context so a shutdown signal does not cancel them while Shutdown drains.
func newHTTPServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// openDirectory returns the account directory selected by configuration and
// a function releasing its resources.
func openDirectory(ctx context.Context, cfg *config.Config, client *mongo.Client, db *mongo.Database) (ports.Directory, func(), error) {
	if cfg.Directory.Driver == config.DirectoryPostgres {
		pool, err := pgstore.NewPool(ctx, cfg.Directory.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		dir := pgstore.NewDirectory(pool)
		if err := dir.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return dir, pool.Close, nil
	}

	dir := mongostore.NewDirectory(client, db)
	if err := dir.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}
	return dir, func() {}, nil
}
