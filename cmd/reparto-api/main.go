// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"reparto/internal/config"
	"reparto/internal/geozone"
	httptransport "reparto/internal/http"
	"reparto/internal/infra"
	"reparto/internal/maps"
	"reparto/internal/modules/dispatch"
	"reparto/internal/modules/location"
	"reparto/internal/modules/order"
	"reparto/internal/modules/pricing"
	"reparto/internal/modules/rider"
)

func main() {
	config.LoadDotEnvUp(6)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		// The GEO mirror is optional; everything else works without it.
		logger.Warn("redis unavailable, proximity hints disabled", zap.Error(err))
		redisClient = nil
	}

	zone, err := geozone.LoadFile(cfg.Zone.Path)
	if err != nil {
		logger.Warn("service zone not loaded, all containment checks fail closed",
			zap.String("path", cfg.Zone.Path), zap.Error(err))
		zone = nil
	}

	var routes maps.RouteEstimator
	if cfg.Maps.APIKey != "" {
		routes, err = maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps client init", zap.Error(err))
		}
	} else {
		logger.Info("no maps api key, using haversine route estimates")
		routes = maps.NewHaversineEstimator()
	}

	pricer := pricing.NewService(pricing.Rates{
		Floor: cfg.Pricing.FloorPrice,
		Base:  cfg.Pricing.BasePerTrip,
		PerKm: cfg.Pricing.PerKmRate,
	})

	riderStore := rider.NewStore(dbPool)
	riderSvc := rider.NewService(riderStore)

	locationStore := location.NewStore(dbPool, redisClient)
	locationSvc := location.NewService(locationStore, logger)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, zone, routes, pricer)

	dispatchSvc := dispatch.NewService(
		dispatch.NewStore(dbPool, redisClient),
		orderStore, riderStore,
		dispatch.NearbyDefaults{
			RadiusKm: cfg.Dispatch.NearbyRadiusKm,
			Limit:    cfg.Dispatch.NearbyLimit,
		},
		logger,
	)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Riders:    riderSvc,
		Locations: locationSvc,
		Orders:    orderSvc,
		Dispatch:  dispatchSvc,
		Zone:      zone,
		Pricer:    pricer,
		Log:       logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
