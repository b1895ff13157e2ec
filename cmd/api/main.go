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

	"github.com/pharmacare-app/pharmacare-backend/api/routes"
	"github.com/pharmacare-app/pharmacare-backend/internal/auth"
	"github.com/pharmacare-app/pharmacare-backend/internal/fulfillment"
	"github.com/pharmacare-app/pharmacare-backend/internal/medications"
	"github.com/pharmacare-app/pharmacare-backend/internal/notifications"
	"github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/internal/prescriptions"
	"github.com/pharmacare-app/pharmacare-backend/internal/users"
	"github.com/pharmacare-app/pharmacare-backend/pkg/config"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
	"github.com/pharmacare-app/pharmacare-backend/pkg/metrics"
	"github.com/pharmacare-app/pharmacare-backend/pkg/migrate"
	"github.com/pharmacare-app/pharmacare-backend/pkg/redis"
)

func main() {
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	prescriptionsRepo := prescriptions.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	medicationsRepo := medications.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	notifier, err := notifications.NewNotifier(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	prescriptionsService, err := prescriptions.NewService(prescriptionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create prescriptions service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillment.NewService(dbClient, prescriptionsRepo, ordersRepo, notifier, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	medicationsService, err := medications.NewService(medicationsRepo, gormDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create medications service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	orderWorkflow, err := orders.NewWorkflow(dbClient, ordersRepo, usersRepo, notifier)
	if err != nil {
		logg.Error(context.Background(), "failed to create order workflow", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Registry:             registry,
			AuthService:          authService,
			PrescriptionsService: prescriptionsService,
			FulfillmentService:   fulfillmentService,
			MedicationsService:   medicationsService,
			NotificationsService: notificationsService,
			OrdersRepo:           ordersRepo,
			OrderWorkflow:        orderWorkflow,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
