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
	"go.uber.org/multierr"

	"github.com/vendorhall/checkout/api/routes"
	"github.com/vendorhall/checkout/internal/cart"
	checkoutsvc "github.com/vendorhall/checkout/internal/checkout"
	"github.com/vendorhall/checkout/internal/confirmation"
	"github.com/vendorhall/checkout/internal/orders"
	"github.com/vendorhall/checkout/internal/paymentmethods"
	"github.com/vendorhall/checkout/internal/submission"
	"github.com/vendorhall/checkout/pkg/config"
	"github.com/vendorhall/checkout/pkg/logger"
	"github.com/vendorhall/checkout/pkg/metrics"
	"github.com/vendorhall/checkout/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	settingsClient, err := paymentmethods.NewClient(cfg.Vendors)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor settings client", err)
		os.Exit(1)
	}
	directory, err := paymentmethods.NewService(settingsClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment method directory", err)
		os.Exit(1)
	}

	ordersClient, err := orders.NewClient(cfg.Orders)
	if err != nil {
		logg.Error(context.Background(), "failed to create order client", err)
		os.Exit(1)
	}

	sessions, err := cart.NewRepository(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session repository", err)
		os.Exit(1)
	}

	confirmationService, err := confirmation.NewService(redisClient, cfg.Checkout.EnvelopeTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create confirmation service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(sessions, directory, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	submissionService, err := submission.NewService(
		sessions,
		directory,
		ordersClient,
		confirmationService,
		redisClient,
		checkoutMetrics,
		logg,
		cfg.Checkout.SubmitLockTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create submission service", err)
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
	logg.Info(ctx, "starting checkout api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			redisClient,
			checkoutService,
			submissionService,
			confirmationService,
			registry,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "checkout api server stopped unexpectedly", err)
			if closeErr := redisClient.Close(); closeErr != nil {
				logg.Error(ctx, "error closing redis", closeErr)
			}
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := server.Shutdown(drainCtx)
		err = multierr.Append(err, redisClient.Close())
		if err != nil {
			logg.Error(ctx, "shutdown finished with errors", err)
			return
		}
		logg.Info(ctx, "shutdown complete")
	}
}
