package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront-orders/internal/cache"
	"storefront-orders/internal/config"
	"storefront-orders/internal/db"
	"storefront-orders/internal/httpserver"
	"storefront-orders/internal/logging"
	"storefront-orders/internal/observability"
	"storefront-orders/internal/payment"
	"storefront-orders/internal/pricing"
	cartrepo "storefront-orders/internal/repository/cart"
	counterrepo "storefront-orders/internal/repository/counter"
	inventoryrepo "storefront-orders/internal/repository/inventory"
	orderrepo "storefront-orders/internal/repository/order"
	productrepo "storefront-orders/internal/repository/product"
	ordersvc "storefront-orders/internal/service/order"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Must("storefront-orders", envOrDefault("ENVIRONMENT", "local"))
	defer logger.Sync()

	ctx := context.Background()

	otelShutdown, err := observability.Init(ctx, "storefront-orders", logger)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	gateway, err := buildGateway(cfg)
	if err != nil {
		logger.Fatal("configure payment gateway", zap.Error(err))
	}

	var statsCache cache.Cache
	if cfg.RedisAddr != "" {
		statsCache = cache.NewRedis(cfg.RedisAddr, "storefront-orders")
	}

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	ledger := inventoryrepo.NewPostgres(logger)
	sequence := counterrepo.NewPostgres()

	orderService := ordersvc.New(
		dbpool,
		orderRepo,
		cartRepo,
		productRepo,
		ledger,
		sequence,
		gateway,
		pricing.NewCalculator(cfg.TaxRateBPS),
		statsCache,
		logger,
		ordersvc.Options{
			Currency:                   cfg.Currency,
			DefaultShippingCents:       cfg.DefaultShippingCents,
			FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
			StatsTTL:                   cfg.StatsCacheTTL,
		},
	)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Orders:        orderService,
		WebhookSecret: cfg.PaymentWebhookSecret,
		AdminToken:    cfg.AdminToken,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", zap.Error(err))
	}
}

// buildGateway selects the real payment client or the explicit test-mode
// gateway. Running without an API key and without PAYMENT_TEST_MODE is a
// configuration error, never a silent fallback.
func buildGateway(cfg config.Config) (payment.Gateway, error) {
	if cfg.PaymentTestMode {
		return payment.NewTestGateway(cfg.PaymentWebhookSecret), nil
	}
	if cfg.PaymentAPIKey == "" {
		return nil, errors.New("PAYMENT_API_KEY is required unless PAYMENT_TEST_MODE=true")
	}
	return payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentTimeout), nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
