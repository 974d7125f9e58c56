package main

import (
	"context"

	"go.uber.org/zap"

	"storefront-orders/internal/config"
	"storefront-orders/internal/db"
	"storefront-orders/internal/logging"
	"storefront-orders/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Must("storefront-orders-migrate", "local")
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
