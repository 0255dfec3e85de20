package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/merkadolite/merkadolite-backend/api/routes"
	"github.com/merkadolite/merkadolite-backend/internal/cart"
	"github.com/merkadolite/merkadolite-backend/internal/deliveries"
	"github.com/merkadolite/merkadolite-backend/internal/inventory"
	"github.com/merkadolite/merkadolite-backend/internal/notifications"
	"github.com/merkadolite/merkadolite-backend/internal/orders"
	"github.com/merkadolite/merkadolite-backend/internal/promotions"
	"github.com/merkadolite/merkadolite-backend/internal/users"
	"github.com/merkadolite/merkadolite-backend/pkg/config"
	"github.com/merkadolite/merkadolite-backend/pkg/db"
	"github.com/merkadolite/merkadolite-backend/pkg/logger"
	"github.com/merkadolite/merkadolite-backend/pkg/migrate"
	"github.com/merkadolite/merkadolite-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)

	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), usersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, inventoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	promotionsService, err := promotions.NewService(promotions.NewRepository(gormDB), inventoryRepo, usersRepo, notificationsService, cfg.Promo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventoryRepo, usersRepo, notificationsService, promotionsService, cfg.Sweep, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, cartRepo, inventoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	deliveriesService, err := deliveries.NewService(deliveries.NewRepository(gormDB), usersRepo, ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create deliveries service", err)
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
		Handler: routes.NewRouter(cfg, logg,
			routes.Dependencies{DB: dbClient, Redis: redisClient},
			routes.Services{
				Cart:          cartService,
				Orders:        ordersService,
				Inventory:     inventoryService,
				Promotions:    promotionsService,
				Deliveries:    deliveriesService,
				Notifications: notificationsService,
				Users:         usersService,
			}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
