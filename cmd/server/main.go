package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appinventory "github.com/wms/backend/internal/application/inventory"
	applocation "github.com/wms/backend/internal/application/location"
	"github.com/wms/backend/internal/application/notification"
	"github.com/wms/backend/internal/application/realtime"
	appreplenishment "github.com/wms/backend/internal/application/replenishment"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/event"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"github.com/wms/backend/internal/infrastructure/purchasing"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

// snapshotSource adapts the item repository to the realtime hub
type snapshotSource struct {
	items inventory.ItemRepository
}

func (s snapshotSource) ListItems(ctx context.Context, organizationID uuid.UUID) ([]inventory.ItemSnapshot, error) {
	return s.items.FindAllSnapshots(ctx, organizationID)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	itemRepo := persistence.NewGormItemRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	episodeRepo := persistence.NewGormEpisodeRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	notifier := notification.NewLoggingNotifier(log)

	inventoryService := appinventory.NewService(itemRepo, movementRepo, txScope, bus, log)
	locationService := applocation.NewService(locationRepo, log)

	hub := realtime.NewHub(snapshotSource{items: itemRepo}, log)
	bus.Subscribe(hub)
	bus.Subscribe(appinventory.NewStockAlertHandler(notifier, log))

	var drafts appreplenishment.PurchaseDraftCreator
	if cfg.Purchasing.BaseURL != "" {
		drafts = purchasing.NewClient(cfg.Purchasing, log)
	} else {
		drafts = purchasing.NewLocalDraftCreator(log)
	}

	engine := appreplenishment.NewEngine(episodeRepo, itemRepo, drafts, notifier, bus, log)
	if cfg.Replenishment.Enabled {
		bus.Subscribe(engine)
	} else {
		log.Warn("auto-replenishment disabled by configuration")
	}

	var feed *event.RedisChangeFeed
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		// Remote changes flow into the hub only; the engine and alert
		// handler run where the change originated.
		feed = event.NewRedisChangeFeed(redisClient, cfg.Realtime.Channel, hub, log)
		bus.Subscribe(feed)
		go func() {
			if err := feed.Subscribe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis change feed stopped", zap.Error(err))
			}
		}()
	}

	handlers := router.Handlers{
		Inventory: handler.NewInventoryHandler(inventoryService, log),
		Location:  handler.NewLocationHandler(locationService, log),
		Orders:    handler.NewOrdersHandler(inventoryService, engine, log),
		Stream:    handler.NewStreamHandler(hub, cfg.Realtime.HeartbeatInterval, log),
		System:    handler.NewSystemHandler(db, hub, version, log),
	}
	mux := router.New(cfg, log, handlers)

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        mux,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if feed != nil {
		if err := feed.Close(); err != nil {
			log.Error("failed to close redis change feed", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop event bus", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
