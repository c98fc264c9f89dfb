package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	parcelserver "github.com/parceltrack/parcel-api-server/server"

	shipmentscache "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/cache"
	shipmentsmemory "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/memory"
	shipmentsobs "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/observability"
	shipmentspostgres "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/persistence/postgres"
	shipmentsapp "github.com/parceltrack/parcel-api-server/internal/domains/shipments/application"
	shipmentsports "github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	platformmigrations "github.com/parceltrack/parcel-api-server/internal/platform/migrations"
	platformobservability "github.com/parceltrack/parcel-api-server/internal/platform/observability"
	platformpostgres "github.com/parceltrack/parcel-api-server/internal/platform/postgres"

	usersmemory "github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/memory"
	userspostgres "github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/parceltrack/parcel-api-server/internal/domains/users/application"
	usersports "github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

// Run boots the parcel tracking HTTP API with observability, repositories,
// and the tracking cache wired.
func Run(ctx context.Context) error {
	const serviceName = "parcel-api"
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := platformmigrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	userRepo := buildUserRepository(db, logger)
	userService := usersapp.NewService(userRepo)

	shipmentRepo, idemStore := buildShipmentRepository(db, logger)
	coreShipmentService := shipmentsapp.NewService(
		shipmentRepo,
		userRepo,
		shipmentsapp.WithIdempotencyStore(idemStore),
	)
	shipmentService := shipmentsobs.New(
		coreShipmentService,
		shipmentsobs.WithLogger(logger),
		shipmentsobs.WithTracer(instruments.Tracer("internal.shipments.application")),
		shipmentsobs.WithMeter(instruments.Meter("internal.shipments.application")),
	)
	shipmentService = wrapTrackingCache(shipmentService, cfg, logger)

	handlers := parcelserver.ApiHandleFunctions{
		ShipmentAPI: parcelserver.NewShipmentAPI(shipmentService),
		UserAPI:     parcelserver.NewUserAPI(userService),
	}

	router := parcelserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("parcel API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("parcel API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildUserRepository(db *gorm.DB, logger *slog.Logger) usersports.Repository {
	if db == nil {
		logger.Warn("user repository running in-memory")
		return usersmemory.NewRepository()
	}
	logger.Info("user repository configured with postgres")
	return userspostgres.NewRepository(db)
}

func buildShipmentRepository(db *gorm.DB, logger *slog.Logger) (shipmentsports.Repository, shipmentsports.IdempotencyStore) {
	if db == nil {
		logger.Warn("shipment repository running in-memory")
		return shipmentsmemory.NewRepository(), shipmentsmemory.NewIdempotencyStore()
	}
	logger.Info("shipment repository configured with postgres")
	return shipmentspostgres.NewRepository(db), shipmentspostgres.NewIdempotencyStore(db)
}

func wrapTrackingCache(service shipmentsports.Service, cfg Config, logger *slog.Logger) shipmentsports.Service {
	if cfg.RedisAddr == "" {
		logger.Info("tracking cache disabled, REDIS_ADDR not set")
		return service
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("tracking cache enabled",
		slog.String("addr", cfg.RedisAddr),
		slog.Duration("ttl", cfg.TrackingCacheTTL))
	return shipmentscache.NewTrackingCache(service, client, cfg.TrackingCacheTTL)
}
