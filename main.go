package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/auth"
	"github.com/harborwatch/fleetcheck-engine/pkg/config"
	"github.com/harborwatch/fleetcheck-engine/pkg/database"
	"github.com/harborwatch/fleetcheck-engine/pkg/handlers"
	"github.com/harborwatch/fleetcheck-engine/pkg/middleware"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
	"github.com/harborwatch/fleetcheck-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development reads a .env file; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host),
		zap.String("seed_path", cfg.SeedPath))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run over database/sql; the pool handles request traffic.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	auth.InitSessionStore(cfg.Auth.SessionKey, cfg.Auth.WebTokenTTL)

	// Repositories
	operatorRepo := repositories.NewOperatorRepository()
	userRepo := repositories.NewUserRepository()
	vesselRepo := repositories.NewVesselRepository()
	periodicityRepo := repositories.NewPeriodicityRepository()
	resourceRepo := repositories.NewResourceRepository()
	assignmentRepo := repositories.NewAssignmentRepository()
	periodRepo := repositories.NewPeriodRepository()
	recordRepo := repositories.NewRecordRepository()
	deviceRepo := repositories.NewDeviceRepository()

	// Services
	matrixService := services.NewMatrixService(resourceRepo, assignmentRepo, vesselRepo, logger)
	vesselService := services.NewVesselService(vesselRepo, matrixService, logger)
	resourceService := services.NewResourceService(resourceRepo, periodicityRepo, logger)
	inspectionService := services.NewInspectionService(periodRepo, recordRepo, resourceRepo, vesselRepo, periodicityRepo, logger)
	deviceService := services.NewDeviceService(deviceRepo, vesselRepo, logger)
	operatorService := services.NewOperatorService(operatorRepo, userRepo, logger)
	authService := auth.NewAuthService(userRepo, deviceService, cfg.Auth, logger)

	if cfg.SeedPath != "" {
		if err := seedCatalog(ctx, db, resourceService, cfg.SeedPath); err != nil {
			logger.Fatal("failed to seed shared catalog", zap.Error(err))
		}
	}

	mw := auth.NewMiddleware(authService, db, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(mux)
	handlers.NewVesselsHandler(vesselService, logger).RegisterRoutes(mux, mw)
	handlers.NewMatrixHandler(matrixService, vesselService, logger).RegisterRoutes(mux, mw)
	handlers.NewResourcesHandler(resourceService, matrixService, logger).RegisterRoutes(mux, mw)
	handlers.NewInspectionsHandler(inspectionService, logger).RegisterRoutes(mux, mw)
	handlers.NewDevicesHandler(deviceService, logger).RegisterRoutes(mux, mw)
	handlers.NewOperatorsHandler(operatorService, logger).RegisterRoutes(mux, mw)

	addr := cfg.BindAddr + ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting fleetcheck-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// seedCatalog upserts the shared resource catalog on an instance-wide
// connection. Shared rows have no owning operator, so seeding must not
// run under a tenant scope.
func seedCatalog(ctx context.Context, db *database.DB, resources services.ResourceService, path string) error {
	scope, err := db.WithoutTenant(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	return resources.SeedSharedCatalog(database.SetTenantScope(ctx, scope), path)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
