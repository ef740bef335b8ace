package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"wellness-entitlements/config"
	"wellness-entitlements/database"
	"wellness-entitlements/handlers"
	"wellness-entitlements/logger"
	"wellness-entitlements/middleware"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
	"wellness-entitlements/store"
	"wellness-entitlements/utils"
	"wellness-entitlements/workers"
)

const publishSweepInterval = time.Minute

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to a default one here.
		l, _ := logger.New(logger.Options{Level: "info"})
		l.Fatal("failed to load configuration", "error", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if !dotenv {
		log.Warn("No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	var kv store.KV
	switch cfg.StoreBackend {
	case "memory":
		kv = store.NewMemoryKV()
	case "redis":
		rkv, err := store.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "wellness:")
		if err != nil {
			log.Fatal("failed to connect to redis", "error", err)
		}
		defer rkv.Close()
		kv = rkv
	default:
		kv = store.NewGormKV(db)
	}
	audit := store.NewGormAuditLog(db)

	// The writer outlives the signal context; shutdown stops it after HTTP drains.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()
	writer := workers.NewSnapshotWriter(kv, audit, cfg.FlushInterval, log)
	writer.Start(writerCtx)

	repo := services.NewProgressRepository(kv, writer, log)
	engine, err := services.NewEngine(
		repo,
		models.DefaultTierCatalogs(),
		models.MustAchievementCatalog(models.DefaultAchievements...),
		models.TemplateStepLimits,
		log,
	)
	if err != nil {
		log.Fatal("invalid catalogs", "error", err)
	}

	catalog := services.NewContentCatalog(db)
	if err := catalog.Seed(ctx, models.DefaultContent); err != nil {
		log.Fatal("failed to seed content catalog", "error", err)
	}

	var exports services.ObjectStore
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		exports = r2
	} else {
		log.Warn("R2_BUCKET_NAME not set, template exports disabled")
	}

	publisher := services.NewTemplatePublisher(
		db,
		repo,
		engine.Tiers[models.DomainTemplate],
		engine.Constraints,
		engine.Tracker,
		exports,
		log,
	)
	sched, err := publisher.StartPublishScheduler(ctx, publishSweepInterval)
	if err != nil {
		log.Fatal("failed to start publish scheduler", "error", err)
	}
	if err := services.ScheduleSessionEviction(sched, repo, cfg.SessionIdle); err != nil {
		log.Fatal("failed to schedule session eviction", "error", err)
	}

	var waitlist *services.WaitlistClient
	if cfg.WaitlistURL != "" {
		waitlist = services.NewWaitlistClient(cfg.WaitlistURL, cfg.WaitlistToken, log)
	}

	app := newApp(cfg, log)
	handlers.SetupProgressionRoutes(app, engine, audit, log)
	handlers.SetupContentRoutes(app, engine, catalog, log)
	handlers.SetupTemplateRoutes(app, engine, publisher, log)
	handlers.SetupWaitlistRoutes(app, waitlist, log)
	handlers.SetupActivityStream(app, engine.Ledger, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("Server error", "error", err)
			stop()
		}
	}()

	log.Info("Server running", "port", cfg.Port, "store", cfg.StoreBackend, "db", cfg.DBDriver)
	log.Info("CORS configured", "origins", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Info("Shutting down server...")
	shutdown(app, sched, writer, stopWriter, log)
}

func newApp(cfg *config.Config, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, log))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	return app
}

// shutdown drains HTTP and scheduled jobs before the snapshot writer's final
// flush, so every accepted mutation is queued by the time it runs.
func shutdown(app *fiber.App, sched gocron.Scheduler, writer *workers.SnapshotWriter, stopWriter context.CancelFunc, log *logger.Logger) {
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("HTTP shutdown", "error", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Warn("Scheduler shutdown", "error", err)
	}
	stopWriter()
	select {
	case <-writer.Done():
	case <-time.After(15 * time.Second):
		log.Warn("Snapshot writer did not drain in time", "pending", writer.Pending())
	}
}
