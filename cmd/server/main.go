package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/DanielPPerez/API-Estancia2/internal/cache"
	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"github.com/DanielPPerez/API-Estancia2/internal/metrics"
	"github.com/DanielPPerez/API-Estancia2/internal/middleware"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/routes"
	"github.com/DanielPPerez/API-Estancia2/internal/security"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"github.com/DanielPPerez/API-Estancia2/internal/utils"
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	_ "github.com/DanielPPerez/API-Estancia2/docs/api" // Swagger docs
)

// @title API-Estancia2
// @version 1.0.0
// @description Innovation fair evaluation service: projects, rubric evaluations, roles and spreadsheet transfer
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/DanielPPerez/API-Estancia2

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// bodyLimit covers three 25MB documents plus form fields
const bodyLimit = 80 << 20

func main() {
	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations and seed the role vocabulary
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	ctx := context.Background()
	if err := database.SeedRoles(ctx, db); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}
	if err := database.SeedAdmin(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Optional role cache
	var roleCache cache.RoleCache
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to role cache: %v", err)
		}
		defer client.Close()
		roleCache = cache.NewRedisRoleCache(client, cfg.RoleCacheTTL)
		log.Printf("Role cache enabled (ttl %s)", cfg.RoleCacheTTL)
	}

	// Document storage
	backend, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}
	store := storage.Instrument(backend, cfg.StorageTimeout)
	uploadDir := ""
	if local, ok := backend.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}
	log.Printf("Document storage: %s", backend.Name())

	issuer, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	metrics.Register()

	repos := repository.New(db, cfg.DBAcquireTimeout)
	resolver := services.NewRoleResolver(repos.Users, roleCache)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.LegacyTokenHeader + ", X-Api-Version",
	}))

	// Prometheus metrics
	prometheus := fiberprometheus.New("api_estancia2")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	routes.Setup(app, routes.Dependencies{
		Config:      cfg,
		Issuer:      issuer,
		Resolver:    resolver,
		Auth:        services.NewAuthService(repos, issuer, resolver, cfg.JWTRefreshExpiration),
		Identity:    services.NewIdentityService(repos, resolver),
		Evaluations: services.NewEvaluationService(repos, resolver),
		Projects:    services.NewProjectService(repos, store, resolver),
		Transfer:    services.NewTransferService(repos),
		Health:      services.HealthDeps{DB: db, Cache: roleCache, Store: store},
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		UploadDir:   uploadDir,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
