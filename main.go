package main

import (
	"classdesk_go/config"
	"classdesk_go/database"
	"classdesk_go/database/seeders"
	"classdesk_go/middleware"
	"classdesk_go/normalize"
	"classdesk_go/routes"
	"classdesk_go/services"
	"classdesk_go/storage"
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const (
	serviceName = "ClassDesk Admin API"
	appVersion  = "1.0.0"
)

func init() {
	// Load configuration
	config.LoadConfig()

	// Initialize logging
	setupLogging()

	// Connect to database
	database.Connect()
}

func main() {
	ctx := context.Background()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(config.AppConfig.MaxFileSize),
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders: "Content-Disposition,X-Request-ID",
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerMiddleware())

	// Avatar storage and photo resolution
	avatars, uploader := setupAvatars(ctx)
	photos := normalize.NewSecurePhotoResolver(
		avatars,
		setupPhotoCache(),
		"/api/photo-proxy",
		normalize.ParseHostList(config.AppConfig.PhotoProxyHosts),
	)

	activity := services.NewActivityLogService(database.DB, database.RedisClient)
	if err := activity.StartScheduler(photos); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	examCenters := services.NewExamCenterService(database.NewExamCenterStore(database.DB), config.AppConfig.ImportConcurrency)

	if config.AppConfig.Seed {
		seeders.SeedAll(ctx, database.DB)
	}

	health := services.NewHealthService(serviceName, appVersion)
	if uploader != nil {
		health.WithStorage(uploader)
	}

	deps := routes.Dependencies{
		ClassRequests: services.NewRecordService(services.ClassRequests, database.NewRecordStore(database.DB, "class_requests"), photos),
		WebUsers:      services.NewRecordService(services.WebUsers, database.NewRecordStore(database.DB, "web_users"), photos),
		ExamCenters:   examCenters,
		Health:        health,
		Activity:      activity,
		ActivityLogs:  activity,
		ProxyHosts:    normalize.ParseHostList(config.AppConfig.PhotoProxyHosts),
	}
	if uploader != nil {
		deps.Avatars = uploader
	}
	routes.SetupRoutes(app, deps)

	for _, r := range app.Stack() {
		for _, route := range r {
			logrus.Debugf("Registered route: %s %s", route.Method, route.Path)
		}
	}

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		activity.Stop(stopCtx)
		database.Close()
	}()

	log.Printf("Server starting on port %s", config.AppConfig.Port)
	log.Printf("%s v%s", serviceName, appVersion)
	log.Printf("Environment: %s", config.AppConfig.AppEnv)

	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupAvatars picks the avatar URL builder. The S3 backend also accepts uploads.
func setupAvatars(ctx context.Context) (normalize.AvatarURLBuilder, *storage.StorageService) {
	cfg := config.AppConfig
	if cfg.AvatarBackend == "s3" {
		s3Store, err := storage.NewStorageService(ctx)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage:", err)
		}
		log.Printf("Avatar backend: s3 (bucket=%s)", cfg.S3BucketName)
		return s3Store, s3Store
	}
	log.Printf("Avatar backend: template (%s)", cfg.StorageURL)
	return storage.NewTemplateAvatarURLs(cfg.StorageURL, cfg.StorageBucket, cfg.StorageKey), nil
}

func setupPhotoCache() normalize.PhotoCache {
	switch config.AppConfig.PhotoCache {
	case "off":
		return nil
	case "redis":
		if database.RedisClient != nil {
			return normalize.NewRedisPhotoCache(database.RedisClient, "photo:", config.AppConfig.PhotoCacheTTL)
		}
		log.Println("Warning: PHOTO_CACHE=redis but Redis is unavailable, using memory cache")
	}
	return normalize.NewMemoryPhotoCache()
}

// setupLogging configures the logging system
func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.AppConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if !config.AppConfig.IsProduction() || config.AppConfig.LogFile == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll(filepath.Dir(config.AppConfig.LogFile), 0755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
	}
	file, err := os.OpenFile(config.AppConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logrus.SetOutput(file)
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":      err.Error(),
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"status":     code,
		"request_id": c.Locals("request_id"),
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
