package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finpack/docs"
	"finpack/internal/bank"
	"finpack/internal/config"
	"finpack/internal/database"
	"finpack/internal/database/migration"
	handlers "finpack/internal/http/handler"
	"finpack/internal/http/middleware"
	"finpack/internal/otel"
	"finpack/internal/pipeline"
	"finpack/internal/pipeline/classify"
	"finpack/internal/pipeline/gate"
	"finpack/internal/repository/postgres"
	"finpack/internal/service"
	"finpack/internal/storage"
	"finpack/internal/textextract"
)

// @title Finpack API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()
	loc := time.UTC

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing degrades to a no-op when no collector is configured.
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("failed to shut down tracing: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Assemble the decision pipeline.
	var extractor textextract.Extractor = textextract.NewPDF()
	if cfg.Pipeline.TextBackend == "naive" {
		extractor = textextract.NewNaive()
	}

	var labelIDs map[string]int
	if cfg.Pipeline.LabelMapPath != "" {
		labelIDs, err = classify.LoadLabelMap(cfg.Pipeline.LabelMapPath)
		if err != nil {
			log.Fatalf("failed to load label map: %v", err)
		}
	}

	scorer := gate.NewScorer(extractor, gate.DefaultRequiredDocs())
	classifier := classify.New(classify.DefaultRules(), labelIDs)
	runner := pipeline.NewRunner(scorer, classifier, extractor)

	// Initialize repositories and services
	pkgRepo := postgres.NewPackagePostgres(db)
	pkgSvc := service.NewPackageService(runner, bank.NewObject(objStore), objStore, pkgRepo, cfg.Pipeline.WorkdirBase)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// ZIP packages run well past Fiber's 4MB default
		BodyLimit: 64 * 1024 * 1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	// Stamp the request id onto the server span so traces and logs line up
	app.Use(middleware.TraceRequestID())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, pkgSvc, promMiddleware)

	// Swagger UI with dynamic host and scheme
	docs.SwaggerInfo.Host = cfg.AppHost
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
