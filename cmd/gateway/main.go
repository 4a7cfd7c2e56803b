package main

import (
	"fmt"
	"log"
	"time"

	"venue-editor/internal/common/config"
	"venue-editor/internal/common/middleware"
	"venue-editor/internal/gateway/handlers"
	"venue-editor/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.MustLoad()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(middleware.Recover("GATEWAY"))
	app.Use(middleware.Logger("GATEWAY"))
	app.Use(middleware.CORS(cfg.Environment))

	// ============================================================
	// Health Check Routes
	// ============================================================

	readiness := handlers.NewReadiness(map[string]string{
		"editor":  cfg.EditorURL,
		"layouts": cfg.LayoutsURL,
	}, 2*time.Second)

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", readiness.ReadinessProbe)
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Venue editor API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	p := proxy.New(time.Duration(cfg.WriteTimeout) * time.Second)
	p.Mount(api, "/editor", cfg.EditorURL)
	p.Mount(api, "/layouts", cfg.LayoutsURL)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /api/v1/editor to %s, /api/v1/layouts to %s", cfg.EditorURL, cfg.LayoutsURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
