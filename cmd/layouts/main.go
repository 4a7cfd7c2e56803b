package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"venue-editor/internal/common/config"
	"venue-editor/internal/common/middleware"
	"venue-editor/internal/layouts/handlers"
	"venue-editor/internal/layouts/repository"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Layouts Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3002"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	db, err := repository.OpenSQLite(cfg.LayoutsDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	layoutsHandler := handlers.NewLayoutsHandler(repo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Layouts Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(middleware.Recover("LAYOUTS"))
	app.Use(middleware.Logger("LAYOUTS"))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", layoutsHandler.ReadinessProbe)

	// ============================================================
	// Layout Routes
	// ============================================================

	layoutsHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Layouts Service on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Database: %s", cfg.LayoutsDBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
