package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue-editor/internal/common/config"
	"venue-editor/internal/common/middleware"
	"venue-editor/internal/editor/bus"
	"venue-editor/internal/editor/export"
	"venue-editor/internal/editor/handlers"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/overlay"
	"venue-editor/internal/editor/persistence"
	"venue-editor/internal/editor/session"
	"venue-editor/internal/editor/viewport"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Editor Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	// ============================================================
	// Dependencies
	// ============================================================

	deps := session.Deps{
		Store: persistence.NewClient(cfg.LayoutsURL, time.Duration(cfg.WriteTimeout)*time.Second),
	}

	exporter, err := export.NewExporter()
	if err != nil {
		log.Fatalf("init exporter: %v", err)
	}
	deps.Exporter = exporter

	if client := overlay.NewRedisClient(cfg.RedisAddr); client != nil {
		defer client.Close()
		deps.Source = overlay.NewRedisSource(client)
		log.Printf("[OVERLAY] polling Redis %s every %ds", cfg.RedisAddr, cfg.OverlayPollSeconds)
	}

	if cfg.NATSURL != "" {
		conn, err := bus.Connect(cfg.NATSURL, "venue-editor")
		if err != nil {
			log.Printf("[NATS] %v; intents and live overlay disabled", err)
		} else {
			defer conn.Close()
			deps.Intents = bus.NewIntentPublisher(conn)
			deps.Subscribe = func(venueID string, ov *overlay.Overlay) (func(), error) {
				sub, err := bus.SubscribeOverlay(conn, venueID, ov)
				if err != nil {
					return nil, err
				}
				return func() { sub.Unsubscribe() }, nil
			}
		}
	}

	manager := session.NewManager(sessionConfig(cfg), deps)
	files := export.NewFileStore(cfg.ExportDir)
	editorHandler := handlers.NewEditorHandler(manager, files)

	if cfg.SessionIdleMins > 0 {
		idle := time.Duration(cfg.SessionIdleMins) * time.Minute
		go func() {
			for range time.Tick(time.Minute) {
				if n := manager.Sweep(idle); n > 0 {
					log.Printf("[EDITOR] closed %d idle sessions", n)
				}
			}
		}()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		AppName:      "Editor Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(middleware.Recover("EDITOR"))
	app.Use(middleware.Logger("EDITOR"))
	app.Use(middleware.CORS(cfg.Environment))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready", "sessions": manager.Count()})
	})

	// ============================================================
	// Editor Routes
	// ============================================================

	editorHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Printf("Shutting down Editor Service")
		manager.CloseAll()
		app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Editor Service on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Persistence: %s", cfg.LayoutsURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func sessionConfig(cfg *config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.Engine.GridSize = cfg.GridSize
	sc.Engine.Snap = cfg.SnapEnabled
	sc.Engine.GuideTolerance = cfg.GuideTolerance
	sc.Viewport = viewport.Config{
		MinZoom: cfg.MinZoom,
		MaxZoom: cfg.MaxZoom,
		Width:   cfg.ViewportWidth,
		Height:  cfg.ViewportHeight,
	}
	sc.HistoryCapacity = cfg.HistoryCapacity
	sc.MenuMode = menu.ParseMode(cfg.MenuMode)
	sc.PollInterval = time.Duration(cfg.OverlayPollSeconds) * time.Second
	return sc
}
