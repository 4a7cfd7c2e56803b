package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `validate:"required,numeric"`
	Environment  string `validate:"required,oneof=development production test"`
	ReadTimeout  int    `validate:"gt=0"`
	WriteTimeout int    `validate:"gt=0"`

	// Редактор
	GridSize        float64 `validate:"gt=0"`
	SnapEnabled     bool
	MinZoom         float64 `validate:"gt=0,ltefield=MaxZoom"`
	MaxZoom         float64 `validate:"gt=0"`
	HistoryCapacity int     `validate:"gt=0"`
	GuideTolerance  float64 `validate:"gte=0"`
	MenuMode        string  `validate:"oneof=radial card"`
	ViewportWidth   float64 `validate:"gt=0"`
	ViewportHeight  float64 `validate:"gt=0"`
	SessionIdleMins int     `validate:"gte=0"`

	// Сервисы и инфраструктура
	LayoutsURL         string `validate:"omitempty,url"`
	EditorURL          string `validate:"omitempty,url"`
	LayoutsDBPath      string
	MigrationsPath     string
	RedisAddr          string
	NATSURL            string
	ExportDir          string `validate:"required"`
	OverlayPollSeconds int    `validate:"gt=0"`
}

// Load загружает конфигурацию из переменных окружения. Файл .env, если он
// есть, читается первым; уже заданные переменные он не перекрывает.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] .env: %v", err)
	}

	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		GridSize:        getEnvAsFloat("GRID_SIZE", 20),
		SnapEnabled:     getEnvAsBool("SNAP_ENABLED", true),
		MinZoom:         getEnvAsFloat("MIN_ZOOM", 0.25),
		MaxZoom:         getEnvAsFloat("MAX_ZOOM", 3.0),
		HistoryCapacity: getEnvAsInt("HISTORY_CAPACITY", 50),
		GuideTolerance:  getEnvAsFloat("GUIDE_TOLERANCE", 3),
		MenuMode:        getEnv("MENU_MODE", "radial"),
		ViewportWidth:   getEnvAsFloat("VIEWPORT_WIDTH", 1280),
		ViewportHeight:  getEnvAsFloat("VIEWPORT_HEIGHT", 800),
		SessionIdleMins: getEnvAsInt("SESSION_IDLE_MINUTES", 120),

		LayoutsURL:         getEnv("LAYOUTS_URL", "http://localhost:3002"),
		EditorURL:          getEnv("EDITOR_URL", "http://localhost:3001"),
		LayoutsDBPath:      getEnv("LAYOUTS_DB_PATH", "data/db/layouts.db"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "migrations/001_init_layouts.sql"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		NATSURL:            getEnv("NATS_URL", ""),
		ExportDir:          getEnv("EXPORT_DIR", "data/exports"),
		OverlayPollSeconds: getEnvAsInt("OVERLAY_POLL_SECONDS", 5),
	}
}

// Validate проверяет значения после загрузки.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MustLoad — Load + Validate, при ошибке процесс завершается.
func MustLoad() *Config {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
