package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/layouts/repository"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Layouts Handler
// ============================================================

// Store — то, что нужно обработчикам от хранилища планов.
type Store interface {
	LoadScene(ctx context.Context, venueID string) (models.SceneData, error)
	SaveScene(ctx context.Context, patch models.ScenePatch) error
	Ping(ctx context.Context) error
}

type LayoutsHandler struct {
	store    Store
	validate *validator.Validate
}

func NewLayoutsHandler(store Store) *LayoutsHandler {
	return &LayoutsHandler{store: store, validate: validator.New()}
}

func (h *LayoutsHandler) Register(r fiber.Router) {
	r.Get("/venues/:venue/scene", h.LoadScene)
	r.Put("/venues/:venue/scene", h.SaveScene)
}

// LoadScene отдаёт сохранённый план площадки.
func (h *LayoutsHandler) LoadScene(c fiber.Ctx) error {
	venueID := c.Params("venue")
	data, err := h.store.LoadScene(context.Background(), venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "layout not found"})
		}
		log.Printf("[LAYOUTS] load %s: %v", venueID, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load layout"})
	}
	return c.JSON(data)
}

// SaveScene применяет пакетный upsert.
func (h *LayoutsHandler) SaveScene(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var patch models.ScenePatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	patch.VenueID = c.Params("venue")
	if err := h.validate.Struct(patch); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.store.SaveScene(context.Background(), patch); err != nil {
		log.Printf("[LAYOUTS] save %s: %v", patch.VenueID, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save layout"})
	}
	return c.SendStatus(http.StatusNoContent)
}

// ReadinessProbe проверяет доступность базы.
func (h *LayoutsHandler) ReadinessProbe(c fiber.Ctx) error {
	if err := h.store.Ping(context.Background()); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
