package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"venue-editor/internal/editor/export"
	"venue-editor/internal/editor/importer"
	"venue-editor/internal/editor/interaction"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/persistence"
	"venue-editor/internal/editor/session"
	"venue-editor/internal/editor/templates"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Editor Handler
// ============================================================

type EditorHandler struct {
	sessions *session.Manager
	files    *export.FileStore
	validate *validator.Validate
}

func NewEditorHandler(sessions *session.Manager, files *export.FileStore) *EditorHandler {
	v := validator.New()
	v.RegisterValidation("venueid", func(fl validator.FieldLevel) bool {
		return models.ValidVenueID(fl.Field().String())
	})
	return &EditorHandler{
		sessions: sessions,
		files:    files,
		validate: v,
	}
}

// Register вешает маршруты редактора на роутер.
func (h *EditorHandler) Register(r fiber.Router) {
	r.Get("/templates", h.ListTemplates)

	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/:id", h.GetStatus)
	r.Delete("/sessions/:id", h.CloseSession)
	r.Get("/sessions/:id/scene", h.GetScene)
	r.Post("/sessions/:id/events", h.PostEvents)
	r.Post("/sessions/:id/commands", h.PostCommand)
	r.Post("/sessions/:id/save", h.Save)
	r.Post("/sessions/:id/import", h.ImportSVG)
	r.Get("/sessions/:id/render.svg", h.RenderSVG)
	r.Get("/sessions/:id/export.png", h.ExportPNG)
	r.Post("/sessions/:id/exports", h.StoreExport)
	r.Delete("/sessions/:id/notices/:notice", h.DismissNotice)

	r.Get("/venues/:venue/exports", h.ListExports)
	r.Get("/venues/:venue/exports/:name", h.GetExport)
}

type createSessionRequest struct {
	VenueID string `json:"venue_id" validate:"required,venueid"`
}

type eventsRequest struct {
	Events []interaction.Event `json:"events" validate:"required,min=1,max=256,dive"`
}

type eventsResponse struct {
	Action menu.ActionKey `json:"action,omitempty"`
	Status session.Status `json:"status"`
}

type commandResponse struct {
	Result session.Result `json:"result"`
	Status session.Status `json:"status"`
}

func (h *EditorHandler) session(c fiber.Ctx) (*session.Session, error) {
	s, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return s, nil
}

// decode разбирает и валидирует JSON-тело запроса.
func (h *EditorHandler) decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return errors.New("invalid json")
	}
	return h.validate.Struct(v)
}

// ListTemplates отдаёт каталог шаблонов.
func (h *EditorHandler) ListTemplates(c fiber.Ctx) error {
	return c.JSON(templates.All())
}

// CreateSession открывает редактор площадки.
func (h *EditorHandler) CreateSession(c fiber.Ctx) error {
	var req createSessionRequest
	if err := h.decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s, err := h.sessions.Create(context.Background(), req.VenueID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(s.Status())
}

func (h *EditorHandler) GetStatus(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.Status())
}

func (h *EditorHandler) CloseSession(c fiber.Ctx) error {
	if !h.sessions.Close(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *EditorHandler) GetScene(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.Scene())
}

// PostEvents применяет пачку событий ввода по порядку.
func (h *EditorHandler) PostEvents(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req eventsRequest
	if err := h.decode(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var resp eventsResponse
	for _, ev := range req.Events {
		action, err := s.Dispatch(context.Background(), ev)
		if err != nil {
			log.Printf("[EDITOR] dispatch %s: %v", ev.Type, err)
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		if action != "" {
			resp.Action = action
		}
	}
	resp.Status = s.Status()
	return c.JSON(resp)
}

func (h *EditorHandler) PostCommand(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var cmd session.Command
	if err := h.decode(c, &cmd); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := s.Execute(context.Background(), cmd)
	if err != nil {
		return c.Status(commandStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(commandResponse{Result: res, Status: s.Status()})
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, menu.ErrClosed), errors.Is(err, menu.ErrUnknownAction):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownTemplate):
		return http.StatusNotFound
	default:
		var perr *persistence.Error
		if errors.As(err, &perr) {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	}
}

// Save отправляет изменения в сервис планов.
func (h *EditorHandler) Save(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.Save(context.Background()); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, session.ErrSaveInProgress) {
			status = http.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error(), "status": s.Status()})
	}
	return c.JSON(s.Status())
}

// ImportSVG заменяет сцену планом из multipart-файла "file".
func (h *EditorHandler) ImportSVG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required in multipart/form-data"})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	log.Printf("[EDITOR] import %s (%d bytes) into %s", file.Filename, len(data), s.VenueID())
	if err := s.ImportSVG(bytes.NewReader(data)); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, importer.ErrNoElements) {
			status = http.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.Status())
}

func (h *EditorHandler) RenderSVG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	out, err := s.RenderSVG()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "render failed"})
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(out)
}

func (h *EditorHandler) ExportPNG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.ExportPNG(&buf); err != nil {
		return exportError(c, err)
	}
	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

// StoreExport сохраняет PNG в хранилище экспортов площадки.
func (h *EditorHandler) StoreExport(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.ExportPNG(&buf); err != nil {
		return exportError(c, err)
	}
	name, err := h.files.Save(s.VenueID(), "png", buf.Bytes())
	if err != nil {
		log.Printf("[EDITOR] store export: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store export"})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"name": name})
}

func exportError(c fiber.Ctx, err error) error {
	if errors.Is(err, session.ErrNoExporter) {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[EDITOR] export: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
}

func (h *EditorHandler) ListExports(c fiber.Ctx) error {
	names, err := h.files.List(c.Params("venue"))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list exports"})
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"files": names})
}

func (h *EditorHandler) GetExport(c fiber.Ctx) error {
	data, err := h.files.Read(c.Params("venue"), c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "export not found")
	}
	c.Set("Content-Type", "image/png")
	return c.Send(data)
}

func (h *EditorHandler) DismissNotice(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if !s.Dismiss(c.Params("notice")) {
		return fiber.NewError(fiber.StatusNotFound, "notice not found")
	}
	return c.SendStatus(http.StatusNoContent)
}
