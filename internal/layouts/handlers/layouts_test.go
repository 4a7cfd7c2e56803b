package handlers

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/persistence"
	"venue-editor/internal/layouts/repository"

	"github.com/gofiber/fiber/v3"
)

type memoryStore struct {
	scenes  map[string]models.SceneData
	pingErr error
}

func (m *memoryStore) LoadScene(_ context.Context, venueID string) (models.SceneData, error) {
	data, ok := m.scenes[venueID]
	if !ok {
		return models.SceneData{}, repository.ErrNotFound
	}
	return data, nil
}

func (m *memoryStore) SaveScene(_ context.Context, patch models.ScenePatch) error {
	data, err := persistence.ApplyPatch(m.scenes[patch.VenueID], patch)
	if err != nil {
		return err
	}
	m.scenes[patch.VenueID] = data
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return m.pingErr }

// startApp поднимает приложение на случайном порту и возвращает адрес.
func startApp(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	t.Cleanup(func() { app.Shutdown() })
	return ln.Addr().String()
}

// TestClientAgainstHandlers прогоняет клиент редактора против обработчиков
// сервиса планов: контракт loadScene/saveScene с обеих сторон.
func TestClientAgainstHandlers(t *testing.T) {
	store := &memoryStore{scenes: map[string]models.SceneData{}}
	app := fiber.New()
	NewLayoutsHandler(store).Register(app)

	ln := startApp(t, app)
	client := persistence.NewClient("http://"+ln, time.Second)
	ctx := context.Background()

	if _, err := client.LoadScene(ctx, "v1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}

	err := client.SaveScene(ctx, models.ScenePatch{
		VenueID:      "v1",
		SeatingUnits: []models.SeatingUnit{{ID: "u1", Name: "T1", X: 5}},
		CanvasSize:   models.Size{Width: 300, Height: 200},
	})
	if err != nil {
		t.Fatalf("SaveScene: %v", err)
	}

	data, err := client.LoadScene(ctx, "v1")
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if len(data.SeatingUnits) != 1 || data.SeatingUnits[0].X != 5 || data.CanvasSize.Width != 300 {
		t.Errorf("Unexpected scene %+v", data)
	}
}

func TestSaveScene_BadRequest(t *testing.T) {
	app := fiber.New()
	NewLayoutsHandler(&memoryStore{scenes: map[string]models.SceneData{}}).Register(app)

	req := httptest.NewRequest(http.MethodPut, "/venues/v1/scene", bytes.NewReader([]byte("{")))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestReadinessProbe(t *testing.T) {
	store := &memoryStore{pingErr: errors.New("db closed")}
	app := fiber.New()
	h := NewLayoutsHandler(store)
	app.Get("/health/ready", h.ReadinessProbe)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}
}
