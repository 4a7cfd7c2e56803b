package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/scene"
)

func TestBuildPatch(t *testing.T) {
	sc := scene.New()
	sc.Load(models.SceneData{
		SeatingUnits: []models.SeatingUnit{
			{ID: "u1", Name: "T1", Width: 40, Height: 40, Shape: models.ShapeSquare},
			{ID: "u2", Name: "T2", X: 100, Width: 40, Height: 40, Shape: models.ShapeSquare},
		},
		DecorElements: []models.DecorElement{{ID: "d1", Type: models.DecorPillar, Width: 10, Height: 10}},
		CanvasSize:    models.Size{Width: 500, Height: 500},
	})
	sc.MoveUnit("u1", 60, 60)
	sc.RemoveUnit("u2")

	patch, err := BuildPatch("v1", "l1", sc.ChangesSince(sc.Snapshot()))
	if err != nil {
		t.Fatalf("BuildPatch: %v", err)
	}
	if len(patch.SeatingUnits) != 1 || patch.SeatingUnits[0].ID != "u1" || patch.SeatingUnits[0].X != 60 {
		t.Errorf("Expected only moved unit, got %+v", patch.SeatingUnits)
	}
	if len(patch.RemovedUnitIDs) != 1 || patch.RemovedUnitIDs[0] != "u2" {
		t.Errorf("Expected u2 removed, got %v", patch.RemovedUnitIDs)
	}

	var decor []models.DecorElement
	if err := json.Unmarshal(patch.Decor, &decor); err != nil || len(decor) != 1 {
		t.Errorf("Expected decor blob with one element, got %s (%v)", patch.Decor, err)
	}
}

func TestApplyPatch(t *testing.T) {
	data := models.SceneData{
		SeatingUnits: []models.SeatingUnit{{ID: "a", X: 1}, {ID: "b", X: 2}},
	}
	out, err := ApplyPatch(data, models.ScenePatch{
		VenueID:        "v1",
		SeatingUnits:   []models.SeatingUnit{{ID: "a", X: 10}, {ID: "c", X: 3}},
		RemovedUnitIDs: []string{"b"},
		Decor:          json.RawMessage(`[{"id":"d","type":"wall"}]`),
	})
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if len(out.SeatingUnits) != 2 || out.SeatingUnits[0].X != 10 || out.SeatingUnits[1].ID != "c" {
		t.Errorf("Unexpected units %+v", out.SeatingUnits)
	}
	if len(out.DecorElements) != 1 || data.SeatingUnits[0].X != 1 {
		t.Errorf("Unexpected result %+v (source %+v)", out, data)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.LoadScene(ctx, "v1")
	var perr *Error
	if !errors.As(err, &perr) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected not found persistence error, got %v", err)
	}

	if err := m.SaveScene(ctx, models.ScenePatch{VenueID: "v1", SeatingUnits: []models.SeatingUnit{{ID: "a"}}}); err != nil {
		t.Fatalf("SaveScene: %v", err)
	}
	data, err := m.LoadScene(ctx, "v1")
	if err != nil || len(data.SeatingUnits) != 1 {
		t.Errorf("Unexpected load %+v %v", data, err)
	}
}

func TestClient(t *testing.T) {
	var saved models.ScenePatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/venues/v1/scene":
			json.NewEncoder(w).Encode(models.SceneData{
				LayoutID:     "l1",
				SeatingUnits: []models.SeatingUnit{{ID: "a", Name: "T1"}},
				CanvasSize:   models.Size{Width: 800, Height: 600},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/venues/v1/scene":
			json.NewDecoder(r.Body).Decode(&saved)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/venues/broken/scene":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"db down"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	data, err := c.LoadScene(ctx, "v1")
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if data.VenueID != "v1" || data.LayoutID != "l1" || len(data.SeatingUnits) != 1 {
		t.Errorf("Unexpected scene %+v", data)
	}

	if err := c.SaveScene(ctx, models.ScenePatch{VenueID: "v1", LayoutID: "l1"}); err != nil {
		t.Fatalf("SaveScene: %v", err)
	}
	if saved.LayoutID != "l1" {
		t.Errorf("Expected patch to reach server, got %+v", saved)
	}

	if _, err := c.LoadScene(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err = c.SaveScene(ctx, models.ScenePatch{VenueID: "broken"})
	var perr *Error
	if !errors.As(err, &perr) || perr.Op != "save" || perr.VenueID != "broken" {
		t.Errorf("Expected save persistence error, got %v", err)
	}
}
