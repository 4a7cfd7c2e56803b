package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"venue-editor/internal/editor/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "layouts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	if err := repo.Init(context.Background(), filepath.Join("..", "..", "..", "migrations", "001_init_layouts.sql")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return repo
}

func TestLoadScene_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LoadScene(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	decor, _ := json.Marshal([]models.DecorElement{{ID: "d1", Type: models.DecorStage, Width: 200, Height: 100}})
	err := repo.SaveScene(ctx, models.ScenePatch{
		VenueID:  "v1",
		LayoutID: "layout-1",
		SeatingUnits: []models.SeatingUnit{
			{ID: "u1", Name: "T1", X: 10, Y: 20, Width: 60, Height: 60, Shape: models.ShapeRound, MinCovers: 2, MaxCovers: 4, Zone: models.ZoneMain},
			{ID: "u2", Name: "T2", X: 100, Y: 20, Width: 60, Height: 60, Shape: models.ShapeSquare, MaxCovers: 2, Zone: models.ZoneBar, Blocked: true, BlockReason: "combined", GroupID: "g1"},
		},
		ZoneRegions: []models.ZoneRegion{{ID: "z1", Label: "Hall", Width: 400, Height: 300, Category: models.ZoneMain}},
		Decor:       decor,
		CanvasSize:  models.Size{Width: 800, Height: 600},
	})
	if err != nil {
		t.Fatalf("SaveScene: %v", err)
	}

	data, err := repo.LoadScene(ctx, "v1")
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if data.LayoutID != "layout-1" || data.CanvasSize != (models.Size{Width: 800, Height: 600}) {
		t.Errorf("Unexpected layout %+v", data)
	}
	if len(data.SeatingUnits) != 2 || len(data.ZoneRegions) != 1 || len(data.DecorElements) != 1 {
		t.Fatalf("Unexpected counts %+v", data)
	}
	u2 := data.SeatingUnits[1]
	if !u2.Blocked || u2.GroupID != "g1" || u2.Zone != models.ZoneBar || u2.Shape != models.ShapeSquare {
		t.Errorf("Unexpected unit round-trip %+v", u2)
	}

	// второй пакет: сдвиг, удаление и пустой декор не трогает сохранённый
	err = repo.SaveScene(ctx, models.ScenePatch{
		VenueID:        "v1",
		SeatingUnits:   []models.SeatingUnit{{ID: "u1", Name: "T1", X: 40, Y: 20, Width: 60, Height: 60, Shape: models.ShapeRound}},
		RemovedUnitIDs: []string{"u2"},
		RemovedZoneIDs: []string{"z1"},
		CanvasSize:     models.Size{Width: 800, Height: 600},
	})
	if err != nil {
		t.Fatalf("SaveScene patch: %v", err)
	}
	data, _ = repo.LoadScene(ctx, "v1")
	if len(data.SeatingUnits) != 1 || data.SeatingUnits[0].X != 40 || len(data.ZoneRegions) != 0 {
		t.Errorf("Unexpected scene after patch %+v", data)
	}
	if len(data.DecorElements) != 1 {
		t.Errorf("Expected decor to survive patch without blob, got %+v", data.DecorElements)
	}
}

func TestSaveScene_AllOrNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.SaveScene(ctx, models.ScenePatch{
		VenueID:      "v1",
		SeatingUnits: []models.SeatingUnit{{ID: "u1", Name: "T1"}},
		Decor:        json.RawMessage(`{broken`),
	})
	if err == nil {
		t.Fatal("Expected error for invalid decor")
	}
	if _, err := repo.LoadScene(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected rollback to leave no layout, got %v", err)
	}
}
