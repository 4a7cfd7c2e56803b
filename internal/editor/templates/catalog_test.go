package templates

import (
	"testing"

	"venue-editor/internal/editor/models"
)

func TestFind(t *testing.T) {
	for _, id := range []string{"bistro", "banquet-hall", "bar-lounge"} {
		tpl, ok := Find(id)
		if !ok {
			t.Fatalf("Expected template %s", id)
		}
		if len(tpl.SeatingUnits) == 0 || tpl.CanvasSize.Width <= 0 {
			t.Errorf("%s: empty template %+v", id, tpl)
		}
	}
	if _, ok := Find("missing"); ok {
		t.Error("Expected missing template")
	}
}

func TestTemplatesAreValid(t *testing.T) {
	for _, tpl := range All() {
		canvas := models.Rect{Width: tpl.CanvasSize.Width, Height: tpl.CanvasSize.Height}
		for _, u := range tpl.SeatingUnits {
			if !u.Shape.Valid() || !u.Zone.Valid() {
				t.Errorf("%s/%s: invalid enum %+v", tpl.ID, u.Name, u)
			}
			if u.MinCovers < 1 || u.MinCovers > u.MaxCovers {
				t.Errorf("%s/%s: bad covers %d..%d", tpl.ID, u.Name, u.MinCovers, u.MaxCovers)
			}
			b := u.Bounds()
			if b.X < 0 || b.Y < 0 || b.Right() > canvas.Right() || b.Bottom() > canvas.Bottom() {
				t.Errorf("%s/%s: outside canvas %v", tpl.ID, u.Name, b)
			}
		}
	}
}

func TestSceneDataIsCopy(t *testing.T) {
	tpl, _ := Find("bistro")
	data := tpl.SceneData()
	data.SeatingUnits[0].Name = "changed"

	again, _ := Find("bistro")
	if again.SeatingUnits[0].Name == "changed" {
		t.Error("Catalog mutated through SceneData")
	}
	if len(data.ZoneRegions) != 2 || data.CanvasSize != tpl.CanvasSize {
		t.Errorf("Unexpected scene data %+v", data)
	}
}
