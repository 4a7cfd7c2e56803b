package render

import (
	"slices"
	"strings"
	"testing"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/overlay"
	"venue-editor/internal/editor/viewport"
)

func sampleFrame() Frame {
	m := menu.New("v1", menu.ModeRadial, nil)
	m.Open("u1", menu.StatusOccupied, models.Point{X: 120, Y: 120})
	view, _ := m.View()

	return Frame{
		Scene: models.SceneData{
			SeatingUnits: []models.SeatingUnit{
				{ID: "u1", Name: "A&B", X: 100, Y: 100, Width: 40, Height: 40, Shape: models.ShapeSquare},
				{ID: "u2", Name: "T2", X: 200, Y: 100, Width: 50, Height: 50, Shape: models.ShapeRound, Blocked: true},
			},
			ZoneRegions:   []models.ZoneRegion{{ID: "z1", Label: "Hall", X: 0, Y: 0, Width: 400, Height: 300, Category: models.ZoneMain}},
			DecorElements: []models.DecorElement{{ID: "d1", Type: models.DecorPillar, X: 350, Y: 20, Width: 20, Height: 20}},
			CanvasSize:    models.Size{Width: 800, Height: 600},
		},
		Selection: Selection{Units: []string{"u1"}},
		Overlay:   map[string]overlay.Entry{"u1": {Status: menu.StatusOccupied, GuestLabel: "Lee", StaffInitials: "AK"}},
		Guides:    []geometry.Guide{{Axis: geometry.AxisVertical, Position: 100}},
		Lasso:     &models.Rect{X: 10, Y: 10, Width: 50, Height: 50},
		Menu:      &view,
		Viewport:  viewport.State{Zoom: 1.5, PanX: 10, PanY: -20},
		ViewSize:  models.Size{Width: 1024, Height: 768},
		GridSize:  20,
		EditMode:  true,
	}
}

func TestBuild_LayerOrder(t *testing.T) {
	dl := NewRenderer(DefaultOptions()).Build(sampleFrame())

	last := -1
	for i, it := range dl.Items {
		idx := slices.Index(Layers, it.Layer)
		if idx < last {
			t.Fatalf("item %d (%s) drawn after a higher layer", i, it.Layer)
		}
		last = idx
	}
	for _, layer := range Layers {
		if len(dl.ByLayer(layer)) == 0 {
			t.Errorf("Expected items in layer %s", layer)
		}
	}
	if dl.Width != 1024 || dl.Transform.Zoom != 1.5 {
		t.Errorf("Unexpected frame size/transform: %v %v", dl.Width, dl.Transform)
	}
}

func TestBuild_UnitStyles(t *testing.T) {
	dl := NewRenderer(DefaultOptions()).Build(sampleFrame())

	var u1, u2, rotate *Item
	for i := range dl.Items {
		it := &dl.Items[i]
		switch it.ID {
		case "u1":
			u1 = it
		case "u2":
			u2 = it
		case "u1:rotate":
			rotate = it
		}
	}
	if u1 == nil || u2 == nil {
		t.Fatal("Expected both units in display list")
	}
	if u1.Kind != KindPolygon || u1.Style.Fill != statusColor(menu.StatusOccupied) || u1.Style.Stroke != selectionColor {
		t.Errorf("Unexpected u1 item %+v", u1)
	}
	if u2.Kind != KindEllipse || u2.Style.Fill != statusColor(menu.StatusBlocked) || !u2.Style.Dashed {
		t.Errorf("Unexpected u2 item %+v", u2)
	}
	if rotate == nil {
		t.Error("Expected rotate handle for single selection")
	}
}

func TestBuild_ViewModeHidesEditorChrome(t *testing.T) {
	f := sampleFrame()
	f.EditMode = false
	dl := NewRenderer(DefaultOptions()).Build(f)

	if len(dl.ByLayer(LayerGrid)) != 0 {
		t.Error("Grid must be hidden outside edit mode")
	}
	for _, it := range dl.Items {
		if it.ID == "u1:rotate" {
			t.Error("Rotate handle must be hidden outside edit mode")
		}
	}
}

func TestBuild_CanvasFallback(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	if got := r.canvasSize(models.SceneData{}); got.Width != 1000 || got.Height != 1000 {
		t.Errorf("Expected 1000x1000 for empty scene, got %v", got)
	}
	got := r.canvasSize(models.SceneData{SeatingUnits: []models.SeatingUnit{{X: 100, Y: 50, Width: 60, Height: 40}}})
	if got.Width != 200 || got.Height != 130 {
		t.Errorf("Expected content bounds plus margin, got %v", got)
	}
}

func TestRenderSVG(t *testing.T) {
	out, err := NewRenderer(DefaultOptions()).RenderSVG(sampleFrame())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{
		"<svg",
		`id="units"`,
		`data-id="u1"`,
		"translate(10.00,-20.00) scale(1.50)",
		"A&amp;B",
		"stroke-dasharray",
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected SVG to contain %q", want)
		}
	}
	if strings.Contains(out, "A&B") {
		t.Error("Text must be escaped")
	}
}

func TestRenderSVG_RejectsNonHexColor(t *testing.T) {
	f := sampleFrame()
	f.Scene.ZoneRegions = []models.ZoneRegion{
		{ID: "z1", Label: "Hall", X: 0, Y: 0, Width: 200, Height: 200, Category: models.ZoneTerrace, Color: `red" onload="alert(1)`},
		{ID: "z2", Label: "Bar", X: 300, Y: 0, Width: 200, Height: 200, Category: models.ZoneBar, Color: "#abc"},
	}
	out, err := NewRenderer(DefaultOptions()).RenderSVG(f)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Contains(out, "onload") || strings.Contains(out, "alert") {
		t.Fatalf("Color leaked into markup:\n%s", out)
	}
	if !strings.Contains(out, "fill:"+zoneColor(models.ZoneTerrace)) {
		t.Error("Expected palette color for invalid zone color")
	}
	if !strings.Contains(out, "fill:#abc") {
		t.Error("Expected valid hex color to be kept")
	}
}

func TestStyleOf_OnlyHexPaint(t *testing.T) {
	style := styleOf(Item{Kind: KindRect, Style: Style{Fill: `#fff" x="1`, Stroke: "url(#x)"}})
	if style != "fill:none;stroke:none" {
		t.Errorf("Expected non-hex paint dropped, got %q", style)
	}
}
