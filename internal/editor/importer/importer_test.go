package importer

import (
	"errors"
	"strings"
	"testing"

	"venue-editor/internal/editor/models"
)

func TestParsePath(t *testing.T) {
	points, err := ParsePath("M 10,10 h 20 v 30 L 0 40 Z")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []models.Point{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 40}, {X: 0, Y: 40}, {X: 10, Y: 10}}
	if len(points) != len(expected) {
		t.Fatalf("Expected %d points, got %v", len(expected), points)
	}
	for i := range expected {
		if points[i] != expected[i] {
			t.Errorf("point %d: expected %v, got %v", i, expected[i], points[i])
		}
	}
}

func TestParsePath_ImplicitLineTo(t *testing.T) {
	points, err := ParsePath("m5 5 10 0 0 10-10 0z")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := BoundsOf(points)
	if b != (models.Rect{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Errorf("Unexpected bounds %v from %v", b, points)
	}
}

func TestParsePath_Errors(t *testing.T) {
	for _, d := range []string{"", "10 10", "M 0 0 C 1 1 2 2 3 3", "M 0"} {
		if _, err := ParsePath(d); err == nil {
			t.Errorf("%q: expected error", d)
		}
	}
}

const plan = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="800" viewBox="0 0 1200 800">
  <g id="floor">
    <rect id="Zone_Terrace" x="0" y="0" width="400" height="300" data-category="terrace" data-color="red&quot; onload=&quot;x"/>
    <path id="Hall_room" d="M 400 0 H 1200 V 800 H 400 Z" data-color="#336699"/>
    <rect id="Table_1" x="40" y="60" width="60" height="60" data-max="4"/>
    <circle id="Table_R_2" cx="200" cy="200" r="30" data-zone="terrace"/>
    <rect id="Table_Long" x="500" y="100" width="160" height="60" transform="rotate(-90 580 130)"/>
    <rect id="Wall_north" x="0" y="0" width="1200" height="10"/>
    <rect id="Stage_main" x="900" y="600" width="200" height="150" data-label="Stage"/>
    <rect id="decoration" x="1" y="1" width="1" height="1"/>
  </g>
</svg>`

func TestImport(t *testing.T) {
	data, err := Import(strings.NewReader(plan))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if data.CanvasSize != (models.Size{Width: 1200, Height: 800}) {
		t.Errorf("Unexpected canvas %v", data.CanvasSize)
	}
	if len(data.ZoneRegions) != 2 || len(data.SeatingUnits) != 3 || len(data.DecorElements) != 2 {
		t.Fatalf("Unexpected counts: %d zones, %d units, %d decor",
			len(data.ZoneRegions), len(data.SeatingUnits), len(data.DecorElements))
	}

	terrace := data.ZoneRegions[0]
	if terrace.Category != models.ZoneTerrace || terrace.Label != "Terrace" || terrace.Color != "" {
		t.Errorf("Unexpected zone %+v", terrace)
	}
	hall := data.ZoneRegions[1]
	if hall.X != 400 || hall.Width != 800 || hall.Label != "Hall" || hall.Color != "#336699" {
		t.Errorf("Unexpected path zone %+v", hall)
	}

	t1 := data.SeatingUnits[0]
	if t1.Shape != models.ShapeSquare || t1.MaxCovers != 4 || t1.MinCovers != 2 || t1.Name != "1" {
		t.Errorf("Unexpected square unit %+v", t1)
	}
	round := data.SeatingUnits[1]
	if round.Shape != models.ShapeRound || round.X != 170 || round.Width != 60 || round.Zone != models.ZoneTerrace {
		t.Errorf("Unexpected round unit %+v", round)
	}
	long := data.SeatingUnits[2]
	if long.Shape != models.ShapeRectangle || long.Rotation != 270 {
		t.Errorf("Unexpected rotated unit %+v", long)
	}

	if data.DecorElements[0].Type != models.DecorWall || data.DecorElements[1].Label != "Stage" {
		t.Errorf("Unexpected decor %+v", data.DecorElements)
	}
}

func TestImport_Empty(t *testing.T) {
	_, err := Import(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"><rect id="x"/></svg>`))
	if !errors.Is(err, ErrNoElements) {
		t.Errorf("Expected ErrNoElements, got %v", err)
	}
	if _, err := Import(strings.NewReader(`<svg><rect`)); err == nil {
		t.Error("Expected parse error for broken xml")
	}
}
