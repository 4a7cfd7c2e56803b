package templates

import (
	"fmt"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Template Catalog
// ============================================================

// Template — именованная раскладка, загружаемая целиком.
type Template struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	CanvasSize   models.Size          `json:"canvas_size"`
	SeatingUnits []models.SeatingUnit `json:"seating_units"`
	ZoneRegions  []models.ZoneRegion  `json:"zone_regions,omitempty"`
}

// SceneData превращает шаблон в данные сцены. Id не заполняются:
// сцена выдаёт новые при каждой загрузке.
func (t Template) SceneData() models.SceneData {
	data := models.SceneData{
		SeatingUnits: make([]models.SeatingUnit, len(t.SeatingUnits)),
		ZoneRegions:  make([]models.ZoneRegion, len(t.ZoneRegions)),
		CanvasSize:   t.CanvasSize,
	}
	copy(data.SeatingUnits, t.SeatingUnits)
	copy(data.ZoneRegions, t.ZoneRegions)
	return data
}

var catalog = []Template{
	bistro(),
	banquetHall(),
	barLounge(),
}

// All возвращает копию каталога.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

func Find(id string) (Template, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// ============================================================
// Layouts
// ============================================================

func unit(name string, x, y, w, h float64, shape models.Shape, minC, maxC int, zone models.ZoneTag) models.SeatingUnit {
	return models.SeatingUnit{
		Name:      name,
		X:         x,
		Y:         y,
		Width:     w,
		Height:    h,
		Shape:     shape,
		MinCovers: minC,
		MaxCovers: maxC,
		Zone:      zone,
	}
}

func bistro() Template {
	t := Template{
		ID:         "bistro",
		Name:       "Bistro",
		CanvasSize: models.Size{Width: 1000, Height: 700},
		ZoneRegions: []models.ZoneRegion{
			{Label: "Main hall", X: 20, Y: 20, Width: 640, Height: 660, Category: models.ZoneMain},
			{Label: "Terrace", X: 680, Y: 20, Width: 300, Height: 660, Category: models.ZoneTerrace},
		},
	}
	// три ряда квадратных столов на двоих в зале
	for row := range 3 {
		for col := range 4 {
			n := row*4 + col + 1
			t.SeatingUnits = append(t.SeatingUnits,
				unit(fmt.Sprintf("T%d", n), 80+float64(col)*140, 100+float64(row)*180, 60, 60, models.ShapeSquare, 1, 2, models.ZoneMain))
		}
	}
	for i := range 3 {
		t.SeatingUnits = append(t.SeatingUnits,
			unit(fmt.Sprintf("P%d", i+1), 780, 100+float64(i)*180, 80, 80, models.ShapeRound, 2, 4, models.ZoneTerrace))
	}
	return t
}

func banquetHall() Template {
	t := Template{
		ID:         "banquet-hall",
		Name:       "Banquet hall",
		CanvasSize: models.Size{Width: 1400, Height: 900},
		ZoneRegions: []models.ZoneRegion{
			{Label: "Hall", X: 20, Y: 20, Width: 1360, Height: 860, Category: models.ZoneMain},
		},
	}
	t.SeatingUnits = append(t.SeatingUnits,
		unit("Head", 400, 60, 600, 80, models.ShapeBanquet, 8, 16, models.ZoneVIP))
	for row := range 2 {
		for col := range 5 {
			n := row*5 + col + 1
			t.SeatingUnits = append(t.SeatingUnits,
				unit(fmt.Sprintf("R%d", n), 120+float64(col)*240, 260+float64(row)*300, 140, 140, models.ShapeRound, 6, 10, models.ZoneMain))
		}
	}
	return t
}

func barLounge() Template {
	t := Template{
		ID:         "bar-lounge",
		Name:       "Bar lounge",
		CanvasSize: models.Size{Width: 1000, Height: 600},
		ZoneRegions: []models.ZoneRegion{
			{Label: "Bar", X: 20, Y: 20, Width: 960, Height: 200, Category: models.ZoneBar},
			{Label: "Lounge", X: 20, Y: 240, Width: 960, Height: 340, Category: models.ZoneMain},
		},
	}
	t.SeatingUnits = append(t.SeatingUnits,
		unit("Bar", 100, 60, 800, 50, models.ShapeBarCounter, 1, 12, models.ZoneBar),
		unit("Counter", 100, 150, 300, 40, models.ShapeCounter, 1, 6, models.ZoneBar))
	for i := range 4 {
		t.SeatingUnits = append(t.SeatingUnits,
			unit(fmt.Sprintf("L%d", i+1), 80+float64(i)*230, 320, 160, 90, models.ShapeRectangle, 2, 6, models.ZoneMain))
	}
	return t
}
