package models

import (
	"encoding/json"
	"math"
	"regexp"
)

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect — осевой прямоугольник в координатах сцены.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains проверяет попадание точки (границы включительно).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Overlaps — стандартный AABB тест пересечения. Касание краями не считается.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Union объединяет два прямоугольника в общий bounding box.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.Right(), o.Right())
	maxY := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RectFromPoints строит нормализованный прямоугольник по двум углам.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// ============================================================
// Enums
// ============================================================

type Shape string

const (
	ShapeRound      Shape = "round"
	ShapeSquare     Shape = "square"
	ShapeRectangle  Shape = "rectangle"
	ShapeBarCounter Shape = "bar-counter"
	ShapeCounter    Shape = "counter"
	ShapeBanquet    Shape = "banquet"
)

func (s Shape) Valid() bool {
	switch s {
	case ShapeRound, ShapeSquare, ShapeRectangle, ShapeBarCounter, ShapeCounter, ShapeBanquet:
		return true
	}
	return false
}

// ZoneTag — метка зоны (у юнита — членство, у региона — категория).
type ZoneTag string

const (
	ZoneMain    ZoneTag = "main"
	ZoneTerrace ZoneTag = "terrace"
	ZoneBar     ZoneTag = "bar"
	ZoneVIP     ZoneTag = "vip"
	ZonePrivate ZoneTag = "private"
	ZoneOutdoor ZoneTag = "outdoor"
)

func (z ZoneTag) Valid() bool {
	switch z {
	case ZoneMain, ZoneTerrace, ZoneBar, ZoneVIP, ZonePrivate, ZoneOutdoor:
		return true
	}
	return false
}

type DecorType string

const (
	DecorWall       DecorType = "wall"
	DecorDoor       DecorType = "door"
	DecorPillar     DecorType = "pillar"
	DecorStage      DecorType = "stage"
	DecorDanceFloor DecorType = "dance-floor"
	DecorBarCounter DecorType = "bar-counter"
	DecorHostStand  DecorType = "host-stand"
	DecorBathroom   DecorType = "bathroom"
	DecorKitchen    DecorType = "kitchen"
	DecorStairs     DecorType = "stairs"
)

func (d DecorType) Valid() bool {
	switch d {
	case DecorWall, DecorDoor, DecorPillar, DecorStage, DecorDanceFloor,
		DecorBarCounter, DecorHostStand, DecorBathroom, DecorKitchen, DecorStairs:
		return true
	}
	return false
}

// ============================================================
// Scene entities
// ============================================================

const (
	MinZoneWidth  = 100.0
	MinZoneHeight = 80.0
)

type SeatingUnit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotation    float64 `json:"rotation"`
	Shape       Shape   `json:"shape"`
	MinCovers   int     `json:"min_covers"`
	MaxCovers   int     `json:"max_covers"`
	Zone        ZoneTag `json:"zone"`
	GroupID     string  `json:"group_id,omitempty"`
	Blocked     bool    `json:"blocked"`
	BlockReason string  `json:"block_reason,omitempty"`
}

func (u SeatingUnit) Bounds() Rect {
	return Rect{X: u.X, Y: u.Y, Width: u.Width, Height: u.Height}
}

func (u SeatingUnit) Center() Point { return u.Bounds().Center() }

type ZoneRegion struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Category ZoneTag `json:"category"`
	Color    string  `json:"color"`
}

func (z ZoneRegion) Bounds() Rect {
	return Rect{X: z.X, Y: z.Y, Width: z.Width, Height: z.Height}
}

var venueIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidVenueID — id площадки из латиницы, цифр, '-' и '_'. Id входит в
// NATS-субъекты, поэтому '.', '*', '>' и пробелы недопустимы.
func ValidVenueID(id string) bool { return venueIDRe.MatchString(id) }

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor — цвет в форме #rgb или #rrggbb.
func ValidColor(c string) bool { return hexColorRe.MatchString(c) }

type DecorElement struct {
	ID       string    `json:"id"`
	Type     DecorType `json:"type"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Rotation float64   `json:"rotation"`
	Label    string    `json:"label,omitempty"`
}

func (d DecorElement) Bounds() Rect {
	return Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}

// ============================================================
// Persistence payloads
// ============================================================

// SceneData — то, что отдаёт loadScene.
type SceneData struct {
	VenueID       string         `json:"venue_id"`
	LayoutID      string         `json:"layout_id"`
	SeatingUnits  []SeatingUnit  `json:"seating_units"`
	ZoneRegions   []ZoneRegion   `json:"zone_regions"`
	DecorElements []DecorElement `json:"decor_elements"`
	CanvasSize    Size           `json:"canvas_size"`
}

// ScenePatch — пакетный upsert для saveScene. Декор уходит одним JSON блобом.
type ScenePatch struct {
	VenueID        string          `json:"venue_id" validate:"required"`
	LayoutID       string          `json:"layout_id"`
	SeatingUnits   []SeatingUnit   `json:"seating_units" validate:"dive"`
	ZoneRegions    []ZoneRegion    `json:"zone_regions" validate:"dive"`
	RemovedUnitIDs []string        `json:"removed_unit_ids,omitempty"`
	RemovedZoneIDs []string        `json:"removed_zone_ids,omitempty"`
	Decor          json.RawMessage `json:"decor"`
	CanvasSize     Size            `json:"canvas_size"`
}
