package render

import (
	"math"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/viewport"
)

// ============================================================
// Display list
// ============================================================

type Layer string

const (
	LayerGrid   Layer = "grid"
	LayerZones  Layer = "zones"
	LayerDecor  Layer = "decor"
	LayerUnits  Layer = "units"
	LayerGuides Layer = "guides"
	LayerLasso  Layer = "lasso"
	LayerMenu   Layer = "menu"
)

// Layers — порядок отрисовки снизу вверх.
var Layers = []Layer{LayerGrid, LayerZones, LayerDecor, LayerUnits, LayerGuides, LayerLasso, LayerMenu}

type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindLine    Kind = "line"
	KindPolygon Kind = "polygon"
	KindPath    Kind = "path"
	KindText    Kind = "text"
)

// Style — заливка и обводка. Пустой цвет означает "нет".
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	FillOpacity float64 `json:"fill_opacity,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Dashed      bool    `json:"dashed,omitempty"`
}

// Item — один примитив в координатах сцены.
//
// rect: X, Y, W, H. ellipse: центр X, Y, радиусы W, H, поворот Rotation.
// line: Points[0]→Points[1]. polygon: Points. path: SVG-путь в Path и его
// аппроксимация в Points для растра. text: X, Y — точка базовой линии,
// Anchor — start или middle.
type Item struct {
	Layer    Layer          `json:"layer"`
	Kind     Kind           `json:"kind"`
	ID       string         `json:"id,omitempty"`
	X        float64        `json:"x,omitempty"`
	Y        float64        `json:"y,omitempty"`
	W        float64        `json:"w,omitempty"`
	H        float64        `json:"h,omitempty"`
	Rotation float64        `json:"rotation,omitempty"`
	Points   []models.Point `json:"points,omitempty"`
	Path     string         `json:"path,omitempty"`
	Text     string         `json:"text,omitempty"`
	Anchor   string         `json:"anchor,omitempty"`
	FontSize float64        `json:"font_size,omitempty"`
	Bold     bool           `json:"bold,omitempty"`
	Style    Style          `json:"style"`
}

// DisplayList — готовая к отрисовке сцена.
type DisplayList struct {
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Canvas     models.Size    `json:"canvas"`
	Background string         `json:"background"`
	Transform  viewport.State `json:"transform"`
	Items      []Item         `json:"items"`
}

// ByLayer возвращает примитивы одного слоя в порядке добавления.
func (d DisplayList) ByLayer(layer Layer) []Item {
	var out []Item
	for _, it := range d.Items {
		if it.Layer == layer {
			out = append(out, it)
		}
	}
	return out
}

// EllipsePoints аппроксимирует эллипс многоугольником.
func EllipsePoints(cx, cy, rx, ry, rotationDeg float64, segments int) []models.Point {
	if segments < 8 {
		segments = 8
	}
	rad := rotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out := make([]models.Point, 0, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x, y := rx*math.Cos(a), ry*math.Sin(a)
		out = append(out, models.Point{X: cx + x*cos - y*sin, Y: cy + x*sin + y*cos})
	}
	return out
}

// ArcPoints аппроксимирует кольцевой сектор (углы в градусах, 0° вверх).
func ArcPoints(c models.Point, inner, outer, start, end float64) []models.Point {
	steps := int(math.Max(4, math.Ceil((end-start)/6)))
	pt := func(r, deg float64) models.Point {
		rad := (deg - 90) * math.Pi / 180
		return models.Point{X: c.X + r*math.Cos(rad), Y: c.Y + r*math.Sin(rad)}
	}
	out := make([]models.Point, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		out = append(out, pt(outer, start+(end-start)*float64(i)/float64(steps)))
	}
	for i := steps; i >= 0; i-- {
		out = append(out, pt(inner, start+(end-start)*float64(i)/float64(steps)))
	}
	return out
}
