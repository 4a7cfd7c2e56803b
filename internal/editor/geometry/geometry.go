package geometry

import (
	"math"
	"sort"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Geometry Kernel
// ============================================================

const (
	DefaultGuideTolerance = 3.0
	DefaultRotationStep   = 15.0
)

// Box — то, чем оперирует ядро: идентификатор + осевой прямоугольник.
type Box struct {
	ID     string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (b Box) Rect() models.Rect {
	return models.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func BoxOf(id string, r models.Rect) Box {
	return Box{ID: id, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

type AlignMode string

const (
	AlignLeft   AlignMode = "left"
	AlignCenter AlignMode = "center"
	AlignRight  AlignMode = "right"
	AlignTop    AlignMode = "top"
	AlignMiddle AlignMode = "middle"
	AlignBottom AlignMode = "bottom"
)

func (m AlignMode) Valid() bool {
	switch m {
	case AlignLeft, AlignCenter, AlignRight, AlignTop, AlignMiddle, AlignBottom:
		return true
	}
	return false
}

// Guide — направляющая. Вертикальная линия стоит на X, горизонтальная на Y.
type Guide struct {
	Axis     Axis    `json:"axis"`
	Position float64 `json:"position"`
}

// ============================================================
// Snapping
// ============================================================

// SnapToGrid округляет значение до ближайшего кратного gridSize.
// При gridSize <= 0 выполняется только целочисленное округление.
func SnapToGrid(value, gridSize float64) float64 {
	if gridSize <= 0 || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		return math.Round(value)
	}
	return math.Round(value/gridSize) * gridSize
}

// Snap — снаппинг с учётом переключателя: выключенный снаппинг оставляет
// только округление до целых.
func Snap(value, gridSize float64, enabled bool) float64 {
	if !enabled {
		return math.Round(value)
	}
	return SnapToGrid(value, gridSize)
}

func SnapPoint(p models.Point, gridSize float64, enabled bool) models.Point {
	return models.Point{X: Snap(p.X, gridSize, enabled), Y: Snap(p.Y, gridSize, enabled)}
}

// ============================================================
// Alignment guides
// ============================================================

// DetectAlignmentGuides сравнивает left/center/right и top/middle/bottom
// перетаскиваемого бокса с соответствующими краями остальных.
func DetectAlignmentGuides(dragged Box, others []Box, tolerance float64) []Guide {
	if tolerance < 0 {
		tolerance = 0
	}

	var guides []Guide
	add := func(axis Axis, pos float64) {
		for _, g := range guides {
			if g.Axis == axis && math.Abs(g.Position-pos) <= tolerance {
				return
			}
		}
		guides = append(guides, Guide{Axis: axis, Position: pos})
	}

	dx := xEdges(dragged)
	dy := yEdges(dragged)

	for _, other := range others {
		if other.ID != "" && other.ID == dragged.ID {
			continue
		}
		ox := xEdges(other)
		oy := yEdges(other)
		for i := range dx {
			if math.Abs(dx[i]-ox[i]) <= tolerance {
				add(AxisVertical, ox[i])
			}
			if math.Abs(dy[i]-oy[i]) <= tolerance {
				add(AxisHorizontal, oy[i])
			}
		}
	}

	return guides
}

func xEdges(b Box) [3]float64 {
	return [3]float64{b.X, b.X + b.Width/2, b.X + b.Width}
}

func yEdges(b Box) [3]float64 {
	return [3]float64{b.Y, b.Y + b.Height/2, b.Y + b.Height}
}

// ============================================================
// Align & distribute
// ============================================================

// AlignEntities возвращает новые позиции для всех боксов.
// Меньше двух элементов — пустая карта (no-op).
func AlignEntities(items []Box, mode AlignMode) map[string]models.Point {
	out := make(map[string]models.Point, len(items))
	if len(items) < 2 || !mode.Valid() {
		return out
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	var sumCX, sumCY float64

	for _, it := range items {
		minX = math.Min(minX, it.X)
		minY = math.Min(minY, it.Y)
		maxX = math.Max(maxX, it.X+it.Width)
		maxY = math.Max(maxY, it.Y+it.Height)
		sumCX += it.X + it.Width/2
		sumCY += it.Y + it.Height/2
	}

	n := float64(len(items))
	meanCX := sumCX / n
	meanCY := sumCY / n

	for _, it := range items {
		p := models.Point{X: it.X, Y: it.Y}
		switch mode {
		case AlignLeft:
			p.X = minX
		case AlignRight:
			p.X = maxX - it.Width
		case AlignCenter:
			p.X = meanCX - it.Width/2
		case AlignTop:
			p.Y = minY
		case AlignBottom:
			p.Y = maxY - it.Height
		case AlignMiddle:
			p.Y = meanCY - it.Height/2
		}
		out[it.ID] = p
	}

	return out
}

// DistributeEntities раскладывает боксы вдоль оси с равными промежутками.
// Для меньше чем трёх элементов позиции возвращаются без изменений.
func DistributeEntities(items []Box, axis Axis) map[string]models.Point {
	out := make(map[string]models.Point, len(items))
	for _, it := range items {
		out[it.ID] = models.Point{X: it.X, Y: it.Y}
	}
	if len(items) < 3 {
		return out
	}

	sorted := make([]Box, len(items))
	copy(sorted, items)

	lead := func(b Box) float64 {
		if axis == AxisVertical {
			return b.Y
		}
		return b.X
	}
	extent := func(b Box) float64 {
		if axis == AxisVertical {
			return b.Height
		}
		return b.Width
	}

	sort.SliceStable(sorted, func(i, j int) bool { return lead(sorted[i]) < lead(sorted[j]) })

	first := sorted[0]
	last := sorted[len(sorted)-1]
	span := lead(last) + extent(last) - lead(first)

	var total float64
	for _, b := range sorted {
		total += extent(b)
	}
	gap := (span - total) / float64(len(sorted)-1)

	pos := lead(first)
	for _, b := range sorted {
		p := out[b.ID]
		if axis == AxisVertical {
			p.Y = pos
		} else {
			p.X = pos
		}
		out[b.ID] = p
		pos += extent(b) + gap
	}

	return out
}

// ============================================================
// Bounds & rotation helpers
// ============================================================

// UnionBounds — общий bounding box. false, если прямоугольников нет.
func UnionBounds(rects []models.Rect) (models.Rect, bool) {
	if len(rects) == 0 {
		return models.Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

// RotationAngle — угол от центра к курсору, 0° смотрит вверх.
// При precision угол привязывается к шагу step. Результат в [0,360).
func RotationAngle(center, cursor models.Point, precision bool, step float64) float64 {
	deg := math.Atan2(cursor.Y-center.Y, cursor.X-center.X)*180/math.Pi + 90
	if precision && step > 0 {
		deg = math.Round(deg/step) * step
	}
	return NormalizeAngle(deg)
}

func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// RectanglePoints возвращает углы прямоугольника с центром (cx, cy),
// повёрнутого на rotationDeg по часовой стрелке.
func RectanglePoints(cx, cy, width, height, rotationDeg float64) []models.Point {
	halfW := width / 2
	halfH := height / 2

	points := []models.Point{
		{X: cx - halfW, Y: cy - halfH},
		{X: cx + halfW, Y: cy - halfH},
		{X: cx + halfW, Y: cy + halfH},
		{X: cx - halfW, Y: cy + halfH},
	}

	if rotationDeg == 0 {
		return points
	}

	for i, p := range points {
		points[i] = RotatePoint(p, models.Point{X: cx, Y: cy}, rotationDeg)
	}
	return points
}

func RotatePoint(p, center models.Point, rotationDeg float64) models.Point {
	rad := rotationDeg * math.Pi / 180
	sin := math.Sin(rad)
	cos := math.Cos(rad)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return models.Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// Finite заменяет NaN/Inf нулём: позиции и размеры всегда конечны.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
