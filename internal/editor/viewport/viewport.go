package viewport

import (
	"math"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Viewport Controller
// ============================================================

const (
	DefaultMinZoom = 0.25
	DefaultMaxZoom = 3.0

	WheelZoomIn  = 1.1
	WheelZoomOut = 0.9

	fitPadding = 0.1
)

type Config struct {
	MinZoom float64
	MaxZoom float64
	// Размер контейнера на экране, в пикселях.
	Width  float64
	Height float64
}

// State — сериализуемое состояние трансформации.
type State struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

// Viewport хранит трансформацию scenePoint*zoom + pan = screenPoint.
type Viewport struct {
	zoom    float64
	panX    float64
	panY    float64
	minZoom float64
	maxZoom float64
	width   float64
	height  float64
}

func New(cfg Config) *Viewport {
	minZoom, maxZoom := cfg.MinZoom, cfg.MaxZoom
	if minZoom <= 0 {
		minZoom = DefaultMinZoom
	}
	if maxZoom <= 0 {
		maxZoom = DefaultMaxZoom
	}
	if minZoom > maxZoom {
		minZoom, maxZoom = maxZoom, minZoom
	}
	return &Viewport{
		zoom:    1,
		minZoom: minZoom,
		maxZoom: maxZoom,
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

func (v *Viewport) Zoom() float64 { return v.zoom }

func (v *Viewport) Pan() models.Point { return models.Point{X: v.panX, Y: v.panY} }

func (v *Viewport) State() State {
	return State{Zoom: v.zoom, PanX: v.panX, PanY: v.panY}
}

// Restore восстанавливает сохранённое в сессии состояние.
func (v *Viewport) Restore(s State) {
	v.zoom = v.clampZoom(s.Zoom)
	v.panX = finite(s.PanX)
	v.panY = finite(s.PanY)
}

func (v *Viewport) Size() models.Size {
	return models.Size{Width: v.width, Height: v.height}
}

func (v *Viewport) SetSize(width, height float64) {
	v.width = math.Max(0, finite(width))
	v.height = math.Max(0, finite(height))
}

func (v *Viewport) Reset() {
	v.zoom = 1
	v.panX = 0
	v.panY = 0
}

// ============================================================
// Coordinate conversion
// ============================================================

func (v *Viewport) ScreenToScene(screenX, screenY float64) models.Point {
	return models.Point{
		X: (screenX - v.panX) / v.zoom,
		Y: (screenY - v.panY) / v.zoom,
	}
}

func (v *Viewport) SceneToScreen(p models.Point) models.Point {
	return models.Point{
		X: p.X*v.zoom + v.panX,
		Y: p.Y*v.zoom + v.panY,
	}
}

// ============================================================
// Zoom & pan
// ============================================================

// ZoomAtPoint меняет zoom так, чтобы точка сцены под курсором осталась на месте.
func (v *Viewport) ZoomAtPoint(screenX, screenY, newZoom float64) {
	anchor := v.ScreenToScene(screenX, screenY)
	v.zoom = v.clampZoom(newZoom)
	v.panX = screenX - anchor.X*v.zoom
	v.panY = screenY - anchor.Y*v.zoom
}

// Wheel: deltaY < 0 приближает, deltaY > 0 отдаляет.
func (v *Viewport) Wheel(screenX, screenY, deltaY float64) {
	switch {
	case deltaY < 0:
		v.ZoomAtPoint(screenX, screenY, v.zoom*WheelZoomIn)
	case deltaY > 0:
		v.ZoomAtPoint(screenX, screenY, v.zoom*WheelZoomOut)
	}
}

// PanBy сдвигает pan на экранную дельту, масштабированную canvas/container по осям.
func (v *Viewport) PanBy(dx, dy float64, canvas, container models.Size) {
	sx, sy := 1.0, 1.0
	if container.Width > 0 && canvas.Width > 0 {
		sx = canvas.Width / container.Width
	}
	if container.Height > 0 && canvas.Height > 0 {
		sy = canvas.Height / container.Height
	}
	v.panX += finite(dx) * sx
	v.panY += finite(dy) * sy
}

// FitToContent вписывает bounds в контейнер с отступом 10% и центрирует.
// Пустой контент (ok == false) сбрасывает трансформацию.
func (v *Viewport) FitToContent(bounds models.Rect, ok bool) {
	if !ok || bounds.Width <= 0 || bounds.Height <= 0 || v.width <= 0 || v.height <= 0 {
		v.Reset()
		return
	}

	zx := v.width / (bounds.Width * (1 + 2*fitPadding))
	zy := v.height / (bounds.Height * (1 + 2*fitPadding))
	v.zoom = v.clampZoom(math.Min(zx, zy))

	c := bounds.Center()
	v.panX = v.width/2 - c.X*v.zoom
	v.panY = v.height/2 - c.Y*v.zoom
}

func (v *Viewport) clampZoom(z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return v.zoom
	}
	if z < v.minZoom {
		return v.minZoom
	}
	if z > v.maxZoom {
		return v.maxZoom
	}
	return z
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
