package scene

import (
	"math"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/models"
)

// ============================================================
// Hit testing
// ============================================================

const (
	RotateHandleOffset = 24.0 // над верхней кромкой юнита
	RotateHandleRadius = 8.0
	ZoneHeaderHeight   = 24.0
	ResizeHandleSize   = 14.0
)

type HitKind string

const (
	HitNone         HitKind = "none"
	HitRotateHandle HitKind = "rotate-handle"
	HitUnit         HitKind = "unit"
	HitDecor        HitKind = "decor"
	HitZoneResize   HitKind = "zone-resize"
	HitZoneHeader   HitKind = "zone-header"
)

type Hit struct {
	Kind HitKind
	ID   string
}

// RotateHandle — позиция ручки поворота юнита в координатах сцены.
func RotateHandle(u models.SeatingUnit) models.Point {
	c := u.Center()
	handle := models.Point{X: c.X, Y: u.Y - RotateHandleOffset}
	return geometry.RotatePoint(handle, c, u.Rotation)
}

// ResizeHandle — квадрат ручки изменения размера в правом нижнем углу зоны.
func ResizeHandle(z models.ZoneRegion) models.Rect {
	return models.Rect{
		X:      z.X + z.Width - ResizeHandleSize,
		Y:      z.Y + z.Height - ResizeHandleSize,
		Width:  ResizeHandleSize,
		Height: ResizeHandleSize,
	}
}

// HitTest ищет верхнюю цель под точкой. Порядок: ручка поворота выбранного
// юнита, юниты, декор, ручка зоны, заголовок зоны. Тело зоны вне заголовка
// считается пустым холстом, чтобы лассо можно было начать внутри зоны.
func (s *Scene) HitTest(p models.Point) Hit {
	if ids := s.selection.units; len(ids) == 1 {
		if u, ok := s.Unit(ids[0]); ok {
			h := RotateHandle(u)
			if math.Hypot(p.X-h.X, p.Y-h.Y) <= RotateHandleRadius {
				return Hit{Kind: HitRotateHandle, ID: u.ID}
			}
		}
	}

	for i := len(s.units) - 1; i >= 0; i-- {
		u := s.units[i]
		if containsRotated(u.Bounds(), u.Rotation, p) {
			return Hit{Kind: HitUnit, ID: u.ID}
		}
	}

	for i := len(s.decor) - 1; i >= 0; i-- {
		d := s.decor[i]
		if containsRotated(d.Bounds(), d.Rotation, p) {
			return Hit{Kind: HitDecor, ID: d.ID}
		}
	}

	for i := len(s.zones) - 1; i >= 0; i-- {
		z := s.zones[i]
		if ResizeHandle(*z).Contains(p) {
			return Hit{Kind: HitZoneResize, ID: z.ID}
		}
		header := models.Rect{X: z.X, Y: z.Y, Width: z.Width, Height: ZoneHeaderHeight}
		if header.Contains(p) {
			return Hit{Kind: HitZoneHeader, ID: z.ID}
		}
	}

	return Hit{Kind: HitNone}
}

// containsRotated переводит точку в локальные координаты прямоугольника.
func containsRotated(r models.Rect, rotation float64, p models.Point) bool {
	if rotation != 0 {
		p = geometry.RotatePoint(p, r.Center(), -rotation)
	}
	return r.Contains(p)
}
