package render

import (
	"fmt"
	"math"
	"slices"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/overlay"
	"venue-editor/internal/editor/scene"
	"venue-editor/internal/editor/viewport"
)

// ============================================================
// Frame
// ============================================================

// Selection — что выделено в кадре.
type Selection struct {
	Units []string `json:"units,omitempty"`
	Zone  string   `json:"zone,omitempty"`
	Decor string   `json:"decor,omitempty"`
}

// Frame — всё, что нужно для одного кадра. Renderer состояния не хранит.
type Frame struct {
	Scene     models.SceneData
	Selection Selection
	Overlay   map[string]overlay.Entry
	Guides    []geometry.Guide
	Lasso     *models.Rect
	Menu      *menu.View
	Viewport  viewport.State
	ViewSize  models.Size
	GridSize  float64
	EditMode  bool
}

// ============================================================
// Renderer
// ============================================================

type Options struct {
	ShowGrid     bool
	Background   string
	MaxGridLines int
}

func DefaultOptions() Options {
	return Options{ShowGrid: true, Background: "#f5f5f5", MaxGridLines: 400}
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Background == "" {
		opts.Background = "#f5f5f5"
	}
	if opts.MaxGridLines <= 0 {
		opts.MaxGridLines = 400
	}
	return &Renderer{opts: opts}
}

// Build собирает слоистый display list из кадра.
func (r *Renderer) Build(f Frame) DisplayList {
	canvas := r.canvasSize(f.Scene)

	width, height := f.ViewSize.Width, f.ViewSize.Height
	if width <= 0 || height <= 0 {
		width, height = canvas.Width, canvas.Height
	}
	transform := f.Viewport
	if transform.Zoom <= 0 {
		transform.Zoom = 1
	}

	dl := DisplayList{
		Width:      width,
		Height:     height,
		Canvas:     canvas,
		Background: r.opts.Background,
		Transform:  transform,
	}

	if r.opts.ShowGrid && f.EditMode {
		dl.Items = append(dl.Items, r.renderGrid(canvas, f.GridSize)...)
	}
	dl.Items = append(dl.Items, r.renderZones(f)...)
	dl.Items = append(dl.Items, r.renderDecor(f)...)
	dl.Items = append(dl.Items, r.renderUnits(f)...)
	dl.Items = append(dl.Items, r.renderGuides(f.Guides, canvas)...)
	if f.Lasso != nil {
		dl.Items = append(dl.Items, r.renderLasso(*f.Lasso))
	}
	if f.Menu != nil {
		dl.Items = append(dl.Items, r.renderMenu(*f.Menu)...)
	}
	return dl
}

// canvasSize: явный размер холста, иначе охват содержимого, иначе 1000×1000.
func (r *Renderer) canvasSize(data models.SceneData) models.Size {
	if data.CanvasSize.Width > 0 && data.CanvasSize.Height > 0 {
		return data.CanvasSize
	}

	var rects []models.Rect
	for _, u := range data.SeatingUnits {
		rects = append(rects, scene.UnitBounds(u))
	}
	for _, z := range data.ZoneRegions {
		rects = append(rects, z.Bounds())
	}
	for _, d := range data.DecorElements {
		rects = append(rects, d.Bounds())
	}
	bounds, ok := geometry.UnionBounds(rects)
	if !ok {
		return models.Size{Width: 1000, Height: 1000}
	}

	width := math.Max(bounds.Right(), 0) + 40
	height := math.Max(bounds.Bottom(), 0) + 40
	return models.Size{Width: width, Height: height}
}

// ============================================================
// Layers
// ============================================================

func (r *Renderer) renderGrid(canvas models.Size, gridSize float64) []Item {
	if gridSize <= 0 {
		return nil
	}
	step := gridSize
	for canvas.Width/step+canvas.Height/step > float64(r.opts.MaxGridLines) {
		step *= 2
	}

	style := Style{Stroke: "#e0e0e0", StrokeWidth: 0.5}
	var out []Item
	for x := 0.0; x <= canvas.Width; x += step {
		out = append(out, line(LayerGrid, x, 0, x, canvas.Height, style))
	}
	for y := 0.0; y <= canvas.Height; y += step {
		out = append(out, line(LayerGrid, 0, y, canvas.Width, y, style))
	}
	return out
}

func (r *Renderer) renderZones(f Frame) []Item {
	var out []Item
	for _, z := range f.Scene.ZoneRegions {
		color := z.Color
		if !models.ValidColor(color) {
			color = zoneColor(z.Category)
		}
		selected := f.Selection.Zone == z.ID

		body := Style{Fill: color, FillOpacity: 0.12, Stroke: color, StrokeWidth: 1}
		if selected {
			body.Stroke = selectionColor
			body.StrokeWidth = 2
		}
		out = append(out, Item{Layer: LayerZones, Kind: KindRect, ID: z.ID, X: z.X, Y: z.Y, W: z.Width, H: z.Height, Style: body})
		out = append(out, Item{
			Layer: LayerZones, Kind: KindRect, ID: z.ID + ":header",
			X: z.X, Y: z.Y, W: z.Width, H: scene.ZoneHeaderHeight,
			Style: Style{Fill: color, FillOpacity: 0.35},
		})

		label := z.Label
		if label == "" {
			label = string(z.Category)
		}
		out = append(out, text(LayerZones, z.X+8, z.Y+16, label, 12, "start", "#263238"))

		if selected && f.EditMode {
			h := scene.ResizeHandle(z)
			out = append(out, Item{
				Layer: LayerZones, Kind: KindRect, ID: z.ID + ":resize",
				X: h.X, Y: h.Y, W: h.Width, H: h.Height,
				Style: Style{Fill: "#ffffff", Stroke: selectionColor, StrokeWidth: 1},
			})
		}
	}
	return out
}

func (r *Renderer) renderDecor(f Frame) []Item {
	var out []Item
	for _, d := range f.Scene.DecorElements {
		c := d.Bounds().Center()
		style := Style{Fill: decorColor(d.Type), Stroke: "#546e7a", StrokeWidth: 1}
		if f.Selection.Decor == d.ID {
			style.Stroke = selectionColor
			style.StrokeWidth = 2
		}
		out = append(out, Item{
			Layer: LayerDecor, Kind: KindPolygon, ID: d.ID,
			Points: geometry.RectanglePoints(c.X, c.Y, d.Width, d.Height, d.Rotation),
			Style:  style,
		})
		if d.Label != "" {
			out = append(out, text(LayerDecor, c.X, c.Y+4, d.Label, 10, "middle", "#37474f"))
		}
	}
	return out
}

func (r *Renderer) renderUnits(f Frame) []Item {
	var out []Item
	for _, u := range f.Scene.SeatingUnits {
		c := u.Center()
		entry, hasEntry := f.Overlay[u.ID]
		status := menu.StatusAvailable
		if hasEntry {
			status = entry.Status
		}
		if u.Blocked {
			status = menu.StatusBlocked
		}

		style := Style{Fill: statusColor(status), Stroke: "#37474f", StrokeWidth: 1.5, Dashed: u.Blocked}
		if slices.Contains(f.Selection.Units, u.ID) {
			style.Stroke = selectionColor
			style.StrokeWidth = 3
		}

		if u.Shape == models.ShapeRound {
			out = append(out, Item{
				Layer: LayerUnits, Kind: KindEllipse, ID: u.ID,
				X: c.X, Y: c.Y, W: u.Width / 2, H: u.Height / 2, Rotation: u.Rotation,
				Style: style,
			})
		} else {
			out = append(out, Item{
				Layer: LayerUnits, Kind: KindPolygon, ID: u.ID,
				Points: geometry.RectanglePoints(c.X, c.Y, u.Width, u.Height, u.Rotation),
				Style:  style,
			})
		}

		name := u.Name
		if name == "" {
			name = fmt.Sprintf("%d-%d", u.MinCovers, u.MaxCovers)
		}
		label := text(LayerUnits, c.X, c.Y+4, name, 12, "middle", "#ffffff")
		label.Bold = true
		out = append(out, label)

		if hasEntry && entry.GuestLabel != "" {
			out = append(out, text(LayerUnits, c.X, c.Y+18, entry.GuestLabel, 10, "middle", "#ffffff"))
		}
		if hasEntry && entry.StaffInitials != "" {
			out = append(out, Item{
				Layer: LayerUnits, Kind: KindEllipse, ID: u.ID + ":staff",
				X: u.X + u.Width, Y: u.Y, W: 9, H: 9,
				Style: Style{Fill: "#263238", Stroke: "#ffffff", StrokeWidth: 1},
			})
			out = append(out, text(LayerUnits, u.X+u.Width, u.Y+3, entry.StaffInitials, 8, "middle", "#ffffff"))
		}
	}

	if f.EditMode && len(f.Selection.Units) == 1 {
		for _, u := range f.Scene.SeatingUnits {
			if u.ID != f.Selection.Units[0] {
				continue
			}
			top := geometry.RotatePoint(models.Point{X: u.Center().X, Y: u.Y}, u.Center(), u.Rotation)
			h := scene.RotateHandle(u)
			style := Style{Stroke: selectionColor, StrokeWidth: 1.5}
			out = append(out, line(LayerUnits, top.X, top.Y, h.X, h.Y, style))
			out = append(out, Item{
				Layer: LayerUnits, Kind: KindEllipse, ID: u.ID + ":rotate",
				X: h.X, Y: h.Y, W: scene.RotateHandleRadius, H: scene.RotateHandleRadius,
				Style: Style{Fill: "#ffffff", Stroke: selectionColor, StrokeWidth: 1.5},
			})
		}
	}
	return out
}

func (r *Renderer) renderGuides(guides []geometry.Guide, canvas models.Size) []Item {
	style := Style{Stroke: "#ff4081", StrokeWidth: 1, Dashed: true}
	var out []Item
	for _, g := range guides {
		if g.Axis == geometry.AxisVertical {
			out = append(out, line(LayerGuides, g.Position, 0, g.Position, canvas.Height, style))
		} else {
			out = append(out, line(LayerGuides, 0, g.Position, canvas.Width, g.Position, style))
		}
	}
	return out
}

func (r *Renderer) renderLasso(rect models.Rect) Item {
	return Item{
		Layer: LayerLasso, Kind: KindRect,
		X: rect.X, Y: rect.Y, W: rect.Width, H: rect.Height,
		Style: Style{Fill: selectionColor, FillOpacity: 0.1, Stroke: selectionColor, StrokeWidth: 1, Dashed: true},
	}
}

func (r *Renderer) renderMenu(v menu.View) []Item {
	var out []Item
	switch v.Mode {
	case menu.ModeCard:
		b := menu.CardBounds(v.Anchor, len(v.Actions))
		out = append(out, Item{
			Layer: LayerMenu, Kind: KindRect, ID: v.EntityID + ":menu",
			X: b.X, Y: b.Y, W: b.Width, H: b.Height,
			Style: Style{Fill: "#ffffff", Stroke: "#90a4ae", StrokeWidth: 1},
		})
		out = append(out, text(LayerMenu, b.X+10, b.Y+18, string(v.Status), 11, "start", statusColor(v.Status)))
		for _, row := range v.Rows {
			style := Style{Fill: "#ffffff", Stroke: "#eceff1", StrokeWidth: 1}
			color := "#263238"
			if row.Action.Primary {
				style.Fill = selectionColor
				color = "#ffffff"
			}
			rb := row.Bounds
			out = append(out, Item{
				Layer: LayerMenu, Kind: KindRect, ID: string(row.Action.Key),
				X: rb.X, Y: rb.Y, W: rb.Width, H: rb.Height, Style: style,
			})
			out = append(out, text(LayerMenu, rb.X+10, rb.Y+rb.Height/2+4, row.Action.Label, 12, "start", color))
		}

	default:
		for _, s := range v.Sectors {
			style := Style{Fill: "#ffffff", Stroke: "#90a4ae", StrokeWidth: 1}
			color := "#263238"
			if s.Action.Primary {
				style.Fill = selectionColor
				color = "#ffffff"
			}
			out = append(out, Item{
				Layer: LayerMenu, Kind: KindPath, ID: string(s.Action.Key),
				Path:   s.Path,
				Points: ArcPoints(v.Anchor, menu.RadialInner, menu.RadialOuter, s.StartAngle, s.EndAngle),
				Style:  style,
			})
			out = append(out, text(LayerMenu, s.LabelAt.X, s.LabelAt.Y+4, s.Action.Label, 10, "middle", color))
		}
	}
	return out
}

// ============================================================
// Helpers
// ============================================================

func line(layer Layer, x1, y1, x2, y2 float64, style Style) Item {
	return Item{Layer: layer, Kind: KindLine, Points: []models.Point{{X: x1, Y: y1}, {X: x2, Y: y2}}, Style: style}
}

func text(layer Layer, x, y float64, s string, size float64, anchor, color string) Item {
	return Item{Layer: layer, Kind: KindText, X: x, Y: y, Text: s, FontSize: size, Anchor: anchor, Style: Style{Fill: color}}
}
