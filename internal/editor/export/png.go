package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/render"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// Density — фиксированная плотность пикселей экспорта.
	Density = 2
	// supersample рисует крупнее и уменьшает CatmullRom для сглаживания.
	supersample = 2
	// maxPixels ограничивает промежуточный буфер.
	maxPixels = 40_000_000
)

// Exporter растеризует display list в PNG. Рисуется весь холст сцены,
// трансформация viewport игнорируется.
type Exporter struct {
	font *opentype.Font
}

func NewExporter() (*Exporter, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Exporter{font: fnt}, nil
}

// WritePNG кодирует растр холста в PNG.
func (e *Exporter) WritePNG(w io.Writer, dl render.DisplayList) error {
	img, err := e.Rasterize(dl)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Rasterize возвращает изображение холста размером canvas × Density.
func (e *Exporter) Rasterize(dl render.DisplayList) (*image.RGBA, error) {
	canvas := dl.Canvas
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return nil, fmt.Errorf("empty canvas %vx%v", canvas.Width, canvas.Height)
	}

	// площадь считается во float64: int переполняется на больших холстах
	pixels := math.Ceil(canvas.Width*Density) * math.Ceil(canvas.Height*Density)
	if math.IsInf(pixels, 0) || math.IsNaN(pixels) || pixels > maxPixels {
		return nil, fmt.Errorf("canvas %vx%v too large for export", canvas.Width, canvas.Height)
	}
	finalW := int(math.Ceil(canvas.Width * Density))
	finalH := int(math.Ceil(canvas.Height * Density))

	factor := Density * supersample
	if pixels*supersample*supersample > maxPixels {
		factor = Density
	}

	large := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(canvas.Width*float64(factor))), int(math.Ceil(canvas.Height*float64(factor)))))
	draw.Draw(large, large.Bounds(), image.NewUniform(parseColor(dl.Background, colorNeutral)), image.Point{}, draw.Src)

	ctx := &rasterContext{img: large, scale: float64(factor), font: e.font, faces: map[float64]font.Face{}}
	for _, layer := range render.Layers {
		for _, it := range dl.ByLayer(layer) {
			if err := ctx.drawItem(it); err != nil {
				return nil, err
			}
		}
	}

	if factor == Density {
		return large, nil
	}
	final := image.NewRGBA(image.Rect(0, 0, finalW, finalH))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Src, nil)
	return final, nil
}

// ============================================================
// Raster primitives
// ============================================================

var colorNeutral = color.RGBA{245, 245, 245, 255}

// rasterContext живёт один вызов Rasterize; font.Face не потокобезопасен.
type rasterContext struct {
	img   *image.RGBA
	scale float64
	font  *opentype.Font
	faces map[float64]font.Face
}

func (c *rasterContext) face(size float64) (font.Face, error) {
	if f, ok := c.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %v: %w", size, err)
	}
	c.faces[size] = f
	return f, nil
}

func (c *rasterContext) pt(p models.Point) models.Point {
	return models.Point{X: p.X * c.scale, Y: p.Y * c.scale}
}

func (c *rasterContext) drawItem(it render.Item) error {
	var outline []models.Point

	switch it.Kind {
	case render.KindRect:
		outline = []models.Point{{X: it.X, Y: it.Y}, {X: it.X + it.W, Y: it.Y}, {X: it.X + it.W, Y: it.Y + it.H}, {X: it.X, Y: it.Y + it.H}}
	case render.KindEllipse:
		outline = render.EllipsePoints(it.X, it.Y, it.W, it.H, it.Rotation, 64)
	case render.KindPolygon, render.KindPath:
		outline = it.Points
	case render.KindLine:
		if len(it.Points) >= 2 {
			c.strokeSegment(c.pt(it.Points[0]), c.pt(it.Points[1]), it.Style)
		}
		return nil
	case render.KindText:
		return c.drawText(it)
	default:
		return nil
	}

	scaled := make([]models.Point, len(outline))
	for i, p := range outline {
		scaled[i] = c.pt(p)
	}
	if it.Style.Fill != "" {
		alpha := 1.0
		if it.Style.FillOpacity > 0 {
			alpha = it.Style.FillOpacity
		}
		c.fillPolygon(scaled, parseColor(it.Style.Fill, colorNeutral), alpha)
	}
	if it.Style.Stroke != "" && len(scaled) > 1 {
		for i := range scaled {
			c.strokeSegment(scaled[i], scaled[(i+1)%len(scaled)], it.Style)
		}
	}
	return nil
}

// fillPolygon — заливка по сканлиниям с правилом even-odd.
func (c *rasterContext) fillPolygon(points []models.Point, col color.RGBA, alpha float64) {
	if len(points) < 3 {
		return
	}
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	b := c.img.Bounds()
	y0 := max(int(math.Floor(minY)), b.Min.Y)
	y1 := min(int(math.Ceil(maxY)), b.Max.Y-1)

	var xs []float64
	for y := y0; y <= y1; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range points {
			a, bb := points[i], points[(i+1)%len(points)]
			if (a.Y <= sy && bb.Y > sy) || (bb.Y <= sy && a.Y > sy) {
				xs = append(xs, a.X+(sy-a.Y)*(bb.X-a.X)/(bb.Y-a.Y))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xa := max(int(math.Round(xs[i])), b.Min.X)
			xb := min(int(math.Round(xs[i+1])), b.Max.X)
			for x := xa; x < xb; x++ {
				c.blend(x, y, col, alpha)
			}
		}
	}
}

// strokeSegment рисует толстую линию; пунктир — чередованием отрезков.
func (c *rasterContext) strokeSegment(a, b models.Point, style render.Style) {
	col := parseColor(style.Stroke, colorNeutral)
	width := style.StrokeWidth
	if width <= 0 {
		width = 1
	}
	half := width * c.scale / 2

	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		c.blend(int(a.X), int(a.Y), col, 1)
		return
	}
	perpX, perpY := -dy/dist, dx/dist
	dash := 4 * c.scale
	gap := 3 * c.scale

	for s := 0.0; s <= dist; s += 0.5 {
		if style.Dashed && math.Mod(s, dash+gap) > dash {
			continue
		}
		t := s / dist
		cx, cy := a.X+dx*t, a.Y+dy*t
		for off := -half; off <= half; off += 0.5 {
			c.blend(int(cx+perpX*off), int(cy+perpY*off), col, 1)
		}
	}
}

func (c *rasterContext) drawText(it render.Item) error {
	if it.Text == "" {
		return nil
	}
	size := it.FontSize
	if size <= 0 {
		size = 12
	}
	face, err := c.face(size * c.scale)
	if err != nil {
		return err
	}

	x := int(it.X * c.scale)
	y := int(it.Y * c.scale)
	if it.Anchor == "middle" {
		x -= font.MeasureString(face, it.Text).Ceil() / 2
	}

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(parseColor(it.Style.Fill, color.RGBA{38, 50, 56, 255})),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(it.Text)
	return nil
}

func (c *rasterContext) blend(x, y int, col color.RGBA, alpha float64) {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	if alpha >= 1 {
		c.img.SetRGBA(x, y, col)
		return
	}
	dst := c.img.RGBAAt(x, y)
	mix := func(s, d uint8) uint8 {
		return uint8(math.Round(float64(s)*alpha + float64(d)*(1-alpha)))
	}
	c.img.SetRGBA(x, y, color.RGBA{mix(col.R, dst.R), mix(col.G, dst.G), mix(col.B, dst.B), 255})
}

// parseColor понимает #rgb и #rrggbb.
func parseColor(s string, def color.RGBA) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}
