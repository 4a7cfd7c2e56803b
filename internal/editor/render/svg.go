package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"venue-editor/internal/editor/models"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG выводит display list как SVG-документ. Сцена рисуется внутри
// группы с трансформацией viewport.
func WriteSVG(w io.Writer, dl DisplayList) error {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	canvas.Start(px(dl.Width), px(dl.Height))
	canvas.Rect(0, 0, px(dl.Width), px(dl.Height), "fill:"+orNone(dl.Background))

	t := dl.Transform
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s) scale(%s)", formatFloat(t.PanX), formatFloat(t.PanY), formatFloat(t.Zoom)))
	for _, layer := range Layers {
		items := dl.ByLayer(layer)
		if len(items) == 0 {
			continue
		}
		canvas.Gid(string(layer))
		for _, it := range items {
			writeItem(canvas, it)
		}
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()

	_, err := w.Write(buf.Bytes())
	return err
}

// RenderSVG — Build + WriteSVG в строку.
func (r *Renderer) RenderSVG(f Frame) (string, error) {
	var sb strings.Builder
	if err := WriteSVG(&sb, r.Build(f)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeItem(canvas *svg.SVG, it Item) {
	attrs := []string{styleOf(it)}
	if it.ID != "" {
		attrs = append(attrs, fmt.Sprintf(`data-id="%s"`, html.EscapeString(it.ID)))
	}

	switch it.Kind {
	case KindRect:
		canvas.Rect(px(it.X), px(it.Y), px(it.W), px(it.H), attrs...)

	case KindEllipse:
		if it.Rotation != 0 && it.W != it.H {
			canvas.Gtransform(fmt.Sprintf("rotate(%s %d %d)", formatFloat(it.Rotation), px(it.X), px(it.Y)))
			canvas.Ellipse(px(it.X), px(it.Y), px(it.W), px(it.H), attrs...)
			canvas.Gend()
			return
		}
		canvas.Ellipse(px(it.X), px(it.Y), px(it.W), px(it.H), attrs...)

	case KindLine:
		if len(it.Points) < 2 {
			return
		}
		a, b := it.Points[0], it.Points[1]
		canvas.Line(px(a.X), px(a.Y), px(b.X), px(b.Y), attrs...)

	case KindPolygon:
		xs, ys := splitPoints(it.Points)
		canvas.Polygon(xs, ys, attrs...)

	case KindPath:
		canvas.Path(it.Path, attrs...)

	case KindText:
		canvas.Text(px(it.X), px(it.Y), it.Text, attrs...)
	}
}

func styleOf(it Item) string {
	var parts []string
	if it.Kind == KindText {
		anchor := it.Anchor
		if anchor == "" {
			anchor = "start"
		}
		parts = append(parts,
			"font-family:sans-serif",
			fmt.Sprintf("font-size:%spx", formatFloat(it.FontSize)),
			"text-anchor:"+anchor,
			"fill:"+orNone(it.Style.Fill))
		if it.Bold {
			parts = append(parts, "font-weight:bold")
		}
		return strings.Join(parts, ";")
	}

	s := it.Style
	parts = append(parts, "fill:"+orNone(s.Fill))
	if s.Fill != "" && s.FillOpacity > 0 {
		parts = append(parts, "fill-opacity:"+formatFloat(s.FillOpacity))
	}
	parts = append(parts, "stroke:"+orNone(s.Stroke))
	if s.Stroke != "" && s.StrokeWidth > 0 {
		parts = append(parts, "stroke-width:"+formatFloat(s.StrokeWidth))
	}
	if s.Dashed {
		parts = append(parts, "stroke-dasharray:4,3")
	}
	return strings.Join(parts, ";")
}

// orNone пропускает в style только hex-цвета: строка с '=' стала бы
// у svgo отдельным атрибутом.
func orNone(c string) string {
	if !models.ValidColor(c) {
		return "none"
	}
	return c
}

func splitPoints(points []models.Point) ([]int, []int) {
	xs := make([]int, len(points))
	ys := make([]int, len(points))
	for i, p := range points {
		xs[i] = px(p.X)
		ys[i] = px(p.Y)
	}
	return xs, ys
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func formatFloat(val float64) string {
	return fmt.Sprintf("%.2f", val)
}
