package importer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Classification
// ============================================================

type elementKind int

const (
	kindSkip elementKind = iota
	kindUnit
	kindZone
	kindDecor
)

var decorPrefixes = []struct {
	prefix string
	typ    models.DecorType
}{
	{"Wall_", models.DecorWall},
	{"Window_", models.DecorWall},
	{"Door_", models.DecorDoor},
	{"Pillar_", models.DecorPillar},
	{"Stage_", models.DecorStage},
	{"DanceFloor_", models.DecorDanceFloor},
	{"Bar_", models.DecorBarCounter},
	{"HostStand_", models.DecorHostStand},
	{"Bathroom_", models.DecorBathroom},
	{"Toilet_", models.DecorBathroom},
	{"Kitchen_", models.DecorKitchen},
	{"Stairs_", models.DecorStairs},
}

// classify определяет тип элемента по префиксу id.
func classify(id string) (elementKind, models.DecorType, string) {
	switch {
	case strings.HasPrefix(id, "Table_"):
		return kindUnit, "", strings.TrimPrefix(id, "Table_")
	case strings.HasPrefix(id, "Zone_"):
		return kindZone, "", strings.TrimPrefix(id, "Zone_")
	case strings.HasPrefix(id, "Room_"):
		return kindZone, "", strings.TrimPrefix(id, "Room_")
	case strings.HasSuffix(id, "_room"), strings.HasSuffix(id, "_Room"):
		return kindZone, "", id[:len(id)-len("_room")]
	}
	for _, d := range decorPrefixes {
		if strings.HasPrefix(id, d.prefix) {
			return kindDecor, d.typ, strings.TrimPrefix(id, d.prefix)
		}
	}
	return kindSkip, "", ""
}

// ============================================================
// Importer
// ============================================================

// ErrNoElements — в документе нет ни одного распознанного элемента.
var ErrNoElements = errors.New("no recognized elements in svg")

type element struct {
	name  string
	attrs map[string]string
}

func (e element) attr(name string) string { return e.attrs[name] }

func (e element) float(name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(e.attrs[name]), "px"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Import разбирает SVG-план (rect, circle, ellipse, path на любой глубине
// вложенности) в SceneData. Элементы классифицируются по префиксу id;
// подсказки берутся из атрибутов data-name, data-shape, data-min, data-max,
// data-zone, data-category, data-label.
func Import(r io.Reader) (models.SceneData, error) {
	var data models.SceneData
	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.SceneData{}, fmt.Errorf("parse svg: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		el := element{name: start.Name.Local, attrs: map[string]string{}}
		for _, a := range start.Attr {
			el.attrs[a.Name.Local] = a.Value
		}

		if el.name == "svg" {
			data.CanvasSize = canvasOf(el)
			continue
		}

		bounds, round, ok := boundsOf(el)
		if !ok {
			continue
		}
		id := el.attr("id")
		kind, decorType, suffix := classify(id)
		rotation := rotationOf(el.attr("transform"))

		switch kind {
		case kindUnit:
			data.SeatingUnits = append(data.SeatingUnits, unitOf(el, id, suffix, bounds, round, rotation))
		case kindZone:
			data.ZoneRegions = append(data.ZoneRegions, zoneOf(el, id, suffix, bounds))
		case kindDecor:
			data.DecorElements = append(data.DecorElements, models.DecorElement{
				ID:       id,
				Type:     decorType,
				X:        bounds.X,
				Y:        bounds.Y,
				Width:    bounds.Width,
				Height:   bounds.Height,
				Rotation: rotation,
				Label:    el.attr("data-label"),
			})
		}
	}

	if len(data.SeatingUnits)+len(data.ZoneRegions)+len(data.DecorElements) == 0 {
		return models.SceneData{}, ErrNoElements
	}
	log.Printf("[IMPORT] %d units, %d zones, %d decor", len(data.SeatingUnits), len(data.ZoneRegions), len(data.DecorElements))
	return data, nil
}

func boundsOf(el element) (models.Rect, bool, bool) {
	switch el.name {
	case "rect":
		return models.Rect{X: el.float("x"), Y: el.float("y"), Width: el.float("width"), Height: el.float("height")}, false, true
	case "circle":
		cx, cy, r := el.float("cx"), el.float("cy"), el.float("r")
		return models.Rect{X: cx - r, Y: cy - r, Width: 2 * r, Height: 2 * r}, true, true
	case "ellipse":
		cx, cy, rx, ry := el.float("cx"), el.float("cy"), el.float("rx"), el.float("ry")
		return models.Rect{X: cx - rx, Y: cy - ry, Width: 2 * rx, Height: 2 * ry}, true, true
	case "path":
		points, err := ParsePath(el.attr("d"))
		if err != nil {
			log.Printf("[IMPORT] skip path %s: %v", el.attr("id"), err)
			return models.Rect{}, false, false
		}
		b, ok := BoundsOf(points)
		return b, false, ok
	}
	return models.Rect{}, false, false
}

func unitOf(el element, id, suffix string, b models.Rect, round bool, rotation float64) models.SeatingUnit {
	shape := models.Shape(el.attr("data-shape"))
	if !shape.Valid() {
		switch {
		case round:
			shape = models.ShapeRound
		case b.Width == b.Height:
			shape = models.ShapeSquare
		default:
			shape = models.ShapeRectangle
		}
	}

	name := el.attr("data-name")
	if name == "" {
		name = strings.ReplaceAll(suffix, "_", " ")
	}

	minCovers, _ := strconv.Atoi(el.attr("data-min"))
	maxCovers, _ := strconv.Atoi(el.attr("data-max"))
	if maxCovers <= 0 {
		maxCovers = coversFor(shape, b)
	}
	if minCovers <= 0 || minCovers > maxCovers {
		minCovers = max(1, maxCovers/2)
	}

	zone := models.ZoneTag(el.attr("data-zone"))
	if !zone.Valid() {
		zone = models.ZoneMain
	}

	return models.SeatingUnit{
		ID:        id,
		Name:      name,
		X:         b.X,
		Y:         b.Y,
		Width:     b.Width,
		Height:    b.Height,
		Rotation:  rotation,
		Shape:     shape,
		MinCovers: minCovers,
		MaxCovers: maxCovers,
		Zone:      zone,
	}
}

// coversFor оценивает вместимость по периметру: одно место на 30 единиц.
func coversFor(shape models.Shape, b models.Rect) int {
	perimeter := 2 * (b.Width + b.Height)
	if shape == models.ShapeRound {
		perimeter = math.Pi * (b.Width + b.Height) / 2
	}
	return max(1, int(perimeter/30))
}

func zoneOf(el element, id, suffix string, b models.Rect) models.ZoneRegion {
	category := models.ZoneTag(el.attr("data-category"))
	if !category.Valid() {
		category = models.ZoneMain
		if strings.Contains(strings.ToLower(id), "balcony") || strings.Contains(strings.ToLower(id), "terrace") {
			category = models.ZoneTerrace
		}
	}
	label := el.attr("data-label")
	if label == "" {
		label = strings.ReplaceAll(suffix, "_", " ")
	}
	color := el.attr("data-color")
	if !models.ValidColor(color) {
		color = ""
	}
	return models.ZoneRegion{
		ID:       id,
		Label:    label,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Category: category,
		Color:    color,
	}
}

func canvasOf(el element) models.Size {
	if vb := strings.Fields(strings.ReplaceAll(el.attr("viewBox"), ",", " ")); len(vb) == 4 {
		w, errW := strconv.ParseFloat(vb[2], 64)
		h, errH := strconv.ParseFloat(vb[3], 64)
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return models.Size{Width: w, Height: h}
		}
	}
	return models.Size{Width: el.float("width"), Height: el.float("height")}
}

var rotateRe = regexp.MustCompile(`rotate\(\s*([-+]?[0-9]*\.?[0-9]+)`)

// rotationOf достаёт угол из transform="rotate(a ...)".
func rotationOf(transform string) float64 {
	m := rotateRe.FindStringSubmatch(transform)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}
