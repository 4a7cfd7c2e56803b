package scene

import (
	"math"
	"slices"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/models"

	"github.com/google/uuid"
)

// ============================================================
// Scene Model
// ============================================================

// Сущности хранятся как неизменяемые записи: любое изменение создаёт копию
// записи и подменяет указатель. Снимок копирует только указатели, поэтому
// неизменённые записи разделяются между сценой и историей.

// Snapshot — состояние сцены для undo/redo. Выделение сюда не входит.
type Snapshot struct {
	units      []*models.SeatingUnit
	zones      []*models.ZoneRegion
	decor      []*models.DecorElement
	canvas     models.Size
	generation uint64
}

func (s Snapshot) Generation() uint64 { return s.generation }

// Data разворачивает снимок в значения для сериализации.
func (s Snapshot) Data() models.SceneData {
	data := models.SceneData{
		SeatingUnits:  make([]models.SeatingUnit, 0, len(s.units)),
		ZoneRegions:   make([]models.ZoneRegion, 0, len(s.zones)),
		DecorElements: make([]models.DecorElement, 0, len(s.decor)),
		CanvasSize:    s.canvas,
	}
	for _, u := range s.units {
		data.SeatingUnits = append(data.SeatingUnits, *u)
	}
	for _, z := range s.zones {
		data.ZoneRegions = append(data.ZoneRegions, *z)
	}
	for _, d := range s.decor {
		data.DecorElements = append(data.DecorElements, *d)
	}
	return data
}

type Scene struct {
	units  []*models.SeatingUnit
	zones  []*models.ZoneRegion
	decor  []*models.DecorElement
	canvas models.Size

	selection Selection

	// generation меняется при каждой мутации; counter только растёт,
	// чтобы после undo новые правки не совпали со старыми номерами.
	generation      uint64
	counter         uint64
	savedGeneration uint64

	persistedUnits map[string]*models.SeatingUnit
	persistedZones map[string]*models.ZoneRegion
}

func New() *Scene {
	return &Scene{
		persistedUnits: map[string]*models.SeatingUnit{},
		persistedZones: map[string]*models.ZoneRegion{},
	}
}

// Load заменяет сцену данными из хранилища и считает их сохранёнными.
func (s *Scene) Load(data models.SceneData) {
	s.replace(data)
	s.MarkSaved(s.Snapshot())
}

// Replace заменяет сцену целиком (шаблон, импорт). Изменения не сохранены.
func (s *Scene) Replace(data models.SceneData) {
	s.replace(data)
}

func (s *Scene) replace(data models.SceneData) {
	s.units = s.units[:0:0]
	s.zones = s.zones[:0:0]
	s.decor = s.decor[:0:0]
	for _, u := range data.SeatingUnits {
		s.units = append(s.units, ptr(sanitizeUnit(withUnitID(u))))
	}
	for _, z := range data.ZoneRegions {
		s.zones = append(s.zones, ptr(sanitizeZone(withZoneID(z))))
	}
	for _, d := range data.DecorElements {
		s.decor = append(s.decor, ptr(sanitizeDecor(withDecorID(d))))
	}
	s.canvas = sanitizeSize(data.CanvasSize)
	s.selection.Clear()
	s.touch()
}

func (s *Scene) Snapshot() Snapshot {
	return Snapshot{
		units:      slices.Clone(s.units),
		zones:      slices.Clone(s.zones),
		decor:      slices.Clone(s.decor),
		canvas:     s.canvas,
		generation: s.generation,
	}
}

// Restore применяет снимок. Выделение очищается: id могли исчезнуть.
func (s *Scene) Restore(snap Snapshot) {
	s.units = slices.Clone(snap.units)
	s.zones = slices.Clone(snap.zones)
	s.decor = slices.Clone(snap.decor)
	s.canvas = snap.canvas
	s.generation = snap.generation
	s.selection.Clear()
}

func (s *Scene) Data() models.SceneData { return s.Snapshot().Data() }

func (s *Scene) Generation() uint64 { return s.generation }

// Dirty — есть несохранённые изменения.
func (s *Scene) Dirty() bool { return s.generation != s.savedGeneration }

// MarkSaved фиксирует снимок как сохранённый в хранилище.
func (s *Scene) MarkSaved(snap Snapshot) {
	s.savedGeneration = snap.generation
	s.persistedUnits = make(map[string]*models.SeatingUnit, len(snap.units))
	for _, u := range snap.units {
		s.persistedUnits[u.ID] = u
	}
	s.persistedZones = make(map[string]*models.ZoneRegion, len(snap.zones))
	for _, z := range snap.zones {
		s.persistedZones[z.ID] = z
	}
}

func (s *Scene) Canvas() models.Size { return s.canvas }

func (s *Scene) SetCanvas(size models.Size) {
	s.canvas = sanitizeSize(size)
	s.touch()
}

func (s *Scene) Selection() *Selection { return &s.selection }

func (s *Scene) touch() {
	s.counter++
	s.generation = s.counter
}

// ============================================================
// Seating units
// ============================================================

func (s *Scene) Units() []models.SeatingUnit {
	out := make([]models.SeatingUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, *u)
	}
	return out
}

func (s *Scene) Unit(id string) (models.SeatingUnit, bool) {
	if i := s.unitIndex(id); i >= 0 {
		return *s.units[i], true
	}
	return models.SeatingUnit{}, false
}

func (s *Scene) AddUnit(u models.SeatingUnit) string {
	u = sanitizeUnit(withUnitID(u))
	s.units = append(s.units, &u)
	s.touch()
	return u.ID
}

// UpdateUnit применяет fn к копии записи и подменяет её.
func (s *Scene) UpdateUnit(id string, fn func(u *models.SeatingUnit)) bool {
	i := s.unitIndex(id)
	if i < 0 {
		return false
	}
	next := *s.units[i]
	fn(&next)
	next.ID = id
	next = sanitizeUnit(next)
	if next == *s.units[i] {
		return true
	}
	s.units[i] = &next
	s.touch()
	return true
}

func (s *Scene) MoveUnit(id string, x, y float64) bool {
	return s.UpdateUnit(id, func(u *models.SeatingUnit) {
		u.X = x
		u.Y = y
	})
}

func (s *Scene) RemoveUnit(id string) bool {
	i := s.unitIndex(id)
	if i < 0 {
		return false
	}
	s.units = slices.Delete(s.units, i, i+1)
	s.selection.dropUnit(id)
	s.touch()
	return true
}

func (s *Scene) unitIndex(id string) int {
	return slices.IndexFunc(s.units, func(u *models.SeatingUnit) bool { return u.ID == id })
}

// ============================================================
// Zone regions
// ============================================================

func (s *Scene) Zones() []models.ZoneRegion {
	out := make([]models.ZoneRegion, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, *z)
	}
	return out
}

func (s *Scene) Zone(id string) (models.ZoneRegion, bool) {
	if i := s.zoneIndex(id); i >= 0 {
		return *s.zones[i], true
	}
	return models.ZoneRegion{}, false
}

func (s *Scene) AddZone(z models.ZoneRegion) string {
	z = sanitizeZone(withZoneID(z))
	s.zones = append(s.zones, &z)
	s.touch()
	return z.ID
}

func (s *Scene) UpdateZone(id string, fn func(z *models.ZoneRegion)) bool {
	i := s.zoneIndex(id)
	if i < 0 {
		return false
	}
	next := *s.zones[i]
	fn(&next)
	next.ID = id
	next = sanitizeZone(next)
	if next == *s.zones[i] {
		return true
	}
	s.zones[i] = &next
	s.touch()
	return true
}

func (s *Scene) RemoveZone(id string) bool {
	i := s.zoneIndex(id)
	if i < 0 {
		return false
	}
	s.zones = slices.Delete(s.zones, i, i+1)
	if s.selection.ZoneID() == id {
		s.selection.Clear()
	}
	s.touch()
	return true
}

func (s *Scene) zoneIndex(id string) int {
	return slices.IndexFunc(s.zones, func(z *models.ZoneRegion) bool { return z.ID == id })
}

// ============================================================
// Decor elements
// ============================================================

func (s *Scene) DecorElements() []models.DecorElement {
	out := make([]models.DecorElement, 0, len(s.decor))
	for _, d := range s.decor {
		out = append(out, *d)
	}
	return out
}

func (s *Scene) Decor(id string) (models.DecorElement, bool) {
	if i := s.decorIndex(id); i >= 0 {
		return *s.decor[i], true
	}
	return models.DecorElement{}, false
}

func (s *Scene) AddDecor(d models.DecorElement) string {
	d = sanitizeDecor(withDecorID(d))
	s.decor = append(s.decor, &d)
	s.touch()
	return d.ID
}

func (s *Scene) UpdateDecor(id string, fn func(d *models.DecorElement)) bool {
	i := s.decorIndex(id)
	if i < 0 {
		return false
	}
	next := *s.decor[i]
	fn(&next)
	next.ID = id
	next = sanitizeDecor(next)
	if next == *s.decor[i] {
		return true
	}
	s.decor[i] = &next
	s.touch()
	return true
}

func (s *Scene) RemoveDecor(id string) bool {
	i := s.decorIndex(id)
	if i < 0 {
		return false
	}
	s.decor = slices.Delete(s.decor, i, i+1)
	if s.selection.DecorID() == id {
		s.selection.Clear()
	}
	s.touch()
	return true
}

func (s *Scene) decorIndex(id string) int {
	return slices.IndexFunc(s.decor, func(d *models.DecorElement) bool { return d.ID == id })
}

// ============================================================
// Queries
// ============================================================

// UnitBounds — осевой bounding box юнита с учётом поворота.
func UnitBounds(u models.SeatingUnit) models.Rect {
	return rotatedBounds(u.Bounds(), u.Rotation)
}

func rotatedBounds(r models.Rect, rotation float64) models.Rect {
	if math.Mod(rotation, 360) == 0 {
		return r
	}
	c := r.Center()
	pts := geometry.RectanglePoints(c.X, c.Y, r.Width, r.Height, rotation)
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return models.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// UnitsIntersecting — юниты, чей bounding box пересекается с rect (не содержится в нём).
func (s *Scene) UnitsIntersecting(rect models.Rect) []string {
	var out []string
	for _, u := range s.units {
		if UnitBounds(*u).Overlaps(rect) {
			out = append(out, u.ID)
		}
	}
	return out
}

// ContentBounds — общий bounding box всех сущностей.
func (s *Scene) ContentBounds() (models.Rect, bool) {
	rects := make([]models.Rect, 0, len(s.units)+len(s.zones)+len(s.decor))
	for _, u := range s.units {
		rects = append(rects, UnitBounds(*u))
	}
	for _, z := range s.zones {
		rects = append(rects, z.Bounds())
	}
	for _, d := range s.decor {
		rects = append(rects, rotatedBounds(d.Bounds(), d.Rotation))
	}
	return geometry.UnionBounds(rects)
}

// AssignZone переназначает зону юнита по его центру: первая содержащая
// область с другой меткой. Нет такой области — зона не меняется.
func (s *Scene) AssignZone(unitID string) (models.ZoneTag, bool) {
	u, ok := s.Unit(unitID)
	if !ok {
		return "", false
	}
	center := u.Center()
	for _, z := range s.zones {
		if !z.Bounds().Contains(center) || z.Category == u.Zone {
			continue
		}
		tag := z.Category
		s.UpdateUnit(unitID, func(u *models.SeatingUnit) { u.Zone = tag })
		return tag, true
	}
	return u.Zone, false
}

// ============================================================
// Sanitizing
// ============================================================

func sanitizeUnit(u models.SeatingUnit) models.SeatingUnit {
	u.X = geometry.Finite(u.X)
	u.Y = geometry.Finite(u.Y)
	u.Width = math.Max(0, geometry.Finite(u.Width))
	u.Height = math.Max(0, geometry.Finite(u.Height))
	u.Rotation = geometry.NormalizeAngle(u.Rotation)
	if !u.Shape.Valid() {
		u.Shape = models.ShapeRectangle
	}
	if u.MinCovers < 0 {
		u.MinCovers = 0
	}
	if u.MaxCovers < u.MinCovers {
		u.MaxCovers = u.MinCovers
	}
	if u.Zone == "" {
		u.Zone = models.ZoneMain
	}
	return u
}

func sanitizeZone(z models.ZoneRegion) models.ZoneRegion {
	z.X = geometry.Finite(z.X)
	z.Y = geometry.Finite(z.Y)
	z.Width = math.Max(models.MinZoneWidth, geometry.Finite(z.Width))
	z.Height = math.Max(models.MinZoneHeight, geometry.Finite(z.Height))
	if z.Category == "" {
		z.Category = models.ZoneMain
	}
	if !models.ValidColor(z.Color) {
		z.Color = ""
	}
	return z
}

func sanitizeDecor(d models.DecorElement) models.DecorElement {
	d.X = geometry.Finite(d.X)
	d.Y = geometry.Finite(d.Y)
	d.Width = math.Max(0, geometry.Finite(d.Width))
	d.Height = math.Max(0, geometry.Finite(d.Height))
	d.Rotation = geometry.NormalizeAngle(d.Rotation)
	return d
}

func sanitizeSize(sz models.Size) models.Size {
	return models.Size{
		Width:  math.Max(0, geometry.Finite(sz.Width)),
		Height: math.Max(0, geometry.Finite(sz.Height)),
	}
}

func withUnitID(u models.SeatingUnit) models.SeatingUnit {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return u
}

func withZoneID(z models.ZoneRegion) models.ZoneRegion {
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	return z
}

func withDecorID(d models.DecorElement) models.DecorElement {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return d
}

func ptr[T any](v T) *T { return &v }
