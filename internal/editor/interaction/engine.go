package interaction

import (
	"log"
	"math"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/history"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/scene"
	"venue-editor/internal/editor/viewport"
)

// ============================================================
// States & events
// ============================================================

type State string

const (
	StateIdle           State = "idle"
	StateDraggingEntity State = "dragging-entity"
	StateDraggingZone   State = "dragging-zone"
	StateResizingZone   State = "resizing-zone"
	StateRotatingEntity State = "rotating-entity"
	StateDraggingDecor  State = "dragging-decor"
	StateLassoSelecting State = "lasso-selecting"
	StatePanning        State = "panning"
)

type EventType string

const (
	PointerDown  EventType = "pointer-down"
	PointerMove  EventType = "pointer-move"
	PointerUp    EventType = "pointer-up"
	PointerLeave EventType = "pointer-leave"
	Wheel        EventType = "wheel"
	KeyDown      EventType = "key-down"
)

// Modifiers — удерживаемые клавиши-модификаторы.
type Modifiers struct {
	Additive  bool `json:"additive"`  // shift: добавить к выделению
	Precision bool `json:"precision"` // шаг поворота 15°
	Pan       bool `json:"pan"`       // пробел: панорамирование
}

// Event — сырое событие ввода в экранных координатах.
type Event struct {
	Type      EventType `json:"type" validate:"required,oneof=pointer-down pointer-move pointer-up pointer-leave wheel key-down"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	DeltaY    float64   `json:"delta_y,omitempty"`
	Key       string    `json:"key,omitempty"`
	Modifiers Modifiers `json:"modifiers"`
}

type Options struct {
	GridSize       float64
	Snap           bool
	GuideTolerance float64
	RotationStep   float64
	// Размер холста сцены, нужен для масштабирования панорамы.
	CanvasSize models.Size
}

func DefaultOptions() Options {
	return Options{
		GridSize:       20,
		Snap:           true,
		GuideTolerance: geometry.DefaultGuideTolerance,
		RotationStep:   geometry.DefaultRotationStep,
	}
}

// ============================================================
// Engine
// ============================================================

// Engine — конечный автомат редактора. Единственный писатель сцены кроме
// прямых сеттеров панели свойств.
type Engine struct {
	scene    *scene.Scene
	history  *history.Manager[scene.Snapshot]
	viewport *viewport.Viewport
	opts     Options

	editMode bool
	state    State

	// активная цель перетаскивания (не больше одной)
	target     string
	grabOffset models.Point
	origin     models.Point
	lastScreen models.Point
	lasso      models.Rect
	additive   bool
	guides     []geometry.Guide

	// снимок до начала манипуляции; в историю уходит при первом изменении
	pending    *scene.Snapshot
	pendingGen uint64
}

func New(sc *scene.Scene, h *history.Manager[scene.Snapshot], vp *viewport.Viewport, opts Options) *Engine {
	if opts.RotationStep <= 0 {
		opts.RotationStep = geometry.DefaultRotationStep
	}
	if opts.GuideTolerance < 0 {
		opts.GuideTolerance = geometry.DefaultGuideTolerance
	}
	return &Engine{
		scene:    sc,
		history:  h,
		viewport: vp,
		opts:     opts,
		state:    StateIdle,
	}
}

func (e *Engine) State() State                 { return e.state }
func (e *Engine) Target() string               { return e.target }
func (e *Engine) EditMode() bool               { return e.editMode }
func (e *Engine) Options() Options             { return e.opts }
func (e *Engine) Scene() *scene.Scene          { return e.scene }
func (e *Engine) Viewport() *viewport.Viewport { return e.viewport }

func (e *Engine) History() *history.Manager[scene.Snapshot] { return e.history }

// Guides — направляющие текущего перетаскивания; после отпускания пусто.
func (e *Engine) Guides() []geometry.Guide {
	return append([]geometry.Guide(nil), e.guides...)
}

// Lasso возвращает прямоугольник лассо, пока оно активно.
func (e *Engine) Lasso() (models.Rect, bool) {
	return e.lasso, e.state == StateLassoSelecting
}

func (e *Engine) SetEditMode(on bool) {
	if !on {
		e.reset()
	}
	e.editMode = on
}

func (e *Engine) SetSnap(on bool)             { e.opts.Snap = on }
func (e *Engine) SetCanvasSize(s models.Size) { e.opts.CanvasSize = s }

func (e *Engine) SetGridSize(size float64) {
	if size > 0 {
		e.opts.GridSize = size
	}
}

// Dispatch обрабатывает одно событие синхронно.
func (e *Engine) Dispatch(ev Event) {
	switch ev.Type {
	case PointerDown:
		e.pointerDown(ev)
	case PointerMove:
		e.pointerMove(ev)
	case PointerUp, PointerLeave:
		e.pointerUp(ev)
	case Wheel:
		e.viewport.Wheel(ev.X, ev.Y, ev.DeltaY)
	case KeyDown:
		e.keyDown(ev)
	}
}

// ============================================================
// Pointer down
// ============================================================

func (e *Engine) pointerDown(ev Event) {
	if e.state != StateIdle {
		// пропущенный pointer-up: закрываем предыдущую манипуляцию
		e.finish()
	}

	if ev.Modifiers.Pan {
		e.state = StatePanning
		e.lastScreen = models.Point{X: ev.X, Y: ev.Y}
		return
	}

	p := e.viewport.ScreenToScene(ev.X, ev.Y)
	sel := e.scene.Selection()
	hit := e.scene.HitTest(p)

	if !e.editMode {
		// режим просмотра: клик выбирает юнит для меню действий
		if hit.Kind == scene.HitUnit {
			sel.SelectUnits(hit.ID)
		} else {
			sel.Clear()
		}
		return
	}

	switch hit.Kind {
	case scene.HitRotateHandle:
		e.begin(StateRotatingEntity, hit.ID)

	case scene.HitUnit:
		if ev.Modifiers.Additive {
			sel.ToggleUnit(hit.ID)
			if !sel.HasUnit(hit.ID) {
				return
			}
		} else if !sel.HasUnit(hit.ID) {
			sel.SelectUnits(hit.ID)
		}
		u, _ := e.scene.Unit(hit.ID)
		e.grabOffset = models.Point{X: p.X - u.X, Y: p.Y - u.Y}
		e.begin(StateDraggingEntity, hit.ID)

	case scene.HitDecor:
		sel.SelectDecor(hit.ID)
		d, _ := e.scene.Decor(hit.ID)
		e.grabOffset = models.Point{X: p.X - d.X, Y: p.Y - d.Y}
		e.begin(StateDraggingDecor, hit.ID)

	case scene.HitZoneResize:
		sel.SelectZone(hit.ID)
		e.begin(StateResizingZone, hit.ID)

	case scene.HitZoneHeader:
		sel.SelectZone(hit.ID)
		z, _ := e.scene.Zone(hit.ID)
		e.grabOffset = models.Point{X: p.X - z.X, Y: p.Y - z.Y}
		e.begin(StateDraggingZone, hit.ID)

	default:
		// пустой холст: сброс выделения и старт лассо
		if !ev.Modifiers.Additive {
			sel.Clear()
		}
		e.state = StateLassoSelecting
		e.additive = ev.Modifiers.Additive
		e.origin = p
		e.lasso = models.Rect{X: p.X, Y: p.Y}
	}
}

// begin входит в состояние манипуляции и запоминает снимок до неё.
func (e *Engine) begin(state State, target string) {
	snap := e.scene.Snapshot()
	e.pending = &snap
	e.pendingGen = e.scene.Generation()
	e.state = state
	e.target = target
}

// commitPending отправляет снимок до манипуляции в историю после первого
// реального изменения сцены.
func (e *Engine) commitPending() {
	if e.pending == nil || e.scene.Generation() == e.pendingGen {
		return
	}
	e.history.Push(*e.pending)
	e.pending = nil
}

// ============================================================
// Pointer move
// ============================================================

func (e *Engine) pointerMove(ev Event) {
	if e.state == StatePanning {
		e.viewport.PanBy(ev.X-e.lastScreen.X, ev.Y-e.lastScreen.Y, e.opts.CanvasSize, e.viewport.Size())
		e.lastScreen = models.Point{X: ev.X, Y: ev.Y}
		return
	}

	p := e.viewport.ScreenToScene(ev.X, ev.Y)

	switch e.state {
	case StateDraggingEntity:
		e.dragUnits(p)
	case StateDraggingDecor:
		e.dragDecor(p)
	case StateDraggingZone:
		e.dragZone(p)
	case StateResizingZone:
		e.resizeZone(p)
	case StateRotatingEntity:
		e.rotateUnit(p, ev.Modifiers.Precision)
	case StateLassoSelecting:
		e.lasso = models.RectFromPoints(e.origin, p)
	}

	e.commitPending()
}

func (e *Engine) snap(v float64) float64 {
	return geometry.Snap(v, e.opts.GridSize, e.opts.Snap)
}

// dragUnits двигает цель; при мультивыделении ту же дельту получают все выбранные.
func (e *Engine) dragUnits(p models.Point) {
	u, ok := e.scene.Unit(e.target)
	if !ok {
		e.reset()
		return
	}
	nx := e.snap(p.X - e.grabOffset.X)
	ny := e.snap(p.Y - e.grabOffset.Y)
	dx, dy := nx-u.X, ny-u.Y

	sel := e.scene.Selection()
	ids := []string{e.target}
	if sel.Len() > 1 && sel.HasUnit(e.target) {
		ids = sel.Units()
	}
	if dx != 0 || dy != 0 {
		for _, id := range ids {
			e.scene.UpdateUnit(id, func(u *models.SeatingUnit) {
				u.X += dx
				u.Y += dy
			})
		}
	}

	moved, _ := e.scene.Unit(e.target)
	var others []geometry.Box
	for _, o := range e.scene.Units() {
		if !sel.HasUnit(o.ID) && o.ID != e.target {
			others = append(others, geometry.BoxOf(o.ID, o.Bounds()))
		}
	}
	for _, d := range e.scene.DecorElements() {
		others = append(others, geometry.BoxOf(d.ID, d.Bounds()))
	}
	e.guides = geometry.DetectAlignmentGuides(geometry.BoxOf(moved.ID, moved.Bounds()), others, e.opts.GuideTolerance)
}

func (e *Engine) dragDecor(p models.Point) {
	nx := e.snap(p.X - e.grabOffset.X)
	ny := e.snap(p.Y - e.grabOffset.Y)
	if !e.scene.UpdateDecor(e.target, func(d *models.DecorElement) {
		d.X = nx
		d.Y = ny
	}) {
		e.reset()
		return
	}

	moved, _ := e.scene.Decor(e.target)
	var others []geometry.Box
	for _, u := range e.scene.Units() {
		others = append(others, geometry.BoxOf(u.ID, u.Bounds()))
	}
	for _, d := range e.scene.DecorElements() {
		if d.ID != e.target {
			others = append(others, geometry.BoxOf(d.ID, d.Bounds()))
		}
	}
	e.guides = geometry.DetectAlignmentGuides(geometry.BoxOf(moved.ID, moved.Bounds()), others, e.opts.GuideTolerance)
}

func (e *Engine) dragZone(p models.Point) {
	nx := e.snap(p.X - e.grabOffset.X)
	ny := e.snap(p.Y - e.grabOffset.Y)
	if !e.scene.UpdateZone(e.target, func(z *models.ZoneRegion) {
		z.X = nx
		z.Y = ny
	}) {
		e.reset()
		return
	}

	moved, _ := e.scene.Zone(e.target)
	var others []geometry.Box
	for _, z := range e.scene.Zones() {
		if z.ID != e.target {
			others = append(others, geometry.BoxOf(z.ID, z.Bounds()))
		}
	}
	e.guides = geometry.DetectAlignmentGuides(geometry.BoxOf(moved.ID, moved.Bounds()), others, e.opts.GuideTolerance)
}

// resizeZone: левый верхний угол закреплён, минимумы зажимаются молча.
func (e *Engine) resizeZone(p models.Point) {
	z, ok := e.scene.Zone(e.target)
	if !ok {
		e.reset()
		return
	}
	w := math.Max(models.MinZoneWidth, e.snap(p.X-z.X))
	h := math.Max(models.MinZoneHeight, e.snap(p.Y-z.Y))
	e.scene.UpdateZone(e.target, func(z *models.ZoneRegion) {
		z.Width = w
		z.Height = h
	})
}

func (e *Engine) rotateUnit(p models.Point, precision bool) {
	u, ok := e.scene.Unit(e.target)
	if !ok {
		e.reset()
		return
	}
	angle := geometry.RotationAngle(u.Center(), p, precision, e.opts.RotationStep)
	e.scene.UpdateUnit(e.target, func(u *models.SeatingUnit) { u.Rotation = angle })
}

// ============================================================
// Pointer up / keys
// ============================================================

func (e *Engine) pointerUp(ev Event) {
	if e.state == StateIdle {
		return
	}
	if e.state == StateLassoSelecting && ev.Type == PointerUp {
		e.lasso = models.RectFromPoints(e.origin, e.viewport.ScreenToScene(ev.X, ev.Y))
	}
	e.finish()
}

// finish завершает текущее состояние и возвращает автомат в idle.
func (e *Engine) finish() {
	switch e.state {
	case StateDraggingEntity:
		if e.scene.Selection().Len() <= 1 {
			if tag, changed := e.scene.AssignZone(e.target); changed {
				log.Printf("[EDITOR] unit %s moved to zone %s", e.target, tag)
			}
		}
		e.commitPending()

	case StateLassoSelecting:
		sel := e.scene.Selection()
		ids := e.scene.UnitsIntersecting(e.lasso)
		if e.additive {
			ids = append(sel.Units(), ids...)
		}
		sel.SelectUnits(ids...)
	}
	e.reset()
}

func (e *Engine) reset() {
	e.state = StateIdle
	e.target = ""
	e.guides = nil
	e.lasso = models.Rect{}
	e.additive = false
	e.pending = nil
}

func (e *Engine) keyDown(ev Event) {
	switch ev.Key {
	case "Escape":
		e.reset()
		e.scene.Selection().Clear()
	case "Delete", "Backspace":
		if e.editMode && e.state == StateIdle {
			e.DeleteSelection()
		}
	}
}
