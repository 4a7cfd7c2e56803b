package interaction

import (
	"math"
	"slices"
	"testing"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/history"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/scene"
	"venue-editor/internal/editor/viewport"
)

func newEngine(grid float64) *Engine {
	opts := DefaultOptions()
	opts.GridSize = grid
	e := New(scene.New(), history.New[scene.Snapshot](50), viewport.New(viewport.Config{Width: 800, Height: 600}), opts)
	e.SetEditMode(true)
	return e
}

func tbl(id string, x, y float64) models.SeatingUnit {
	return models.SeatingUnit{ID: id, Name: id, X: x, Y: y, Width: 40, Height: 40, Shape: models.ShapeSquare, MinCovers: 2, MaxCovers: 4}
}

func down(e *Engine, x, y float64, mods Modifiers) {
	e.Dispatch(Event{Type: PointerDown, X: x, Y: y, Modifiers: mods})
}

func move(e *Engine, x, y float64, mods Modifiers) {
	e.Dispatch(Event{Type: PointerMove, X: x, Y: y, Modifiers: mods})
}

func up(e *Engine, x, y float64) {
	e.Dispatch(Event{Type: PointerUp, X: x, Y: y})
}

func TestDrag_SnapsToGrid(t *testing.T) {
	e := newEngine(50)
	e.Scene().Load(models.SceneData{SeatingUnits: []models.SeatingUnit{tbl("t1", 0, 0)}})

	down(e, 10, 10, Modifiers{})
	if e.State() != StateDraggingEntity {
		t.Fatalf("Expected dragging-entity, got %s", e.State())
	}
	move(e, 133, 197, Modifiers{})
	up(e, 133, 197)

	u, _ := e.Scene().Unit("t1")
	if u.X != 100 || u.Y != 200 {
		t.Errorf("Expected (100, 200), got (%v, %v)", u.X, u.Y)
	}
	if e.State() != StateIdle || len(e.Guides()) != 0 {
		t.Errorf("Expected idle without guides after release")
	}
	if e.History().PastLen() != 1 {
		t.Fatalf("Expected one undo step for the whole drag, got %d", e.History().PastLen())
	}

	if !e.Undo() {
		t.Fatal("Expected undo to succeed")
	}
	u, _ = e.Scene().Unit("t1")
	if u.X != 0 || u.Y != 0 {
		t.Errorf("Undo must restore pre-drag position, got (%v, %v)", u.X, u.Y)
	}
	if e.Scene().Dirty() {
		t.Error("Undo to loaded state must be clean")
	}

	e.Redo()
	u, _ = e.Scene().Unit("t1")
	if u.X != 100 || u.Y != 200 {
		t.Errorf("Redo must reapply drag, got (%v, %v)", u.X, u.Y)
	}
}

func TestClickWithoutMove_NoHistory(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("t1", 0, 0))

	down(e, 10, 10, Modifiers{})
	up(e, 10, 10)

	if e.History().CanUndo() {
		t.Error("Selecting click must not leave an undo step")
	}
	if !e.Scene().Selection().HasUnit("t1") {
		t.Error("Expected t1 to be selected")
	}
}

func TestDrag_BulkMovesSelection(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))
	e.Scene().AddUnit(tbl("b", 100, 0))
	e.Scene().AddUnit(tbl("c", 400, 400))

	down(e, 10, 10, Modifiers{})
	up(e, 10, 10)
	down(e, 110, 10, Modifiers{Additive: true})
	up(e, 110, 10)
	if got := e.Scene().Selection().Units(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Expected [a b] selected, got %v", got)
	}

	down(e, 10, 10, Modifiers{})
	move(e, 70, 50, Modifiers{})
	up(e, 70, 50)

	a, _ := e.Scene().Unit("a")
	b, _ := e.Scene().Unit("b")
	c, _ := e.Scene().Unit("c")
	if a.X != 60 || a.Y != 40 || b.X != 160 || b.Y != 40 {
		t.Errorf("Expected a(60,40) b(160,40), got a(%v,%v) b(%v,%v)", a.X, a.Y, b.X, b.Y)
	}
	if c.X != 400 || c.Y != 400 {
		t.Errorf("Unselected unit moved: %+v", c)
	}
}

func TestDrag_GuidesAgainstOthers(t *testing.T) {
	e := newEngine(20)
	e.SetSnap(false)
	e.Scene().AddUnit(tbl("a", 0, 0))
	e.Scene().AddUnit(tbl("b", 200, 100))

	down(e, 10, 10, Modifiers{})
	move(e, 12, 111, Modifiers{})

	guides := e.Guides()
	found := false
	for _, g := range guides {
		if g.Axis == geometry.AxisHorizontal && g.Position == 100 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected horizontal guide at 100, got %v", guides)
	}
	up(e, 12, 111)
	if len(e.Guides()) != 0 {
		t.Error("Guides must be discarded on drag end")
	}
}

func TestDragEnd_AssignsZone(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddZone(models.ZoneRegion{ID: "z", X: 0, Y: 0, Width: 400, Height: 300, Category: models.ZoneTerrace})
	e.Scene().AddUnit(tbl("u", 500, 100))

	down(e, 510, 110, Modifiers{})
	move(e, 210, 110, Modifiers{})
	up(e, 210, 110)

	u, _ := e.Scene().Unit("u")
	if u.Zone != models.ZoneTerrace {
		t.Errorf("Expected terrace, got %s", u.Zone)
	}

	e.Undo()
	u, _ = e.Scene().Unit("u")
	if u.Zone != models.ZoneMain || u.X != 500 {
		t.Errorf("Undo must restore position and zone, got %+v", u)
	}
}

func TestResizeZone_ClampsMinimums(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddZone(models.ZoneRegion{ID: "z", X: 0, Y: 0, Width: 400, Height: 300})

	down(e, 395, 295, Modifiers{})
	if e.State() != StateResizingZone {
		t.Fatalf("Expected resizing-zone, got %s", e.State())
	}
	move(e, 30, 30, Modifiers{})
	z, _ := e.Scene().Zone("z")
	if z.X != 0 || z.Y != 0 || z.Width != models.MinZoneWidth || z.Height != models.MinZoneHeight {
		t.Errorf("Expected anchored %vx%v, got %+v", models.MinZoneWidth, models.MinZoneHeight, z)
	}

	move(e, 247, 193, Modifiers{})
	up(e, 247, 193)
	z, _ = e.Scene().Zone("z")
	if z.Width != 240 || z.Height != 200 {
		t.Errorf("Expected 240x200, got %vx%v", z.Width, z.Height)
	}
}

func TestDragZone_ByHeader(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddZone(models.ZoneRegion{ID: "z", X: 0, Y: 0, Width: 400, Height: 300})

	down(e, 100, 10, Modifiers{})
	if e.State() != StateDraggingZone {
		t.Fatalf("Expected dragging-zone, got %s", e.State())
	}
	move(e, 160, 50, Modifiers{})
	up(e, 160, 50)

	z, _ := e.Scene().Zone("z")
	if z.X != 60 || z.Y != 40 {
		t.Errorf("Expected zone at (60,40), got (%v,%v)", z.X, z.Y)
	}
}

func TestRotate(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("u", 100, 100))
	e.Scene().Selection().SelectUnits("u")

	down(e, 120, 76, Modifiers{})
	if e.State() != StateRotatingEntity {
		t.Fatalf("Expected rotating-entity, got %s", e.State())
	}

	move(e, 170, 125, Modifiers{})
	u, _ := e.Scene().Unit("u")
	expected := math.Atan2(5, 50)*180/math.Pi + 90
	if math.Abs(u.Rotation-expected) > 1e-9 {
		t.Errorf("Expected %v, got %v", expected, u.Rotation)
	}

	move(e, 170, 125, Modifiers{Precision: true})
	up(e, 170, 125)
	u, _ = e.Scene().Unit("u")
	if u.Rotation != 90 {
		t.Errorf("Expected 90 with precision, got %v", u.Rotation)
	}
}

func TestLasso_ReplacesSelection(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(models.SeatingUnit{ID: "a", X: 0, Y: 0, Width: 20, Height: 20})
	e.Scene().AddUnit(models.SeatingUnit{ID: "b", X: 50, Y: 50, Width: 20, Height: 20})
	e.Scene().AddUnit(models.SeatingUnit{ID: "c", X: 300, Y: 300, Width: 20, Height: 20})
	e.Scene().Selection().SelectUnits("c")

	down(e, -10, -10, Modifiers{})
	if e.State() != StateLassoSelecting {
		t.Fatalf("Expected lasso-selecting, got %s", e.State())
	}
	move(e, 60, 60, Modifiers{})
	if r, ok := e.Lasso(); !ok || r.Width != 70 || r.Height != 70 {
		t.Errorf("Expected active 70x70 lasso, got %v %v", r, ok)
	}
	up(e, 60, 60)

	if got := e.Scene().Selection().Units(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", got)
	}
	if e.History().CanUndo() {
		t.Error("Lasso must not touch history")
	}
}

func TestEscape_ClearsStateAndSelection(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))

	down(e, 10, 10, Modifiers{})
	e.Dispatch(Event{Type: KeyDown, Key: "Escape"})

	if e.State() != StateIdle || e.Scene().Selection().Len() != 0 {
		t.Errorf("Expected idle and empty selection, got %s / %d", e.State(), e.Scene().Selection().Len())
	}
}

func TestDeleteKey(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))
	e.Scene().Selection().SelectUnits("a")

	e.Dispatch(Event{Type: KeyDown, Key: "Delete"})
	if len(e.Scene().Units()) != 0 {
		t.Fatal("Expected unit removed")
	}
	e.Undo()
	if len(e.Scene().Units()) != 1 {
		t.Error("Expected delete to be undoable")
	}
}

func TestViewMode_NoManipulation(t *testing.T) {
	e := newEngine(20)
	e.SetEditMode(false)
	e.Scene().AddUnit(tbl("a", 0, 0))

	down(e, 10, 10, Modifiers{})
	move(e, 200, 200, Modifiers{})
	up(e, 200, 200)

	u, _ := e.Scene().Unit("a")
	if u.X != 0 || e.State() != StateIdle {
		t.Errorf("View mode must not drag, got %+v", u)
	}
	if !e.Scene().Selection().HasUnit("a") {
		t.Error("View mode click must still select the unit")
	}
}

func TestPanning_NoHistory(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))

	down(e, 10, 10, Modifiers{Pan: true})
	if e.State() != StatePanning {
		t.Fatalf("Expected panning, got %s", e.State())
	}
	move(e, 60, 30, Modifiers{Pan: true})
	up(e, 60, 30)

	if p := e.Viewport().Pan(); p.X != 50 || p.Y != 20 {
		t.Errorf("Expected pan (50,20), got %v", p)
	}
	u, _ := e.Scene().Unit("a")
	if u.X != 0 || e.History().CanUndo() {
		t.Error("Panning must not move entities or push history")
	}
}

func TestWheel_ZoomsAtCursor(t *testing.T) {
	e := newEngine(20)
	before := e.Viewport().ScreenToScene(300, 200)
	e.Dispatch(Event{Type: Wheel, X: 300, Y: 200, DeltaY: -1})
	after := e.Viewport().ScreenToScene(300, 200)

	if math.Abs(e.Viewport().Zoom()-1.1) > 1e-9 {
		t.Errorf("Expected zoom 1.1, got %v", e.Viewport().Zoom())
	}
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("Anchor moved: %v -> %v", before, after)
	}
}

func TestAlignCommand(t *testing.T) {
	e := newEngine(20)
	for i, x := range []float64{0, 50, 300, 310} {
		e.Scene().AddUnit(models.SeatingUnit{ID: string(rune('a' + i)), X: x, Y: float64(i * 60), Width: 40, Height: 40})
	}
	e.Scene().Selection().SelectUnits("a", "b", "c", "d")

	if !e.Align(geometry.AlignCenter) {
		t.Fatal("Expected align to change the scene")
	}
	mean := (20.0 + 70 + 320 + 330) / 4
	for _, u := range e.Scene().Units() {
		if c := u.Center().X; math.Abs(c-mean) > 1e-9 {
			t.Errorf("%s: expected center %v, got %v", u.ID, mean, c)
		}
	}
	if e.History().PastLen() != 1 {
		t.Errorf("Expected one undo step, got %d", e.History().PastLen())
	}
}

func TestPreconditions_NoOp(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))
	e.Scene().AddUnit(tbl("b", 100, 0))
	e.Scene().Selection().SelectUnits("a", "b")

	if e.Distribute(geometry.AxisHorizontal) {
		t.Error("Distribute with two units must be a no-op")
	}
	if e.Undo() || e.Redo() {
		t.Error("Undo/redo on empty history must be a no-op")
	}
	e.Scene().Selection().SelectUnits("a")
	if e.Align(geometry.AlignLeft) {
		t.Error("Align with one unit must be a no-op")
	}
}

func TestCombineCommand_Undoable(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))
	e.Scene().AddUnit(tbl("b", 100, 0))
	e.Scene().Selection().SelectUnits("a", "b")

	groupID, ok := e.Combine()
	if !ok {
		t.Fatal("Expected combine")
	}
	b, _ := e.Scene().Unit("b")
	if b.GroupID != groupID || !b.Blocked {
		t.Errorf("Expected b grouped and blocked, got %+v", b)
	}

	e.Scene().Selection().SelectUnits("b")
	if !e.Uncombine("") {
		t.Fatal("Expected uncombine via selection")
	}
	b, _ = e.Scene().Unit("b")
	if b.GroupID != "" || b.Blocked {
		t.Errorf("Expected b released, got %+v", b)
	}
	if e.History().PastLen() != 2 {
		t.Errorf("Expected two undo steps, got %d", e.History().PastLen())
	}
}

func TestLoadScene_Undoable(t *testing.T) {
	e := newEngine(20)
	e.Scene().Load(models.SceneData{SeatingUnits: []models.SeatingUnit{tbl("old", 0, 0)}})

	e.LoadScene(models.SceneData{
		SeatingUnits: []models.SeatingUnit{tbl("n1", 0, 0), tbl("n2", 100, 0)},
		CanvasSize:   models.Size{Width: 1200, Height: 800},
	})
	if len(e.Scene().Units()) != 2 || !e.Scene().Dirty() {
		t.Fatal("Expected replaced, dirty scene")
	}
	if e.Options().CanvasSize.Width != 1200 {
		t.Errorf("Expected canvas size picked up, got %v", e.Options().CanvasSize)
	}

	e.Undo()
	if _, ok := e.Scene().Unit("old"); !ok || e.Scene().Dirty() {
		t.Error("Undo must restore the previous scene")
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	e := newEngine(20)
	e.Scene().AddUnit(tbl("a", 0, 0))

	var states []float64
	for i := 1; i <= 5; i++ {
		states = append(states, mustUnit(t, e, "a").X)
		e.UpdateUnit("a", func(u *models.SeatingUnit) { u.X = float64(i * 20) })
	}
	final := mustUnit(t, e, "a").X

	for i := 4; i >= 0; i-- {
		e.Undo()
		if got := mustUnit(t, e, "a").X; got != states[i] {
			t.Fatalf("undo %d: expected %v, got %v", i, states[i], got)
		}
	}
	for range 5 {
		e.Redo()
	}
	if got := mustUnit(t, e, "a").X; got != final {
		t.Errorf("Expected %v after redo, got %v", final, got)
	}
	if e.History().PastLen() != 5 || e.History().FutureLen() != 0 {
		t.Errorf("Expected 5/0 stacks, got %d/%d", e.History().PastLen(), e.History().FutureLen())
	}
}

func mustUnit(t *testing.T, e *Engine, id string) models.SeatingUnit {
	t.Helper()
	u, ok := e.Scene().Unit(id)
	if !ok {
		t.Fatalf("unit %s not found", id)
	}
	return u
}

func TestDragDecor(t *testing.T) {
	e := newEngine(20)
	e.Scene().Load(models.SceneData{DecorElements: []models.DecorElement{
		{ID: "stage", Type: models.DecorStage, X: 200, Y: 200, Width: 100, Height: 50},
	}})

	down(e, 210, 210, Modifiers{})
	if e.State() != StateDraggingDecor || e.Scene().Selection().DecorID() != "stage" {
		t.Fatalf("Expected dragging-decor with stage selected, got %s", e.State())
	}
	move(e, 253, 287, Modifiers{})
	up(e, 253, 287)

	d, _ := e.Scene().Decor("stage")
	if d.X != 240 || d.Y != 280 {
		t.Errorf("Expected (240, 280), got (%v, %v)", d.X, d.Y)
	}
	if e.History().PastLen() != 1 {
		t.Errorf("Expected one undo step, got %d", e.History().PastLen())
	}
}
