package interaction

import (
	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/models"
)

// ============================================================
// Commands (toolbar / property panel)
// ============================================================

// record выполняет изменение сцены; если сцена изменилась, снимок до
// изменения уходит в историю.
func (e *Engine) record(fn func()) bool {
	if e.state != StateIdle {
		e.finish()
	}
	before := e.scene.Snapshot()
	gen := e.scene.Generation()
	fn()
	if e.scene.Generation() == gen {
		return false
	}
	e.history.Push(before)
	return true
}

// Undo восстанавливает предыдущий снимок. Пустая история — no-op.
func (e *Engine) Undo() bool {
	e.reset()
	prev, ok := e.history.Undo(e.scene.Snapshot())
	if !ok {
		return false
	}
	e.scene.Restore(prev)
	return true
}

func (e *Engine) Redo() bool {
	e.reset()
	next, ok := e.history.Redo(e.scene.Snapshot())
	if !ok {
		return false
	}
	e.scene.Restore(next)
	return true
}

func (e *Engine) selectedBoxes() []geometry.Box {
	var boxes []geometry.Box
	for _, id := range e.scene.Selection().Units() {
		if u, ok := e.scene.Unit(id); ok {
			boxes = append(boxes, geometry.BoxOf(u.ID, u.Bounds()))
		}
	}
	return boxes
}

func (e *Engine) applyPositions(pos map[string]models.Point) {
	for id, p := range pos {
		e.scene.MoveUnit(id, p.X, p.Y)
	}
}

// Align выравнивает выбранные юниты. Меньше двух — no-op.
func (e *Engine) Align(mode geometry.AlignMode) bool {
	if !mode.Valid() {
		return false
	}
	boxes := e.selectedBoxes()
	if len(boxes) < 2 {
		return false
	}
	return e.record(func() {
		e.applyPositions(geometry.AlignEntities(boxes, mode))
	})
}

// Distribute раскладывает выбранные юниты с равным шагом. Меньше трёх — no-op.
func (e *Engine) Distribute(axis geometry.Axis) bool {
	if axis != geometry.AxisHorizontal && axis != geometry.AxisVertical {
		return false
	}
	boxes := e.selectedBoxes()
	if len(boxes) < 3 {
		return false
	}
	return e.record(func() {
		e.applyPositions(geometry.DistributeEntities(boxes, axis))
	})
}

// Combine объединяет выбранные юниты; ведущий — первый выбранный.
func (e *Engine) Combine() (string, bool) {
	ids := e.scene.Selection().Units()
	if len(ids) < 2 {
		return "", false
	}
	var groupID string
	e.record(func() {
		groupID, _ = e.scene.Combine(ids)
	})
	return groupID, groupID != ""
}

// Uncombine снимает группу. Пустой groupID — группа первого выбранного юнита.
func (e *Engine) Uncombine(groupID string) bool {
	if groupID == "" {
		for _, id := range e.scene.Selection().Units() {
			if u, ok := e.scene.Unit(id); ok && u.GroupID != "" {
				groupID = u.GroupID
				break
			}
		}
	}
	if groupID == "" {
		return false
	}
	return e.record(func() {
		e.scene.Uncombine(groupID)
	})
}

// DeleteSelection удаляет выбранные юниты, зону или декор.
func (e *Engine) DeleteSelection() bool {
	sel := e.scene.Selection()
	units := sel.Units()
	zone, decor := sel.ZoneID(), sel.DecorID()
	ok := e.record(func() {
		for _, id := range units {
			e.scene.RemoveUnit(id)
		}
		if zone != "" {
			e.scene.RemoveZone(zone)
		}
		if decor != "" {
			e.scene.RemoveDecor(decor)
		}
	})
	sel.Clear()
	return ok
}

func (e *Engine) AddUnit(u models.SeatingUnit) string {
	var id string
	e.record(func() { id = e.scene.AddUnit(u) })
	e.scene.Selection().SelectUnits(id)
	return id
}

func (e *Engine) AddZone(z models.ZoneRegion) string {
	var id string
	e.record(func() { id = e.scene.AddZone(z) })
	e.scene.Selection().SelectZone(id)
	return id
}

func (e *Engine) AddDecor(d models.DecorElement) string {
	var id string
	e.record(func() { id = e.scene.AddDecor(d) })
	e.scene.Selection().SelectDecor(id)
	return id
}

// UpdateUnit — правка из панели свойств; позиция и геометрия проходят
// через те же санитайзеры, что и перетаскивание.
func (e *Engine) UpdateUnit(id string, fn func(u *models.SeatingUnit)) bool {
	return e.record(func() { e.scene.UpdateUnit(id, fn) })
}

func (e *Engine) UpdateZone(id string, fn func(z *models.ZoneRegion)) bool {
	return e.record(func() { e.scene.UpdateZone(id, fn) })
}

func (e *Engine) UpdateDecor(id string, fn func(d *models.DecorElement)) bool {
	return e.record(func() { e.scene.UpdateDecor(id, fn) })
}

// LoadScene заменяет сцену целиком (шаблон или импорт); замену можно отменить.
func (e *Engine) LoadScene(data models.SceneData) {
	e.record(func() { e.scene.Replace(data) })
	e.scene.Selection().Clear()
	e.opts.CanvasSize = e.scene.Canvas()
}

func (e *Engine) FitToContent() {
	e.viewport.FitToContent(e.scene.ContentBounds())
}
