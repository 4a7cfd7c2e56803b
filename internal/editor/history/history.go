package history

// ============================================================
// History Manager
// ============================================================

const DefaultCapacity = 50

// Manager — две ограниченные стопки снимков (past / future).
// Тип снимка задаёт вызывающий код; выделение и viewport в снимок не входят.
type Manager[S any] struct {
	past     []S
	future   []S
	capacity int
}

func New[S any](capacity int) *Manager[S] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager[S]{capacity: capacity}
}

// Push кладёт снимок в past и сбрасывает redo-историю.
func (m *Manager[S]) Push(s S) {
	m.past = pushBounded(m.past, s, m.capacity)
	// обнуляем, чтобы массив не держал отброшенные снимки
	clear(m.future)
	m.future = m.future[:0]
}

// Undo снимает последний снимок, current уходит в future.
// false — история пуста, ничего не делаем.
func (m *Manager[S]) Undo(current S) (S, bool) {
	var zero S
	if len(m.past) == 0 {
		return zero, false
	}
	last := m.past[len(m.past)-1]
	m.past[len(m.past)-1] = zero
	m.past = m.past[:len(m.past)-1]
	m.future = pushBounded(m.future, current, m.capacity)
	return last, true
}

func (m *Manager[S]) Redo(current S) (S, bool) {
	var zero S
	if len(m.future) == 0 {
		return zero, false
	}
	next := m.future[len(m.future)-1]
	m.future[len(m.future)-1] = zero
	m.future = m.future[:len(m.future)-1]
	m.past = pushBounded(m.past, current, m.capacity)
	return next, true
}

func (m *Manager[S]) CanUndo() bool { return len(m.past) > 0 }
func (m *Manager[S]) CanRedo() bool { return len(m.future) > 0 }
func (m *Manager[S]) PastLen() int  { return len(m.past) }
func (m *Manager[S]) FutureLen() int {
	return len(m.future)
}

func (m *Manager[S]) Clear() {
	m.past = nil
	m.future = nil
}

// pushBounded добавляет элемент, отбрасывая самый старый при переполнении.
func pushBounded[S any](stack []S, s S, capacity int) []S {
	if len(stack) >= capacity {
		var zero S
		copy(stack, stack[1:])
		stack[len(stack)-1] = zero
		stack = stack[:len(stack)-1]
	}
	return append(stack, s)
}
