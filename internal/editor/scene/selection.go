package scene

import "slices"

// ============================================================
// Selection
// ============================================================

type SelectionKind string

const (
	SelectionNone  SelectionKind = "none"
	SelectionUnits SelectionKind = "units"
	SelectionZone  SelectionKind = "zone"
	SelectionDecor SelectionKind = "decor"
)

// Selection: набор юнитов, ИЛИ одна зона, ИЛИ один элемент декора.
type Selection struct {
	units []string
	zone  string
	decor string
}

func (s *Selection) Kind() SelectionKind {
	switch {
	case len(s.units) > 0:
		return SelectionUnits
	case s.zone != "":
		return SelectionZone
	case s.decor != "":
		return SelectionDecor
	}
	return SelectionNone
}

// Units возвращает выбранные юниты в порядке выбора.
func (s *Selection) Units() []string { return slices.Clone(s.units) }

func (s *Selection) ZoneID() string  { return s.zone }
func (s *Selection) DecorID() string { return s.decor }

func (s *Selection) HasUnit(id string) bool { return slices.Contains(s.units, id) }

func (s *Selection) Len() int {
	switch s.Kind() {
	case SelectionUnits:
		return len(s.units)
	case SelectionNone:
		return 0
	}
	return 1
}

// SelectUnits заменяет выделение набором юнитов (дубликаты отбрасываются).
func (s *Selection) SelectUnits(ids ...string) {
	s.Clear()
	for _, id := range ids {
		if id != "" && !slices.Contains(s.units, id) {
			s.units = append(s.units, id)
		}
	}
}

// ToggleUnit добавляет или убирает юнит (shift-click).
func (s *Selection) ToggleUnit(id string) {
	s.zone = ""
	s.decor = ""
	if i := slices.Index(s.units, id); i >= 0 {
		s.units = slices.Delete(s.units, i, i+1)
		return
	}
	s.units = append(s.units, id)
}

func (s *Selection) SelectZone(id string) {
	s.Clear()
	s.zone = id
}

func (s *Selection) SelectDecor(id string) {
	s.Clear()
	s.decor = id
}

func (s *Selection) Clear() {
	s.units = nil
	s.zone = ""
	s.decor = ""
}

func (s *Selection) dropUnit(id string) {
	if i := slices.Index(s.units, id); i >= 0 {
		s.units = slices.Delete(s.units, i, i+1)
	}
}
