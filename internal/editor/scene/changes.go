package scene

import "venue-editor/internal/editor/models"

// Changes — разница между снимком и последним сохранённым состоянием.
type Changes struct {
	Units        []models.SeatingUnit
	Zones        []models.ZoneRegion
	RemovedUnits []string
	RemovedZones []string
	Decor        []models.DecorElement
	Canvas       models.Size
}

// ChangesSince сравнивает записи по указателю: неизменённая запись
// разделяется со снимком сохранения, изменённая всегда новая.
func (s *Scene) ChangesSince(snap Snapshot) Changes {
	ch := Changes{Canvas: snap.canvas, Decor: make([]models.DecorElement, 0, len(snap.decor))}

	present := map[string]bool{}
	for _, u := range snap.units {
		present[u.ID] = true
		if s.persistedUnits[u.ID] != u {
			ch.Units = append(ch.Units, *u)
		}
	}
	for id := range s.persistedUnits {
		if !present[id] {
			ch.RemovedUnits = append(ch.RemovedUnits, id)
		}
	}

	present = map[string]bool{}
	for _, z := range snap.zones {
		present[z.ID] = true
		if s.persistedZones[z.ID] != z {
			ch.Zones = append(ch.Zones, *z)
		}
	}
	for id := range s.persistedZones {
		if !present[id] {
			ch.RemovedZones = append(ch.RemovedZones, id)
		}
	}

	for _, d := range snap.decor {
		ch.Decor = append(ch.Decor, *d)
	}
	return ch
}
