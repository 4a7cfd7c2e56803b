package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/scene"
)

// ============================================================
// Persistence Service
// ============================================================

// Service — внешнее хранилище планов. Источник истины только при загрузке
// и в момент явного сохранения.
type Service interface {
	LoadScene(ctx context.Context, venueID string) (models.SceneData, error)
	SaveScene(ctx context.Context, patch models.ScenePatch) error
}

// ErrNotFound — у площадки ещё нет сохранённого плана.
var ErrNotFound = errors.New("layout not found")

// Error — сбой обращения к хранилищу. Локальное состояние при этом
// не трогается.
type Error struct {
	Op      string
	VenueID string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.VenueID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// BuildPatch собирает пакет для saveScene: изменённая геометрия юнитов
// и зон, удалённые id и весь декор одним JSON блобом.
func BuildPatch(venueID, layoutID string, ch scene.Changes) (models.ScenePatch, error) {
	decor := ch.Decor
	if decor == nil {
		decor = []models.DecorElement{}
	}
	blob, err := json.Marshal(decor)
	if err != nil {
		return models.ScenePatch{}, fmt.Errorf("marshal decor: %w", err)
	}
	return models.ScenePatch{
		VenueID:        venueID,
		LayoutID:       layoutID,
		SeatingUnits:   ch.Units,
		ZoneRegions:    ch.Zones,
		RemovedUnitIDs: ch.RemovedUnits,
		RemovedZoneIDs: ch.RemovedZones,
		Decor:          blob,
		CanvasSize:     ch.Canvas,
	}, nil
}

// ============================================================
// In-memory store
// ============================================================

// Memory — хранилище в памяти для локальной работы без сервиса планов.
type Memory struct {
	mu     sync.Mutex
	scenes map[string]models.SceneData
}

func NewMemory() *Memory {
	return &Memory{scenes: map[string]models.SceneData{}}
}

func (m *Memory) LoadScene(_ context.Context, venueID string) (models.SceneData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.scenes[venueID]
	if !ok {
		return models.SceneData{}, &Error{Op: "load", VenueID: venueID, Err: ErrNotFound}
	}
	return cloneData(data), nil
}

func (m *Memory) SaveScene(_ context.Context, patch models.ScenePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := ApplyPatch(m.scenes[patch.VenueID], patch)
	if err != nil {
		return &Error{Op: "save", VenueID: patch.VenueID, Err: err}
	}
	m.scenes[patch.VenueID] = data
	return nil
}

// ApplyPatch применяет пакет к сохранённым данным: upsert по id,
// удаление по спискам, декор заменяется целиком.
func ApplyPatch(data models.SceneData, patch models.ScenePatch) (models.SceneData, error) {
	out := cloneData(data)
	out.VenueID = patch.VenueID
	if patch.LayoutID != "" {
		out.LayoutID = patch.LayoutID
	}
	out.CanvasSize = patch.CanvasSize

	out.SeatingUnits = upsert(out.SeatingUnits, patch.SeatingUnits, patch.RemovedUnitIDs,
		func(u models.SeatingUnit) string { return u.ID })
	out.ZoneRegions = upsert(out.ZoneRegions, patch.ZoneRegions, patch.RemovedZoneIDs,
		func(z models.ZoneRegion) string { return z.ID })

	if len(patch.Decor) > 0 {
		var decor []models.DecorElement
		if err := json.Unmarshal(patch.Decor, &decor); err != nil {
			return models.SceneData{}, fmt.Errorf("decode decor: %w", err)
		}
		out.DecorElements = decor
	}
	return out, nil
}

func upsert[T any](items, changed []T, removed []string, id func(T) string) []T {
	drop := make(map[string]bool, len(removed))
	for _, r := range removed {
		drop[r] = true
	}
	index := map[string]int{}
	out := make([]T, 0, len(items)+len(changed))
	for _, it := range items {
		if drop[id(it)] {
			continue
		}
		index[id(it)] = len(out)
		out = append(out, it)
	}
	for _, c := range changed {
		if i, ok := index[id(c)]; ok {
			out[i] = c
			continue
		}
		index[id(c)] = len(out)
		out = append(out, c)
	}
	return out
}

func cloneData(d models.SceneData) models.SceneData {
	d.SeatingUnits = append([]models.SeatingUnit(nil), d.SeatingUnits...)
	d.ZoneRegions = append([]models.ZoneRegion(nil), d.ZoneRegions...)
	d.DecorElements = append([]models.DecorElement(nil), d.DecorElements...)
	return d
}
