package overlay

import (
	"maps"
	"sync"
	"time"

	"venue-editor/internal/editor/menu"
)

// Entry — состояние юнита в живом потоке бронирований.
type Entry struct {
	Status        menu.Status `json:"status"`
	GuestLabel    string      `json:"guest_label,omitempty"`
	StaffInitials string      `json:"staff_initials,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at,omitempty"`
}

// Overlay — read-only для редактора карта unitID → Entry. Пишут только
// источники (poller, подписка NATS), поэтому доступ под мьютексом.
type Overlay struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	updatedAt time.Time
}

func New() *Overlay {
	return &Overlay{entries: map[string]Entry{}}
}

// Replace полностью заменяет содержимое.
func (o *Overlay) Replace(entries map[string]Entry) {
	clean := make(map[string]Entry, len(entries))
	for id, e := range entries {
		clean[id] = normalize(e)
	}
	o.mu.Lock()
	o.entries = clean
	o.updatedAt = time.Now()
	o.mu.Unlock()
}

// Apply частично обновляет записи.
func (o *Overlay) Apply(updates map[string]Entry) {
	o.mu.Lock()
	for id, e := range updates {
		o.entries[id] = normalize(e)
	}
	o.updatedAt = time.Now()
	o.mu.Unlock()
}

func (o *Overlay) Get(unitID string) (Entry, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	e, ok := o.entries[unitID]
	return e, ok
}

// Status возвращает статус юнита; без записи юнит свободен.
func (o *Overlay) Status(unitID string) menu.Status {
	if e, ok := o.Get(unitID); ok {
		return e.Status
	}
	return menu.StatusAvailable
}

func (o *Overlay) Snapshot() map[string]Entry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.entries)
}

func (o *Overlay) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updatedAt
}

func normalize(e Entry) Entry {
	if !e.Status.Valid() {
		e.Status = menu.StatusAvailable
	}
	return e
}
