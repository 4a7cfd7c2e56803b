package menu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"venue-editor/internal/editor/models"

	"github.com/google/uuid"
)

var (
	ErrClosed        = errors.New("menu is closed")
	ErrUnknownAction = errors.New("action not permitted for status")
)

// View — текущее состояние меню для отрисовки.
type View struct {
	Mode     Mode         `json:"mode"`
	EntityID string       `json:"entity_id"`
	Status   Status       `json:"status"`
	Anchor   models.Point `json:"anchor"`
	Actions  []Action     `json:"actions"`
	Sectors  []Sector     `json:"sectors,omitempty"`
	Rows     []Row        `json:"rows,omitempty"`
}

// Menu — контекстное меню одного юнита. Открыто не больше одного.
type Menu struct {
	mode    Mode
	venueID string
	sink    IntentSink

	open     bool
	entityID string
	status   Status
	anchor   models.Point
	actions  []Action
}

func New(venueID string, mode Mode, sink IntentSink) *Menu {
	return &Menu{venueID: venueID, mode: mode, sink: sink}
}

func (m *Menu) Mode() Mode        { return m.mode }
func (m *Menu) SetMode(mode Mode) { m.mode = mode }
func (m *Menu) IsOpen() bool      { return m.open }
func (m *Menu) EntityID() string  { return m.entityID }
func (m *Menu) Actions() []Action { return slices.Clone(m.actions) }

// Open открывает меню юнита в точке anchor (координаты сцены).
func (m *Menu) Open(entityID string, status Status, anchor models.Point) {
	if !status.Valid() {
		status = StatusAvailable
	}
	m.open = true
	m.entityID = entityID
	m.status = status
	m.anchor = anchor
	m.actions = Resolve(status)
}

func (m *Menu) Close() {
	m.open = false
	m.entityID = ""
	m.actions = nil
}

// View возвращает раскладку для текущего режима; false, если меню закрыто.
func (m *Menu) View() (View, bool) {
	if !m.open {
		return View{}, false
	}
	v := View{Mode: m.mode, EntityID: m.entityID, Status: m.status, Anchor: m.anchor, Actions: slices.Clone(m.actions)}
	switch m.mode {
	case ModeCard:
		v.Rows = CardLayout(m.anchor, m.actions)
	default:
		v.Sectors = RadialLayout(m.anchor, m.actions)
	}
	return v, true
}

// Click обрабатывает клик при открытом меню. Клик по действию выбирает его,
// клик снаружи закрывает меню.
func (m *Menu) Click(ctx context.Context, p models.Point) (ActionKey, error) {
	if !m.open {
		return "", ErrClosed
	}
	key, ok := m.hit(p)
	if !ok {
		m.Close()
		return "", nil
	}
	return key, m.Choose(ctx, key)
}

func (m *Menu) hit(p models.Point) (ActionKey, bool) {
	switch m.mode {
	case ModeCard:
		for _, r := range CardLayout(m.anchor, m.actions) {
			if r.Bounds.Contains(p) {
				return r.Action.Key, true
			}
		}
		return "", false
	default:
		a, ok := HitSector(m.anchor, p, RadialLayout(m.anchor, m.actions))
		return a.Key, ok
	}
}

// Escape закрывает меню.
func (m *Menu) Escape() { m.Close() }

// Choose отправляет интент и закрывает меню. Сцена не меняется.
func (m *Menu) Choose(ctx context.Context, key ActionKey) error {
	if !m.open {
		return ErrClosed
	}
	if !slices.ContainsFunc(m.actions, func(a Action) bool { return a.Key == key }) {
		return fmt.Errorf("%w: %s for %s", ErrUnknownAction, key, m.status)
	}
	intent := Intent{
		ID:        uuid.NewString(),
		VenueID:   m.venueID,
		EntityID:  m.entityID,
		ActionKey: key,
		CreatedAt: time.Now().UTC(),
	}
	m.Close()
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Publish(ctx, intent); err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}
	return nil
}
