package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"venue-editor/internal/editor/export"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/overlay"
	"venue-editor/internal/editor/persistence"
)

// ============================================================
// Session Manager
// ============================================================

// SubscribeFunc подписывает оверлей на живые обновления площадки
// и возвращает функцию отписки.
type SubscribeFunc func(venueID string, ov *overlay.Overlay) (func(), error)

// Deps — внешние зависимости сессий. Всё, кроме Store, необязательно.
type Deps struct {
	Store     persistence.Service
	Intents   menu.IntentSink
	Source    overlay.Source
	Subscribe SubscribeFunc
	Exporter  *export.Exporter
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
	deps     Deps
}

func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Store == nil {
		deps.Store = persistence.NewMemory()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		deps:     deps,
	}
}

// Create открывает редактор площадки. Ошибка загрузки не фатальна:
// сессия стартует с пустой сценой и уведомлением.
func (m *Manager) Create(ctx context.Context, venueID string) (*Session, error) {
	if !models.ValidVenueID(venueID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVenueID, venueID)
	}

	data, err := m.deps.Store.LoadScene(ctx, venueID)
	var loadErr error
	if err != nil {
		data = models.SceneData{VenueID: venueID}
		if !errors.Is(err, persistence.ErrNotFound) {
			loadErr = err
			log.Printf("[EDITOR] load %s failed, starting empty: %v", venueID, err)
		}
	}

	s := newSession(m.cfg, venueID, data, m.deps.Store, m.deps.Intents, m.deps.Exporter)
	if loadErr != nil {
		s.addNoticeLocked(LevelError, fmt.Sprintf("Не удалось загрузить план: %v", loadErr))
	}
	s.stop = m.startOverlay(s)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Printf("[EDITOR] session %s opened for venue %s", s.id, venueID)
	return s, nil
}

func (m *Manager) startOverlay(s *Session) func() {
	var stops []func()

	if m.deps.Source != nil {
		ctx, cancel := context.WithCancel(context.Background())
		poller := overlay.NewPoller(m.deps.Source, s.overlay, s.venueID, m.cfg.PollInterval)
		go poller.Run(ctx)
		stops = append(stops, cancel)
	}
	if m.deps.Subscribe != nil {
		unsubscribe, err := m.deps.Subscribe(s.venueID, s.overlay)
		if err != nil {
			log.Printf("[EDITOR] overlay subscribe %s: %v", s.venueID, err)
		} else {
			stops = append(stops, unsubscribe)
		}
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close закрывает сессию. Несохранённые изменения теряются.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	log.Printf("[EDITOR] session %s closed", id)
	return true
}

// Sweep закрывает сессии, неактивные дольше idle.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if time.Since(s.LastUsed()) > idle {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		m.Close(id)
	}
	return len(stale)
}

// CloseAll закрывает все сессии при остановке сервиса.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Close(id)
	}
}
