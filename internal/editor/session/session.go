package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"venue-editor/internal/editor/export"
	"venue-editor/internal/editor/history"
	"venue-editor/internal/editor/importer"
	"venue-editor/internal/editor/interaction"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/overlay"
	"venue-editor/internal/editor/persistence"
	"venue-editor/internal/editor/render"
	"venue-editor/internal/editor/scene"
	"venue-editor/internal/editor/templates"
	"venue-editor/internal/editor/viewport"

	"github.com/google/uuid"
)

// ============================================================
// Session
// ============================================================

var (
	ErrSaveInProgress  = errors.New("save already in progress")
	ErrNoExporter      = errors.New("png export is not configured")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrInvalidVenueID  = errors.New("invalid venue id")
)

type Config struct {
	Engine          interaction.Options
	Viewport        viewport.Config
	HistoryCapacity int
	MenuMode        menu.Mode
	Render          render.Options
	PollInterval    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Engine:          interaction.DefaultOptions(),
		Viewport:        viewport.Config{Width: 1280, Height: 800},
		HistoryCapacity: history.DefaultCapacity,
		MenuMode:        menu.ModeRadial,
		Render:          render.DefaultOptions(),
		PollInterval:    5 * time.Second,
	}
}

// Session — состояние одного открытого редактора. Все события и команды
// выполняются под mu по одному; сохранение отпускает mu на время запроса.
type Session struct {
	id       string
	venueID  string
	layoutID string

	mu       sync.Mutex
	scene    *scene.Scene
	history  *history.Manager[scene.Snapshot]
	viewport *viewport.Viewport
	engine   *interaction.Engine
	menu     *menu.Menu
	overlay  *overlay.Overlay
	renderer *render.Renderer
	exporter *export.Exporter
	store    persistence.Service

	notices  []Notice
	saving   bool
	lastUsed time.Time

	stop func()
}

func newSession(cfg Config, venueID string, data models.SceneData, store persistence.Service, sink menu.IntentSink, exporter *export.Exporter) *Session {
	sc := scene.New()
	sc.Load(data)

	vp := viewport.New(cfg.Viewport)
	h := history.New[scene.Snapshot](cfg.HistoryCapacity)

	opts := cfg.Engine
	opts.CanvasSize = sc.Canvas()
	engine := interaction.New(sc, h, vp, opts)
	engine.SetEditMode(true)

	return &Session{
		id:       uuid.NewString(),
		venueID:  venueID,
		layoutID: data.LayoutID,
		scene:    sc,
		history:  h,
		viewport: vp,
		engine:   engine,
		menu:     menu.New(venueID, cfg.MenuMode, sink),
		overlay:  overlay.New(),
		renderer: render.NewRenderer(cfg.Render),
		exporter: exporter,
		store:    store,
		lastUsed: time.Now(),
		stop:     func() {},
	}
}

func (s *Session) ID() string                { return s.id }
func (s *Session) VenueID() string           { return s.venueID }
func (s *Session) Overlay() *overlay.Overlay { return s.overlay }

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Status — сводка состояния для клиента.
type Status struct {
	ID        string           `json:"id"`
	VenueID   string           `json:"venue_id"`
	LayoutID  string           `json:"layout_id,omitempty"`
	State     string           `json:"state"`
	EditMode  bool             `json:"edit_mode"`
	Snap      bool             `json:"snap"`
	GridSize  float64          `json:"grid_size"`
	Dirty     bool             `json:"dirty"`
	Saving    bool             `json:"saving"`
	CanUndo   bool             `json:"can_undo"`
	CanRedo   bool             `json:"can_redo"`
	Selection render.Selection `json:"selection"`
	Viewport  viewport.State   `json:"viewport"`
	Menu      *menu.View       `json:"menu,omitempty"`
	Notices   []Notice         `json:"notices"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	opts := s.engine.Options()
	st := Status{
		ID:        s.id,
		VenueID:   s.venueID,
		LayoutID:  s.layoutID,
		State:     string(s.engine.State()),
		EditMode:  s.engine.EditMode(),
		Snap:      opts.Snap,
		GridSize:  opts.GridSize,
		Dirty:     s.scene.Dirty(),
		Saving:    s.saving,
		CanUndo:   s.history.CanUndo(),
		CanRedo:   s.history.CanRedo(),
		Selection: s.selectionLocked(),
		Viewport:  s.viewport.State(),
		Notices:   slices.Clone(s.notices),
	}
	if v, ok := s.menu.View(); ok {
		st.Menu = &v
	}
	return st
}

// Scene возвращает текущие данные сцены.
func (s *Session) Scene() models.SceneData {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.scene.Data()
	data.VenueID = s.venueID
	data.LayoutID = s.layoutID
	return data
}

func (s *Session) selectionLocked() render.Selection {
	sel := s.scene.Selection()
	return render.Selection{Units: sel.Units(), Zone: sel.ZoneID(), Decor: sel.DecorID()}
}

// ============================================================
// Events
// ============================================================

// Dispatch обрабатывает событие ввода. При открытом меню нажатие уходит
// в меню: попадание выбирает действие, промах закрывает меню.
func (s *Session) Dispatch(ctx context.Context, ev interaction.Event) (menu.ActionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if s.menu.IsOpen() {
		switch {
		case ev.Type == interaction.PointerDown:
			return s.menu.Click(ctx, s.viewport.ScreenToScene(ev.X, ev.Y))
		case ev.Type == interaction.KeyDown && ev.Key == "Escape":
			s.menu.Escape()
			return "", nil
		}
	}

	s.engine.Dispatch(ev)

	// в режиме просмотра нажатие на юнит открывает меню действий
	if ev.Type == interaction.PointerDown && !s.engine.EditMode() {
		if ids := s.scene.Selection().Units(); len(ids) == 1 {
			s.openMenuLocked(ids[0])
		}
	}
	return "", nil
}

func (s *Session) openMenuLocked(unitID string) bool {
	u, ok := s.scene.Unit(unitID)
	if !ok {
		return false
	}
	status := s.overlay.Status(unitID)
	if u.Blocked {
		status = menu.StatusBlocked
	}
	s.menu.Open(unitID, status, u.Center())
	return true
}

// ============================================================
// Persistence
// ============================================================

// Save отправляет изменения с момента последнего сохранения. Пока запрос
// в пути, сессия принимает события; правки, сделанные за это время,
// остаются несохранёнными. При ошибке локальное состояние не меняется.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	snap := s.scene.Snapshot()
	patch, err := persistence.BuildPatch(s.venueID, s.layoutID, s.scene.ChangesSince(snap))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.saving = true
	s.mu.Unlock()

	err = s.store.SaveScene(ctx, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		log.Printf("[EDITOR] save %s failed: %v", s.venueID, err)
		s.addNoticeLocked(LevelError, fmt.Sprintf("Не удалось сохранить план: %v", err))
		return err
	}
	s.scene.MarkSaved(snap)
	log.Printf("[EDITOR] saved %s (generation %d)", s.venueID, snap.Generation())
	return nil
}

// ============================================================
// Render & export
// ============================================================

func (s *Session) frameLocked() render.Frame {
	f := render.Frame{
		Scene:     s.scene.Data(),
		Selection: s.selectionLocked(),
		Overlay:   s.overlay.Snapshot(),
		Guides:    s.engine.Guides(),
		Viewport:  s.viewport.State(),
		ViewSize:  s.viewport.Size(),
		GridSize:  s.engine.Options().GridSize,
		EditMode:  s.engine.EditMode(),
	}
	if r, ok := s.engine.Lasso(); ok {
		f.Lasso = &r
	}
	if v, ok := s.menu.View(); ok {
		f.Menu = &v
	}
	return f
}

func (s *Session) Frame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// RenderSVG рисует текущий кадр с учётом viewport.
func (s *Session) RenderSVG() (string, error) {
	s.mu.Lock()
	f := s.frameLocked()
	s.mu.Unlock()
	return s.renderer.RenderSVG(f)
}

// ExportPNG растеризует весь холст без viewport и служебных слоёв.
func (s *Session) ExportPNG(w io.Writer) error {
	if s.exporter == nil {
		return ErrNoExporter
	}
	s.mu.Lock()
	f := render.Frame{
		Scene:   s.scene.Data(),
		Overlay: s.overlay.Snapshot(),
	}
	s.mu.Unlock()
	return s.exporter.WritePNG(w, s.renderer.Build(f))
}

// ============================================================
// Scene replacement
// ============================================================

// LoadTemplate заменяет сцену шаблоном; замену можно отменить.
func (s *Session) LoadTemplate(id string) error {
	tpl, ok := templates.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu.Close()
	s.engine.LoadScene(tpl.SceneData())
	s.engine.FitToContent()
	return nil
}

// ImportSVG заменяет сцену планом из SVG; замену можно отменить.
func (s *Session) ImportSVG(r io.Reader) error {
	data, err := importer.Import(r)
	if err != nil {
		return fmt.Errorf("import svg: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu.Close()
	s.engine.LoadScene(data)
	s.engine.FitToContent()
	return nil
}

// Close останавливает фоновые источники оверлея.
func (s *Session) Close() {
	s.stop()
}
