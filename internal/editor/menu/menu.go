package menu

import (
	"context"
	"fmt"
	"math"
	"time"

	"venue-editor/internal/editor/models"
)

// ============================================================
// Status → actions
// ============================================================

// Status — статус занятости юнита, приходит из внешнего overlay.
type Status string

const (
	StatusAvailable      Status = "available"
	StatusReserved       Status = "reserved"
	StatusOccupied       Status = "occupied"
	StatusPaymentPending Status = "payment-pending"
	StatusBlocked        Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusOccupied, StatusPaymentPending, StatusBlocked:
		return true
	}
	return false
}

type ActionKey string

const (
	ActionSeatWalkIn        ActionKey = "seat-walk-in"
	ActionBook              ActionKey = "book"
	ActionBlock             ActionKey = "block"
	ActionUnblock           ActionKey = "unblock"
	ActionAssign            ActionKey = "assign"
	ActionDropBill          ActionKey = "drop-bill"
	ActionMarkLeft          ActionKey = "mark-left"
	ActionSeatGuest         ActionKey = "seat-guest"
	ActionMarkNoShow        ActionKey = "mark-no-show"
	ActionCancelReservation ActionKey = "cancel-reservation"
	ActionMarkPaid          ActionKey = "mark-paid"
)

type Action struct {
	Key     ActionKey `json:"key"`
	Label   string    `json:"label"`
	Primary bool      `json:"primary"`
}

func primary(key ActionKey, label string) Action { return Action{Key: key, Label: label, Primary: true} }
func action(key ActionKey, label string) Action  { return Action{Key: key, Label: label} }

// Resolve возвращает упорядоченный список действий для статуса.
// Первое действие всегда единственное основное.
func Resolve(status Status) []Action {
	switch status {
	case StatusAvailable:
		return []Action{
			primary(ActionSeatWalkIn, "Seat walk-in"),
			action(ActionBook, "Book"),
			action(ActionBlock, "Block"),
			action(ActionAssign, "Assign staff"),
		}
	case StatusReserved:
		return []Action{
			primary(ActionSeatGuest, "Seat guest"),
			action(ActionMarkNoShow, "No-show"),
			action(ActionCancelReservation, "Cancel"),
			action(ActionAssign, "Assign staff"),
		}
	case StatusOccupied:
		return []Action{
			primary(ActionDropBill, "Drop bill"),
			action(ActionMarkLeft, "Mark left"),
			action(ActionAssign, "Assign staff"),
			action(ActionBlock, "Block"),
		}
	case StatusPaymentPending:
		return []Action{
			primary(ActionMarkPaid, "Mark paid"),
			action(ActionMarkLeft, "Mark left"),
			action(ActionAssign, "Assign staff"),
		}
	case StatusBlocked:
		return []Action{
			primary(ActionUnblock, "Unblock"),
			action(ActionAssign, "Assign staff"),
		}
	}
	return nil
}

// ============================================================
// Layout
// ============================================================

type Mode string

const (
	ModeRadial Mode = "radial"
	ModeCard   Mode = "card"
)

func ParseMode(s string) Mode {
	if Mode(s) == ModeCard {
		return ModeCard
	}
	return ModeRadial
}

const (
	RadialInner = 28.0
	RadialOuter = 84.0
	CardWidth   = 160.0
	CardRow     = 32.0
	CardHeader  = 28.0
)

// Sector — сектор радиального меню. Углы в градусах, 0° смотрит вверх.
type Sector struct {
	Action     Action       `json:"action"`
	StartAngle float64      `json:"start_angle"`
	EndAngle   float64      `json:"end_angle"`
	Path       string       `json:"path"`
	LabelAt    models.Point `json:"label_at"`
}

// Row — строка карточного меню.
type Row struct {
	Action Action      `json:"action"`
	Bounds models.Rect `json:"bounds"`
}

// RadialLayout делит окружность поровну между действиями.
func RadialLayout(center models.Point, actions []Action) []Sector {
	if len(actions) == 0 {
		return nil
	}
	step := 360.0 / float64(len(actions))
	out := make([]Sector, 0, len(actions))
	for i, a := range actions {
		start := float64(i) * step
		end := start + step
		mid := (start + end) / 2
		out = append(out, Sector{
			Action:     a,
			StartAngle: start,
			EndAngle:   end,
			Path:       SectorPath(center, RadialInner, RadialOuter, start, end),
			LabelAt:    polar(center, (RadialInner+RadialOuter)/2, mid),
		})
	}
	return out
}

// CardLayout раскладывает действия строками под заголовком карточки.
func CardLayout(anchor models.Point, actions []Action) []Row {
	out := make([]Row, 0, len(actions))
	for i, a := range actions {
		out = append(out, Row{
			Action: a,
			Bounds: models.Rect{X: anchor.X, Y: anchor.Y + CardHeader + float64(i)*CardRow, Width: CardWidth, Height: CardRow},
		})
	}
	return out
}

func CardBounds(anchor models.Point, n int) models.Rect {
	return models.Rect{X: anchor.X, Y: anchor.Y, Width: CardWidth, Height: CardHeader + float64(n)*CardRow}
}

func polar(c models.Point, r, deg float64) models.Point {
	rad := (deg - 90) * math.Pi / 180
	return models.Point{X: c.X + r*math.Cos(rad), Y: c.Y + r*math.Sin(rad)}
}

// SectorPath строит SVG-путь кольцевого сектора.
func SectorPath(c models.Point, inner, outer, start, end float64) string {
	if end-start >= 360 {
		// полное кольцо: две половины, иначе дуга вырождается
		return SectorPath(c, inner, outer, start, start+180) + " " + SectorPath(c, inner, outer, start+180, end)
	}
	large := 0
	if end-start > 180 {
		large = 1
	}
	o1, o2 := polar(c, outer, start), polar(c, outer, end)
	i1, i2 := polar(c, inner, end), polar(c, inner, start)
	return fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 0 %.2f %.2f Z",
		o1.X, o1.Y, outer, outer, large, o2.X, o2.Y,
		i1.X, i1.Y, inner, inner, large, i2.X, i2.Y)
}

// HitSector возвращает действие под точкой радиального меню.
func HitSector(center, p models.Point, sectors []Sector) (Action, bool) {
	dx, dy := p.X-center.X, p.Y-center.Y
	r := math.Hypot(dx, dy)
	if r < RadialInner || r > RadialOuter {
		return Action{}, false
	}
	deg := math.Atan2(dy, dx)*180/math.Pi + 90
	if deg < 0 {
		deg += 360
	}
	for _, s := range sectors {
		if deg >= s.StartAngle && deg < s.EndAngle {
			return s.Action, true
		}
	}
	return Action{}, false
}

// ============================================================
// Menu state
// ============================================================

// Intent — выбранное действие, уходит во внешний workflow бронирований.
type Intent struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	EntityID  string    `json:"entity_id"`
	ActionKey ActionKey `json:"action_key"`
	CreatedAt time.Time `json:"created_at"`
}

// IntentSink принимает интенты; сцену меню не трогает.
type IntentSink interface {
	Publish(ctx context.Context, intent Intent) error
}
