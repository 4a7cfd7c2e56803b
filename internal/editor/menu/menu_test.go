package menu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"venue-editor/internal/editor/models"
)

type recordingSink struct {
	intents []Intent
	err     error
}

func (s *recordingSink) Publish(_ context.Context, intent Intent) error {
	if s.err != nil {
		return s.err
	}
	s.intents = append(s.intents, intent)
	return nil
}

func TestResolve_OnePrimaryPerStatus(t *testing.T) {
	statuses := []Status{StatusAvailable, StatusReserved, StatusOccupied, StatusPaymentPending, StatusBlocked}
	for _, st := range statuses {
		actions := Resolve(st)
		if len(actions) == 0 {
			t.Errorf("%s: expected actions", st)
			continue
		}
		primaries := 0
		for _, a := range actions {
			if a.Primary {
				primaries++
			}
		}
		if primaries != 1 || !actions[0].Primary {
			t.Errorf("%s: expected exactly one leading primary, got %+v", st, actions)
		}
	}

	if got := Resolve(Status("unknown")); got != nil {
		t.Errorf("Unknown status must resolve to nothing, got %v", got)
	}
}

func TestResolve_Tables(t *testing.T) {
	cases := map[Status][]ActionKey{
		StatusAvailable: {ActionSeatWalkIn, ActionBook, ActionBlock, ActionAssign},
		StatusOccupied:  {ActionDropBill, ActionMarkLeft, ActionAssign, ActionBlock},
	}
	for st, expected := range cases {
		actions := Resolve(st)
		if len(actions) != len(expected) {
			t.Fatalf("%s: expected %d actions, got %d", st, len(expected), len(actions))
		}
		for i, key := range expected {
			if actions[i].Key != key {
				t.Errorf("%s[%d]: expected %s, got %s", st, i, key, actions[i].Key)
			}
		}
	}
}

func TestRadialLayout_EvenSectors(t *testing.T) {
	center := models.Point{X: 100, Y: 100}
	sectors := RadialLayout(center, Resolve(StatusAvailable))
	if len(sectors) != 4 {
		t.Fatalf("Expected 4 sectors, got %d", len(sectors))
	}
	for i, s := range sectors {
		if s.EndAngle-s.StartAngle != 90 || s.StartAngle != float64(i)*90 {
			t.Errorf("sector %d: unexpected angles %v..%v", i, s.StartAngle, s.EndAngle)
		}
		if !strings.HasPrefix(s.Path, "M ") || !strings.HasSuffix(s.Path, "Z") {
			t.Errorf("sector %d: malformed path %q", i, s.Path)
		}
	}

	if a, ok := HitSector(center, models.Point{X: 105, Y: 50}, sectors); !ok || a.Key != ActionSeatWalkIn {
		t.Errorf("Expected top sector to be seat-walk-in, got %v %v", a, ok)
	}
	if a, ok := HitSector(center, models.Point{X: 150, Y: 105}, sectors); !ok || a.Key != ActionBook {
		t.Errorf("Expected right sector to be book, got %v %v", a, ok)
	}
	if _, ok := HitSector(center, center, sectors); ok {
		t.Error("Center hole must not hit")
	}
}

func TestMenu_ChoosePublishesAndCloses(t *testing.T) {
	sink := &recordingSink{}
	m := New("venue-1", ModeRadial, sink)
	m.Open("t1", StatusOccupied, models.Point{X: 0, Y: 0})

	if err := m.Choose(context.Background(), ActionDropBill); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.IsOpen() {
		t.Error("Menu must close after choose")
	}
	if len(sink.intents) != 1 {
		t.Fatalf("Expected one intent, got %d", len(sink.intents))
	}
	in := sink.intents[0]
	if in.EntityID != "t1" || in.ActionKey != ActionDropBill || in.VenueID != "venue-1" || in.ID == "" {
		t.Errorf("Unexpected intent %+v", in)
	}
}

func TestMenu_RejectsForeignAction(t *testing.T) {
	m := New("v", ModeCard, &recordingSink{})
	m.Open("t1", StatusBlocked, models.Point{})
	err := m.Choose(context.Background(), ActionDropBill)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
	if !m.IsOpen() {
		t.Error("Rejected action must keep the menu open")
	}
}

func TestMenu_OutsideClickAndEscape(t *testing.T) {
	sink := &recordingSink{}
	m := New("v", ModeCard, sink)
	m.Open("t1", StatusAvailable, models.Point{X: 0, Y: 0})

	key, err := m.Click(context.Background(), models.Point{X: 10, Y: CardHeader + 5})
	if err != nil || key != ActionSeatWalkIn {
		t.Fatalf("Expected first card row, got %v %v", key, err)
	}

	m.Open("t1", StatusAvailable, models.Point{X: 0, Y: 0})
	key, err = m.Click(context.Background(), models.Point{X: 500, Y: 500})
	if err != nil || key != "" || m.IsOpen() {
		t.Errorf("Outside click must close without action, got %v %v open=%v", key, err, m.IsOpen())
	}

	m.Open("t1", StatusAvailable, models.Point{})
	m.Escape()
	if m.IsOpen() {
		t.Error("Escape must close the menu")
	}
	if len(sink.intents) != 1 {
		t.Errorf("Expected one intent in total, got %d", len(sink.intents))
	}
}

func TestMenu_ViewByMode(t *testing.T) {
	m := New("v", ModeRadial, nil)
	if _, ok := m.View(); ok {
		t.Fatal("Closed menu has no view")
	}
	m.Open("t1", StatusPaymentPending, models.Point{X: 10, Y: 10})
	v, _ := m.View()
	if len(v.Sectors) != 3 || len(v.Rows) != 0 {
		t.Errorf("Radial view expected 3 sectors, got %+v", v)
	}
	m.SetMode(ModeCard)
	v, _ = m.View()
	if len(v.Rows) != 3 || len(v.Sectors) != 0 {
		t.Errorf("Card view expected 3 rows, got %+v", v)
	}
}
