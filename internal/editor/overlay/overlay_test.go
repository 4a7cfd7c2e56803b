package overlay

import (
	"context"
	"errors"
	"testing"
	"time"

	"venue-editor/internal/editor/menu"
)

type stubSource struct {
	entries map[string]Entry
	err     error
	calls   int
}

func (s *stubSource) Fetch(_ context.Context, _ string) (map[string]Entry, error) {
	s.calls++
	return s.entries, s.err
}

func TestOverlay_DefaultsToAvailable(t *testing.T) {
	o := New()
	if st := o.Status("missing"); st != menu.StatusAvailable {
		t.Errorf("Expected available, got %s", st)
	}

	o.Replace(map[string]Entry{
		"t1": {Status: menu.StatusOccupied, GuestLabel: "Ivanov", StaffInitials: "AK"},
		"t2": {Status: "bogus"},
	})
	if st := o.Status("t1"); st != menu.StatusOccupied {
		t.Errorf("Expected occupied, got %s", st)
	}
	if st := o.Status("t2"); st != menu.StatusAvailable {
		t.Errorf("Unknown status must normalize to available, got %s", st)
	}
}

func TestOverlay_ApplyKeepsOthers(t *testing.T) {
	o := New()
	o.Replace(map[string]Entry{"t1": {Status: menu.StatusReserved}, "t2": {Status: menu.StatusOccupied}})
	o.Apply(map[string]Entry{"t1": {Status: menu.StatusOccupied}})

	if o.Status("t1") != menu.StatusOccupied || o.Status("t2") != menu.StatusOccupied {
		t.Errorf("Unexpected overlay %v", o.Snapshot())
	}

	snap := o.Snapshot()
	snap["t3"] = Entry{Status: menu.StatusBlocked}
	if _, ok := o.Get("t3"); ok {
		t.Error("Snapshot must be a copy")
	}
}

func TestDecodeEntries_SkipsBroken(t *testing.T) {
	got := DecodeEntries(map[string]string{
		"t1": `{"status":"reserved","guest_label":"Smith"}`,
		"t2": `not json`,
	})
	if len(got) != 1 || got["t1"].GuestLabel != "Smith" || got["t1"].Status != menu.StatusReserved {
		t.Errorf("Unexpected decode result %+v", got)
	}
	if KeyFor("v1") != "occupancy:v1" {
		t.Errorf("Unexpected key %s", KeyFor("v1"))
	}
}

func TestPoller_RefreshAndRun(t *testing.T) {
	src := &stubSource{entries: map[string]Entry{"t1": {Status: menu.StatusPaymentPending}}}
	o := New()
	p := NewPoller(src, o, "v1", 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if o.Status("t1") != menu.StatusPaymentPending {
		t.Errorf("Expected payment-pending, got %s", o.Status("t1"))
	}
	if src.calls < 2 {
		t.Errorf("Expected repeated polling, got %d calls", src.calls)
	}
}

func TestPoller_ErrorKeepsOverlay(t *testing.T) {
	o := New()
	o.Replace(map[string]Entry{"t1": {Status: menu.StatusBlocked}})
	p := NewPoller(&stubSource{err: errors.New("down")}, o, "v1", time.Second)

	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("Expected error")
	}
	if o.Status("t1") != menu.StatusBlocked {
		t.Error("Failed refresh must keep previous overlay")
	}
}
