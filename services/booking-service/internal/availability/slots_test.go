package availability

import (
	"testing"
	"time"
)

func TestSlots_Basic(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	w := Window{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}

	taken := TakenAt([]time.Time{day.Add(9*time.Hour + 15*time.Minute), day.Add(9*time.Hour + 30*time.Minute)})

	slots := Slots(w, 15*time.Minute, 15*time.Minute, day, taken)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestSlots_SkipsPast(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	w := Window{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}

	now := day.Add(9*time.Hour + 31*time.Minute)
	slots := Slots(w, 15*time.Minute, 15*time.Minute, now, nil)
	// 09:00, 09:15, 09:30 start before now.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected slot 09:45, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestSlots_DurationMustFit(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	w := Window{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}

	slots := Slots(w, 40*time.Minute, 40*time.Minute, day, nil)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if got := Slots(w, 2*time.Hour, time.Hour, day, nil); got != nil {
		t.Fatalf("expected no slots, got %v", got)
	}
	if got := Slots(Window{Start: w.End, End: w.Start}, time.Minute, time.Minute, day, nil); got != nil {
		t.Fatalf("expected no slots for inverted window, got %v", got)
	}
}
