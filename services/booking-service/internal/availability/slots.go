package availability

import "time"

// Window is an opening interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Slots returns the start instants within w, stepping by step, where a
// booking of length duration still ends inside the window. Instants before
// now and instants for which taken reports true are skipped.
func Slots(w Window, duration, step time.Duration, now time.Time, taken func(time.Time) bool) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !w.End.After(w.Start) {
		return nil
	}
	if w.Start.Add(duration).After(w.End) {
		return nil
	}

	var slots []time.Time
	for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if taken != nil && taken(t) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// TakenAt builds a predicate matching exactly the given instants.
func TakenAt(instants []time.Time) func(time.Time) bool {
	set := make(map[int64]struct{}, len(instants))
	for _, t := range instants {
		set[t.UnixNano()] = struct{}{}
	}
	return func(t time.Time) bool {
		_, ok := set[t.UnixNano()]
		return ok
	}
}
