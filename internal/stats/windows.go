package stats

import "time"

// Window is a named observation horizon of fixed length ending at the run's
// reference instant. A zero Length means unbounded (all-time).
type Window struct {
	Name   string
	Length time.Duration
}

// Windows is the ordered registry of observation horizons, widest first.
// The names double as the keys of the output artifact's "windows" object.
var Windows = []Window{
	{Name: "all_time", Length: 0},
	{Name: "90_days", Length: 90 * 24 * time.Hour},
	{Name: "60_days", Length: 60 * 24 * time.Hour},
	{Name: "30_days", Length: 30 * 24 * time.Hour},
	{Name: "7_days", Length: 7 * 24 * time.Hour},
	{Name: "1_day", Length: 24 * time.Hour},
	{Name: "4_hours", Length: 4 * time.Hour},
}

// Contains reports whether a record created at the given instant falls into
// the window relative to the reference instant t0. The boundary is
// inclusive: age equal to the window length still qualifies. Windows nest:
// membership in a shorter window implies membership in every longer one.
func (w Window) Contains(t0, created time.Time) bool {
	if w.Length == 0 {
		return true
	}
	return t0.Sub(created) <= w.Length
}

// Membership returns the names of every window the creation instant belongs
// to, in registry order.
func Membership(t0, created time.Time) []string {
	var names []string
	for _, w := range Windows {
		if w.Contains(t0, created) {
			names = append(names, w.Name)
		}
	}
	return names
}
