package charge

// Timer accumulates elapsed seconds. Value type: copies are independent.
type Timer struct {
	Elapsed float64
	Enabled bool
}

// NewTimer returns an enabled timer at zero.
func NewTimer() Timer {
	return Timer{Enabled: true}
}

// Advance returns the timer moved forward by dt seconds. Disabled timers do not move.
func (t Timer) Advance(dt float64) Timer {
	if t.Enabled {
		t.Elapsed += dt
	}
	return t
}

// HasElapsed reports whether an enabled timer reached threshold seconds.
func (t Timer) HasElapsed(threshold float64) bool {
	return t.Enabled && t.Elapsed >= threshold
}
