package door

// offDelay is an off-delay timer. The output follows the input up and
// stays on for preset microseconds after the input drops.
type offDelay struct {
	preset  uint64
	q       bool
	running bool
	since   uint64
}

func (t *offDelay) update(in bool, now uint64) bool {
	switch {
	case in:
		t.q = true
		t.running = false
	case t.q:
		if !t.running {
			t.running = true
			t.since = now
		}
		if now-t.since >= t.preset {
			t.q = false
			t.running = false
		}
	}
	return t.q
}
