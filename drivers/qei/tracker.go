package qei

import "qeicode-go/x/mathx"

// Tracker turns successive raw counts into a signed running position.
// Successive observations must be less than half the counter range apart.
type Tracker[W Counter] struct {
	prev   W
	pos    int64
	primed bool
}

// Observe feeds one raw count and returns the running position and the
// signed step since the previous observation. The first observation
// establishes the origin.
func (t *Tracker[W]) Observe(c W) (pos, delta int64) {
	if !t.primed {
		t.prev, t.primed = c, true
		return t.pos, 0
	}
	delta = mathx.WrapDelta(t.prev, c)
	t.prev = c
	t.pos += delta
	return t.pos, delta
}

// Zero makes c the new origin.
func (t *Tracker[W]) Zero(c W) {
	t.prev, t.pos, t.primed = c, 0, true
}

// Position returns the last computed position.
func (t *Tracker[W]) Position() int64 { return t.pos }
