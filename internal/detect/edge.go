// Package detect holds the reusable state-diffing primitives strategies use
// to decide when an observation becomes an alert. Detectors are owned by a
// single strategy task and are not safe for concurrent use.
package detect

// Direction selects which side of the threshold triggers an edge cross.
type Direction int

const (
	// Below fires when the value drops under the threshold.
	Below Direction = iota
	// Above fires when the value rises over the threshold.
	Above
)

// EdgeCross fires once per crossing into the triggered side of a threshold
// and re-arms when the value returns to the other side. The first
// observation for an instrument only seeds state and never fires.
type EdgeCross struct {
	threshold float64
	direction Direction
	prev      map[string]float64
}

// NewEdgeCross creates an edge-cross detector.
func NewEdgeCross(threshold float64, direction Direction) *EdgeCross {
	return &EdgeCross{
		threshold: threshold,
		direction: direction,
		prev:      make(map[string]float64),
	}
}

// Observe records the current value for key and reports whether it crossed
// the threshold since the previous observation. Strict semantics for Below:
// fires iff current < threshold <= previous.
func (d *EdgeCross) Observe(key string, value float64) bool {
	prev, seen := d.prev[key]
	d.prev[key] = value
	if !seen {
		return false
	}

	switch d.direction {
	case Below:
		return value < d.threshold && prev >= d.threshold
	case Above:
		return value > d.threshold && prev <= d.threshold
	}
	return false
}

// Reset drops all per-instrument state; the next observation per key is
// treated as a first observation again.
func (d *EdgeCross) Reset() {
	d.prev = make(map[string]float64)
}
