package detect

import "math"

// BaselinePolicy controls how a PercentChange baseline re-arms.
type BaselinePolicy int

const (
	// Sticky keeps the session baseline until a fire, then advances it to
	// the firing value so a sustained level alerts only once.
	Sticky BaselinePolicy = iota
	// Rolling replaces the baseline with the current value every cycle
	// regardless of firing, catching per-cycle spurts instead of drift.
	Rolling
)

// PercentChange fires when the current value moved at least threshold
// percent (absolute) away from the instrument's baseline.
type PercentChange struct {
	threshold float64
	policy    BaselinePolicy
	baseline  map[string]float64
}

// NewPercentChange creates a percent-change detector. Threshold is in
// percent, e.g. 5 means ±5%.
func NewPercentChange(threshold float64, policy BaselinePolicy) *PercentChange {
	return &PercentChange{
		threshold: threshold,
		policy:    policy,
		baseline:  make(map[string]float64),
	}
}

// Observe records value for key and reports the percent change against the
// baseline and whether it fired. The first observation per key seeds the
// baseline and never fires. A zero baseline is never evaluated, avoiding a
// division by zero; under Rolling it is still replaced each cycle.
func (d *PercentChange) Observe(key string, value float64) (pct float64, fired bool) {
	base, seen := d.baseline[key]
	if !seen {
		d.baseline[key] = value
		return 0, false
	}

	if base != 0 {
		pct = (value - base) / base * 100
		fired = math.Abs(pct) >= d.threshold
	}

	switch d.policy {
	case Sticky:
		if fired {
			d.baseline[key] = value
		}
	case Rolling:
		d.baseline[key] = value
	}

	return pct, fired
}

// Baseline returns the current baseline for key, if any.
func (d *PercentChange) Baseline(key string) (float64, bool) {
	base, ok := d.baseline[key]
	return base, ok
}

// Reset drops all baselines for a new session.
func (d *PercentChange) Reset() {
	d.baseline = make(map[string]float64)
}
