package kite

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"OptAlert/internal/domain/models"
)

// Chain is the option chain of one underlying for a single expiry, indexed
// by strike and contract type.
type Chain struct {
	Underlying string
	Expiry     time.Time
	strikes    []float64
	contracts  map[float64]map[string]models.Instrument
}

// BuildChain extracts the nearest-expiry option chain for the underlying
// from the instrument catalog. Expiries before day are skipped.
func BuildChain(instruments []models.Instrument, underlying string, day time.Time) (*Chain, error) {
	var nearest time.Time
	for _, inst := range instruments {
		if inst.Name != underlying || !isOption(inst.InstrumentType) || !inst.HasExpiry(day) {
			continue
		}
		if nearest.IsZero() || inst.Expiry.Before(nearest) {
			nearest = inst.Expiry
		}
	}
	if nearest.IsZero() {
		return nil, fmt.Errorf("no live option contracts for %s", underlying)
	}

	chain := &Chain{
		Underlying: underlying,
		Expiry:     nearest,
		contracts:  make(map[float64]map[string]models.Instrument),
	}
	for _, inst := range instruments {
		if inst.Name != underlying || !isOption(inst.InstrumentType) || !inst.Expiry.Equal(nearest) {
			continue
		}
		byType, ok := chain.contracts[inst.Strike]
		if !ok {
			byType = make(map[string]models.Instrument, 2)
			chain.contracts[inst.Strike] = byType
			chain.strikes = append(chain.strikes, inst.Strike)
		}
		byType[inst.InstrumentType] = inst
	}
	sort.Float64s(chain.strikes)
	return chain, nil
}

func isOption(instrumentType string) bool {
	return instrumentType == models.OptionTypeCall || instrumentType == models.OptionTypePut
}

// Strikes returns the sorted strike ladder.
func (c *Chain) Strikes() []float64 { return c.strikes }

// ATM returns the strike closest to spot.
func (c *Chain) ATM(spot float64) (float64, error) {
	if len(c.strikes) == 0 {
		return 0, fmt.Errorf("empty chain for %s", c.Underlying)
	}
	best := c.strikes[0]
	for _, s := range c.strikes[1:] {
		if abs(s-spot) < abs(best-spot) {
			best = s
		}
	}
	return best, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Contract returns the option at the given strike and type.
func (c *Chain) Contract(strike float64, optionType string) (models.Instrument, bool) {
	byType, ok := c.contracts[strike]
	if !ok {
		return models.Instrument{}, false
	}
	inst, ok := byType[optionType]
	return inst, ok
}

// StrikeAt returns the strike offset steps away from the ATM strike in the
// ladder. Positive offsets move up, negative down.
func (c *Chain) StrikeAt(spot float64, offset int) (float64, error) {
	atm, err := c.ATM(spot)
	if err != nil {
		return 0, err
	}
	idx := sort.SearchFloat64s(c.strikes, atm) + offset
	if idx < 0 || idx >= len(c.strikes) {
		return 0, fmt.Errorf("strike offset %d out of ladder for %s", offset, c.Underlying)
	}
	return c.strikes[idx], nil
}

// NearestOTMPut returns the put at the highest strike strictly below spot.
func (c *Chain) NearestOTMPut(spot float64) (models.Instrument, bool) {
	for i := len(c.strikes) - 1; i >= 0; i-- {
		if c.strikes[i] >= spot {
			continue
		}
		if inst, ok := c.Contract(c.strikes[i], models.OptionTypePut); ok {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

// Selector picks one strike relative to ATM, e.g. "ATM", "ITM-2", "OTM-1".
type Selector struct {
	Kind  string // ATM, ITM, OTM
	Depth int
}

// ParseSelectors parses a comma-separated strike selector list.
func ParseSelectors(spec string) ([]Selector, error) {
	var out []Selector
	for _, part := range strings.Split(spec, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "ATM" {
			out = append(out, Selector{Kind: "ATM"})
			continue
		}

		kind, depthStr, found := strings.Cut(part, "-")
		if !found || (kind != "ITM" && kind != "OTM") {
			return nil, fmt.Errorf("bad strike selector %q", part)
		}
		depth, err := strconv.Atoi(depthStr)
		if err != nil || depth <= 0 {
			return nil, fmt.Errorf("bad strike selector depth %q", part)
		}
		out = append(out, Selector{Kind: kind, Depth: depth})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty strike selector list %q", spec)
	}
	return out, nil
}

// Offset converts the selector into ladder steps for the given contract
// type. Lower strikes are in the money for calls and out of the money for
// puts, so the sign flips between types.
func (s Selector) Offset(optionType string) int {
	switch s.Kind {
	case "ITM":
		if optionType == models.OptionTypeCall {
			return -s.Depth
		}
		return s.Depth
	case "OTM":
		if optionType == models.OptionTypeCall {
			return s.Depth
		}
		return -s.Depth
	default:
		return 0
	}
}

func (s Selector) String() string {
	if s.Kind == "ATM" {
		return "ATM"
	}
	return fmt.Sprintf("%s-%d", s.Kind, s.Depth)
}
