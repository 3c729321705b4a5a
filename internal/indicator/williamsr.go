// Package indicator holds the technical indicator math strategies feed into
// their detectors.
package indicator

import (
	"fmt"

	"OptAlert/internal/domain/models"
)

// WilliamsR computes Williams %R over a rolling period:
//
//	%R = (HighestHigh - Close) / (HighestHigh - LowestLow) * -100
//
// The returned series is aligned with candles; the first period-1 entries
// are not computable and the series starts at index period-1. Values range
// from 0 (close at the high) to -100 (close at the low).
func WilliamsR(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("williams %%r: period must be positive, got %d", period)
	}
	if len(candles) < period {
		return nil, fmt.Errorf("williams %%r: need at least %d candles, got %d", period, len(candles))
	}

	out := make([]float64, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		hh := candles[i].High
		ll := candles[i].Low
		for j := i - period + 1; j < i; j++ {
			if candles[j].High > hh {
				hh = candles[j].High
			}
			if candles[j].Low < ll {
				ll = candles[j].Low
			}
		}

		rng := hh - ll
		if rng == 0 {
			// Flat window; close sits at both extremes.
			out = append(out, 0)
			continue
		}
		out = append(out, (hh-candles[i].Close)/rng*-100)
	}
	return out, nil
}

// Latest returns the last two values of a series, for edge comparisons.
func Latest(series []float64) (previous, current float64, ok bool) {
	if len(series) < 2 {
		return 0, 0, false
	}
	return series[len(series)-2], series[len(series)-1], true
}
