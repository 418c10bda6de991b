// Package indicator provides technical indicator calculations over daily
// price series.
//
// All functions are pure: they map input slices to positionally-aligned
// output slices and hold no state. Positions inside an indicator's warm-up
// window carry the model.Missing marker, never zero. Windowed standard
// deviations are sample (ddof=1) throughout.
package indicator

import (
	"fmt"

	"stock-analyzerv1/internal/model"
)

// Default periods shared across the scoring engine and the backtester.
const (
	DefaultShortMA    = 10
	DefaultLongMA     = 50
	DefaultRSIPeriod  = 14
	DefaultATRPeriod  = 14
	DefaultBBWindow   = 20
	DefaultBBStdDev   = 2.0
	DefaultOBVWindow  = 10
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

func checkWindow(name string, window int) error {
	if window <= 0 {
		return fmt.Errorf("%w: %s window %d must be positive", model.ErrInvalidConfig, name, window)
	}
	return nil
}

// missingSlice returns a slice of length n filled with the missing marker.
func missingSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = model.Missing()
	}
	return out
}
