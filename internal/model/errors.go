package model

import "errors"

// Error taxonomy. Callers match with errors.Is.
var (
	// ErrInsufficientData: input series shorter than a component's minimum
	// window. Recovered locally with a missing/not-computable result.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidConfig: nonsensical parameters (negative window, stop-loss
	// above entry). Surfaced to the caller, never silently clamped.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoData: upstream fetch returned nothing for a ticker. Batch scans
	// record it per ticker and continue.
	ErrNoData = errors.New("no data available")

	// ErrInsufficientHistory: a backtest or pairs window too short to run.
	// Distinct from "ran with zero trades".
	ErrInsufficientHistory = errors.New("insufficient history")
)
