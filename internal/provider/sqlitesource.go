package provider

import (
	"context"
	"fmt"
	"time"

	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/store/sqlite"
)

// SQLiteSource serves daily bars from the local store. It is usually the
// last link of a Chain: whatever an upstream fetcher persisted earlier.
type SQLiteSource struct {
	reader *sqlite.Reader
}

// NewSQLiteSource wraps a store reader as a BarSource.
func NewSQLiteSource(reader *sqlite.Reader) *SQLiteSource {
	return &SQLiteSource{reader: reader}
}

// Name implements BarSource.
func (s *SQLiteSource) Name() string { return "sqlite" }

// DailyBars implements BarSource.
func (s *SQLiteSource) DailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	after := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	bars, err := s.reader.ReadBars(ticker, after)
	if err != nil {
		return nil, fmt.Errorf("sqlite source %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no stored bars for %s", model.ErrNoData, ticker)
	}
	return bars, nil
}
