package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"stock-analyzerv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for analysis and backfill.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads a ticker's daily bars after the given date, ordered by
// date ascending for correct indicator warm-up order.
func (r *Reader) ReadBars(ticker string, after time.Time) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM daily_bars
		WHERE ticker = ? AND ts > ?
		ORDER BY ts ASC
	`, ticker, after.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query daily_bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		if err := rows.Scan(&tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan daily_bars: %w", err)
		}
		b.Date = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Tickers lists every ticker with stored history.
func (r *Reader) Tickers() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM daily_bars ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// LatestScanResults returns the newest scan record per ticker.
func (r *Reader) LatestScanResults() ([]ScanRecord, error) {
	rows, err := r.db.Query(`
		SELECT ticker, scanned_at, score, max_score, recommendation, close, stop_loss, take_profit
		FROM scan_results
		WHERE id IN (SELECT MAX(id) FROM scan_results GROUP BY ticker)
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query scan_results: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var scannedAt int64
		var recommendation string
		var stopLoss, takeProfit sql.NullFloat64
		if err := rows.Scan(&rec.Ticker, &scannedAt, &rec.Score, &rec.MaxScore,
			&recommendation, &rec.Close, &stopLoss, &takeProfit); err != nil {
			return nil, fmt.Errorf("sqlite scan scan_results: %w", err)
		}
		rec.ScannedAt = time.Unix(scannedAt, 0).UTC()
		rec.Recommendation = model.Recommendation(recommendation)
		rec.StopLoss = fromNullable(stopLoss)
		rec.TakeProfit = fromNullable(takeProfit)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return model.Missing()
	}
	return v.Float64
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
