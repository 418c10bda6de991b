package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath  string           // path to SQLite database file, e.g. "data/bars.db"
	Metrics *metrics.Metrics // optional
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB
	m  *metrics.Metrics
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db, m: cfg.Metrics}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			ticker  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  INTEGER NOT NULL,
			PRIMARY KEY (ticker, ts)
		);

		CREATE TABLE IF NOT EXISTS scan_results (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker         TEXT    NOT NULL,
			scanned_at     INTEGER NOT NULL,
			score          INTEGER NOT NULL,
			max_score      INTEGER NOT NULL,
			recommendation TEXT    NOT NULL,
			close          REAL    NOT NULL,
			stop_loss      REAL,
			take_profit    REAL
		);

		CREATE INDEX IF NOT EXISTS idx_scan_results_ticker
			ON scan_results (ticker, scanned_at DESC);
	`)
	return err
}

// ScanRecord is one screener verdict persisted per (ticker, scan).
type ScanRecord struct {
	Ticker         string
	ScannedAt      time.Time
	Score          int
	MaxScore       int
	Recommendation model.Recommendation
	Close          float64
	StopLoss       float64 // missing marker when not computable
	TakeProfit     float64
}

// SaveBars upserts a ticker's daily bars in one transaction.
func (w *Writer) SaveBars(ticker string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_bars (ticker, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(ticker, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Run reads scan records from recordCh and inserts them in batched
// transactions. Flushes every batchSize records OR every flushDelay,
// whichever first. Blocks until ctx is cancelled or recordCh is closed.
func (w *Writer) Run(ctx context.Context, recordCh <-chan ScanRecord) {
	batch := make([]ScanRecord, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertScanBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d scan results in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case rec, ok := <-recordCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (w *Writer) insertScanBatch(records []ScanRecord) error {
	if w.m != nil {
		start := time.Now()
		defer func() { w.m.SQLiteCommitDur.Observe(time.Since(start).Seconds()) }()
	}
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_results (ticker, scanned_at, score, max_score, recommendation, close, stop_loss, take_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.Ticker, r.ScannedAt.Unix(), r.Score, r.MaxScore,
			string(r.Recommendation), r.Close, nullable(r.StopLoss), nullable(r.TakeProfit))
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// nullable maps the missing marker to SQL NULL so the column stays queryable.
func nullable(v float64) sql.NullFloat64 {
	if model.IsMissing(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// LastBarDate returns the newest stored bar date for a ticker, zero when
// the ticker has no history.
func (w *Writer) LastBarDate(ticker string) (time.Time, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(ts) FROM daily_bars WHERE ticker = ?`, ticker,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
