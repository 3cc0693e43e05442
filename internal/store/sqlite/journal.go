// Package sqlite keeps a durable audit journal of closed signals. Closed
// records are retained indefinitely; the journal survives a Redis flush.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"bullsignals/internal/model"
)

// Config configures the journal.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Journal is a single-writer SQLite journal of closed signals.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal database with WAL mode and initializes the schema.
func New(cfg Config) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer: one connection is enough and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened signal journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS closed_signals (
			id          TEXT    NOT NULL,
			symbol      TEXT    NOT NULL,
			timeframe   TEXT    NOT NULL,
			side        TEXT    NOT NULL,
			probability REAL    NOT NULL,
			entry_price REAL    NOT NULL,
			exit_price  REAL    NOT NULL,
			reason      TEXT    NOT NULL,
			time_open   TEXT    NOT NULL,
			time_close  TEXT    NOT NULL,
			record      TEXT    NOT NULL,
			PRIMARY KEY (symbol, id)
		);
	`)
	return err
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// Record appends one closed signal. INSERT OR REPLACE keeps a retried close
// from producing a duplicate row.
func (j *Journal) Record(ctx context.Context, id string, sig *model.Signal) error {
	record, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO closed_signals
		(id, symbol, timeframe, side, probability, entry_price, exit_price, reason, time_open, time_close, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sig.Symbol, sig.Timeframe, string(sig.Side), sig.Probability,
		sig.EntryPrice, sig.ExitPrice, sig.Reason, sig.TimeOpen, sig.TimeClose, string(record),
	)
	if err != nil {
		return fmt.Errorf("insert closed signal: %w", err)
	}
	return nil
}

// Count returns the number of journaled closed signals for a symbol.
func (j *Journal) Count(ctx context.Context, symbol string) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM closed_signals WHERE symbol = ?`, symbol,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
