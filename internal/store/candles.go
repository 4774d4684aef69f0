// Package store provides local persistence for market data fetched from the
// price provider, so indicator queries keep working across provider outages.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// CandleStore caches close-price series per symbol in SQLite.
type CandleStore struct {
	db *sql.DB
}

// NewCandleStore opens (or creates) the SQLite database at dbPath with WAL
// journaling and ensures the candles table exists.
func NewCandleStore(dbPath string) (*CandleStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			seq    INTEGER NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, seq)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create candles table: %w", err)
	}

	return &CandleStore{db: db}, nil
}

// Close closes the underlying database.
func (s *CandleStore) Close() error {
	return s.db.Close()
}

// ReplaceSeries atomically replaces the cached close series for a symbol.
// Closes are chronological, oldest first.
func (s *CandleStore) ReplaceSeries(ctx context.Context, symbol string, closes []float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM candles WHERE symbol = ?", symbol); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO candles (symbol, seq, close) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range closes {
		if _, err := stmt.ExecContext(ctx, symbol, i, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReadSeries returns the cached close series for a symbol, oldest first.
// A symbol with no cached candles yields an empty series and no error.
func (s *CandleStore) ReadSeries(ctx context.Context, symbol string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT close FROM candles WHERE symbol = ? ORDER BY seq", symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Symbols returns the distinct symbols with cached candles, sorted.
func (s *CandleStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT symbol FROM candles ORDER BY symbol")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
