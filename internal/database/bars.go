package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// UpsertBar inserts or replaces one daily bar. The (symbol, date) pair is
// unique; re-ingesting a day overwrites it, which keeps the feed sync
// idempotent.
func (db *DB) UpsertBar(b *models.Bar) error {
	query := `
		INSERT INTO iv_daily (symbol, date, open, high, low, close, iv, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			iv = EXCLUDED.iv
		RETURNING id
	`
	err := db.conn.QueryRow(query,
		b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, ivArg(b.IV), time.Now(),
	).Scan(&b.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert bar: %w", err)
	}
	return nil
}

// UpsertBarBatch inserts or replaces multiple daily bars in one transaction
func (db *DB) UpsertBarBatch(bars []*models.Bar) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO iv_daily (symbol, date, open, high, low, close, iv, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			iv = EXCLUDED.iv
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bars {
		_, err := stmt.Exec(b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, ivArg(b.IV), now)
		if err != nil {
			return fmt.Errorf("failed to insert bar for %s: %w", b.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSeries retrieves the most recent bars for a symbol, returned in date
// ascending order as the metrics engine expects. limit <= 0 means no limit.
func (db *DB) GetSeries(symbol string, limit int) ([]*models.Bar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, iv, created_at
		FROM (
			SELECT id, symbol, date, open, high, low, close, iv, created_at
			FROM iv_daily
			WHERE symbol = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	if limit <= 0 {
		limit = int(^uint(0) >> 1)
	}
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	defer rows.Close()

	var bars []*models.Bar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	return bars, nil
}

// GetSeriesRange retrieves bars for a symbol within a date range, ascending
func (db *DB) GetSeriesRange(symbol string, startDate, endDate time.Time) ([]*models.Bar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, iv, created_at
		FROM iv_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get series range: %w", err)
	}
	defer rows.Close()

	var bars []*models.Bar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	return bars, nil
}

// GetLatestBar retrieves the most recent bar for a symbol
func (db *DB) GetLatestBar(symbol string) (*models.Bar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, iv, created_at
		FROM iv_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	row := db.conn.QueryRow(query, symbol)

	var b models.Bar
	var iv sql.NullString
	err := row.Scan(&b.ID, &b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &iv, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no bars found for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bar: %w", err)
	}
	setIV(&b, iv)
	return &b, nil
}

// DeleteBarsBySymbol removes all bars for a symbol
func (db *DB) DeleteBarsBySymbol(symbol string) error {
	query := `DELETE FROM iv_daily WHERE symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete bars for %s: %w", symbol, err)
	}
	return nil
}

// DeleteBarsOlderThan removes bars older than a specified date
func (db *DB) DeleteBarsOlderThan(date time.Time) (int64, error) {
	query := `DELETE FROM iv_daily WHERE date < $1`
	result, err := db.conn.Exec(query, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old bars: %w", err)
	}
	return result.RowsAffected()
}

func scanBar(rows *sql.Rows) (*models.Bar, error) {
	var b models.Bar
	var iv sql.NullString

	err := rows.Scan(&b.ID, &b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &iv, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bar: %w", err)
	}
	setIV(&b, iv)
	return &b, nil
}

func setIV(b *models.Bar, iv sql.NullString) {
	if iv.Valid {
		if d, err := decimal.NewFromString(iv.String); err == nil {
			b.IV = &d
		}
	}
}

// ivArg maps an absent IV to SQL NULL, never to zero
func ivArg(iv *decimal.Decimal) interface{} {
	if iv == nil {
		return nil
	}
	return *iv
}
