package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// UpsertInstrument adds an instrument to the scan universe or refreshes its
// metadata from the feed
func (db *DB) UpsertInstrument(m *models.Instrument) error {
	query := `
		INSERT INTO instruments (
			instrument_token, symbol, name, underlying, lot_size, tick_size,
			enabled, added_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			instrument_token = EXCLUDED.instrument_token,
			name = EXCLUDED.name,
			underlying = EXCLUDED.underlying,
			lot_size = EXCLUDED.lot_size,
			tick_size = EXCLUDED.tick_size,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := db.conn.Exec(query,
		m.InstrumentToken, m.Symbol, m.Name, m.Underlying, m.LotSize, m.TickSize,
		m.Enabled, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument: %w", err)
	}
	m.AddedAt = now
	m.UpdatedAt = now
	return nil
}

// GetInstrument retrieves an instrument by symbol
func (db *DB) GetInstrument(symbol string) (*models.Instrument, error) {
	query := `
		SELECT instrument_token, symbol, name, underlying, lot_size, tick_size,
		       enabled, added_at, updated_at
		FROM instruments
		WHERE symbol = $1
	`
	var m models.Instrument
	var underlying sql.NullString

	err := db.conn.QueryRow(query, symbol).Scan(
		&m.InstrumentToken, &m.Symbol, &m.Name, &underlying, &m.LotSize,
		&m.TickSize, &m.Enabled, &m.AddedAt, &m.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("instrument not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}

	if underlying.Valid {
		m.Underlying = underlying.String
	}
	return &m, nil
}

// GetAllInstruments retrieves all instruments ordered by symbol
func (db *DB) GetAllInstruments() ([]*models.Instrument, error) {
	query := `
		SELECT instrument_token, symbol, name, underlying, lot_size, tick_size,
		       enabled, added_at, updated_at
		FROM instruments
		ORDER BY symbol ASC
	`
	return db.scanInstruments(db.conn.Query(query))
}

// GetEnabledInstruments retrieves the instruments included in scans
func (db *DB) GetEnabledInstruments() ([]*models.Instrument, error) {
	query := `
		SELECT instrument_token, symbol, name, underlying, lot_size, tick_size,
		       enabled, added_at, updated_at
		FROM instruments
		WHERE enabled = true
		ORDER BY symbol ASC
	`
	return db.scanInstruments(db.conn.Query(query))
}

// GetEnabledSymbols returns just the symbols of enabled instruments
func (db *DB) GetEnabledSymbols() ([]string, error) {
	query := `
		SELECT symbol
		FROM instruments
		WHERE enabled = true
		ORDER BY symbol ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func (db *DB) scanInstruments(rows *sql.Rows, err error) ([]*models.Instrument, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []*models.Instrument
	for rows.Next() {
		var m models.Instrument
		var underlying sql.NullString

		err := rows.Scan(
			&m.InstrumentToken, &m.Symbol, &m.Name, &underlying, &m.LotSize,
			&m.TickSize, &m.Enabled, &m.AddedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}

		if underlying.Valid {
			m.Underlying = underlying.String
		}
		instruments = append(instruments, &m)
	}

	return instruments, nil
}

// SetInstrumentEnabled toggles an instrument in or out of the scan universe
func (db *DB) SetInstrumentEnabled(symbol string, enabled bool) error {
	query := `UPDATE instruments SET enabled = $2, updated_at = $3 WHERE symbol = $1`
	result, err := db.conn.Exec(query, symbol, enabled, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update instrument: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("instrument not found: %s", symbol)
	}
	return nil
}

// DeleteInstrument removes an instrument and its bars
func (db *DB) DeleteInstrument(symbol string) error {
	query := `DELETE FROM instruments WHERE symbol = $1`
	result, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete instrument: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("instrument not found: %s", symbol)
	}
	return nil
}
