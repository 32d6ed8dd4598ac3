package models

import "time"

// Instrument represents a tradable underlying in the scan universe
type Instrument struct {
	InstrumentToken int       `json:"instrument_token,omitempty"`
	Symbol          string    `json:"symbol"`
	Name            string    `json:"name"`
	Underlying      string    `json:"underlying,omitempty"`
	LotSize         float64   `json:"lot_size,omitempty"`
	TickSize        float64   `json:"tick_size,omitempty"`
	Enabled         bool      `json:"enabled"`
	AddedAt         time.Time `json:"added_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
