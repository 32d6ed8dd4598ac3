package models

import "time"

// Event type constants
const (
	EventInstrumentAdded   = "INSTRUMENT_ADDED"
	EventInstrumentRemoved = "INSTRUMENT_REMOVED"
	EventBarUpsert         = "BAR_UPSERT"
	EventBarsIngested      = "BARS_INGESTED"
)

// InstrumentEvent represents a Kafka event for watchlist changes
type InstrumentEvent struct {
	EventType  string      `json:"event_type"`
	Instrument *Instrument `json:"instrument,omitempty"`
	Symbol     string      `json:"symbol"`
	Timestamp  time.Time   `json:"timestamp"`
}

// BarEvent represents a Kafka event carrying one daily bar from the feed.
// Prices and IV travel as strings to avoid float drift across producers.
type BarEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Open      string    `json:"open"`
	High      string    `json:"high"`
	Low       string    `json:"low"`
	Close     string    `json:"close"`
	IV        *string   `json:"iv,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IngestEvent summarizes one completed feed sync for a symbol
type IngestEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Bars      int       `json:"bars"`
	Timestamp time.Time `json:"timestamp"`
}
