package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one day's OHLC + implied volatility observation for an
// instrument. IV is expressed as a percentage (23.4 means 23.4%) and is nil
// when the feed had no IV for that day; it is never negative and never
// coerced to zero.
type Bar struct {
	ID        int              `json:"id"`
	Symbol    string           `json:"symbol"`
	Date      time.Time        `json:"date"`
	Open      decimal.Decimal  `json:"open"`
	High      decimal.Decimal  `json:"high"`
	Low       decimal.Decimal  `json:"low"`
	Close     decimal.Decimal  `json:"close"`
	IV        *decimal.Decimal `json:"iv,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// HasIV reports whether the bar carries an implied volatility observation.
func (b *Bar) HasIV() bool {
	return b.IV != nil
}
