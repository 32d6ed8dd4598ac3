package models

import "time"

// Summary is the computed volatility statistics row for one instrument at its
// latest observation. Pointer fields are nil when the underlying metric could
// not be computed (insufficient variance or history); nil is rendered as JSON
// null and must never be conflated with a legitimate zero.
type Summary struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name,omitempty"`
	LastDate     time.Time `json:"last_date"`
	CurrentPrice float64   `json:"current_price"`
	CurrentIV    float64   `json:"current_iv"`
	IVRank       *float64  `json:"iv_rank"`
	IVPercentile float64   `json:"iv_percentile"`
	IVMeanRatio  *float64  `json:"iv_mean_ratio"`
	IVRecentJump *float64  `json:"iv_recent_jump"`
	Return6M     *float64  `json:"return_6m"`
	Return1M     *float64  `json:"return_1m"`
	Return1W     *float64  `json:"return_1w"`
}
