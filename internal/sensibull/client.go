package sensibull

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// DefaultBaseURL is the Sensibull compute API
const DefaultBaseURL = "https://oxide.sensibull.com"

// Client fetches instrument metadata and daily IV/OHLC series from the
// upstream feed
type Client struct {
	http *resty.Client
}

// NewClient creates a feed client for the given base URL
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: client}
}

type ivChartResponse struct {
	Payload struct {
		IVOHLCData map[string]ivChartPoint `json:"iv_ohlc_data"`
	} `json:"payload"`
}

type ivChartPoint struct {
	Open  decimal.Decimal  `json:"open"`
	High  decimal.Decimal  `json:"high"`
	Low   decimal.Decimal  `json:"low"`
	Close decimal.Decimal  `json:"close"`
	IV    *decimal.Decimal `json:"iv"`
}

// IVChart downloads the daily IV/OHLC series for one symbol, returned in date
// ascending order. Absent or non-positive IV values map to a nil IV, never 0.
func (c *Client) IVChart(ctx context.Context, symbol string) ([]*models.Bar, error) {
	var out ivChartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/compute/iv_chart/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch iv chart for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("iv chart request for %s returned %s", symbol, resp.Status())
	}

	dates := make([]string, 0, len(out.Payload.IVOHLCData))
	for d := range out.Payload.IVOHLCData {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	bars := make([]*models.Bar, 0, len(dates))
	for _, d := range dates {
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in iv chart for %s: %w", d, symbol, err)
		}
		point := out.Payload.IVOHLCData[d]
		bar := &models.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   point.Open,
			High:   point.High,
			Low:    point.Low,
			Close:  point.Close,
		}
		if point.IV != nil && point.IV.IsPositive() {
			iv := *point.IV
			bar.IV = &iv
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

type metacacheResponse struct {
	UnderlyerList map[string]map[string]map[string]map[string]underlyerEntry `json:"underlyer_list"`
}

type underlyerEntry struct {
	InstrumentToken int     `json:"instrument_token"`
	Name            string  `json:"name"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TickSize        float64 `json:"tick_size"`
	LotSize         float64 `json:"lot_size"`
}

// Instruments downloads the tradable F&O underlyings (NSE equities and
// indices) from the instrument metacache
func (c *Client) Instruments(ctx context.Context) ([]*models.Instrument, error) {
	var out metacacheResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/compute/cache/instrument_metacache/2")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instrument metacache: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("instrument metacache request returned %s", resp.Status())
	}

	var instruments []*models.Instrument
	for underlying, entries := range map[string]map[string]underlyerEntry{
		"NSE":         pick(out.UnderlyerList, "NSE", "NSE"),
		"NSE-INDICES": pick(out.UnderlyerList, "NSE", "NSE-INDICES"),
	} {
		for symbol, e := range entries {
			if e.TradingSymbol != "" {
				symbol = e.TradingSymbol
			}
			instruments = append(instruments, &models.Instrument{
				InstrumentToken: e.InstrumentToken,
				Symbol:          symbol,
				Name:            e.Name,
				Underlying:      underlying,
				LotSize:         e.LotSize,
				TickSize:        e.TickSize,
				Enabled:         true,
			})
		}
	}

	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Symbol < instruments[j].Symbol
	})
	return instruments, nil
}

func pick(m map[string]map[string]map[string]map[string]underlyerEntry, exchange, segment string) map[string]underlyerEntry {
	return m[exchange][segment]["EQ"]
}
