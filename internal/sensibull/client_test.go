package sensibull

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIVChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/compute/iv_chart/RELIANCE", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"payload": {
				"iv_ohlc_data": {
					"2024-03-05": {"open": 2940, "high": 2970, "low": 2920, "close": 2955.5, "iv": 24.7},
					"2024-03-04": {"open": 2900, "high": 2950, "low": 2890, "close": 2940.0, "iv": 23.1},
					"2024-03-06": {"open": 2955, "high": 2980, "low": 2940, "close": 2960.0, "iv": 0}
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	bars, err := client.IVChart(context.Background(), "RELIANCE")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	// Date ascending regardless of map ordering in the payload.
	assert.Equal(t, "2024-03-04", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-03-06", bars[2].Date.Format("2006-01-02"))

	require.NotNil(t, bars[0].IV)
	assert.True(t, decimal.NewFromFloat(23.1).Equal(*bars[0].IV))
	assert.True(t, decimal.NewFromFloat(2955.5).Equal(bars[1].Close))

	// A zero IV from the feed is an absent observation, not a value.
	assert.Nil(t, bars[2].IV)
}

func TestIVChartHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.IVChart(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestInstruments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/compute/cache/instrument_metacache/2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"underlyer_list": {
				"NSE": {
					"NSE": {
						"EQ": {
							"RELIANCE": {"instrument_token": 738561, "name": "Reliance Industries", "tradingsymbol": "RELIANCE", "lot_size": 250, "tick_size": 0.05},
							"TCS": {"instrument_token": 2953217, "name": "Tata Consultancy Services", "tradingsymbol": "TCS", "lot_size": 175, "tick_size": 0.05}
						}
					},
					"NSE-INDICES": {
						"EQ": {
							"NIFTY": {"instrument_token": 256265, "name": "Nifty 50", "tradingsymbol": "NIFTY", "lot_size": 50, "tick_size": 0.05}
						}
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	instruments, err := client.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, instruments, 3)

	// Sorted by symbol.
	assert.Equal(t, "NIFTY", instruments[0].Symbol)
	assert.Equal(t, "RELIANCE", instruments[1].Symbol)
	assert.Equal(t, "TCS", instruments[2].Symbol)

	assert.Equal(t, "NSE-INDICES", instruments[0].Underlying)
	assert.Equal(t, 250.0, instruments[1].LotSize)
	assert.True(t, instruments[2].Enabled)
}
