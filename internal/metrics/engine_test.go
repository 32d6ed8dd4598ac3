package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// testBars builds a daily series starting 2024-01-01. closes[i] is the close
// price; ivs[i] is the IV for that day, with NaN-like nil expressed as a
// negative sentinel.
func testBars(t *testing.T, closes []float64, ivs []*float64) []*models.Bar {
	t.Helper()
	require.Equal(t, len(closes), len(ivs))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.Bar, 0, len(closes))
	for i := range closes {
		c := decimal.NewFromFloat(closes[i])
		b := &models.Bar{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
		}
		if ivs[i] != nil {
			iv := decimal.NewFromFloat(*ivs[i])
			b.IV = &iv
		}
		bars = append(bars, b)
	}
	return bars
}

func ivSeries(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = &vals[i]
	}
	return out
}

func flatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestSummarizeRankAndPercentile(t *testing.T) {
	engine := NewEngine(Config{})

	// W = [10, 20, 30, 40, 50] with current_iv = 40
	bars := testBars(t, flatCloses(5, 100), ivSeries(10, 20, 30, 50, 40))

	s, err := engine.Summarize("TEST", "Test Ltd", bars)
	require.NoError(t, err)

	require.NotNil(t, s.IVRank)
	assert.Equal(t, 75.0, *s.IVRank)
	assert.Equal(t, 80.0, s.IVPercentile)
	assert.Equal(t, 40.0, s.CurrentIV)
	assert.Equal(t, "TEST", s.Symbol)
	assert.Equal(t, "Test Ltd", s.Name)
}

func TestSummarizeNoData(t *testing.T) {
	engine := NewEngine(Config{})

	t.Run("empty series", func(t *testing.T) {
		s, err := engine.Summarize("TEST", "", nil)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Nil(t, s)
	})

	t.Run("all bars missing IV", func(t *testing.T) {
		bars := testBars(t, flatCloses(10, 100), make([]*float64, 10))
		s, err := engine.Summarize("TEST", "", bars)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Nil(t, s)
	})
}

func TestSummarizeConstantIV(t *testing.T) {
	engine := NewEngine(Config{})

	// 40 bars, IV pinned at 15.0: rank is undefined, percentile is 100
	// (every value is at or below current), mean ratio is exactly 1.
	ivs := make([]*float64, 40)
	fifteen := 15.0
	for i := range ivs {
		ivs[i] = &fifteen
	}
	bars := testBars(t, flatCloses(40, 250), ivs)

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	assert.Nil(t, s.IVRank, "zero variance must yield a missing rank, not 0 or 100")
	assert.Equal(t, 100.0, s.IVPercentile)
	require.NotNil(t, s.IVMeanRatio)
	assert.Equal(t, 1.0, *s.IVMeanRatio)
	require.NotNil(t, s.IVRecentJump)
	assert.Equal(t, 1.0, *s.IVRecentJump)
}

func TestSummarizeShortSeriesReturns(t *testing.T) {
	engine := NewEngine(Config{})

	// 3 bars: every return horizon needs more history than exists.
	bars := testBars(t, []float64{100, 101, 102}, ivSeries(20, 21, 22))

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	assert.Nil(t, s.Return6M)
	assert.Nil(t, s.Return1M)
	assert.Nil(t, s.Return1W)
	// The IV metrics still populate.
	assert.NotNil(t, s.IVRank)
	assert.NotNil(t, s.IVMeanRatio)
}

func TestSummarizeTrailingReturns(t *testing.T) {
	engine := NewEngine(Config{})

	// 127 bars climbing from 100 by 1 per day: close[last]=226.
	closes := make([]float64, 127)
	ivs := make([]*float64, 127)
	iv := 30.0
	for i := range closes {
		closes[i] = 100 + float64(i)
		ivs[i] = &iv
	}
	bars := testBars(t, closes, ivs)

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	// close[126]/close[0] - 1 = 226/100 - 1 = 1.26
	require.NotNil(t, s.Return6M)
	assert.Equal(t, 1.26, *s.Return6M)
	// close[126]/close[105] - 1 = 226/205 - 1 ≈ 0.1024 → 0.10
	require.NotNil(t, s.Return1M)
	assert.Equal(t, 0.10, *s.Return1M)
	// close[126]/close[121] - 1 = 226/221 - 1 ≈ 0.0226 → 0.02
	require.NotNil(t, s.Return1W)
	assert.Equal(t, 0.02, *s.Return1W)
}

func TestSummarizeWindowCap(t *testing.T) {
	// WindowSize 5 over 10 IV observations: only the trailing five (6..10)
	// enter the window, so min is 6 and the current value 10 ranks at 100.
	engine := NewEngine(Config{WindowSize: 5})

	bars := testBars(t, flatCloses(10, 50),
		ivSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	require.NotNil(t, s.IVRank)
	assert.Equal(t, 100.0, *s.IVRank)
	assert.Equal(t, 100.0, s.IVPercentile)
}

func TestSummarizeSkipsMissingIV(t *testing.T) {
	engine := NewEngine(Config{})

	// Gaps in IV coverage never pad the window; the last IV-bearing bar
	// supplies current_iv even when trailing bars have none.
	twenty, forty := 20.0, 40.0
	bars := testBars(t, flatCloses(5, 80),
		[]*float64{&twenty, nil, &forty, nil, nil})

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	assert.Equal(t, 40.0, s.CurrentIV)
	require.NotNil(t, s.IVRank)
	assert.Equal(t, 100.0, *s.IVRank)
	assert.Equal(t, 100.0, s.IVPercentile)
	// Price fields still come from the true last bar.
	assert.Equal(t, 80.0, s.CurrentPrice)
}

func TestSummarizeRecentJump(t *testing.T) {
	engine := NewEngine(Config{JumpWindow: 3})

	// Jump baseline = mean of last 3 IV values [20, 20, 50] = 30.
	bars := testBars(t, flatCloses(6, 90), ivSeries(10, 10, 10, 20, 20, 50))

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	require.NotNil(t, s.IVRecentJump)
	assert.InDelta(t, 50.0/30.0, *s.IVRecentJump, 0.005)
}

func TestSummarizeZeroIV(t *testing.T) {
	engine := NewEngine(Config{})

	// All-zero IV: mean is zero, so ratio metrics are missing rather than
	// infinite, and the zero range leaves the rank missing too.
	bars := testBars(t, flatCloses(4, 60), ivSeries(0, 0, 0, 0))

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	assert.Nil(t, s.IVRank)
	assert.Nil(t, s.IVMeanRatio)
	assert.Nil(t, s.IVRecentJump)
	assert.Equal(t, 100.0, s.IVPercentile)
}

func TestSummarizeRankBounds(t *testing.T) {
	engine := NewEngine(Config{})

	cases := []struct {
		name string
		ivs  []float64
	}{
		{"ascending", []float64{5, 10, 15, 20, 25, 30}},
		{"descending", []float64{30, 25, 20, 15, 10, 5}},
		{"current at max", []float64{12, 18, 9, 31}},
		{"current at min", []float64{31, 18, 12, 9}},
		{"spiky", []float64{50, 2, 90, 14, 14, 33}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bars := testBars(t, flatCloses(len(tc.ivs), 100), ivSeries(tc.ivs...))
			s, err := engine.Summarize("TEST", "", bars)
			require.NoError(t, err)

			require.NotNil(t, s.IVRank)
			assert.GreaterOrEqual(t, *s.IVRank, 0.0)
			assert.LessOrEqual(t, *s.IVRank, 100.0)
			assert.GreaterOrEqual(t, s.IVPercentile, 0.0)
			assert.LessOrEqual(t, s.IVPercentile, 100.0)
		})
	}
}

func TestSummarizeMonotonicity(t *testing.T) {
	engine := NewEngine(Config{})

	// With the rest of the window held fixed, raising current_iv never
	// lowers rank or percentile.
	history := []float64{10, 35, 22, 48, 15, 29}

	var prevRank, prevPct float64
	for i, cur := range []float64{12, 20, 30, 40, 48} {
		ivs := append(append([]float64{}, history...), cur)
		bars := testBars(t, flatCloses(len(ivs), 100), ivSeries(ivs...))
		s, err := engine.Summarize("TEST", "", bars)
		require.NoError(t, err)
		require.NotNil(t, s.IVRank)

		if i > 0 {
			assert.GreaterOrEqual(t, *s.IVRank, prevRank)
			assert.GreaterOrEqual(t, s.IVPercentile, prevPct)
		}
		prevRank, prevPct = *s.IVRank, s.IVPercentile
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	engine := NewEngine(Config{})

	bars := testBars(t, []float64{100, 104, 99, 108, 111},
		ivSeries(18, 24, 20, 36, 28))

	first, err := engine.Summarize("TEST", "Test Ltd", bars)
	require.NoError(t, err)
	second, err := engine.Summarize("TEST", "Test Ltd", bars)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSummarizeRounding(t *testing.T) {
	engine := NewEngine(Config{})

	// 1/3 ratios get rounded to two decimals for presentation.
	bars := testBars(t, flatCloses(3, 100), ivSeries(10, 10, 10.0/3.0))

	s, err := engine.Summarize("TEST", "", bars)
	require.NoError(t, err)

	assert.Equal(t, 3.33, s.CurrentIV)
	assert.InDelta(t, 33.33, s.IVPercentile, 0.001)
}

func TestDefaultConfigFill(t *testing.T) {
	e := NewEngine(Config{WindowSize: 90})
	assert.Equal(t, 90, e.cfg.WindowSize)
	assert.Equal(t, DefaultConfig().JumpWindow, e.cfg.JumpWindow)
	assert.Equal(t, DefaultConfig().Return6M, e.cfg.Return6M)
}
