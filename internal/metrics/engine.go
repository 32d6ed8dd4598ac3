package metrics

import (
	"errors"
	"math"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// ErrNoData indicates an instrument with zero usable IV-bearing bars. The
// instrument is excluded from the scan output entirely; no partial row is
// emitted.
var ErrNoData = errors.New("no usable implied volatility data")

// Config holds the trailing-window parameters of the engine. The return
// horizons are trading-day counts approximating six months, one month and one
// week; they are deliberately configurable rather than hard rules.
type Config struct {
	WindowSize int // max IV observations in the trailing window
	JumpWindow int // IV observations in the recent-jump baseline
	Return6M   int // trading days for the 6-month return
	Return1M   int // trading days for the 1-month return
	Return1W   int // trading days for the 1-week return
}

// DefaultConfig returns the production window parameters.
func DefaultConfig() Config {
	return Config{
		WindowSize: 365,
		JumpWindow: 6,
		Return6M:   126,
		Return1M:   21,
		Return1W:   5,
	}
}

// Engine computes per-instrument volatility summaries. It is stateless and
// safe for concurrent use; each call depends only on its inputs.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling zero config fields from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.JumpWindow <= 0 {
		cfg.JumpWindow = def.JumpWindow
	}
	if cfg.Return6M <= 0 {
		cfg.Return6M = def.Return6M
	}
	if cfg.Return1M <= 0 {
		cfg.Return1M = def.Return1M
	}
	if cfg.Return1W <= 0 {
		cfg.Return1W = def.Return1W
	}
	return &Engine{cfg: cfg}
}

// Summarize transforms one instrument's bar series into its Summary row.
// Bars must be ordered by date ascending with unique dates; calendar gaps are
// fine, the window always counts available bars. Returns ErrNoData when the
// series is empty or no bar carries an IV observation.
func (e *Engine) Summarize(symbol, name string, bars []*models.Bar) (*models.Summary, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	// Trailing IV window, chronological order, most recent cfg.WindowSize
	// observations that actually have an IV.
	window := make([]float64, 0, min(len(bars), e.cfg.WindowSize))
	for i := len(bars) - 1; i >= 0 && len(window) < e.cfg.WindowSize; i-- {
		if bars[i].HasIV() {
			window = append(window, bars[i].IV.InexactFloat64())
		}
	}
	if len(window) == 0 {
		return nil, ErrNoData
	}
	reverse(window)

	currentIV := window[len(window)-1]
	last := bars[len(bars)-1]

	s := &models.Summary{
		Symbol:       symbol,
		Name:         name,
		LastDate:     last.Date,
		CurrentPrice: round2(last.Close.InexactFloat64()),
		CurrentIV:    round2(currentIV),
	}

	minIV, maxIV := window[0], window[0]
	var sum float64
	for _, v := range window {
		if v < minIV {
			minIV = v
		}
		if v > maxIV {
			maxIV = v
		}
		sum += v
	}

	// Zero range means the rank is undefined, not 0 and not 100.
	if maxIV > minIV {
		s.IVRank = round2p((currentIV - minIV) / (maxIV - minIV) * 100)
	}

	atOrBelow := 0
	for _, v := range window {
		if v <= currentIV {
			atOrBelow++
		}
	}
	s.IVPercentile = round2(float64(atOrBelow) / float64(len(window)) * 100)

	if mean := sum / float64(len(window)); mean > 0 {
		s.IVMeanRatio = round2p(currentIV / mean)
	}

	jump := window
	if len(jump) > e.cfg.JumpWindow {
		jump = jump[len(jump)-e.cfg.JumpWindow:]
	}
	var jumpSum float64
	for _, v := range jump {
		jumpSum += v
	}
	if jumpMean := jumpSum / float64(len(jump)); jumpMean > 0 {
		s.IVRecentJump = round2p(currentIV / jumpMean)
	}

	s.Return6M = e.trailingReturn(bars, e.cfg.Return6M)
	s.Return1M = e.trailingReturn(bars, e.cfg.Return1M)
	s.Return1W = e.trailingReturn(bars, e.cfg.Return1W)

	return s, nil
}

// trailingReturn computes close[last]/close[last-n] - 1, or nil when the
// series is shorter than n+1 bars or the reference close is non-positive.
func (e *Engine) trailingReturn(bars []*models.Bar, n int) *float64 {
	last := len(bars) - 1
	if last-n < 0 {
		return nil
	}
	ref := bars[last-n].Close.InexactFloat64()
	if ref <= 0 {
		return nil
	}
	return round2p(bars[last].Close.InexactFloat64()/ref - 1)
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2p(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := round2(v)
	return &r
}
