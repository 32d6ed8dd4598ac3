package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ivpulse/iv-scanner/internal/metrics"
	"github.com/ivpulse/iv-scanner/internal/models"
)

// SeriesProvider supplies the scan universe and per-instrument bar series
type SeriesProvider interface {
	GetEnabledInstruments() ([]*models.Instrument, error)
	GetSeries(symbol string, limit int) ([]*models.Bar, error)
}

// Summarizer turns one instrument's series into its summary row
type Summarizer interface {
	Summarize(symbol, name string, bars []*models.Bar) (*models.Summary, error)
}

// Result aggregates one scan run
type Result struct {
	Summaries []*models.Summary `json:"summaries"`
	Scanned   int               `json:"scanned"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
}

// Scanner runs the metrics engine across the whole instrument panel. Each
// instrument is independent and read-only, so summarization fans out over a
// fixed worker pool with no shared mutable state beyond result collection.
type Scanner struct {
	store       SeriesProvider
	engine      Summarizer
	workers     int
	seriesLimit int
	log         zerolog.Logger
}

// NewScanner creates a scanner. workers <= 0 defaults to 8; seriesLimit <= 0
// defaults to 365 bars per instrument.
func NewScanner(store SeriesProvider, engine Summarizer, workers, seriesLimit int, log zerolog.Logger) *Scanner {
	if workers <= 0 {
		workers = 8
	}
	if seriesLimit <= 0 {
		seriesLimit = 365
	}
	return &Scanner{
		store:       store,
		engine:      engine,
		workers:     workers,
		seriesLimit: seriesLimit,
		log:         log,
	}
}

type job struct {
	symbol string
	name   string
}

type outcome struct {
	summary *models.Summary
	skipped bool
	failed  bool
}

// Run scans every enabled instrument and returns one summary per instrument
// with usable data, sorted by IV rank descending (missing ranks last).
// Instruments without usable IV history are excluded, never emitted as
// partial rows; a store failure on one instrument never aborts the batch.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	instruments, err := s.store.GetEnabledInstruments()
	if err != nil {
		return nil, fmt.Errorf("failed to load scan universe: %w", err)
	}

	jobs := make(chan job, len(instruments))
	for _, inst := range instruments {
		jobs <- job{symbol: inst.Symbol, name: inst.Name}
	}
	close(jobs)

	outcomes := make(chan outcome, len(instruments))

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcomes <- s.scanOne(j)
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	result := &Result{Scanned: len(instruments)}
	for o := range outcomes {
		switch {
		case o.failed:
			result.Failed++
		case o.skipped:
			result.Skipped++
		default:
			result.Summaries = append(result.Summaries, o.summary)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortByRank(result.Summaries)

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("rows", len(result.Summaries)).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("scan complete")

	return result, nil
}

func (s *Scanner) scanOne(j job) outcome {
	bars, err := s.store.GetSeries(j.symbol, s.seriesLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", j.symbol).Msg("series load failed")
		return outcome{failed: true}
	}

	summary, err := s.engine.Summarize(j.symbol, j.name, bars)
	if errors.Is(err, metrics.ErrNoData) {
		s.log.Debug().Str("symbol", j.symbol).Msg("no usable iv history, skipping")
		return outcome{skipped: true}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", j.symbol).Msg("summarize failed")
		return outcome{failed: true}
	}

	return outcome{summary: summary}
}

// sortByRank orders rows by IV rank descending with missing ranks last,
// tie-broken by symbol so the output is stable across runs regardless of
// worker completion order.
func sortByRank(summaries []*models.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		ri, rj := summaries[i].IVRank, summaries[j].IVRank
		switch {
		case ri == nil && rj == nil:
			return summaries[i].Symbol < summaries[j].Symbol
		case ri == nil:
			return false
		case rj == nil:
			return true
		case *ri != *rj:
			return *ri > *rj
		default:
			return summaries[i].Symbol < summaries[j].Symbol
		}
	})
}
