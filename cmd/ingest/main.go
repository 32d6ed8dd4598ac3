// Command ingest synchronizes the instrument universe and every instrument's
// daily IV/OHLC series from the upstream feed into the series store. Failures
// are per-symbol: one bad download never aborts the sync.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ivpulse/iv-scanner/internal/config"
	"github.com/ivpulse/iv-scanner/internal/database"
	"github.com/ivpulse/iv-scanner/internal/kafka"
	"github.com/ivpulse/iv-scanner/internal/sensibull"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		symbolsFlag     = flag.String("symbols", "", "comma-separated symbols to sync (default: all enabled)")
		skipInstruments = flag.Bool("skip-instruments", false, "skip refreshing the instrument universe")
	)
	flag.Parse()

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	feed := sensibull.NewClient(cfg.Feed.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*skipInstruments {
		if err := syncInstruments(ctx, feed, db); err != nil {
			log.Fatal().Err(err).Msg("instrument sync failed")
		}
	}

	symbols, err := resolveSymbols(db, *symbolsFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve symbols")
	}

	var succeeded, failed int
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			log.Warn().Msg("interrupted, stopping sync")
			break
		}
		if err := syncSeries(ctx, feed, db, producer, symbol); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("series sync failed")
			failed++
			continue
		}
		succeeded++
	}

	log.Info().Int("succeeded", succeeded).Int("failed", failed).Msg("ingest complete")
	if failed > 0 && succeeded == 0 {
		os.Exit(1)
	}
}

func syncInstruments(ctx context.Context, feed *sensibull.Client, db *database.DB) error {
	instruments, err := feed.Instruments(ctx)
	if err != nil {
		return err
	}
	for _, inst := range instruments {
		if err := db.UpsertInstrument(inst); err != nil {
			return err
		}
	}
	log.Info().Int("count", len(instruments)).Msg("instrument universe refreshed")
	return nil
}

func resolveSymbols(db *database.DB, symbolsFlag string) ([]string, error) {
	if symbolsFlag != "" {
		var symbols []string
		for _, s := range strings.Split(symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
		return symbols, nil
	}
	return db.GetEnabledSymbols()
}

func syncSeries(ctx context.Context, feed *sensibull.Client, db *database.DB, producer *kafka.Producer, symbol string) error {
	bars, err := feed.IVChart(ctx, symbol)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		log.Warn().Str("symbol", symbol).Msg("feed returned no bars")
		return nil
	}

	if err := db.UpsertBarBatch(bars); err != nil {
		return err
	}

	if err := producer.PublishBarsIngested(ctx, symbol, len(bars)); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish ingest event")
	}

	log.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("series synced")
	return nil
}
