// Command scan runs one scan over the stored series and prints the summary
// table, sorted by IV rank. Metrics that could not be computed print as a
// dash, never as zero.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ivpulse/iv-scanner/internal/config"
	"github.com/ivpulse/iv-scanner/internal/database"
	"github.com/ivpulse/iv-scanner/internal/metrics"
	"github.com/ivpulse/iv-scanner/internal/scan"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	engine := metrics.NewEngine(metrics.Config{
		WindowSize: cfg.Scan.WindowSize,
		JumpWindow: cfg.Scan.JumpWindow,
		Return6M:   cfg.Scan.Return6M,
		Return1M:   cfg.Scan.Return1M,
		Return1W:   cfg.Scan.Return1W,
	})
	scanner := scan.NewScanner(db, engine, cfg.Scan.Workers, cfg.Scan.WindowSize, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := scanner.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tDATE\tPRICE\tIV\tRANK\tPCTILE\tMEAN RATIO\tJUMP\t6M\t1M\t1W")
	for _, s := range result.Summaries {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			s.Symbol,
			s.LastDate.Format("2006-01-02"),
			s.CurrentPrice,
			s.CurrentIV,
			dash(s.IVRank),
			s.IVPercentile,
			dash(s.IVMeanRatio),
			dash(s.IVRecentJump),
			dash(s.Return6M),
			dash(s.Return1M),
			dash(s.Return1W),
		)
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "\n%d instruments scanned, %d rows, %d skipped, %d failed\n",
		result.Scanned, len(result.Summaries), result.Skipped, result.Failed)
}

func dash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
