// Command report runs read-only queries against the snapshot store:
// latest snapshot per market, recent time-series for one market, and
// cross-source price spreads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rickgao/prediction-data/internal/config"
	"github.com/rickgao/prediction-data/internal/model"
	"github.com/rickgao/prediction-data/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	latest := flag.Bool("latest", false, "show the latest snapshot per market")
	timeseries := flag.String("timeseries", "", "market ID to show a time-series for")
	srcName := flag.String("source", "", "source for -timeseries (kalshi or polymarket)")
	spreads := flag.Bool("spreads", false, "show cross-source price spreads")
	threshold := flag.Float64("threshold", 0.03, "minimum spread for -spreads")
	limit := flag.Int("limit", 20, "maximum rows to show")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Connect(ctx, cfg.Database.Postgres, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch {
	case *latest:
		err = printLatest(ctx, db, *limit)
	case *timeseries != "":
		if *srcName == "" {
			fmt.Fprintln(os.Stderr, "-source is required with -timeseries")
			os.Exit(2)
		}
		var src model.Source
		src, err = model.ParseSource(*srcName)
		if err == nil {
			err = printTimeSeries(ctx, db, *timeseries, src, *limit)
		}
	case *spreads:
		err = printSpreads(ctx, db, *threshold, *limit)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printLatest(ctx context.Context, db *store.Store, limit int) error {
	snaps, err := db.LatestPerMarket(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Println("LATEST SNAPSHOTS")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tMARKET ID\tTITLE\tOUTCOME\tPRICE\tVOLUME\tTIMESTAMP")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%.1f\t%s\n",
			s.Source, s.MarketID, s.Title, s.Outcome, s.Price, s.Volume,
			s.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func printTimeSeries(ctx context.Context, db *store.Store, marketID string, src model.Source, limit int) error {
	points, err := db.TimeSeries(ctx, marketID, src, limit)
	if err != nil {
		return err
	}

	fmt.Printf("RECENT TIME-SERIES (%s, %s)\n", src, marketID)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tPRICE\tVOLUME")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%.4f\t%.1f\n",
			p.Timestamp.Format(time.RFC3339), p.Price, p.Volume)
	}
	return w.Flush()
}

func printSpreads(ctx context.Context, db *store.Store, threshold float64, limit int) error {
	rows, err := db.Spreads(ctx, model.SourceKalshi, model.SourcePolymarket, threshold, limit)
	if err != nil {
		return err
	}

	fmt.Printf("TOP SPREADS (> %.2f)\n", threshold)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tKALSHI ID\tPOLY ID\tKALSHI\tPOLY\tSPREAD")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\n",
			r.Title, r.AMarketID, r.BMarketID, r.APrice, r.BPrice, r.Spread)
	}
	return w.Flush()
}
