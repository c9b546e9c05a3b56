package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/report"
	"github.com/dpathania/cricket-atlas/internal/worker"
)

var (
	trendFrom   int
	trendTo     int
	trendFormat string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Year-by-year home-win trend",
	Args:  cobra.NoArgs,
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVar(&trendFrom, "from", 0, "first year (default: configured minimum)")
	trendCmd.Flags().IntVar(&trendTo, "to", 0, "last year (default: configured maximum)")
	trendCmd.Flags().StringVar(&trendFormat, "format", "all", "match format: all, test, odi, t20")
}

func runTrend(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	format, err := model.ParseFormat(trendFormat)
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	yr := yearRange(cfg, trendFrom, trendTo)
	d := worker.NewDispatcher(log, cfg.Worker.Timeout)
	d.Start()
	defer d.Stop()

	res, err := d.Do(context.Background(), func(context.Context) (any, error) {
		return eng.ComputeYearTrend(yr, format)
	})
	if err != nil {
		return fmt.Errorf("compute trend: %w", err)
	}
	trend := res.([]model.YearMetric)
	if len(trend) == 0 {
		fmt.Println("no countable matches found")
		return nil
	}
	report.PrintTrendTable(os.Stdout, trend)
	return nil
}
