package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/config"
	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/report"
	"github.com/dpathania/cricket-atlas/internal/worker"
)

var (
	choroFrom   int
	choroTo     int
	choroFormat string
)

var choroplethCmd = &cobra.Command{
	Use:   "choropleth",
	Short: "Per-country home-win percentages over a year range",
	Args:  cobra.NoArgs,
	RunE:  runChoropleth,
}

func init() {
	choroplethCmd.Flags().IntVar(&choroFrom, "from", 0, "first year (default: configured minimum)")
	choroplethCmd.Flags().IntVar(&choroTo, "to", 0, "last year (default: configured maximum)")
	choroplethCmd.Flags().StringVar(&choroFormat, "format", "all", "match format: all, test, odi, t20")
}

func runChoropleth(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	format, err := model.ParseFormat(choroFormat)
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	yr := yearRange(cfg, choroFrom, choroTo)
	d := worker.NewDispatcher(log, cfg.Worker.Timeout)
	d.Start()
	defer d.Stop()

	res, err := d.Do(context.Background(), func(context.Context) (any, error) {
		return eng.ComputeChoropleth(yr, format)
	})
	if err != nil {
		return fmt.Errorf("compute choropleth: %w", err)
	}
	agg := res.(map[string]*model.CountryAggregate)
	if len(agg) == 0 {
		fmt.Println("no countable matches found")
		return nil
	}
	report.PrintChoroplethTable(os.Stdout, agg)
	return nil
}

// yearRange resolves --from/--to flags against the configured bounds; zero
// means the bound itself.
func yearRange(cfg *config.Config, from, to int) model.YearRange {
	yr := model.YearRange{Min: cfg.Years.Min, Max: cfg.Years.Max}
	if from != 0 {
		yr.Min = from
	}
	if to != 0 {
		yr.Max = to
	}
	return yr.Normalize(cfg.Years.Min, cfg.Years.Max)
}
