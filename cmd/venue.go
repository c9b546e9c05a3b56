package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/report"
	"github.com/dpathania/cricket-atlas/internal/worker"
)

var (
	venueFrom    int
	venueTo      int
	venueFormat  string
	venueNames   string
	venueCity    string
	venueCountry string
)

var venueCmd = &cobra.Command{
	Use:   "venue [name]",
	Short: "Batting and bowling summary for one venue",
	Long: `Compute batting/bowling metrics for a venue. The venue is matched by its
name and any alternates given with --names; with no name at all, --city and
--country form a fallback candidate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVenue,
}

func init() {
	venueCmd.Flags().IntVar(&venueFrom, "from", 0, "first year (default: configured minimum)")
	venueCmd.Flags().IntVar(&venueTo, "to", 0, "last year (default: configured maximum)")
	venueCmd.Flags().StringVar(&venueFormat, "format", "all", "match format: all, test, odi, t20")
	venueCmd.Flags().StringVar(&venueNames, "names", "", `alternate names, separated by ";"`)
	venueCmd.Flags().StringVar(&venueCity, "city", "", "venue city (fallback when no name is known)")
	venueCmd.Flags().StringVar(&venueCountry, "country", "", "venue country (fallback when no name is known)")
}

func runVenue(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	sel := model.VenueSelection{
		Names:   venueNames,
		City:    venueCity,
		Country: venueCountry,
	}
	if len(args) == 1 {
		sel.Name = args[0]
	}
	if len(sel.AliasCandidates()) == 0 {
		return fmt.Errorf("nothing identifies the venue: give a name, --names, or --city/--country")
	}

	format, err := model.ParseFormat(venueFormat)
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	yr := yearRange(cfg, venueFrom, venueTo)
	d := worker.NewDispatcher(log, cfg.Worker.Timeout)
	d.Start()
	defer d.Stop()

	res, err := d.Do(context.Background(), func(context.Context) (any, error) {
		return eng.ComputeVenueMetrics(sel, yr, format)
	})
	if err != nil {
		return fmt.Errorf("compute venue metrics: %w", err)
	}
	sets := res.(map[model.FormatKey]*model.VenueMetricSet)
	if len(sets) == 0 {
		fmt.Println("no venue data available in this database")
		return nil
	}

	label := sel.Name
	if label == "" {
		label = strings.TrimSpace(venueCity + " " + venueCountry)
	}
	report.PrintVenuePanel(os.Stdout, label, sets)
	return nil
}
