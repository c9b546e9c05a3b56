package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "One-screen overview of the database",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, eng, err := openEngine(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	yr := model.YearRange{Min: cfg.Years.Min, Max: cfg.Years.Max}
	agg, err := eng.ComputeChoropleth(yr, model.FormatAll)
	if err != nil {
		return err
	}
	venueCountries, err := eng.VenueCountries()
	if err != nil {
		return err
	}

	var matches, wins int
	for _, c := range agg {
		matches += c.Matches
		wins += c.HomeWins
	}
	fmt.Printf("Years:           %d–%d\n", yr.Min, yr.Max)
	fmt.Printf("Host countries:  %d\n", len(agg))
	fmt.Printf("Venue countries: %d\n", len(venueCountries))
	fmt.Printf("Counted matches: %d (home side won %d)\n", matches, wins)

	if len(agg) == 0 {
		return nil
	}
	type hostRow struct {
		country string
		pct     float64
		matches int
	}
	var rows []hostRow
	for c, a := range agg {
		if a.WinPct == nil || a.Matches < 10 {
			continue
		}
		rows = append(rows, hostRow{c, *a.WinPct, a.Matches})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].pct > rows[j].pct })
	if len(rows) > 5 {
		rows = rows[:5]
	}
	if len(rows) > 0 {
		fmt.Println("\nStrongest home advantage (min 10 matches):")
		for _, r := range rows {
			fmt.Printf("  %-20s %5.1f%%  (%d matches)\n", r.country, r.pct*100, r.matches)
		}
	}
	return nil
}
