package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the database",
	Long: `Run an arbitrary SQL query and print the result as a table.

The schema varies per database; run 'cricatlas tables' to see what this one
has. Typical dumps carry some of:
  venues(name, country, lon|longitude, lat|latitude, iso3, iso2)
  odi_results / test_results / t20_results(winner, date, venue_country,
    neutral_venue, result_type, format, ...)
  matches(match_id, venue, date, format, winner, toss_winner, toss_decision,
    team1, team2, result)
  batting_innings(match_id, innings_no, runs, balls, out, boundary_pct)
  bowling_innings(match_id, runs_conceded, legal_balls, wickets)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, _, err := openEngine(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	query := strings.Join(args, " ")
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRaw(os.Stdout, cols, rows)
	return nil
}
