package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var venuesCmd = &cobra.Command{
	Use:   "venues <country>",
	Short: "List the venues located in a country",
	Args:  cobra.ExactArgs(1),
	RunE:  runVenues,
}

func runVenues(cmd *cobra.Command, args []string) error {
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

	venues, err := eng.VenuesForCountry(args[0])
	if err != nil {
		return fmt.Errorf("list venues: %w", err)
	}
	if len(venues) == 0 {
		fmt.Printf("no venues found for %q\n", args[0])
		return nil
	}
	for _, v := range venues {
		fmt.Println(v)
	}
	return nil
}
