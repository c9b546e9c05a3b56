package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/report"
	"github.com/dpathania/cricket-atlas/internal/schema"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the discovered schema: tables and column bindings",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
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

	tables, err := schema.ListTables(db)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("the database has no tables")
		return nil
	}
	sm, err := eng.Schema()
	if err != nil {
		return fmt.Errorf("discover schema: %w", err)
	}
	report.PrintTableList(os.Stdout, tables, sm)
	return nil
}
