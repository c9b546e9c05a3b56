package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/report"
	"github.com/dpathania/cricket-atlas/internal/worker"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long: `Open a persistent session against the database. Year-range changes are
debounced: scrub with repeated 'years' commands and only the settled range
is computed. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
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

	d := worker.NewDispatcher(log, cfg.Worker.Timeout)
	d.Start()
	defer d.Stop()
	deb := worker.NewDebouncer(cfg.Worker.Debounce)
	defer deb.Stop()

	yr := model.YearRange{Min: cfg.Years.Min, Max: cfg.Years.Max}
	format := model.FormatAll

	showMap := func(r model.YearRange, f model.FormatKey) {
		res, err := d.Do(context.Background(), func(context.Context) (any, error) {
			return eng.ComputeChoropleth(r, f)
		})
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		agg := res.(map[string]*model.CountryAggregate)
		if len(agg) == 0 {
			cMuted.Println("no countable matches")
			return
		}
		report.PrintChoroplethTable(os.Stdout, agg)
	}

	cGreeting.Println("cricatlas shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cricatlas")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "years":
			if len(args) != 2 {
				cError.Fprintln(os.Stderr, "usage: years <from> <to>")
				continue
			}
			from, err1 := strconv.Atoi(args[0])
			to, err2 := strconv.Atoi(args[1])
			if err1 != nil || err2 != nil {
				cError.Fprintln(os.Stderr, "usage: years <from> <to>")
				continue
			}
			yr = model.YearRange{Min: from, Max: to}.Normalize(cfg.Years.Min, cfg.Years.Max)
			cMuted.Printf("years %d–%d\n", yr.Min, yr.Max)
			// Scrubbing: a burst of years commands computes only the last.
			r, f := yr, format
			deb.Trigger(func() { showMap(r, f) })
		case "format":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: format <all|test|odi|t20>")
				continue
			}
			f, err := model.ParseFormat(args[0])
			if err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			format = f
			cMuted.Printf("format %s\n", format)
		case "map":
			deb.Stop()
			showMap(yr, format)
		case "trend":
			deb.Stop()
			res, err := d.Do(context.Background(), func(context.Context) (any, error) {
				return eng.ComputeYearTrend(yr, format)
			})
			if err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			report.PrintTrendTable(os.Stdout, res.([]model.YearMetric))
		case "venue":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: venue <name>")
				continue
			}
			deb.Stop()
			sel := model.VenueSelection{Name: strings.Join(args, " ")}
			res, err := d.Do(context.Background(), func(context.Context) (any, error) {
				return eng.ComputeVenueMetrics(sel, yr, format)
			})
			if err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			sets := res.(map[model.FormatKey]*model.VenueMetricSet)
			if len(sets) == 0 {
				cMuted.Println("no venue data available")
				continue
			}
			report.PrintVenuePanel(os.Stdout, sel.Name, sets)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q — type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"years <from> <to>", "set the year range (debounced map recompute)"},
		{"format <all|test|odi|t20>", "set the format filter"},
		{"map", "show the per-country home-win table now"},
		{"trend", "show the year-by-year trend"},
		{"venue <name>", "show one venue's metric panel"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-28s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}
