// Package report renders aggregation results as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dpathania/cricket-atlas/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// fmtPct renders a 0..1 ratio as a percentage; nil means no data.
func fmtPct(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// fmtPct100 renders an already-scaled percentage.
func fmtPct100(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

// PrintChoroplethTable writes the per-country home-win table, ordered by
// match count descending so the busiest hosts come first.
func PrintChoroplethTable(w io.Writer, agg map[string]*model.CountryAggregate) {
	countries := make([]string, 0, len(agg))
	for c := range agg {
		countries = append(countries, c)
	}
	sort.Slice(countries, func(i, j int) bool {
		a, b := agg[countries[i]], agg[countries[j]]
		if a.Matches != b.Matches {
			return a.Matches > b.Matches
		}
		return countries[i] < countries[j]
	})

	table := newTable(w)
	table.Header("COUNTRY", "MATCHES", "HOME_WINS", "WIN%", "TEST%", "ODI%", "T20%")
	for _, c := range countries {
		a := agg[c]
		table.Append(
			c,
			strconv.Itoa(a.Matches),
			strconv.Itoa(a.HomeWins),
			fmtPct(a.WinPct),
			fmtPct(bucketPct(a, model.FormatTest)),
			fmtPct(bucketPct(a, model.FormatODI)),
			fmtPct(bucketPct(a, model.FormatT20)),
		)
	}
	table.Render()
}

func bucketPct(a *model.CountryAggregate, f model.FormatKey) *float64 {
	b := a.Formats[f]
	if b == nil {
		return nil
	}
	return b.WinPct
}

// PrintTrendTable writes the year-by-year home-win trend.
func PrintTrendTable(w io.Writer, trend []model.YearMetric) {
	table := newTable(w)
	table.Header("YEAR", "MATCHES", "HOME_WINS", "WIN%")
	for _, m := range trend {
		table.Append(
			strconv.Itoa(m.Year),
			strconv.Itoa(m.Matches),
			strconv.Itoa(m.HomeWins),
			fmtPct(m.WinPct),
		)
	}
	table.Render()
}

// PrintVenuePanel writes the per-format metric table for one venue followed
// by its innings-by-innings averages.
func PrintVenuePanel(w io.Writer, venue string, sets map[model.FormatKey]*model.VenueMetricSet) {
	fmt.Fprintf(w, "\nVenue: %s\n\n", venue)

	order := append([]model.FormatKey{model.FormatAll}, model.Formats...)

	table := newTable(w)
	table.Header("FORMAT", "MATCHES", "RESULTS", "BAT_SR", "BAT_AVG", "BOUND%", "ECON", "BOWL_AVG", "BOWL_SR", "BAT1ST_WIN%")
	for _, f := range order {
		ms := sets[f]
		if ms == nil {
			continue
		}
		table.Append(
			string(f),
			strconv.Itoa(ms.MatchesCount),
			strconv.Itoa(ms.MatchesWithResult),
			fmtFloat(ms.BattingStrikeRate),
			fmtFloat(ms.BattingAverage),
			fmtPct100(ms.BoundaryPct),
			fmtFloat(ms.BowlingEconomy),
			fmtFloat(ms.BowlingAverage),
			fmtFloat(ms.BowlingStrikeRate),
			fmtPct(ms.BattingFirstWinPct),
		)
	}
	table.Render()

	for _, f := range order {
		ms := sets[f]
		if ms == nil || len(ms.InningsByNumber) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nInnings averages (%s):\n", f)
		inn := newTable(w)
		inn.Header("INNINGS", "AVG_RUNS", "SAMPLES")
		for _, b := range ms.InningsByNumber {
			inn.Append(
				strconv.Itoa(b.InningsNumber),
				fmtFloat(b.AverageRuns),
				strconv.Itoa(b.Count),
			)
		}
		inn.Render()
	}
}

// PrintRaw writes an arbitrary query result, for the sql subcommand.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, r := range rows {
		cells := make([]any, len(r))
		for i, v := range r {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// PrintTableList writes the discovered catalog: every table, and which of
// them qualified as match tables with their column bindings.
func PrintTableList(w io.Writer, tables []string, sm *model.SchemaMap) {
	qualified := make(map[string]model.MatchTable, len(sm.MatchTables))
	for _, t := range sm.MatchTables {
		qualified[t.Name] = t
	}

	table := newTable(w)
	table.Header("TABLE", "MATCH_SOURCE", "WINNER", "DATE", "HOST", "NEUTRAL", "RESULT", "FORMAT")
	for _, name := range tables {
		t, ok := qualified[name]
		if !ok {
			table.Append(name, "", "", "", "", "", "", "")
			continue
		}
		table.Append(name, "yes", t.WinnerCol, t.DateCol, t.HostCol,
			dash(t.NeutralCol), dash(t.ResultCol), dash(t.FormatCol))
	}
	table.Render()

	if sm.Venue.CountryCol != "" || sm.Venue.HasCoordinates() {
		fmt.Fprintf(w, "\nvenues: country=%s lon=%s lat=%s iso3=%s iso2=%s\n",
			dash(sm.Venue.CountryCol), dash(sm.Venue.LonCol), dash(sm.Venue.LatCol),
			dash(sm.Venue.ISO3Col), dash(sm.Venue.ISO2Col))
	}
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
