package model

import (
	"fmt"
	"strings"
)

// FormatKey identifies a match duration class.
type FormatKey string

const (
	FormatAll  FormatKey = "all"
	FormatTest FormatKey = "test"
	FormatODI  FormatKey = "odi"
	FormatT20  FormatKey = "t20"
)

// Formats lists the concrete formats in display order.
var Formats = []FormatKey{FormatTest, FormatODI, FormatT20}

// ParseFormat maps the CLI/UI filter string to a FormatKey.
func ParseFormat(s string) (FormatKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FormatAll, nil
	case "test":
		return FormatTest, nil
	case "odi":
		return FormatODI, nil
	case "t20", "t20i":
		return FormatT20, nil
	}
	return "", fmt.Errorf("unknown format %q (want all|test|odi|t20)", s)
}

// InferFormat classifies a free-text format value by substring, first match
// wins in the order odi, t20, test. Returns "" when nothing matches; such
// rows only feed the overall counters.
func InferFormat(raw string) FormatKey {
	v := strings.ToLower(raw)
	switch {
	case strings.Contains(v, "odi"):
		return FormatODI
	case strings.Contains(v, "t20"), strings.Contains(v, "twenty"):
		return FormatT20
	case strings.Contains(v, "test"):
		return FormatTest
	}
	return ""
}

// Row is a single query result record: column name → value. NULL columns
// stay nil rather than being coerced to an empty string.
type Row map[string]any

// ---- Discovered schema ----

// VenueColumns holds the column bindings discovered on the venues table.
// An empty string means the logical column was not found; callers must
// handle absence explicitly.
type VenueColumns struct {
	CountryCol string
	LonCol     string
	LatCol     string
	ISO3Col    string
	ISO2Col    string
}

// HasCoordinates reports whether both coordinate bindings resolved.
func (v VenueColumns) HasCoordinates() bool {
	return v.LonCol != "" && v.LatCol != ""
}

// MatchTable is one table that qualified as a source of match records.
// Winner, Date, and Host are always bound; the rest are "" when absent and
// the engine substitutes constant defaults.
type MatchTable struct {
	Name       string
	WinnerCol  string
	DateCol    string
	HostCol    string
	NeutralCol string
	ResultCol  string
	FormatCol  string
}

// SchemaMap is the discovered shape of one database, computed lazily on the
// first query after open and never mutated afterwards.
type SchemaMap struct {
	Venue       VenueColumns
	MatchTables []MatchTable
}

// ---- Aggregates ----

// FormatBucket is the per-format slice of a country's home-win record.
type FormatBucket struct {
	Matches  int
	HomeWins int
	WinPct   *float64
}

// CountryAggregate accumulates home-match results for one canonical host
// country during a compute pass. Rebuilt wholesale on every year-range or
// format change; never updated incrementally.
type CountryAggregate struct {
	Matches  int
	HomeWins int
	WinPct   *float64
	Formats  map[FormatKey]*FormatBucket
}

// Bucket returns the format bucket, creating it on first use.
func (c *CountryAggregate) Bucket(f FormatKey) *FormatBucket {
	if c.Formats == nil {
		c.Formats = make(map[FormatKey]*FormatBucket)
	}
	b := c.Formats[f]
	if b == nil {
		b = &FormatBucket{}
		c.Formats[f] = b
	}
	return b
}

// InningsBucket is the average score for one innings number at a venue.
type InningsBucket struct {
	InningsNumber int
	AverageRuns   *float64
	Count         int
}

// VenueMetricSet holds the derived batting/bowling summary for one venue and
// format. Any ratio with a zero denominator is nil — "no data" is distinct
// from a zero value. BoundaryPct is on a 0–100 scale as stored;
// BattingFirstWinPct is a 0–1 fraction of the matches where the side that
// batted first could be reconstructed from the toss columns.
// MatchesWithResult counts matches with a named winner.
type VenueMetricSet struct {
	BattingStrikeRate  *float64
	BattingAverage     *float64
	BoundaryPct        *float64
	BowlingEconomy     *float64
	BowlingAverage     *float64
	BowlingStrikeRate  *float64
	InningsByNumber    []InningsBucket
	MatchesCount       int
	MatchesWithResult  int
	BattingFirstWinPct *float64
}

// YearMetric is one row of the per-year trend view.
type YearMetric struct {
	Year     int
	Matches  int
	HomeWins int
	WinPct   *float64
}

// VenueSelection identifies a venue for metric computation: its display
// name, any alternate names, and a city+country fallback used when no name
// is available.
type VenueSelection struct {
	Name    string
	Names   string // separator-joined alternates, e.g. "Eden Gardens; EG"
	City    string
	Country string
}

// AliasCandidates returns the lowercase name candidates to match innings
// rows against: the exact name, each alternate split on ";", and
// "city country" when no name exists.
func (v VenueSelection) AliasCandidates() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	add(v.Name)
	for _, part := range strings.Split(v.Names, ";") {
		add(part)
	}
	if len(out) == 0 && (v.City != "" || v.Country != "") {
		add(strings.TrimSpace(v.City + " " + v.Country))
	}
	return out
}

// YearRange is an inclusive [Min, Max] filter over match years.
type YearRange struct {
	Min int
	Max int
}

// Normalize swaps an inverted range and clamps it into [lo, hi]. Bad input
// is repaired, not rejected.
func (y YearRange) Normalize(lo, hi int) YearRange {
	if y.Min > y.Max {
		y.Min, y.Max = y.Max, y.Min
	}
	if y.Min < lo {
		y.Min = lo
	}
	if y.Min > hi {
		y.Min = hi
	}
	if y.Max < lo {
		y.Max = lo
	}
	if y.Max > hi {
		y.Max = hi
	}
	return y
}
