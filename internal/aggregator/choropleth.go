package aggregator

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/names"
	"github.com/dpathania/cricket-atlas/internal/schema"
	"github.com/dpathania/cricket-atlas/internal/stats"
)

// matchRow is the normalized shape every discovered match table is mapped
// into before aggregation. Absent optional columns arrive as their constant
// defaults, so downstream code never cares which table a row came from.
type matchRow struct {
	Winner  string
	Host    string
	Date    string
	Neutral string
	Result  string
	Format  string
}

// matchRowSQL builds the normalizing SELECT for one discovered table. Only
// catalog identifiers are interpolated, through one quoting helper; the
// year bounds are bound parameters.
func matchRowSQL(t model.MatchTable) string {
	neutralExpr := "0"
	if t.NeutralCol != "" {
		neutralExpr = fmt.Sprintf("COALESCE(%s, 0)", schema.QuoteIdentifier(t.NeutralCol))
	}
	resultExpr := "''"
	if t.ResultCol != "" {
		resultExpr = fmt.Sprintf("COALESCE(%s, '')", schema.QuoteIdentifier(t.ResultCol))
	}
	formatExpr := "''"
	if t.FormatCol != "" {
		formatExpr = fmt.Sprintf("COALESCE(%s, '')", schema.QuoteIdentifier(t.FormatCol))
	}
	date := schema.QuoteIdentifier(t.DateCol)
	return fmt.Sprintf(`SELECT %s AS winner, %s AS venue_country, %s AS date, %s AS neutral_venue, %s AS result_type, %s AS format
		FROM %s WHERE CAST(substr(%s, 1, 4) AS INT) BETWEEN ? AND ?`,
		schema.QuoteIdentifier(t.WinnerCol),
		schema.QuoteIdentifier(t.HostCol),
		date, neutralExpr, resultExpr, formatExpr,
		schema.QuoteIdentifier(t.Name), date)
}

// fetchMatchRows queries every discovered match table for the year range
// and returns the union as typed rows. A failing table is logged and
// skipped; the remaining tables still contribute.
func (e *Engine) fetchMatchRows(yr model.YearRange) ([]matchRow, error) {
	sm, err := e.Schema()
	if err != nil {
		return nil, err
	}
	if len(sm.MatchTables) == 0 {
		e.log.Warn("no match-like table found; need winner, date, and host columns")
		return nil, nil
	}

	var out []matchRow
	for _, t := range sm.MatchTables {
		rows, err := e.db.QueryAll(matchRowSQL(t), yr.Min, yr.Max)
		if err != nil {
			e.log.Warn("match table query failed, skipping table",
				zap.String("table", t.Name), zap.Error(err))
			continue
		}
		for _, r := range rows {
			out = append(out, matchRow{
				Winner:  rowString(r, "winner"),
				Host:    rowString(r, "venue_country"),
				Date:    rowString(r, "date"),
				Neutral: rowString(r, "neutral_venue"),
				Result:  rowString(r, "result_type"),
				Format:  rowString(r, "format"),
			})
		}
	}
	return out, nil
}

// countable applies the shared exclusion rules: a row counts toward home-win
// statistics only when it has a host, was not at a neutral venue, and was
// actually decided.
func countable(r matchRow, yr model.YearRange) bool {
	if r.Host == "" {
		return false
	}
	if y := yearOf(r.Date); y < yr.Min || y > yr.Max {
		return false
	}
	if truthy(r.Neutral) {
		return false
	}
	return !undecided(r.Result)
}

// ComputeChoropleth aggregates home-win records per canonical host country
// over the year range, overall and per format. Countries with zero counted
// matches never appear in the result. A database with no qualifying tables
// yields an empty map, not an error.
func (e *Engine) ComputeChoropleth(yr model.YearRange, filter model.FormatKey) (map[string]*model.CountryAggregate, error) {
	yr = e.clampYears(yr)
	rows, err := e.fetchMatchRows(yr)
	if err != nil {
		return nil, err
	}

	agg := make(map[string]*model.CountryAggregate)
	for _, r := range rows {
		if !countable(r, yr) {
			continue
		}
		format := model.InferFormat(r.Format)
		if filter != model.FormatAll && format != filter {
			continue
		}

		hostKey := names.CanonicalCountry(r.Host)
		homeTeam := names.CanonicalTeam(names.HostToHomeTeam(hostKey))
		win := names.CanonicalTeam(r.Winner) == homeTeam

		c := agg[hostKey]
		if c == nil {
			c = &model.CountryAggregate{}
			agg[hostKey] = c
		}
		c.Matches++
		if win {
			c.HomeWins++
		}
		if format != "" {
			b := c.Bucket(format)
			b.Matches++
			if win {
				b.HomeWins++
			}
		}
	}

	for _, c := range agg {
		c.WinPct = stats.Ratio(float64(c.HomeWins), float64(c.Matches))
		for _, b := range c.Formats {
			b.WinPct = stats.Ratio(float64(b.HomeWins), float64(b.Matches))
		}
	}
	e.log.Debug("choropleth computed",
		zap.Int("countries", len(agg)),
		zap.Int("year_min", yr.Min), zap.Int("year_max", yr.Max))
	return agg, nil
}

// ComputeYearTrend groups the same counted matches by year for the trend
// and heatmap views. Years with no matches are omitted; rows come back
// sorted ascending by year.
func (e *Engine) ComputeYearTrend(yr model.YearRange, filter model.FormatKey) ([]model.YearMetric, error) {
	yr = e.clampYears(yr)
	rows, err := e.fetchMatchRows(yr)
	if err != nil {
		return nil, err
	}

	byYear := make(map[int]*model.YearMetric)
	for _, r := range rows {
		if !countable(r, yr) {
			continue
		}
		format := model.InferFormat(r.Format)
		if filter != model.FormatAll && format != filter {
			continue
		}

		y := yearOf(r.Date)
		m := byYear[y]
		if m == nil {
			m = &model.YearMetric{Year: y}
			byYear[y] = m
		}
		hostKey := names.CanonicalCountry(r.Host)
		homeTeam := names.CanonicalTeam(names.HostToHomeTeam(hostKey))
		m.Matches++
		if names.CanonicalTeam(r.Winner) == homeTeam {
			m.HomeWins++
		}
	}

	out := make([]model.YearMetric, 0, len(byYear))
	for _, m := range byYear {
		m.WinPct = stats.Ratio(float64(m.HomeWins), float64(m.Matches))
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// VenueCountries returns the set of canonical countries that have at least
// one venue, resolved through the free-text country column when present and
// through ISO codes otherwise. Unresolvable codes are dropped.
func (e *Engine) VenueCountries() (map[string]struct{}, error) {
	sm, err := e.Schema()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})

	vc := sm.Venue
	switch {
	case vc.CountryCol != "":
		col := schema.QuoteIdentifier(vc.CountryCol)
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT DISTINCT %s AS val FROM venues WHERE %s IS NOT NULL AND TRIM(%s) <> ''`, col, col, col))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[names.CanonicalCountry(rowString(r, "val"))] = struct{}{}
		}
	case vc.ISO3Col != "" || vc.ISO2Col != "":
		col, lookup := vc.ISO3Col, names.CountryFromISO3
		if col == "" {
			col, lookup = vc.ISO2Col, names.CountryFromISO2
		}
		q := schema.QuoteIdentifier(col)
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT DISTINCT %s AS val FROM venues WHERE %s IS NOT NULL AND TRIM(%s) <> ''`, q, q, q))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if c, ok := lookup(rowString(r, "val")); ok {
				out[c] = struct{}{}
			}
		}
	default:
		e.log.Warn("venues carry neither a country column nor ISO codes")
	}
	return out, nil
}

// VenuesForCountry lists the venue names located in one country, filtered
// through the free-text country column when present and through ISO codes
// otherwise. Countries with no resolvable filter yield an empty list.
func (e *Engine) VenuesForCountry(country string) ([]string, error) {
	sm, err := e.Schema()
	if err != nil {
		return nil, err
	}
	nameCol, err := schema.VenuesNameColumn(e.db)
	if err != nil {
		return nil, err
	}
	if nameCol == "" {
		e.log.Warn("venues table has no name column")
		return nil, nil
	}
	want := names.CanonicalCountry(country)
	name := schema.QuoteIdentifier(nameCol)

	vc := sm.Venue
	var out []string
	switch {
	case vc.CountryCol != "":
		// Free-text country values vary per dump; canonicalize in memory.
		col := schema.QuoteIdentifier(vc.CountryCol)
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT %s AS name, %s AS country FROM venues WHERE TRIM(COALESCE(%s, '')) <> ''`,
			name, col, name))
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if names.CanonicalCountry(rowString(r, "country")) == want {
				out = append(out, rowString(r, "name"))
			}
		}
	case vc.ISO3Col != "":
		code, ok := names.ISO3ForCountry(want)
		if !ok {
			return nil, nil
		}
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT %s AS name FROM venues WHERE UPPER(COALESCE(%s, '')) = ? AND TRIM(COALESCE(%s, '')) <> ''`,
			name, schema.QuoteIdentifier(vc.ISO3Col), name), code)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, rowString(r, "name"))
		}
	case vc.ISO2Col != "":
		code, ok := names.ISO2ForCountry(want)
		if !ok {
			return nil, nil
		}
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT %s AS name FROM venues WHERE UPPER(COALESCE(%s, '')) = ? AND TRIM(COALESCE(%s, '')) <> ''`,
			name, schema.QuoteIdentifier(vc.ISO2Col), name), code)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, rowString(r, "name"))
		}
	default:
		e.log.Warn("venues carry neither a country column nor ISO codes")
		return nil, nil
	}
	sort.Strings(out)
	return out, nil
}
