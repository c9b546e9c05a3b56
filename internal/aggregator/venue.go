package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/names"
	"github.com/dpathania/cricket-atlas/internal/schema"
	"github.com/dpathania/cricket-atlas/internal/stats"
)

// Free-text format values vary wildly across datasets, so per-format
// filtering is done with LIKE patterns rather than equality. Any pattern
// matching marks the row as belonging to the format.
var formatPatterns = map[model.FormatKey][]string{
	model.FormatTest: {"%test%"},
	model.FormatODI:  {"%odi%", "%one%day%", "%one-day%", "%one day%"},
	model.FormatT20:  {"%t20i%", "%t20%", "%twenty20%", "%twenty%"},
}

// Column candidates local to the innings tables. Matches-table roles go
// through the schema package; these are innings-level only.
var (
	matchIDCands      = []string{"match_id", "matchid", "match"}
	inningsNoCands    = []string{"innings_no", "innings_number", "innings", "inning"}
	runsCands         = []string{"runs", "runs_scored", "total_runs"}
	ballsCands        = []string{"balls", "balls_faced", "deliveries"}
	outCands          = []string{"out", "dismissal", "how_out", "wicket_type"}
	boundaryCands     = []string{"boundary_pct", "boundary_percent", "boundary_rate"}
	runsConcededCands = []string{"runs_conceded", "runs", "conceded"}
	ballsBowledCands  = []string{"legal_balls", "balls", "balls_bowled", "deliveries"}
	wicketsCands      = []string{"wickets", "wkts", "wickets_taken"}
)

// venueBindings is the per-request binding of the venue metric queries
// against whatever the database actually has. Empty strings mean the role
// is absent and the dependent metric stays nil.
type venueBindings struct {
	venueCol  string
	dateCol   string
	winnerCol string
	formatCol string // on matches
	matchCols map[string]struct{}

	batTable    string // "" when batting_innings is absent or unjoinable
	batMatchID  string
	batFormat   string // innings-level format, preferred over the match one
	batInnNo    string
	batRuns     string
	batBalls    string
	batOut      string
	batBoundary string

	bowlTable   string
	bowlMatchID string
	bowlFormat  string
	bowlRC      string
	bowlBalls   string
	bowlWkts    string

	matchMatchID string // join key on matches
}

func pick(cols map[string]struct{}, candidates []string) string {
	for _, c := range candidates {
		if _, ok := cols[c]; ok {
			return c
		}
	}
	return ""
}

// bindVenueSchema resolves every column the venue queries need. Missing
// innings tables degrade to match-count-only metrics; a missing matches
// table or venue column means no metrics at all.
func (e *Engine) bindVenueSchema() (*venueBindings, error) {
	ok, err := schema.HasTable(e.db, "matches")
	if err != nil {
		return nil, err
	}
	if !ok {
		e.log.Warn("no matches table; venue metrics unavailable")
		return nil, nil
	}

	b := &venueBindings{}
	b.matchCols, err = schema.TableColumns(e.db, "matches")
	if err != nil {
		return nil, err
	}
	if b.venueCol, err = schema.VenueNameColumn(e.db, "matches"); err != nil {
		return nil, err
	}
	if b.venueCol == "" {
		e.log.Warn("matches table has no venue-name column; venue metrics unavailable")
		return nil, nil
	}
	if b.dateCol, err = schema.MatchDateColumn(e.db, "matches"); err != nil {
		return nil, err
	}
	if b.winnerCol, err = schema.MatchWinnerColumn(e.db, "matches"); err != nil {
		return nil, err
	}
	if b.formatCol, err = schema.MatchFormatColumn(e.db, "matches"); err != nil {
		return nil, err
	}
	b.matchMatchID = pick(b.matchCols, matchIDCands)

	bindInnings := func(table string) (map[string]struct{}, string, string, error) {
		ok, err := schema.HasTable(e.db, table)
		if err != nil || !ok {
			return nil, "", "", err
		}
		cols, err := schema.TableColumns(e.db, table)
		if err != nil {
			return nil, "", "", err
		}
		id := pick(cols, matchIDCands)
		if id == "" || b.matchMatchID == "" {
			e.log.Warn("innings table has no join key to matches, ignoring it",
				zap.String("table", table))
			return nil, "", "", nil
		}
		format, err := schema.MatchFormatColumn(e.db, table)
		if err != nil {
			return nil, "", "", err
		}
		return cols, id, format, nil
	}

	if cols, id, format, err := bindInnings("batting_innings"); err != nil {
		return nil, err
	} else if cols != nil {
		b.batTable = "batting_innings"
		b.batMatchID = id
		b.batFormat = format
		b.batInnNo = pick(cols, inningsNoCands)
		b.batRuns = pick(cols, runsCands)
		b.batBalls = pick(cols, ballsCands)
		b.batOut = pick(cols, outCands)
		b.batBoundary = pick(cols, boundaryCands)
	}

	if cols, id, format, err := bindInnings("bowling_innings"); err != nil {
		return nil, err
	} else if cols != nil {
		b.bowlTable = "bowling_innings"
		b.bowlMatchID = id
		b.bowlFormat = format
		b.bowlRC = pick(cols, runsConcededCands)
		b.bowlBalls = pick(cols, ballsBowledCands)
		b.bowlWkts = pick(cols, wicketsCands)
	}
	return b, nil
}

// ---- clause builders ----

// venueClause matches m.<venue> against the alias candidates, exactly or by
// substring. Aliases are always bound parameters.
func venueClause(venueCol string, aliases []string, exact bool) (string, []any) {
	col := fmt.Sprintf("LOWER(COALESCE(m.%s, ''))", schema.QuoteIdentifier(venueCol))
	args := make([]any, 0, len(aliases))
	if exact {
		marks := make([]string, len(aliases))
		for i, a := range aliases {
			marks[i] = "?"
			args = append(args, a)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", ")), args
	}
	parts := make([]string, len(aliases))
	for i, a := range aliases {
		parts[i] = col + " LIKE ?"
		args = append(args, "%"+a+"%")
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// yearClause restricts matches rows to the range; no date column means no
// restriction.
func (b *venueBindings) yearClause(yr model.YearRange) (string, []any) {
	if b.dateCol == "" {
		return "1=1", nil
	}
	return fmt.Sprintf("CAST(substr(m.%s, 1, 4) AS INT) BETWEEN ? AND ?",
		schema.QuoteIdentifier(b.dateCol)), []any{yr.Min, yr.Max}
}

// formatClause filters to one format, preferring the innings-level format
// column over the match-level one. The all key never filters.
func (b *venueBindings) formatClause(f model.FormatKey, inningsAlias, inningsFormat string) (string, []any) {
	if f == model.FormatAll {
		return "1=1", nil
	}
	var expr string
	switch {
	case inningsFormat != "" && b.formatCol != "":
		expr = fmt.Sprintf("LOWER(COALESCE(%s.%s, m.%s, ''))",
			inningsAlias, schema.QuoteIdentifier(inningsFormat), schema.QuoteIdentifier(b.formatCol))
	case inningsFormat != "":
		expr = fmt.Sprintf("LOWER(COALESCE(%s.%s, ''))", inningsAlias, schema.QuoteIdentifier(inningsFormat))
	case b.formatCol != "":
		expr = fmt.Sprintf("LOWER(COALESCE(m.%s, ''))", schema.QuoteIdentifier(b.formatCol))
	default:
		return "1=1", nil
	}
	patterns := formatPatterns[f]
	parts := make([]string, len(patterns))
	args := make([]any, 0, len(patterns))
	for i, p := range patterns {
		parts[i] = expr + " LIKE ?"
		args = append(args, p)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// ComputeVenueMetrics computes the batting, bowling, and match summary for
// one venue per format. The selection's name candidates are matched exactly
// first; only when no match row carries any exact name does it fall back to
// substring matching, so a venue named inside another venue's name is never
// double counted. With filter all, every concrete format is computed plus a
// match-count-weighted rollup under the all key; when the matches table has
// no format column only the combined all set is computed.
func (e *Engine) ComputeVenueMetrics(sel model.VenueSelection, yr model.YearRange, filter model.FormatKey) (map[model.FormatKey]*model.VenueMetricSet, error) {
	yr = e.clampYears(yr)
	out := make(map[model.FormatKey]*model.VenueMetricSet)

	aliases := sel.AliasCandidates()
	if len(aliases) == 0 {
		return out, nil
	}
	b, err := e.bindVenueSchema()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return out, nil
	}

	yrSQL, yrArgs := b.yearClause(yr)
	exact := true
	where, whereArgs := venueClause(b.venueCol, aliases, true)
	hits, err := e.db.QueryAll(
		fmt.Sprintf("SELECT COUNT(*) AS n FROM matches m WHERE %s AND %s", where, yrSQL),
		append(append([]any{}, whereArgs...), yrArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("venue exact-name count: %w", err)
	}
	if len(hits) == 0 || rowInt(hits[0], "n") == 0 {
		exact = false
		where, whereArgs = venueClause(b.venueCol, aliases, false)
	}
	e.log.Debug("venue matching mode chosen",
		zap.String("venue", sel.Name), zap.Bool("exact", exact),
		zap.Int("aliases", len(aliases)))

	// A per-format breakdown needs a format column on matches; without one
	// a concrete format clause would pass every row and each format would
	// repeat the full counts. Only the combined set is computable then.
	targets := []model.FormatKey{filter}
	rollup := false
	switch {
	case b.formatCol != "" && filter == model.FormatAll:
		targets = model.Formats
		rollup = true
	case b.formatCol == "" && filter == model.FormatAll:
		e.log.Warn("matches table has no format column; computing combined metrics only")
		targets = []model.FormatKey{model.FormatAll}
	case b.formatCol == "":
		e.log.Warn("matches table has no format column; per-format venue metrics unavailable",
			zap.String("format", string(filter)))
		return out, nil
	}
	for _, f := range targets {
		ms, err := e.computeVenueFormat(b, f, where, whereArgs, yrSQL, yrArgs)
		if err != nil {
			e.log.Warn("venue metrics failed for format, skipping it",
				zap.String("format", string(f)), zap.Error(err))
			continue
		}
		out[f] = ms
	}
	if rollup {
		out[model.FormatAll] = rollupVenueFormats(out)
	}
	return out, nil
}

func (e *Engine) computeVenueFormat(b *venueBindings, f model.FormatKey, where string, whereArgs []any, yrSQL string, yrArgs []any) (*model.VenueMetricSet, error) {
	ms := &model.VenueMetricSet{}

	joinArgs := func(fmtArgs []any) []any {
		args := append([]any{}, whereArgs...)
		args = append(args, yrArgs...)
		return append(args, fmtArgs...)
	}

	// ---- Pass 1: match counts ----
	mFmtSQL, mFmtArgs := b.formatClause(f, "", "")
	withResult := "0"
	if b.winnerCol != "" {
		withResult = fmt.Sprintf("SUM(CASE WHEN COALESCE(m.%s, '') <> '' THEN 1 ELSE 0 END)",
			schema.QuoteIdentifier(b.winnerCol))
	}
	rows, err := e.db.QueryAll(fmt.Sprintf(
		`SELECT COUNT(*) AS matches, %s AS with_result FROM matches m WHERE %s AND %s AND %s`,
		withResult, where, yrSQL, mFmtSQL), joinArgs(mFmtArgs)...)
	if err != nil {
		return nil, fmt.Errorf("match counts: %w", err)
	}
	if len(rows) > 0 {
		ms.MatchesCount = rowInt(rows[0], "matches")
		ms.MatchesWithResult = rowInt(rows[0], "with_result")
	}

	// ---- Pass 2: batting totals and per-innings averages ----
	if b.batTable != "" && b.batRuns != "" {
		if err := e.venueBatting(b, f, ms, where, whereArgs, yrSQL, yrArgs); err != nil {
			return nil, err
		}
	}

	// ---- Pass 3: bowling totals ----
	if b.bowlTable != "" && b.bowlRC != "" && b.bowlBalls != "" {
		fmtSQL, fmtArgs := b.formatClause(f, "bw", b.bowlFormat)
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT SUM(bw.%s) AS rc, SUM(bw.%s) AS balls, SUM(%s) AS wkts
			 FROM %s bw JOIN matches m ON m.%s = bw.%s
			 WHERE %s AND %s AND %s`,
			schema.QuoteIdentifier(b.bowlRC), schema.QuoteIdentifier(b.bowlBalls),
			bowlWktsExpr(b), schema.QuoteIdentifier(b.bowlTable),
			schema.QuoteIdentifier(b.matchMatchID), schema.QuoteIdentifier(b.bowlMatchID),
			where, yrSQL, fmtSQL), joinArgs(fmtArgs)...)
		if err != nil {
			return nil, fmt.Errorf("bowling totals: %w", err)
		}
		if len(rows) > 0 {
			rc, _ := rowFloat(rows[0], "rc")
			balls, _ := rowFloat(rows[0], "balls")
			wkts, _ := rowFloat(rows[0], "wkts")
			ms.BowlingEconomy = stats.Ratio(rc, balls/6)
			ms.BowlingAverage = stats.Ratio(rc, wkts)
			ms.BowlingStrikeRate = stats.Ratio(balls, wkts)
		}
	}

	// ---- Pass 4: batting-first win percentage ----
	if err := e.venueBattingFirst(b, f, ms, where, whereArgs, yrSQL, yrArgs); err != nil {
		return nil, err
	}
	return ms, nil
}

func bowlWktsExpr(b *venueBindings) string {
	if b.bowlWkts == "" {
		return "0"
	}
	return "bw." + schema.QuoteIdentifier(b.bowlWkts)
}

func (e *Engine) venueBatting(b *venueBindings, f model.FormatKey, ms *model.VenueMetricSet, where string, whereArgs []any, yrSQL string, yrArgs []any) error {
	fmtSQL, fmtArgs := b.formatClause(f, "bi", b.batFormat)
	args := append([]any{}, whereArgs...)
	args = append(args, yrArgs...)
	args = append(args, fmtArgs...)

	ballsExpr, outExpr, boundaryExpr := "NULL", "NULL", "NULL"
	if b.batBalls != "" {
		ballsExpr = fmt.Sprintf("SUM(bi.%s)", schema.QuoteIdentifier(b.batBalls))
	}
	if b.batOut != "" {
		// "out" is free text in some dumps and 0/1 in others; both empty
		// string and literal zero mean not out.
		outExpr = fmt.Sprintf(
			"SUM(CASE WHEN COALESCE(bi.%s, '') <> '' AND COALESCE(bi.%s, '') <> '0' THEN 1 ELSE 0 END)",
			schema.QuoteIdentifier(b.batOut), schema.QuoteIdentifier(b.batOut))
	}
	if b.batBoundary != "" {
		boundaryExpr = fmt.Sprintf("AVG(bi.%s)", schema.QuoteIdentifier(b.batBoundary))
	}

	rows, err := e.db.QueryAll(fmt.Sprintf(
		`SELECT SUM(bi.%s) AS runs, %s AS balls, %s AS dismissals, %s AS boundary_pct
		 FROM %s bi JOIN matches m ON m.%s = bi.%s
		 WHERE %s AND %s AND %s`,
		schema.QuoteIdentifier(b.batRuns), ballsExpr, outExpr, boundaryExpr,
		schema.QuoteIdentifier(b.batTable),
		schema.QuoteIdentifier(b.matchMatchID), schema.QuoteIdentifier(b.batMatchID),
		where, yrSQL, fmtSQL), args...)
	if err != nil {
		return fmt.Errorf("batting totals: %w", err)
	}

	var runs, balls, dismissals float64
	var haveDismissals bool
	if len(rows) > 0 {
		runs, _ = rowFloat(rows[0], "runs")
		balls, _ = rowFloat(rows[0], "balls")
		dismissals, haveDismissals = rowFloat(rows[0], "dismissals")
		if bp, ok := rowFloat(rows[0], "boundary_pct"); ok {
			// Stored either as a fraction or already as a percentage.
			if bp <= 1 {
				bp *= 100
			}
			ms.BoundaryPct = &bp
		}
	}
	ms.BattingStrikeRate = stats.Percent(runs, balls)

	if b.batInnNo != "" {
		inn := schema.QuoteIdentifier(b.batInnNo)
		rows, err := e.db.QueryAll(fmt.Sprintf(
			`SELECT bi.%s AS inn, AVG(bi.%s) AS avg_runs, COUNT(*) AS cnt
			 FROM %s bi JOIN matches m ON m.%s = bi.%s
			 WHERE %s AND %s AND %s
			 GROUP BY bi.%s ORDER BY bi.%s`,
			inn, schema.QuoteIdentifier(b.batRuns),
			schema.QuoteIdentifier(b.batTable),
			schema.QuoteIdentifier(b.matchMatchID), schema.QuoteIdentifier(b.batMatchID),
			where, yrSQL, fmtSQL, inn, inn), args...)
		if err != nil {
			return fmt.Errorf("innings averages: %w", err)
		}
		for _, r := range rows {
			bucket := model.InningsBucket{
				InningsNumber: rowInt(r, "inn"),
				Count:         rowInt(r, "cnt"),
			}
			if v, ok := rowFloat(r, "avg_runs"); ok {
				bucket.AverageRuns = &v
			}
			ms.InningsByNumber = append(ms.InningsByNumber, bucket)
		}
	}

	// Dismissal counts are the honest denominator for a batting average.
	// Without an out column, innings counts stand in for them.
	if haveDismissals && dismissals > 0 {
		ms.BattingAverage = stats.Ratio(runs, dismissals)
	} else {
		var innings float64
		for _, bucket := range ms.InningsByNumber {
			innings += float64(bucket.Count)
		}
		ms.BattingAverage = stats.Ratio(runs, innings)
	}
	return nil
}

// venueBattingFirst derives the percentage of decided matches won by the
// side that batted first, reconstructed from the toss columns: the toss
// winner batted first iff the decision mentions batting, otherwise the
// other side did.
func (e *Engine) venueBattingFirst(b *venueBindings, f model.FormatKey, ms *model.VenueMetricSet, where string, whereArgs []any, yrSQL string, yrArgs []any) error {
	need := []string{"toss_winner", "toss_decision", "team1", "team2"}
	for _, c := range need {
		if _, ok := b.matchCols[c]; !ok {
			return nil
		}
	}
	if b.winnerCol == "" {
		return nil
	}

	resultExpr := "''"
	if _, ok := b.matchCols["result"]; ok {
		resultExpr = `COALESCE(m."result", '')`
	}
	fmtSQL, fmtArgs := b.formatClause(f, "", "")
	args := append([]any{}, whereArgs...)
	args = append(args, yrArgs...)
	args = append(args, fmtArgs...)

	rows, err := e.db.QueryAll(fmt.Sprintf(
		`SELECT COALESCE(m.%s, '') AS winner, COALESCE(m."toss_winner", '') AS toss_winner,
		        COALESCE(m."toss_decision", '') AS toss_decision,
		        COALESCE(m."team1", '') AS team1, COALESCE(m."team2", '') AS team2,
		        %s AS result
		 FROM matches m WHERE %s AND %s AND %s`,
		schema.QuoteIdentifier(b.winnerCol), resultExpr, where, yrSQL, fmtSQL), args...)
	if err != nil {
		return fmt.Errorf("batting first: %w", err)
	}

	var decided, wins int
	for _, r := range rows {
		winner := rowString(r, "winner")
		if winner == "" || drawnOrVoid(rowString(r, "result")) {
			continue
		}
		tossWinner := rowString(r, "toss_winner")
		if tossWinner == "" {
			continue
		}
		battedFirst := tossWinner
		if !strings.Contains(strings.ToLower(rowString(r, "toss_decision")), "bat") {
			// The toss winner chose to field; the other listed side batted.
			team1, team2 := rowString(r, "team1"), rowString(r, "team2")
			if names.Normalize(tossWinner) == names.Normalize(team1) {
				battedFirst = team2
			} else {
				battedFirst = team1
			}
		}
		if battedFirst == "" {
			continue
		}
		decided++
		if names.Normalize(winner) == names.Normalize(battedFirst) {
			wins++
		}
	}
	ms.BattingFirstWinPct = stats.Ratio(float64(wins), float64(decided))
	return nil
}

// rollupVenueFormats folds the per-format sets into one all-formats set.
// Ratios are weighted by each format's match count so the figure tracks
// where the cricket was actually played.
func rollupVenueFormats(perFormat map[model.FormatKey]*model.VenueMetricSet) *model.VenueMetricSet {
	all := &model.VenueMetricSet{}
	var (
		weights                           []int
		sr, avg, bp, econ, bavg, bsr, bfw []*float64
	)
	innTotals := make(map[int]*model.InningsBucket)
	innSums := make(map[int]float64)

	for _, f := range model.Formats {
		ms := perFormat[f]
		if ms == nil {
			continue
		}
		all.MatchesCount += ms.MatchesCount
		all.MatchesWithResult += ms.MatchesWithResult
		weights = append(weights, ms.MatchesCount)
		sr = append(sr, ms.BattingStrikeRate)
		avg = append(avg, ms.BattingAverage)
		bp = append(bp, ms.BoundaryPct)
		econ = append(econ, ms.BowlingEconomy)
		bavg = append(bavg, ms.BowlingAverage)
		bsr = append(bsr, ms.BowlingStrikeRate)
		bfw = append(bfw, ms.BattingFirstWinPct)

		for _, bucket := range ms.InningsByNumber {
			t := innTotals[bucket.InningsNumber]
			if t == nil {
				t = &model.InningsBucket{InningsNumber: bucket.InningsNumber}
				innTotals[bucket.InningsNumber] = t
			}
			if bucket.AverageRuns != nil {
				innSums[bucket.InningsNumber] += *bucket.AverageRuns * float64(bucket.Count)
			}
			t.Count += bucket.Count
		}
	}

	all.BattingStrikeRate = stats.WeightedMean(sr, weights)
	all.BattingAverage = stats.WeightedMean(avg, weights)
	all.BoundaryPct = stats.WeightedMean(bp, weights)
	all.BowlingEconomy = stats.WeightedMean(econ, weights)
	all.BowlingAverage = stats.WeightedMean(bavg, weights)
	all.BowlingStrikeRate = stats.WeightedMean(bsr, weights)
	all.BattingFirstWinPct = stats.WeightedMean(bfw, weights)

	nums := make([]int, 0, len(innTotals))
	for n := range innTotals {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		t := innTotals[n]
		t.AverageRuns = stats.Ratio(innSums[n], float64(t.Count))
		all.InningsByNumber = append(all.InningsByNumber, *t)
	}
	return all
}
