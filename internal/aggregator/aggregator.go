// Package aggregator computes derived cricket statistics over a discovered
// schema: country home-win choropleth data, per-venue batting and bowling
// summaries, and year-by-year trends. All computation is one synchronous
// pass per request; nothing is updated incrementally.
package aggregator

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/schema"
	"github.com/dpathania/cricket-atlas/internal/storage"
)

// Engine is the per-session aggregation context: one database handle, one
// lazily-discovered schema map, one logger. Callers own it and pass it
// around; there is no package-level state.
type Engine struct {
	db     *storage.DB
	log    *zap.Logger
	bounds model.YearRange

	schemaOnce sync.Once
	schemaMap  *model.SchemaMap
	schemaErr  error
}

// New builds an Engine over an opened database. bounds clamps every year
// range the engine is asked to compute.
func New(db *storage.DB, log *zap.Logger, bounds model.YearRange) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{db: db, log: log, bounds: bounds}
}

// Schema returns the discovered schema map, running discovery on first use.
// The result is cached for the session and never mutated.
func (e *Engine) Schema() (*model.SchemaMap, error) {
	e.schemaOnce.Do(func() {
		e.schemaMap, e.schemaErr = schema.Discover(e.db)
		if e.schemaErr == nil {
			names := make([]string, 0, len(e.schemaMap.MatchTables))
			for _, t := range e.schemaMap.MatchTables {
				names = append(names, t.Name)
			}
			e.log.Info("schema discovered",
				zap.Strings("match_tables", names),
				zap.String("venue_country_col", e.schemaMap.Venue.CountryCol))
		}
	})
	return e.schemaMap, e.schemaErr
}

// clampYears repairs caller-supplied ranges instead of rejecting them.
func (e *Engine) clampYears(yr model.YearRange) model.YearRange {
	return yr.Normalize(e.bounds.Min, e.bounds.Max)
}

// ---- row value helpers ----

// rowString renders a record field as a string. NULL and absent are "".
func rowString(r model.Row, key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// rowFloat reads a numeric field; ok is false for NULL/absent/garbage.
func rowFloat(r model.Row, key string) (float64, bool) {
	switch v := r[key].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// rowInt is rowFloat truncated; 0 for anything unreadable.
func rowInt(r model.Row, key string) int {
	f, ok := rowFloat(r, key)
	if !ok {
		return 0
	}
	return int(f)
}

// truthy interprets the loosely-typed neutral-venue flag.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "t", "y":
		return true
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f != 0
	}
	return false
}

// yearOf extracts the leading 4-digit year of a date string. Dates in these
// datasets start with the year; anything else parses to 0.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// undecided reports whether a result type excludes the match from win
// percentages: no result, tie, tied.
func undecided(resultType string) bool {
	rt := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(resultType, "_", " ")))
	switch rt {
	case "no result", "tie", "tied":
		return true
	}
	return false
}

// drawnOrVoid widens undecided with draws and substring matches, for the
// batting-first computation where result text is freer-form.
func drawnOrVoid(resultType string) bool {
	rt := strings.ToLower(resultType)
	if rt == "" {
		return false
	}
	return strings.Contains(rt, "no result") || strings.Contains(rt, "draw") ||
		strings.Contains(rt, "tie") || strings.Contains(rt, "tied")
}
