// Package schema discovers which tables and columns in a loosely-specified
// cricket database play the roles the engine needs. Binding is heuristic:
// ordered synonym lists, first match wins. Absence is explicit — an empty
// binding, never a guess.
package schema

import (
	"fmt"
	"strings"

	"github.com/dpathania/cricket-atlas/internal/model"
	"github.com/dpathania/cricket-atlas/internal/storage"
)

// Synonym candidate lists. Order is a deliberate tie-break: the first
// candidate present in the table wins. For coordinates the short aliases
// outrank the long spellings.
var (
	countrySyns = []string{"country", "country_name", "countrytext", "nation", "state", "venue_country"}
	lonSyns     = []string{"lon", "lng", "long", "x", "longitude"}
	latSyns     = []string{"lat", "y", "latitude"}

	winnerSyns  = []string{"winner", "match_winner", "winning_team", "win_team"}
	dateSyns    = []string{"date", "match_date", "start_date", "starttime", "start_time"}
	hostSyns    = []string{"venue_country", "host_country", "host", "country", "home_country", "venuecountry"}
	neutralSyns = []string{"neutral_venue", "neutral", "neutralground"}
	resultSyns  = []string{"result_type", "result", "outcome_type"}
	formatSyns  = []string{"format", "match_type", "matchformat", "match_format"}

	venueNameSyns = []string{"venue_name", "venue", "ground", "stadium"}

	// The venues catalog table usually calls its display column plain
	// "name"; match-level tables never do.
	venuesTableNameSyns = []string{"name", "venue_name", "venue", "ground", "stadium"}
)

// VenuesNameColumn binds the display-name column of the venues table.
// "" when absent.
func VenuesNameColumn(db *storage.DB) (string, error) {
	cols, err := TableColumns(db, "venues")
	if err != nil {
		return "", err
	}
	return firstMatch(venuesTableNameSyns, cols), nil
}

// VenueNameColumn binds the venue-name column on a match-level table, used
// to join innings statistics to a selected venue. "" when absent.
func VenueNameColumn(db *storage.DB, table string) (string, error) {
	cols, err := TableColumns(db, table)
	if err != nil {
		return "", err
	}
	return firstMatch(venueNameSyns, cols), nil
}

// MatchDateColumn binds the date column of a match-level table by the same
// synonym priority used for discovery. "" when absent.
func MatchDateColumn(db *storage.DB, table string) (string, error) {
	cols, err := TableColumns(db, table)
	if err != nil {
		return "", err
	}
	return firstMatch(dateSyns, cols), nil
}

// MatchWinnerColumn binds the winner column of a match-level table. "" when
// absent.
func MatchWinnerColumn(db *storage.DB, table string) (string, error) {
	cols, err := TableColumns(db, table)
	if err != nil {
		return "", err
	}
	return firstMatch(winnerSyns, cols), nil
}

// MatchFormatColumn binds the format column of a match-level table. "" when
// absent.
func MatchFormatColumn(db *storage.DB, table string) (string, error) {
	cols, err := TableColumns(db, table)
	if err != nil {
		return "", err
	}
	return firstMatch(formatSyns, cols), nil
}

// firstMatch returns the first candidate present in cols, or "".
func firstMatch(candidates []string, cols map[string]struct{}) string {
	for _, c := range candidates {
		if _, ok := cols[c]; ok {
			return c
		}
	}
	return ""
}

// TableColumns returns the lower-cased column names of a table. A missing
// table yields an empty set, not an error.
func TableColumns(db *storage.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryAll(fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	cols := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if name, ok := r["name"].(string); ok && name != "" {
			cols[strings.ToLower(name)] = struct{}{}
		}
	}
	return cols, nil
}

// ListTables enumerates the user tables in the database catalog.
func ListTables(db *storage.DB) ([]string, error) {
	rows, err := db.QueryAll(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for _, r := range rows {
		if name, ok := r["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// HasTable reports whether a table exists in the catalog.
func HasTable(db *storage.DB, table string) (bool, error) {
	rows, err := db.QueryAll(`SELECT 1 FROM sqlite_master WHERE type='table' AND name=?`, table)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// DiscoverVenueColumns binds the logical venue fields against the venues
// table by synonym priority. Fields that resolve to nothing stay "".
func DiscoverVenueColumns(db *storage.DB) (model.VenueColumns, error) {
	cols, err := TableColumns(db, "venues")
	if err != nil {
		return model.VenueColumns{}, err
	}
	vc := model.VenueColumns{
		CountryCol: firstMatch(countrySyns, cols),
		LonCol:     firstMatch(lonSyns, cols),
		LatCol:     firstMatch(latSyns, cols),
	}
	if _, ok := cols["iso3"]; ok {
		vc.ISO3Col = "iso3"
	}
	if _, ok := cols["iso2"]; ok {
		vc.ISO2Col = "iso2"
	}
	return vc, nil
}

// DiscoverMatchTables scans every table and keeps those that look like
// match records: winner, date, and host columns must all bind. Optional
// columns resolve independently. Tables that don't qualify are skipped
// silently — that is the normal case, not an error.
func DiscoverMatchTables(db *storage.DB) ([]model.MatchTable, error) {
	names, err := ListTables(db)
	if err != nil {
		return nil, err
	}

	var out []model.MatchTable
	for _, name := range names {
		if !ValidIdentifier(name) {
			continue
		}
		cols, err := TableColumns(db, name)
		if err != nil {
			// A single unreadable table does not sink discovery.
			continue
		}
		winner := firstMatch(winnerSyns, cols)
		date := firstMatch(dateSyns, cols)
		host := firstMatch(hostSyns, cols)
		if winner == "" || date == "" || host == "" {
			continue
		}
		out = append(out, model.MatchTable{
			Name:       name,
			WinnerCol:  winner,
			DateCol:    date,
			HostCol:    host,
			NeutralCol: firstMatch(neutralSyns, cols),
			ResultCol:  firstMatch(resultSyns, cols),
			FormatCol:  firstMatch(formatSyns, cols),
		})
	}
	return out, nil
}

// Discover runs full discovery and returns the session SchemaMap.
func Discover(db *storage.DB) (*model.SchemaMap, error) {
	venue, err := DiscoverVenueColumns(db)
	if err != nil {
		return nil, err
	}
	tables, err := DiscoverMatchTables(db)
	if err != nil {
		return nil, err
	}
	return &model.SchemaMap{Venue: venue, MatchTables: tables}, nil
}

// QuoteIdentifier wraps a discovered identifier for safe interpolation into
// SQL text. Identifiers come from the database's own catalog, never from
// user input, but they are still validated and quoted in one place.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ValidIdentifier reports whether a catalog name looks like a plain SQL
// identifier. Discovery ignores anything stranger.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ' ':
		default:
			return false
		}
	}
	return true
}
