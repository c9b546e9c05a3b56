package schema

import (
	"testing"

	"github.com/dpathania/cricket-atlas/internal/storage"
)

func openMemDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:", storage.Options{})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *storage.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func TestDiscoverVenueColumns_ShortAliasWins(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db, `CREATE TABLE venues(name TEXT, lon REAL, longitude REAL, lat REAL, latitude REAL, country TEXT)`)

	vc, err := DiscoverVenueColumns(db)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if vc.LonCol != "lon" {
		t.Errorf("LonCol: want lon (short alias outranks longitude), got %q", vc.LonCol)
	}
	if vc.LatCol != "lat" {
		t.Errorf("LatCol: want lat, got %q", vc.LatCol)
	}
	if vc.CountryCol != "country" {
		t.Errorf("CountryCol: want country, got %q", vc.CountryCol)
	}
	if !vc.HasCoordinates() {
		t.Error("HasCoordinates: want true")
	}
}

func TestDiscoverVenueColumns_LongAliasOnly(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db, `CREATE TABLE venues(name TEXT, longitude REAL, latitude REAL, nation TEXT, iso3 TEXT)`)

	vc, err := DiscoverVenueColumns(db)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if vc.LonCol != "longitude" {
		t.Errorf("LonCol: want longitude, got %q", vc.LonCol)
	}
	if vc.LatCol != "latitude" {
		t.Errorf("LatCol: want latitude, got %q", vc.LatCol)
	}
	if vc.CountryCol != "nation" {
		t.Errorf("CountryCol: want nation, got %q", vc.CountryCol)
	}
	if vc.ISO3Col != "iso3" || vc.ISO2Col != "" {
		t.Errorf("ISO cols: got iso3=%q iso2=%q", vc.ISO3Col, vc.ISO2Col)
	}
}

func TestDiscoverVenueColumns_CountryPriority(t *testing.T) {
	// Both country and nation exist; "country" is first in the synonym list.
	db := openMemDB(t)
	mustExec(t, db, `CREATE TABLE venues(nation TEXT, country TEXT)`)

	vc, err := DiscoverVenueColumns(db)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if vc.CountryCol != "country" {
		t.Errorf("CountryCol: want country, got %q", vc.CountryCol)
	}
}

func TestDiscoverVenueColumns_NoVenuesTable(t *testing.T) {
	db := openMemDB(t)
	vc, err := DiscoverVenueColumns(db)
	if err != nil {
		t.Fatalf("discover without venues table should degrade, got %v", err)
	}
	if vc.CountryCol != "" || vc.LonCol != "" || vc.LatCol != "" {
		t.Errorf("expected empty bindings, got %+v", vc)
	}
}

func TestDiscoverMatchTables_QualifyingRule(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		// Qualifies: winner + date + host all bind, optional cols present.
		`CREATE TABLE odi_results(match_winner TEXT, start_date TEXT, host_country TEXT, neutral INT, outcome_type TEXT, format TEXT)`,
		// Qualifies with minimal columns only.
		`CREATE TABLE tests(winner TEXT, date TEXT, country TEXT)`,
		// Does not qualify: no date column.
		`CREATE TABLE rankings(winner TEXT, host TEXT, points INT)`,
		// Does not qualify at all.
		`CREATE TABLE venues(name TEXT, lon REAL, lat REAL)`,
	)

	tables, err := DiscoverMatchTables(db)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 qualifying tables, got %d: %+v", len(tables), tables)
	}

	byName := map[string]int{}
	for i, mt := range tables {
		byName[mt.Name] = i
	}
	odi := tables[byName["odi_results"]]
	if odi.WinnerCol != "match_winner" || odi.DateCol != "start_date" || odi.HostCol != "host_country" {
		t.Errorf("odi_results bindings: %+v", odi)
	}
	if odi.NeutralCol != "neutral" || odi.ResultCol != "outcome_type" || odi.FormatCol != "format" {
		t.Errorf("odi_results optional bindings: %+v", odi)
	}

	tst := tables[byName["tests"]]
	if tst.WinnerCol != "winner" || tst.DateCol != "date" || tst.HostCol != "country" {
		t.Errorf("tests bindings: %+v", tst)
	}
	if tst.NeutralCol != "" || tst.ResultCol != "" || tst.FormatCol != "" {
		t.Errorf("tests optional bindings should be empty: %+v", tst)
	}
}

func TestDiscoverMatchTables_None(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db, `CREATE TABLE venues(name TEXT)`)
	tables, err := DiscoverMatchTables(db)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("expected no match tables, got %+v", tables)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := QuoteIdentifier(`odd"name`); got != `"odd""name"` {
		t.Errorf("QuoteIdentifier: got %s", got)
	}
	if got := QuoteIdentifier("venues"); got != `"venues"` {
		t.Errorf("QuoteIdentifier: got %s", got)
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, ok := range []string{"venues", "odi_results", "Table 1"} {
		if !ValidIdentifier(ok) {
			t.Errorf("ValidIdentifier(%q): want true", ok)
		}
	}
	for _, bad := range []string{"", "t;drop", `x"y`, "a-b"} {
		if ValidIdentifier(bad) {
			t.Errorf("ValidIdentifier(%q): want false", bad)
		}
	}
}
