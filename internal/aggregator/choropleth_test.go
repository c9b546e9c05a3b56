package aggregator

import (
	"testing"

	"github.com/dpathania/cricket-atlas/internal/model"
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

func newEngine(t *testing.T, db *storage.DB) *Engine {
	t.Helper()
	return New(db, nil, model.YearRange{Min: 1877, Max: 2030})
}

// seedResults creates one qualifying match table and fills it with home
// matches in India: six won by India, four by Australia, all ODIs in the
// 2000s.
func seedResults(t *testing.T, db *storage.DB) {
	t.Helper()
	mustExec(t, db,
		`CREATE TABLE results(winner TEXT, date TEXT, venue_country TEXT, neutral_venue TEXT, result_type TEXT, format TEXT)`)
	for i := 0; i < 6; i++ {
		mustExec(t, db,
			`INSERT INTO results VALUES ('India', '2005-03-01', 'India', '0', 'normal', 'ODI')`)
	}
	for i := 0; i < 4; i++ {
		mustExec(t, db,
			`INSERT INTO results VALUES ('Australia', '2006-11-12', 'India', '0', 'normal', 'ODI')`)
	}
}

func TestComputeChoropleth_HomeWins(t *testing.T) {
	db := openMemDB(t)
	seedResults(t, db)

	agg, err := newEngine(t, db).ComputeChoropleth(model.YearRange{Min: 2000, Max: 2018}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	india := agg["india"]
	if india == nil {
		t.Fatal("expected an aggregate for india")
	}
	if india.Matches != 10 || india.HomeWins != 6 {
		t.Errorf("india: want 10 matches / 6 home wins, got %d / %d", india.Matches, india.HomeWins)
	}
	if india.WinPct == nil || *india.WinPct != 0.6 {
		t.Errorf("india win pct: want 0.6, got %v", india.WinPct)
	}
	odi := india.Formats[model.FormatODI]
	if odi == nil || odi.Matches != 10 || odi.HomeWins != 6 {
		t.Errorf("odi bucket: want 10 / 6, got %+v", odi)
	}
	if _, ok := india.Formats[model.FormatTest]; ok {
		t.Error("test bucket should not exist for an all-ODI dataset")
	}
}

func TestComputeChoropleth_NeutralAndUndecidedExcluded(t *testing.T) {
	db := openMemDB(t)
	seedResults(t, db)
	mustExec(t, db,
		// Neutral venue, a tie, and a no-result in the range; none counts.
		`INSERT INTO results VALUES ('India', '2007-01-01', 'India', '1', 'normal', 'ODI')`,
		`INSERT INTO results VALUES ('', '2008-01-01', 'India', '0', 'tie', 'ODI')`,
		`INSERT INTO results VALUES ('', '2009-01-01', 'India', '0', 'no_result', 'ODI')`,
		// A host whose every match is undecided never appears at all.
		`INSERT INTO results VALUES ('', '2009-05-05', 'Kenya', '0', 'no result', 'ODI')`)

	agg, err := newEngine(t, db).ComputeChoropleth(model.YearRange{Min: 2000, Max: 2018}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	if india := agg["india"]; india == nil || india.Matches != 10 {
		t.Errorf("india: want the 10 decided home matches only, got %+v", india)
	}
	if _, ok := agg["kenya"]; ok {
		t.Error("kenya has zero countable matches and must be suppressed")
	}
}

func TestComputeChoropleth_FormatFilter(t *testing.T) {
	db := openMemDB(t)
	seedResults(t, db)
	mustExec(t, db,
		`INSERT INTO results VALUES ('India', '2010-02-02', 'India', '0', 'normal', 'Test Match')`)

	agg, err := newEngine(t, db).ComputeChoropleth(model.YearRange{Min: 2000, Max: 2018}, model.FormatTest)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	india := agg["india"]
	if india == nil || india.Matches != 1 || india.HomeWins != 1 {
		t.Errorf("test filter: want the single test match, got %+v", india)
	}
}

func TestComputeChoropleth_YearRangeClamp(t *testing.T) {
	db := openMemDB(t)
	seedResults(t, db)

	// Inverted and out-of-bounds input is repaired, not rejected.
	agg, err := newEngine(t, db).ComputeChoropleth(model.YearRange{Min: 2018, Max: 1500}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	if india := agg["india"]; india == nil || india.Matches != 10 {
		t.Errorf("clamped range should still cover the 2000s, got %+v", india)
	}
}

func TestComputeChoropleth_SkipsFailingTable(t *testing.T) {
	db := openMemDB(t)
	seedResults(t, db)
	mustExec(t, db,
		`CREATE TABLE tests(winner TEXT, date TEXT, venue_country TEXT)`,
		`INSERT INTO tests VALUES ('England', '2004-06-01', 'England')`)

	eng := newEngine(t, db)
	if _, err := eng.Schema(); err != nil {
		t.Fatalf("Schema: %v", err)
	}
	// The discovered map is cached, so dropping a table makes its query
	// fail at compute time. The other table must still contribute.
	mustExec(t, db, `DROP TABLE tests`)

	agg, err := eng.ComputeChoropleth(model.YearRange{Min: 2000, Max: 2018}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	if india := agg["india"]; india == nil || india.Matches != 10 {
		t.Errorf("surviving table: want india 10 matches, got %+v", india)
	}
	if _, ok := agg["england"]; ok {
		t.Error("dropped table must not contribute")
	}
}

func TestComputeChoropleth_NoMatchTables(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db, `CREATE TABLE rankings(team TEXT, rating INT)`)

	agg, err := newEngine(t, db).ComputeChoropleth(model.YearRange{Min: 2000, Max: 2018}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeChoropleth: %v", err)
	}
	if len(agg) != 0 {
		t.Errorf("want empty result for a database with no match tables, got %d entries", len(agg))
	}
}

func TestComputeYearTrend(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		`CREATE TABLE results(winner TEXT, date TEXT, venue_country TEXT, result_type TEXT, format TEXT)`,
		`INSERT INTO results VALUES ('Australia', '2003-01-05', 'Australia', 'normal', 'Test')`,
		`INSERT INTO results VALUES ('England', '2003-07-10', 'Australia', 'normal', 'Test')`,
		`INSERT INTO results VALUES ('Australia', '2001-12-26', 'Australia', 'normal', 'Test')`)

	trend, err := newEngine(t, db).ComputeYearTrend(model.YearRange{Min: 2000, Max: 2018}, model.FormatAll)
	if err != nil {
		t.Fatalf("ComputeYearTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("want 2 trend years, got %d", len(trend))
	}
	if trend[0].Year != 2001 || trend[1].Year != 2003 {
		t.Errorf("years must come back ascending, got %d then %d", trend[0].Year, trend[1].Year)
	}
	if trend[0].Matches != 1 || trend[0].HomeWins != 1 {
		t.Errorf("2001: want 1/1, got %d/%d", trend[0].Matches, trend[0].HomeWins)
	}
	if trend[1].Matches != 2 || trend[1].HomeWins != 1 {
		t.Errorf("2003: want 2/1, got %d/%d", trend[1].Matches, trend[1].HomeWins)
	}
	if trend[1].WinPct == nil || *trend[1].WinPct != 0.5 {
		t.Errorf("2003 win pct: want 0.5, got %v", trend[1].WinPct)
	}
}

func TestVenueCountries_FreeTextColumn(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		`CREATE TABLE venues(name TEXT, country TEXT)`,
		`INSERT INTO venues VALUES ('MCG', 'Australia')`,
		`INSERT INTO venues VALUES ('Lord''s', 'England')`,
		`INSERT INTO venues VALUES ('Nowhere', '')`)

	set, err := newEngine(t, db).VenueCountries()
	if err != nil {
		t.Fatalf("VenueCountries: %v", err)
	}
	if _, ok := set["australia"]; !ok {
		t.Error("want australia in the venue country set")
	}
	// The country alias map folds england into the united kingdom.
	if _, ok := set["united kingdom"]; !ok {
		t.Error("want united kingdom (canonical england) in the venue country set")
	}
	if len(set) != 2 {
		t.Errorf("blank countries must be dropped, got %d entries", len(set))
	}
}

func TestVenuesForCountry_FreeTextColumn(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		`CREATE TABLE venues(name TEXT, country TEXT)`,
		`INSERT INTO venues VALUES ('MCG', 'Australia')`,
		`INSERT INTO venues VALUES ('SCG', 'Australia')`,
		`INSERT INTO venues VALUES ('Lord''s', 'England')`)

	got, err := newEngine(t, db).VenuesForCountry("australia")
	if err != nil {
		t.Fatalf("VenuesForCountry: %v", err)
	}
	if len(got) != 2 || got[0] != "MCG" || got[1] != "SCG" {
		t.Errorf("want [MCG SCG], got %v", got)
	}
}

func TestVenuesForCountry_ISOFilter(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		`CREATE TABLE venues(name TEXT, iso3 TEXT)`,
		`INSERT INTO venues VALUES ('Eden Gardens', 'IND')`,
		`INSERT INTO venues VALUES ('MCG', 'AUS')`)

	eng := newEngine(t, db)
	got, err := eng.VenuesForCountry("India")
	if err != nil {
		t.Fatalf("VenuesForCountry: %v", err)
	}
	if len(got) != 1 || got[0] != "Eden Gardens" {
		t.Errorf("want [Eden Gardens], got %v", got)
	}

	// A country with no ISO code cannot be filtered; empty, not an error.
	got, err = eng.VenuesForCountry("Atlantis")
	if err != nil {
		t.Fatalf("VenuesForCountry: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unknown country: want no venues, got %v", got)
	}
}

func TestVenueCountries_ISOFallback(t *testing.T) {
	db := openMemDB(t)
	mustExec(t, db,
		`CREATE TABLE venues(name TEXT, iso3 TEXT)`,
		`INSERT INTO venues VALUES ('MCG', 'AUS')`,
		`INSERT INTO venues VALUES ('Unknown Ground', 'XYZ')`)

	set, err := newEngine(t, db).VenueCountries()
	if err != nil {
		t.Fatalf("VenueCountries: %v", err)
	}
	if _, ok := set["australia"]; !ok {
		t.Error("want australia resolved from ISO3")
	}
	if len(set) != 1 {
		t.Errorf("unresolvable codes must be dropped, got %d entries", len(set))
	}
}
