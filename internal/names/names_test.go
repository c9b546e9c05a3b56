package names

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"India", "india"},
		{"TRINIDAD & TOBAGO", "trinidad and tobago"},
		{"St. Kitts  and   Nevis", "st kitts and nevis"},
		{"U.A.E.", "uae"},
		{"  New\tZealand \n", "new zealand"},
		{"Côte d'Ivoire", "cte divoire"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}

func TestCanonicalCountry(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"United States of America", "united states"},
		{"USA", "united states"},
		{"UK", "united kingdom"},
		{"England", "united kingdom"},
		{"UAE", "united arab emirates"},
		{"India", "india"},
		{"  Sri Lanka ", "sri lanka"},
	}
	for _, c := range cases {
		if got := CanonicalCountry(c.in); got != c.want {
			t.Errorf("CanonicalCountry(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}

// The country map sends "england" → "united kingdom", but the team map sends
// "united kingdom" → "england". The asymmetry is deliberate: hosts group
// under the UK, while the cricket side is England.
func TestCountryTeamAsymmetry(t *testing.T) {
	if got := CanonicalCountry("england"); got != "united kingdom" {
		t.Errorf("CanonicalCountry(england): want united kingdom, got %q", got)
	}
	if got := CanonicalTeam("united kingdom"); got != "england" {
		t.Errorf("CanonicalTeam(united kingdom): want england, got %q", got)
	}
}

func TestCanonicalIdempotence(t *testing.T) {
	inputs := []string{
		"England", "USA", "UAE", "uk", "West Indies", "WestIndies",
		"India", "random place", "", "Trinidad & Tobago",
	}
	for _, in := range inputs {
		once := CanonicalCountry(in)
		if twice := CanonicalCountry(once); twice != once {
			t.Errorf("CanonicalCountry not idempotent for %q: %q → %q", in, once, twice)
		}
		onceT := CanonicalTeam(in)
		if twiceT := CanonicalTeam(onceT); twiceT != onceT {
			t.Errorf("CanonicalTeam not idempotent for %q: %q → %q", in, onceT, twiceT)
		}
	}
}

func TestHostToHomeTeam(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"barbados", "west indies"},
		{"Trinidad & Tobago", "west indies"},
		{"Jamaica", "west indies"},
		{"united kingdom", "england"},
		{"india", "india"},
		{"Australia", "australia"},
	}
	for _, c := range cases {
		if got := HostToHomeTeam(c.host); got != c.want {
			t.Errorf("HostToHomeTeam(%q): want %q, got %q", c.host, c.want, got)
		}
	}
}

func TestISOFallback(t *testing.T) {
	if c, ok := CountryFromISO3("ind"); !ok || c != "india" {
		t.Errorf("CountryFromISO3(ind): want india/true, got %q/%v", c, ok)
	}
	if c, ok := CountryFromISO2(" gb "); !ok || c != "united kingdom" {
		t.Errorf("CountryFromISO2(gb): want united kingdom/true, got %q/%v", c, ok)
	}
	// Unknown codes are dropped, not defaulted.
	if _, ok := CountryFromISO3("XXX"); ok {
		t.Error("CountryFromISO3(XXX): expected no match")
	}
	if code, ok := ISO3ForCountry("australia"); !ok || code != "AUS" {
		t.Errorf("ISO3ForCountry(australia): want AUS/true, got %q/%v", code, ok)
	}
	if _, ok := ISO2ForCountry("atlantis"); ok {
		t.Error("ISO2ForCountry(atlantis): expected no match")
	}
}
