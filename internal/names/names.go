// Package names canonicalizes the free-text country and team strings found
// in real cricket datasets so that joins and groupings line up despite
// inconsistent source text.
package names

import "strings"

// Normalize lower-cases s, folds "&" to "and", strips everything that is not
// a letter, digit, or space, collapses runs of whitespace, and trims. Total:
// never fails, and empty input yields "".
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true // leading spaces dropped
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ', r == '\t', r == '\n', r == '\r':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// countryAliases maps normalized free text to the canonical country key used
// for choropleth grouping. Note the direction: "england" the place is part
// of "united kingdom" here, while teamAliases below maps the inverse — the
// England cricket team's identity is "england". Both directions are
// intentional.
var countryAliases = map[string]string{
	"united states of america": "united states",
	"usa":                      "united states",
	"uk":                       "united kingdom",
	"england":                  "united kingdom",
	"uae":                      "united arab emirates",
}

// teamAliases maps normalized free text to canonical team identities.
var teamAliases = map[string]string{
	"uae":                      "united arab emirates",
	"united arab emirates":     "united arab emirates",
	"eng":                      "england",
	"uk":                       "england",
	"united kingdom":           "england",
	"usa":                      "united states",
	"united states of america": "united states",
	"westindies":               "west indies",
	"west indies":              "west indies",
}

// caribbeanHosts are the nations that field the composite West Indies team.
var caribbeanHosts = map[string]struct{}{
	"barbados":                         {},
	"trinidad and tobago":              {},
	"jamaica":                          {},
	"saint lucia":                      {},
	"grenada":                          {},
	"antigua and barbuda":              {},
	"saint kitts and nevis":            {},
	"guyana":                           {},
	"dominica":                         {},
	"saint vincent and the grenadines": {},
}

// CanonicalCountry normalizes s and resolves it through the country alias
// table; unmapped values pass through normalized. Idempotent.
func CanonicalCountry(s string) string {
	n := Normalize(s)
	if c, ok := countryAliases[n]; ok {
		return c
	}
	return n
}

// CanonicalTeam normalizes s and resolves it through the team alias table;
// unmapped values pass through normalized. Idempotent.
func CanonicalTeam(s string) string {
	n := Normalize(s)
	if c, ok := teamAliases[n]; ok {
		return c
	}
	return n
}

// HostToHomeTeam maps a host country to the team that is "at home" there:
// the Caribbean nations share the West Indies side, and matches hosted in
// the United Kingdom belong to England. Everything else hosts itself.
func HostToHomeTeam(host string) string {
	h := Normalize(host)
	if _, ok := caribbeanHosts[h]; ok {
		return "west indies"
	}
	if h == "united kingdom" {
		return "england"
	}
	return h
}

// ---- ISO code fallback ----
//
// Used when venues carry no free-text country column. Codes outside these
// tables are dropped, never defaulted to a country.

var iso3ToCountry = map[string]string{
	"AUS": "australia",
	"IND": "india",
	"PAK": "pakistan",
	"NZL": "new zealand",
	"ZAF": "south africa",
	"LKA": "sri lanka",
	"BGD": "bangladesh",
	"AFG": "afghanistan",
	"GBR": "united kingdom",
	"ARE": "united arab emirates",
}

var iso2ToCountry = map[string]string{
	"AU": "australia",
	"IN": "india",
	"PK": "pakistan",
	"NZ": "new zealand",
	"ZA": "south africa",
	"LK": "sri lanka",
	"BD": "bangladesh",
	"AF": "afghanistan",
	"GB": "united kingdom",
	"AE": "united arab emirates",
}

var countryToISO3, countryToISO2 map[string]string

func init() {
	countryToISO3 = make(map[string]string, len(iso3ToCountry))
	for code, name := range iso3ToCountry {
		countryToISO3[name] = code
	}
	countryToISO2 = make(map[string]string, len(iso2ToCountry))
	for code, name := range iso2ToCountry {
		countryToISO2[name] = code
	}
}

// CountryFromISO3 resolves an ISO 3166-1 alpha-3 code to a canonical country
// name. ok is false for unknown codes.
func CountryFromISO3(code string) (string, bool) {
	c, ok := iso3ToCountry[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// CountryFromISO2 resolves an ISO 3166-1 alpha-2 code to a canonical country
// name. ok is false for unknown codes.
func CountryFromISO2(code string) (string, bool) {
	c, ok := iso2ToCountry[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// ISO3ForCountry is the inverse lookup, used to build venue filters when
// only ISO columns exist.
func ISO3ForCountry(canonical string) (string, bool) {
	c, ok := countryToISO3[canonical]
	return c, ok
}

// ISO2ForCountry is the alpha-2 inverse lookup.
func ISO2ForCountry(canonical string) (string, bool) {
	c, ok := countryToISO2[canonical]
	return c, ok
}
