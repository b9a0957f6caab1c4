// Package normalizer maps department identifiers to their canonical tenant key.
//
// Every component that derives a table name or persists a department value goes
// through Normalize; there is no second stripping routine anywhere in the tree.
package normalizer

import (
	"regexp"
	"strings"
)

// CanonicalDataScience is the single key every Data-Science CSE variant collapses to.
const CanonicalDataScience = "CSEDS"

// synonyms is keyed by the stripped, uppercased form of each alias.
var synonyms = map[string]string{
	"CSDS":            CanonicalDataScience,
	"CSE-DS":          CanonicalDataScience,
	"CSE_DS":          CanonicalDataScience,
	"CS-DS":           CanonicalDataScience,
	"DS":              CanonicalDataScience,
	"CSE-DATASCIENCE": CanonicalDataScience,
	"CSE_DATASCIENCE": CanonicalDataScience,
	"CSEDATASCIENCE":  CanonicalDataScience,
	"DATASCIENCE":     CanonicalDataScience,
}

// known is the closed allow-list of recognized department keys.
var known = map[string]struct{}{
	"CSE":                {},
	CanonicalDataScience: {},
	"CSM":                {},
	"ECE":                {},
	"EEE":                {},
	"MECH":               {},
	"CIVIL":              {},
	"IT":                 {},
}

// Keeps the longest derived identifier (index names on Students/AssignedSubjects)
// under the 63-byte PostgreSQL limit.
var provisionable = regexp.MustCompile(`^[A-Z0-9_-]{1,30}$`)

var stripper = strings.NewReplacer("(", "", ")", "", " ", "")

// Normalize returns the canonical form of raw. Empty input is returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	key := strings.ToUpper(stripper.Replace(raw))
	if canonical, ok := synonyms[key]; ok {
		return canonical
	}
	return key
}

// IsNormalized reports whether raw is already in canonical form.
func IsNormalized(raw string) bool {
	return Normalize(raw) == raw
}

// IsRecognized checks a canonical key against the allow-list.
func IsRecognized(key string) bool {
	_, ok := known[key]
	return ok
}

// IsValidDepartment normalizes raw and checks it against the allow-list.
func IsValidDepartment(raw string) bool {
	key := Normalize(raw)
	return key != "" && IsRecognized(key)
}

// IsProvisionable reports whether key can be embedded in physical table names.
func IsProvisionable(key string) bool {
	return provisionable.MatchString(key)
}

// Known returns the allow-list, unordered.
func Known() []string {
	out := make([]string, 0, len(known))
	for k := range known {
		out = append(out, k)
	}
	return out
}
