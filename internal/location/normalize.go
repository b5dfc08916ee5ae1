// Package location canonicalizes free-text addresses and venues so that
// event locations and saved household addresses can be compared.
package location

import (
	"regexp"
	"strings"
)

// suffixes maps street-suffix words to their canonical abbreviation.
// The abbreviations themselves are fixed points, which keeps Normalize
// idempotent.
var suffixes = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"lane":      "ln",
	"court":     "ct",
	"road":      "rd",
}

var (
	suffixPattern = regexp.MustCompile(`\b(street|avenue|boulevard|drive|lane|court|road)\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
	punctReplacer = strings.NewReplacer(".", "", ",", "", "#", "")
)

// Normalize canonicalizes a free-text address or venue: lower-case, trim,
// strip ".", "," and "#", canonicalize street suffixes, collapse whitespace.
// Pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctReplacer.Replace(s)
	s = suffixPattern.ReplaceAllStringFunc(s, func(word string) string {
		return suffixes[word]
	})
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// MatchesAddress reports whether an event location refers to a saved
// address. Both sides are normalized and compared by substring containment
// in either direction, which intentionally accepts partial matches (an
// event location omitting the unit number still matches). Empty input on
// either side never matches.
func MatchesAddress(eventLocation, address string) bool {
	loc := Normalize(eventLocation)
	addr := Normalize(address)
	if loc == "" || addr == "" {
		return false
	}
	return strings.Contains(loc, addr) || strings.Contains(addr, loc)
}
