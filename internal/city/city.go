// Package city holds the settlement catalog, the in-memory cache of siege
// windows and territorial events, and the read-side queries the bot answers
// from.
package city

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Day selects which event bucket a query reads.
type Day string

const (
	Today    Day = "today"
	Tomorrow Day = "tomorrow"
	Both     Day = "both"
)

// EventType distinguishes the two kinds of territorial event.
type EventType string

const (
	Invasion EventType = "invasion"
	War      EventType = "war"
)

// Event is a one-off territorial event scheduled for a city on a single date.
// Attacker and Defender are only populated for wars.
type Event struct {
	Type     EventType
	Date     string // ISO date the event is scheduled for
	Attacker string
	Defender string
}

// catalog is the closed set of settlements, in registry iteration order.
// Aliases are matched case- and punctuation-insensitively; the display name
// itself always matches.
var catalog = []struct {
	name    string
	aliases []string
}{
	{"Monarch's Bluffs", []string{"bluffs", "mb", "monarchs", "monarch's", "monarchbluffs"}},
	{"Cutlass Keys", []string{"cutlass", "ck", "keys", "cutlasskeys"}},
	{"First Light", []string{"fl", "firstlight"}},
	{"Weaver's Fen", []string{"wf", "weavers", "fen", "weaversfen"}},
	{"Windsward", []string{"ww", "winds"}},
	{"Mourningdale", []string{"md", "mourning", "morningdale"}},
	{"Reekwater", []string{"rw", "reek"}},
	{"Restless Shore", []string{"rs", "restless", "shores", "restlessshore"}},
	{"Brightwood", []string{"bw", "bright"}},
	{"Everfall", []string{"ef", "ever"}},
	{"Ebonscale Reach", []string{"eb", "ebonscale", "ebons", "reach", "ebonscalereach"}},
}

// ErrUnknownCity is returned by Resolve when no alias matches.
var ErrUnknownCity = errors.New("city: unknown city")

// TableKey normalizes a city display name into the form used to key its
// event table: non-alphanumerics stripped, lowercased.
func TableKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Resolve maps free-text user input to a canonical city name. The first
// matching catalog entry wins; unmatched input returns ErrUnknownCity.
func Resolve(term string) (string, error) {
	want := TableKey(term)
	if want == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCity, term)
	}
	for _, c := range catalog {
		if TableKey(c.name) == want {
			return c.name, nil
		}
		for _, alias := range c.aliases {
			if TableKey(alias) == want {
				return c.name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCity, term)
}

// Names returns the catalog's display names in registry iteration order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, c := range catalog {
		names[i] = c.name
	}
	return names
}
