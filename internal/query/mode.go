package query

import "strings"

// Mode selects a matching strategy.
type Mode string

const (
	ModeHash     Mode = "hash"
	ModeFilepath Mode = "filepath"
	ModeFuzzy    Mode = "fuzzy"
	ModeRegex    Mode = "regex"
	ModeID       Mode = "id"
)

// Modes lists every supported mode in the order the CLI documents them.
var Modes = []Mode{ModeHash, ModeFilepath, ModeFuzzy, ModeRegex, ModeID}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMode maps a case-insensitive name to a Mode. The empty string is ModeHash.
func ParseMode(s string) (Mode, bool) {
	if s == "" {
		return ModeHash, true
	}
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// ForcesAll reports whether results of this mode are always shown in full.
// Id prefixes may be shared by several runs, so every match is shown.
func (m Mode) ForcesAll() bool {
	return m == ModeID
}
