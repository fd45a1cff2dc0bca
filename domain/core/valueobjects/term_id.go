package valueobjects

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// canonicalPattern matches a full canonical identifier and nothing else.
var canonicalPattern = regexp.MustCompile(`^GO:\d{7}$`)

// embeddedIDPattern finds a canonical-shaped identifier anywhere inside a
// raw token, case-insensitively.
var embeddedIDPattern = regexp.MustCompile(`(?i)GO:\d{7}`)

// slimTokenPattern matches the first id-bearing token on a flat slim list
// line: a full identifier or a bare run of up to seven digits.
var slimTokenPattern = regexp.MustCompile(`(?i)(GO:\d{7}|\d{1,7})`)

// TermID is a value object representing a canonical ontology term identifier
// Value objects are immutable and have no identity beyond their value
type TermID struct {
	value string
}

// NewTermID creates a TermID from a canonical identifier string
func NewTermID(id string) (TermID, error) {
	if id == "" {
		return TermID{}, errors.New("term ID cannot be empty")
	}
	if !canonicalPattern.MatchString(id) {
		return TermID{}, errors.New("term ID must be GO: followed by seven digits")
	}
	return TermID{value: id}, nil
}

// NormalizeTermToken coerces a raw term reference into canonical form.
// A GO:-shaped substring wins regardless of case; a bare run of at most
// seven digits is zero-padded and prefixed. Anything else does not resolve.
func NormalizeTermToken(raw string) (TermID, bool) {
	raw = strings.TrimSpace(raw)
	if m := embeddedIDPattern.FindString(raw); m != "" {
		return TermID{value: strings.ToUpper(m)}, true
	}
	if isDigits(raw) && len(raw) <= 7 {
		return TermID{value: "GO:" + zeroPad(raw, 7)}, true
	}
	return TermID{}, false
}

// TermIDFromSlimLine extracts the first id-bearing token from a flat slim
// list line. Trailing #-comments are stripped before matching.
func TermIDFromSlimLine(line string) (TermID, bool) {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)

	m := slimTokenPattern.FindString(line)
	if m == "" {
		return TermID{}, false
	}
	if isDigits(m) {
		m = "GO:" + zeroPad(m, 7)
	}
	return TermID{value: strings.ToUpper(m)}, true
}

// String returns the string representation of the TermID
func (id TermID) String() string {
	return id.value
}

// Equals checks if two TermIDs are equal
func (id TermID) Equals(other TermID) bool {
	return id.value == other.value
}

// Less orders TermIDs lexicographically
func (id TermID) Less(other TermID) bool {
	return id.value < other.value
}

// IsZero checks if the TermID is the zero value
func (id TermID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler so TermIDs can key JSON maps
func (id TermID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *TermID) UnmarshalText(data []byte) error {
	s := string(data)
	if !canonicalPattern.MatchString(s) {
		return errors.New("term ID must be GO: followed by seven digits")
	}
	id.value = s
	return nil
}

// SortTermIDs sorts a slice of TermIDs in ascending lexicographic order
func SortTermIDs(ids []TermID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].value < ids[j].value })
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func zeroPad(digits string, width int) string {
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}
