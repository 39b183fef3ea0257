package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRegex = regexp.MustCompile(`\d`)
var innerWhitespace = regexp.MustCompile(`\s\s+`)

// ParseCount extracts an integer from a human-facing counter like
// "1,234 reactions" or "12 345". Everything that isn't a digit is
// dropped before parsing; unparseable input yields zero.
func ParseCount(s string) int64 {
	digits := strings.Join(digitRegex.FindAllString(s, -1), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// NormalizeSpace trims a string and collapses runs of inner whitespace
// into single spaces.
func NormalizeSpace(s string) string {
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// CleanRelativeTime strips the trailing annotations the feed appends to
// its relative timestamps, e.g. "3d • Edited" or "1w •\n Visible to anyone".
// The relative part itself is never parsed, only carried verbatim.
func CleanRelativeTime(s string) string {
	s = NormalizeSpace(s)
	if i := strings.Index(s, "•"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
