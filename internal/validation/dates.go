// Package validation checks decoded uploads before they are promoted.
//
// The checks run in a fixed order:
//  1. NormalizeDates rewrites every configured date column to DD-MM-YYYY,
//     turning unparsable values into nulls
//  2. CheckNulls lists every column that holds a null, date columns included
//  3. CheckFormat re-validates the normalized date columns against the
//     canonical pattern
//
// None of these functions fail or mutate their input.
package validation

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/JonMunkholm/ticketcast/internal/table"
)

// CanonicalLayout is the only date representation accepted after normalization.
const CanonicalLayout = "02-01-2006"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Numeric layouts, tried in order. Ambiguous forms are day-first:
// "03-04-2023" is the 3rd of April. Year-first forms are always
// year-month-day.
var (
	fourDigitYearLayouts = []string{
		"2-1-2006", "2/1/2006", "2.1.2006",
		"2006-1-2", "2006/1/2", "2006.1.2",
		"2-1-2006 15:04:05", "2/1/2006 15:04:05", "2-1-2006 15:04", "2/1/2006 15:04",
		"2006-1-2 15:04:05", "2006/1/2 15:04:05", "2006-01-02T15:04:05",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"2-1-06", "2/1/06", "2.1.06",
	}
)

// ParseDate interprets s as a calendar date, preferring day-first for
// ambiguous numeric forms. Values written only with digits and separators
// must match one of the numeric layouts; anything else (month names,
// timestamps with zones) goes through a free-form parser configured
// day-first. Out-of-range values such as 31-02-2023 do not parse.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	// A purely numeric value that missed every layout is malformed or out
	// of range; the free-form parser would only guess at it.
	if isNumericDate(s) {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isNumericDate reports whether s consists only of digits and date separators.
func isNumericDate(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '-', r == '/', r == '.':
		default:
			return false
		}
	}
	return true
}

// NormalizeCell rewrites one date cell. Nulls and unparsable values
// become null.
func NormalizeCell(c table.Cell) table.Cell {
	if c.IsNull() {
		return table.Null
	}
	t, ok := ParseDate(c.Value)
	if !ok {
		return table.Null
	}
	return table.Str(t.Format(CanonicalLayout))
}

// NormalizeDates returns a copy of t with every listed column that is
// present rewritten to DD-MM-YYYY. Listed columns missing from the table
// are ignored, as are unlisted ones.
func NormalizeDates(t *table.Table, columns []string) *table.Table {
	out := t
	for _, name := range columns {
		cells, ok := out.Column(name)
		if !ok {
			continue
		}
		normalized := make([]table.Cell, len(cells))
		for i, c := range cells {
			normalized[i] = NormalizeCell(c)
		}
		// The column exists and the length matches, so this cannot fail.
		next, err := out.WithColumn(name, normalized)
		if err != nil {
			continue
		}
		out = next
	}
	if out == t {
		return t.Clone()
	}
	return out
}
