package validation

import (
	"regexp"

	"github.com/JonMunkholm/ticketcast/internal/table"
)

// canonicalDate matches DD-MM-YYYY with day 01-31 and month 01-12.
var canonicalDate = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])-(0[1-9]|1[0-2])-\d{4}$`)

// IsCanonical reports whether s is a DD-MM-YYYY date string.
func IsCanonical(s string) bool {
	return canonicalDate.MatchString(s)
}

// CheckFormat lists, per date column, the values that are not canonical.
// Values are reported verbatim and in row order. Nulls are skipped here;
// CheckNulls reports them. Columns with no offending value, and listed
// columns absent from the table, are omitted.
func CheckFormat(t *table.Table, columns []string) map[string][]string {
	invalid := make(map[string][]string)
	for _, name := range columns {
		cells, ok := t.Column(name)
		if !ok {
			continue
		}
		for _, c := range cells {
			if c.IsNull() || IsCanonical(c.Value) {
				continue
			}
			invalid[name] = append(invalid[name], c.Value)
		}
	}
	return invalid
}

// CheckNulls returns the names of all columns holding at least one null,
// in table column order.
func CheckNulls(t *table.Table) []string {
	var cols []string
	for _, name := range t.Columns() {
		cells, _ := t.Column(name)
		for _, c := range cells {
			if c.IsNull() {
				cols = append(cols, name)
				break
			}
		}
	}
	return cols
}

// NullRows maps each column holding nulls to the 1-based data row numbers
// of those nulls. Row 1 is the first row after the header.
func NullRows(t *table.Table) map[string][]int {
	rows := make(map[string][]int)
	for _, name := range t.Columns() {
		cells, _ := t.Column(name)
		for i, c := range cells {
			if c.IsNull() {
				rows[name] = append(rows[name], i+1)
			}
		}
	}
	return rows
}
