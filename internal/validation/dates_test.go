package validation

import (
	"testing"

	"github.com/JonMunkholm/ticketcast/internal/table"
)

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name     string
		input    table.Cell
		wantNull bool
		want     string
	}{
		// Canonical and day-first numeric forms
		{name: "canonical", input: table.Str("03-04-2023"), want: "03-04-2023"},
		{name: "day first with slashes", input: table.Str("03/04/2023"), want: "03-04-2023"},
		{name: "day first unpadded", input: table.Str("3-4-2023"), want: "03-04-2023"},
		{name: "day first dotted", input: table.Str("3.4.2023"), want: "03-04-2023"},
		{name: "unambiguous day over 12", input: table.Str("25/12/2022"), want: "25-12-2022"},
		{name: "two digit year", input: table.Str("03-04-23"), want: "03-04-2023"},
		{name: "surrounding whitespace", input: table.Str("  03-04-2023 "), want: "03-04-2023"},

		// Year-first forms are year-month-day
		{name: "year first slashes", input: table.Str("2023/04/03"), want: "03-04-2023"},
		{name: "iso date", input: table.Str("2023-04-03"), want: "03-04-2023"},
		{name: "spreadsheet datetime", input: table.Str("2023-04-03 00:00:00"), want: "03-04-2023"},
		{name: "compact", input: table.Str("20230403"), want: "03-04-2023"},

		// Free-form values
		{name: "rfc3339", input: table.Str("2023-04-03T10:15:00Z"), want: "03-04-2023"},
		{name: "month name", input: table.Str("03 February 2013"), want: "03-02-2013"},

		// Unparsable values become null
		{name: "null stays null", input: table.Null, wantNull: true},
		{name: "invalid calendar date", input: table.Str("31-02-2023"), wantNull: true},
		{name: "month out of range", input: table.Str("13-13-2023"), wantNull: true},
		{name: "garbage", input: table.Str("not a date"), wantNull: true},
		{name: "bare number", input: table.Str("12345"), wantNull: true},
		{name: "year only", input: table.Str("2023"), wantNull: true},
		{name: "whitespace only", input: table.Str("   "), wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCell(tt.input)
			if tt.wantNull {
				if !got.IsNull() {
					t.Errorf("NormalizeCell(%v) = %q, want null", tt.input, got.Value)
				}
				return
			}
			if got.IsNull() {
				t.Fatalf("NormalizeCell(%v) = null, want %q", tt.input, tt.want)
			}
			if got.Value != tt.want {
				t.Errorf("NormalizeCell(%v) = %q, want %q", tt.input, got.Value, tt.want)
			}
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	src := table.MustNew("ticketId", "createdDate", "closedDate")
	src.AppendStrings("1", "2023/04/03", "2023/04/03")
	src.AppendStrings("2", "31-02-2023", "x")

	got := NormalizeDates(src, []string{"createdDate", "missingDate"})

	created, _ := got.Column("createdDate")
	if created[0] != table.Str("03-04-2023") {
		t.Errorf("createdDate[0] = %v, want 03-04-2023", created[0])
	}
	if !created[1].IsNull() {
		t.Errorf("createdDate[1] = %v, want null", created[1])
	}

	// Unlisted columns are untouched.
	closed, _ := got.Column("closedDate")
	if closed[0] != table.Str("2023/04/03") || closed[1] != table.Str("x") {
		t.Errorf("closedDate = %v, want untouched", closed)
	}

	// The input table is not modified.
	orig, _ := src.Column("createdDate")
	if orig[0] != table.Str("2023/04/03") {
		t.Errorf("source createdDate[0] = %v, want 2023/04/03", orig[0])
	}
}

func TestNormalizeDates_Idempotent(t *testing.T) {
	src := table.MustNew("createdDate")
	for _, v := range []string{"01-01-2023", "29-02-2024", "31-12-1999", "", "bogus"} {
		src.AppendStrings(v)
	}

	once := NormalizeDates(src, []string{"createdDate"})
	twice := NormalizeDates(once, []string{"createdDate"})

	if !once.Equal(twice) {
		t.Errorf("normalize(normalize(t)) =\n%s\nwant\n%s", twice, once)
	}
}

func TestNormalizeDates_NoDateColumns(t *testing.T) {
	src := table.MustNew("a")
	src.AppendStrings("1")

	got := NormalizeDates(src, []string{"createdDate"})
	if !got.Equal(src) {
		t.Errorf("NormalizeDates() =\n%s\nwant unchanged", got)
	}
}
