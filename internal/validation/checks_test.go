package validation

import (
	"reflect"
	"testing"

	"github.com/JonMunkholm/ticketcast/internal/table"
)

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"01-01-2023", true},
		{"31-12-2023", true},
		{"29-02-2023", true}, // pattern only, not a calendar check
		{"00-01-2023", false},
		{"32-01-2023", false},
		{"01-13-2023", false},
		{"1-1-2023", false},
		{"2023-01-01", false},
		{"01/01/2023", false},
		{"01-01-23", false},
		{"01-01-20231", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsCanonical(tt.input); got != tt.want {
				t.Errorf("IsCanonical(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckFormat(t *testing.T) {
	tbl := table.MustNew("createdDate", "dueDate", "note")
	tbl.AppendStrings("03-04-2023", "2023-04-03", "x")
	tbl.AppendStrings("1-1-2023", "", "y")
	tbl.AppendStrings("", "10-10-2023", "z")

	got := CheckFormat(tbl, []string{"createdDate", "dueDate", "missing"})
	want := map[string][]string{
		"createdDate": {"1-1-2023"},
		"dueDate":     {"2023-04-03"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CheckFormat() = %v, want %v", got, want)
	}
}

func TestCheckFormat_CleanColumnOmitted(t *testing.T) {
	tbl := table.MustNew("createdDate")
	tbl.AppendStrings("03-04-2023")

	if got := CheckFormat(tbl, []string{"createdDate"}); len(got) != 0 {
		t.Errorf("CheckFormat() = %v, want empty", got)
	}
}

func TestCheckNulls(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want []string
	}{
		{
			name: "no nulls",
			rows: [][]string{{"1", "2", "3"}},
			want: nil,
		},
		{
			name: "table order not discovery order",
			rows: [][]string{{"1", "2", ""}, {"", "2", "3"}},
			want: []string{"a", "c"},
		},
		{
			name: "every column",
			rows: [][]string{{"", "", ""}},
			want: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table.MustNew("a", "b", "c")
			for _, r := range tt.rows {
				tbl.AppendStrings(r...)
			}
			got := CheckNulls(tbl)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CheckNulls() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckNulls_IncludesNormalizedDates(t *testing.T) {
	tbl := table.MustNew("ticketId", "createdDate")
	tbl.AppendStrings("1", "31-02-2023")

	normalized := NormalizeDates(tbl, []string{"createdDate"})

	if got := CheckNulls(normalized); !reflect.DeepEqual(got, []string{"createdDate"}) {
		t.Errorf("CheckNulls() = %v, want [createdDate]", got)
	}
	if got := CheckFormat(normalized, []string{"createdDate"}); len(got) != 0 {
		t.Errorf("CheckFormat() = %v, want empty (null is a completeness problem)", got)
	}
}

func TestNullRows(t *testing.T) {
	tbl := table.MustNew("a", "b")
	tbl.AppendStrings("1", "")
	tbl.AppendStrings("", "")
	tbl.AppendStrings("3", "x")

	want := map[string][]int{"a": {2}, "b": {1, 2}}
	if got := NullRows(tbl); !reflect.DeepEqual(got, want) {
		t.Errorf("NullRows() = %v, want %v", got, want)
	}
}
