package table

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetName is the single sheet written on encode.
const sheetName = "Sheet1"

// Layouts for cells whose number format makes a spreadsheet display a
// date or a time of day instead of the stored serial. They match how
// spreadsheet readers stringify those values; the date normalizer accepts
// the datetime form.
const (
	spreadsheetTimeLayout = "2006-01-02 15:04:05"
	timeOfDayLayout       = "15:04:05"
)

// numFmtKind classifies a cell's number format.
type numFmtKind int

const (
	numFmtPlain numFmtKind = iota
	numFmtDate
	numFmtTime
)

// styledCells turns raw cell values into their displayed text where the
// raw form would mislead the validators: date and time serials, and
// booleans stored as 1/0.
type styledCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]numFmtKind
}

func newStyledCells(f *excelize.File, sheet string) *styledCells {
	d := &styledCells{f: f, sheet: sheet, styles: make(map[int]numFmtKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// render returns the display text of the cell at (col,row) when it differs
// from raw. Both coordinates are 1-based.
func (d *styledCells) render(col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}

	if raw == "0" || raw == "1" {
		if typ, err := d.f.GetCellType(d.sheet, cell); err == nil && typ == excelize.CellTypeBool {
			if raw == "1" {
				return "TRUE", true
			}
			return "FALSE", true
		}
	}

	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return "", false
	}
	kind := d.kindOf(idx)
	if kind == numFmtPlain {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	if kind == numFmtTime {
		return t.Format(timeOfDayLayout), true
	}
	return t.Format(spreadsheetTimeLayout), true
}

func (d *styledCells) kindOf(idx int) numFmtKind {
	if v, ok := d.styles[idx]; ok {
		return v
	}
	kind := numFmtPlain
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		kind = classifyNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	d.styles[idx] = kind
	return kind
}

// classifyNumFmt reports whether a number format displays a date, a time
// of day, or neither. Built-in ids 14-17 and 22 show a date; 18-21 and
// 45-47 show only a time.
func classifyNumFmt(id int, custom *string) numFmtKind {
	switch {
	case (id >= 14 && id <= 17) || id == 22:
		return numFmtDate
	case (id >= 18 && id <= 21) || (id >= 45 && id <= 47):
		return numFmtTime
	}
	if custom == nil {
		return numFmtPlain
	}
	tokens := stripFormatLiterals(*custom)
	switch {
	case strings.ContainsAny(tokens, "dDyY"):
		return numFmtDate
	case strings.ContainsAny(tokens, "hHsS"):
		return numFmtTime
	}
	return numFmtPlain
}

// stripFormatLiterals drops quoted text and bracketed sections ([Red],
// [$-409]) so that only format tokens remain.
func stripFormatLiterals(format string) string {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range format {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func encodeXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for c, name := range t.names {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheetName, cell, name); err != nil {
			return nil, err
		}
	}

	for c, col := range t.cols {
		for r, v := range col {
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(sheetName, cell, v.Value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
