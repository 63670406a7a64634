package table

// decode.go turns raw upload bytes into a Table.
//
// Both formats share the same header rules:
//   - The first row is the header
//   - Blank header cells become "Unnamed: <index>"
//   - Repeated names are suffixed ".1", ".2", ... so column names stay unique
//
// Data rows shorter than the header are padded with nulls. A CSV row wider
// than the header is a DecodeError; a spreadsheet row that runs past the
// header gets an unnamed column instead. Empty cells and the conventional
// missing-value markers (NA, N/A, NULL, ...) decode to null.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// utf8BOM is the byte order mark that Windows tools prepend to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NullMarkers are cell values that decode to null. Matching is exact and
// case-sensitive; "none" or "Na" stay as text.
var NullMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// Decode parses data according to f.
func Decode(data []byte, f Format) (*Table, error) {
	switch f {
	case FormatCSV:
		return decodeCSV(data)
	case FormatXLSX:
		return decodeXLSX(data)
	default:
		return nil, &UnsupportedFormatError{Key: string(f)}
	}
}

func decodeCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &DecodeError{Format: FormatCSV, Err: errors.New("encoding error: content is not valid UTF-8")}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, &DecodeError{Format: FormatCSV, Err: errors.New("empty file: no columns to parse")}
	}
	if err != nil {
		return nil, &DecodeError{Format: FormatCSV, Err: err}
	}

	t, err := New(headerNames(header))
	if err != nil {
		return nil, &DecodeError{Format: FormatCSV, Err: err}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Format: FormatCSV, Err: err}
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, &DecodeError{
				Format: FormatCSV,
				Err:    fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record)),
			}
		}
		if err := t.AppendRow(toCells(record, len(header))); err != nil {
			return nil, &DecodeError{Format: FormatCSV, Err: err}
		}
	}

	return t, nil
}

func decodeXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Format: FormatXLSX, Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Err: err}
	}
	if len(rows) == 0 {
		return nil, &DecodeError{Format: FormatXLSX, Err: errors.New("empty file: no columns to parse")}
	}

	// Cells to the right of the header still get a column.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, rows[0])

	t, err := New(headerNames(header))
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Err: err}
	}

	cells := newStyledCells(f, sheet)
	for r, row := range rows[1:] {
		for c, v := range row {
			if v == "" {
				continue
			}
			// Row index r is 0-based over data rows; the sheet row is r+2.
			if s, ok := cells.render(c+1, r+2, v); ok {
				row[c] = s
			}
		}
		if err := t.AppendRow(toCells(row, len(header))); err != nil {
			return nil, &DecodeError{Format: FormatXLSX, Err: err}
		}
	}

	return t, nil
}

// headerNames applies the blank and duplicate header rules.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// toCells converts raw values into cells, padding to width with nulls.
func toCells(values []string, width int) []Cell {
	cells := make([]Cell, width)
	for i := 0; i < width && i < len(values); i++ {
		if _, null := NullMarkers[values[i]]; !null {
			cells[i] = Str(values[i])
		}
	}
	return cells
}
