package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Encode serialises t back into f. Null cells are written empty.
func Encode(t *Table, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return encodeCSV(t)
	case FormatXLSX:
		out, err := encodeXLSX(t)
		if err != nil {
			return nil, fmt.Errorf("encode xlsx: %w", err)
		}
		return out, nil
	default:
		return nil, &UnsupportedFormatError{Key: string(f)}
	}
}

func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.names); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	record := make([]string, len(t.cols))
	for r := 0; r < t.NumRows(); r++ {
		for c := range t.cols {
			record[c] = t.cols[c][r].Value
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
