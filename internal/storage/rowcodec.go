package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// TableData is the decoded content of one backing file.
type TableData struct {
	Header []string
	Rows   [][]string
}

// decodeTable parses CSV bytes. Rows shorter than the header are padded with
// empty cells; longer rows are kept as-is.
func decodeTable(data []byte) (*TableData, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: decode csv: %w", err)
	}

	td := &TableData{}
	if len(records) == 0 {
		return td, nil
	}
	td.Header = records[0]
	td.Rows = make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		td.Rows = append(td.Rows, padRow(row, len(td.Header)))
	}
	return td, nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// encodeTable writes header then rows as CSV with LF line endings.
func encodeTable(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(rec []string) error {
		// NOTE: encoding/csv writes a lone empty field as a blank line, which
		// the reader then skips. Quote it so the row survives a round trip.
		if len(rec) == 1 && rec[0] == "" {
			w.Flush()
			_, err := buf.WriteString("\"\"\n")
			return err
		}
		return w.Write(rec)
	}

	if err := write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("storage: encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
