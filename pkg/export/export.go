// Package export renders battery report rows as CSV, JSON or an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

// Row is a report record with a fixed column order.
type Row interface {
	Values() []string
}

// Envelope is the JSON body of every report endpoint.
type Envelope[T any] struct {
	Records []T    `json:"records"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes records and an optional message to w. A nil slice is
// written as an empty array.
func WriteJSON[T any](w io.Writer, records []T, message string) error {
	if records == nil {
		records = []T{}
	}
	return json.NewEncoder(w).Encode(Envelope[T]{Records: records, Message: message})
}

// WriteCSV writes the header followed by one line per row. Fields are quoted
// only when they contain a separator, a quote or a newline; the dashboard's
// plain comma join wrote such fields raw and could not be read back.
func WriteCSV[T Row](w io.Writer, header []string, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV back into header and rows.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0
	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
