package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// normalizeCSV converts the raw feed into a JSON array of row objects keyed
// by the header columns. Malformed rows are skipped and counted; only an
// unusable header or an empty feed is an error.
func normalizeCSV(raw []byte) (json.RawMessage, int, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read feed header: %w", err)
	}
	if len(header) == 0 {
		return nil, 0, errors.New("feed header empty")
	}

	rows := make([]map[string]string, 0, 256)
	warnings := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			warnings++
			continue
		}
		if len(record) != len(header) {
			warnings++
			continue
		}
		row := make(map[string]string, len(header))
		for i, column := range header {
			row[column] = record[i]
		}
		rows = append(rows, row)
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, warnings, fmt.Errorf("encode feed rows: %w", err)
	}
	return payload, warnings, nil
}
