// Package batchio reads input batches from CSV and writes response columns back.
package batchio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
)

// ReadCSV reads a batch whose first record is a header naming 1 to 3
// positional columns (query, content, prompt). Every data record must have
// the same number of fields as the header.
func ReadCSV(r io.Reader) (domain.Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Batch{}, &domain.SchemaError{Reason: "input is empty, a header row is required"}
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > domain.MaxInputColumns {
		return domain.Batch{}, &domain.SchemaError{Reason: fmt.Sprintf(
			"header has %d columns, at most %d allowed", len(header), domain.MaxInputColumns)}
	}

	batch := domain.Batch{Columns: make([]domain.Column, len(header))}
	for i, name := range header {
		batch.Columns[i] = domain.Column{Name: name, Values: []string{}}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return domain.Batch{}, &domain.SchemaError{Reason: fmt.Sprintf(
					"line %d has %d fields, header has %d", line, len(record), len(header))}
			}
			return domain.Batch{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		for i, v := range record {
			batch.Columns[i].Values = append(batch.Columns[i].Values, v)
		}
	}

	return batch, batch.Validate()
}

// WriteCSV writes the response column of out with a header row. Empty values
// are written as a quoted "" record so every result keeps its own line.
func WriteCSV(w io.Writer, out domain.OutputBatch) error {
	writer := csv.NewWriter(w)

	col := out.Column()
	if err := writer.Write([]string{col.Name}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range col.Values {
		if v == "" {
			// csv.Writer emits a blank line here, which readers skip.
			writer.Flush()
			if err := writer.Error(); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
			continue
		}
		if err := writer.Write([]string{v}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
