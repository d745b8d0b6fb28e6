package engine

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/emberql/ember/errs"
	"github.com/emberql/ember/table"
)

// ExportCSV writes tbl's columns as a header row followed by one row per
// record, in column-declaration order, RFC-4180 quoted by the standard
// library writer.
func ExportCSV(w io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("engine: write csv header: %w", err)
	}

	for _, rec := range tbl.FullScan() {
		row := make([]string, len(tbl.Columns))
		for i, c := range tbl.Columns {
			row[i] = rec.Values[c.Name]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("engine: write csv row: %w", err)
		}
	}
	return cw.Error()
}

// ImportCSV reads a header row naming columns that must all exist on
// tbl, then inserts one record per remaining row. An empty field becomes
// NULL (absent from the inserted values).
func ImportCSV(r io.Reader, tbl *table.Table) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return 0, &errs.ArgumentError{Detail: "CSV input has no header row"}
	}
	if err != nil {
		return 0, fmt.Errorf("engine: read csv header: %w", err)
	}
	for _, name := range header {
		if !tbl.HasColumn(name) {
			return 0, &errs.SchemaError{Detail: fmt.Sprintf("CSV column %q does not exist on table %q", name, tbl.Name)}
		}
	}

	count := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("engine: read csv row: %w", err)
		}
		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) && row[i] != "" {
				values[name] = row[i]
			}
		}
		if _, err := tbl.InsertRecord(values); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
