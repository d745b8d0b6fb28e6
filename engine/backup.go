package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/emberql/ember/table"
)

// ExportBackup writes, per table, a CREATE TABLE statement, one INSERT
// per record, and a CREATE INDEX statement for every secondary index
// (primary-key indexes are reconstructed implicitly by CREATE TABLE and
// are not re-emitted).
func ExportBackup(w io.Writer, db *table.Database) error {
	bw := bufio.NewWriter(w)
	for _, tbl := range db.Tables() {
		if _, err := fmt.Fprintln(bw, createTableDDL(tbl)+";"); err != nil {
			return err
		}
		for _, rec := range tbl.FullScan() {
			if _, err := fmt.Fprintln(bw, insertDML(tbl, rec)+";"); err != nil {
				return err
			}
		}
		for _, col := range tbl.IndexedColumns() {
			// CREATE TABLE above already recreates the index backing a
			// primary key or a UNIQUE column; only emit CREATE INDEX for
			// genuine secondary indexes.
			if c, ok := tbl.Column(col); ok && (c.PrimaryKey || c.Unique) {
				continue
			}
			stmt := fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", tbl.Name, col, tbl.Name, col)
			if _, err := fmt.Fprintln(bw, stmt+";"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func createTableDDL(tbl *table.Table) string {
	defs := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		def := c.Name + " " + c.Type
		if c.Length > 0 {
			def += fmt.Sprintf("(%d)", c.Length)
		}
		if c.AutoIncrement {
			def += " AUTO_INCREMENT"
		}
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		} else if c.Unique {
			def += " UNIQUE"
		}
		if c.NotNull && !c.PrimaryKey {
			def += " NOT NULL"
		}
		if c.HasDefault {
			def += " DEFAULT " + quoteBackupLiteral(c.Default)
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", tbl.Name, strings.Join(defs, ", "))
}

func insertDML(tbl *table.Table, rec *table.Record) string {
	var cols, vals []string
	for _, c := range tbl.Columns {
		v, ok := rec.Get(c.Name)
		if !ok {
			continue
		}
		cols = append(cols, c.Name)
		vals = append(vals, quoteBackupLiteral(v))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tbl.Name, strings.Join(cols, ", "), strings.Join(vals, ", "))
}

func quoteBackupLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// ImportBackup splits text on ';', skips blank and "--"-commented lines,
// and invokes exec on each remaining statement in order.
func ImportBackup(r io.Reader, exec func(sql string) error) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for _, chunk := range strings.Split(string(data), ";") {
		var kept []string
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			kept = append(kept, line)
		}
		if len(kept) == 0 {
			continue
		}
		if err := exec(strings.Join(kept, "\n")); err != nil {
			return err
		}
	}
	return nil
}
