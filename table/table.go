// Package table implements the in-memory table model: schema, record
// vector, primary-key/unique enforcement, and per-column B-tree indexes.
package table

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emberql/ember/btree"
	"github.com/emberql/ember/errs"
)

// recognizedTypes are the column types §6's grammar accepts at
// CREATE TABLE time; anything else is rejected.
var recognizedTypes = map[string]bool{
	"INTEGER": true, "VARCHAR": true, "CHAR": true, "TEXT": true,
	"DATE": true, "DATETIME": true, "TIMESTAMP": true, "BOOLEAN": true,
	"DECIMAL": true, "FLOAT": true, "DOUBLE": true, "BIGINT": true,
	"SMALLINT": true, "TINYINT": true,
}

// Column describes one column of a Table.
type Column struct {
	Name          string
	Type          string
	Length        int // VARCHAR(n); ignored beyond bookkeeping
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	AutoIncrement bool
	Default       string
	HasDefault    bool
}

// Record is one row: an id plus an ordered mapping from column name to
// string value. A column absent from Values is NULL.
type Record struct {
	ID     int64
	Values map[string]string
}

// Get returns (value, true) if column is present and non-null.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Table holds a schema, an in-memory record vector, and a B-tree per
// indexed column.
type Table struct {
	mu sync.RWMutex

	Name    string
	Columns []Column
	colIdx  map[string]int

	records  []*Record
	byID     map[int64]*Record
	nextID   int64
	indexes  map[string]*btree.BTree

	RowCount     int
	LastAnalyzed string // RFC3339 instant; empty if never analyzed
}

// New validates columns and constructs an empty Table. A primary-key
// column is automatically indexed.
func New(name string, columns []Column) (*Table, error) {
	colIdx := make(map[string]int, len(columns))
	for i, c := range columns {
		if !recognizedTypes[c.Type] {
			return nil, &errs.SchemaError{Detail: fmt.Sprintf("unrecognized column type %q for column %q", c.Type, c.Name)}
		}
		if c.PrimaryKey {
			columns[i].NotNull = true
			columns[i].Unique = true
		}
		colIdx[c.Name] = i
	}

	t := &Table{
		Name:    name,
		Columns: columns,
		colIdx:  colIdx,
		byID:    make(map[int64]*Record),
		indexes: make(map[string]*btree.BTree),
		nextID:  1,
	}

	for _, c := range columns {
		if c.PrimaryKey || c.Unique {
			t.indexes[c.Name] = btree.New(btree.DefaultOrder)
		}
	}
	return t, nil
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// Column returns the column definition for name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.colIdx[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// IndexedColumns returns the names of every column carrying a B-tree
// index, in column-declaration order.
func (t *Table) IndexedColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if _, ok := t.indexes[c.Name]; ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// InsertRecord validates primary-key presence and uniqueness, appends a
// new Record with the next id, and updates every index for each
// non-null indexed column.
func (t *Table) InsertRecord(values map[string]string) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.Columns {
		if c.PrimaryKey {
			if v, ok := values[c.Name]; !ok || v == "" {
				return nil, &errs.ConstraintError{Detail: fmt.Sprintf("primary key column %q is required", c.Name)}
			}
		}
		if c.NotNull {
			if _, ok := values[c.Name]; !ok {
				return nil, &errs.ConstraintError{Detail: fmt.Sprintf("column %q may not be NULL", c.Name)}
			}
		}
	}

	for col, idx := range t.indexes {
		v, ok := values[col]
		if !ok {
			continue
		}
		if _, found := idx.Search(v); found {
			kind := "unique"
			if col, _ := t.Column(col); col.PrimaryKey {
				kind = "primary key"
			}
			return nil, &errs.ConstraintError{Detail: fmt.Sprintf("Duplicate %s value: %s", kind, v)}
		}
	}

	rec := &Record{ID: t.nextID, Values: cloneValues(values)}
	t.nextID++
	t.records = append(t.records, rec)
	t.byID[rec.ID] = rec
	t.RowCount++

	for col, idx := range t.indexes {
		if v, ok := values[col]; ok {
			idx.Insert(v, rec.ID)
		}
	}
	return rec, nil
}

// SelectRecords returns the projected column values for every record
// matching the optional equality predicate, using an index point-lookup
// when whereColumn is indexed, else a full scan. Predicate forms beyond
// simple equality are applied by the caller as a post-filter over a full
// scan (see FullScan); this method is a convenience for the common
// indexed single-column-equals case. The executor does not call it; it
// uses IndexLookup and FullScan directly.
func (t *Table) SelectRecords(columns []string, whereColumn, whereValue string, hasWhere bool) []*Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var matched []*Record
	if hasWhere {
		if idx, ok := t.indexes[whereColumn]; ok {
			if id, found := idx.Search(whereValue); found {
				if rec, ok := t.byID[id]; ok {
					matched = []*Record{rec}
				}
			}
		} else {
			for _, r := range t.records {
				if v, ok := r.Get(whereColumn); ok && v == whereValue {
					matched = append(matched, r)
				}
			}
		}
	} else {
		matched = append(matched, t.records...)
	}

	return projectColumns(matched, columns)
}

// FullScan returns every record currently in the table, in insertion
// order. The caller applies predicate filtering, ordering, and
// pagination.
func (t *Table) FullScan() []*Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// IndexLookup performs a point lookup on column's index, returning the
// matching record if column is indexed and the value is present.
func (t *Table) IndexLookup(column, value string) (*Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.indexes[column]
	if !ok {
		return nil, false
	}
	id, found := idx.Search(value)
	if !found {
		return nil, false
	}
	rec, ok := t.byID[id]
	return rec, ok
}

// IsIndexed reports whether column carries a B-tree index.
func (t *Table) IsIndexed(column string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.indexes[column]
	return ok
}

func projectColumns(records []*Record, columns []string) []*Record {
	if len(columns) == 0 {
		out := make([]*Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		proj := &Record{ID: r.ID, Values: make(map[string]string)}
		for _, c := range columns {
			if v, ok := r.Values[c]; ok {
				proj.Values[c] = v
			}
		}
		out = append(out, proj)
	}
	return out
}

// UpdateRecords applies updates to every record in targets: removes old
// values from affected indexes, applies the update, revalidates
// uniqueness (excluding the record's own id), then reinserts into
// indexes. Returns the number of rows changed.
func (t *Table) UpdateRecords(targets []*Record, updates map[string]string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	claimed := make(map[string]map[string]int64)
	for _, rec := range targets {
		for col, newVal := range updates {
			if idx, ok := t.indexes[col]; ok {
				id, found := idx.Search(newVal)
				if prev, taken := claimed[col][newVal]; taken && prev != rec.ID {
					id, found = prev, true
				}
				if found && id != rec.ID {
					kind := "unique"
					if c, _ := t.Column(col); c.PrimaryKey {
						kind = "primary key"
					}
					return 0, &errs.ConstraintError{Detail: fmt.Sprintf("Duplicate %s value: %s", kind, newVal)}
				}
				if claimed[col] == nil {
					claimed[col] = make(map[string]int64)
				}
				claimed[col][newVal] = rec.ID
			}
		}
	}

	for _, rec := range targets {
		for col, idx := range t.indexes {
			if old, ok := rec.Values[col]; ok {
				idx.Delete(old)
			}
		}
		for col, newVal := range updates {
			rec.Values[col] = newVal
		}
		for col, idx := range t.indexes {
			if v, ok := rec.Values[col]; ok {
				idx.Insert(v, rec.ID)
			}
		}
	}
	return len(targets), nil
}

// DeleteRecords removes every record in targets from the record vector
// and every affected index. Returns the number of rows deleted.
func (t *Table) DeleteRecords(targets []*Record) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	toDelete := make(map[int64]bool, len(targets))
	for _, r := range targets {
		toDelete[r.ID] = true
	}

	var kept []*Record
	for _, r := range t.records {
		if toDelete[r.ID] {
			for col, idx := range t.indexes {
				if v, ok := r.Values[col]; ok {
					idx.Delete(v)
				}
			}
			delete(t.byID, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	removed := len(t.records) - len(kept)
	t.records = kept
	t.RowCount = len(kept)
	return removed
}

// CreateIndex allocates a fresh B-tree for column and populates it by
// scanning existing records. Fails if the column does not exist or is
// already indexed.
func (t *Table) CreateIndex(column string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.HasColumn(column) {
		return &errs.SchemaError{Detail: fmt.Sprintf("column %q does not exist on table %q", column, t.Name)}
	}
	if _, ok := t.indexes[column]; ok {
		return &errs.SchemaError{Detail: fmt.Sprintf("column %q is already indexed", column)}
	}

	idx := btree.New(btree.DefaultOrder)
	for _, r := range t.records {
		if v, ok := r.Values[column]; ok {
			idx.Insert(v, r.ID)
		}
	}
	t.indexes[column] = idx
	return nil
}

// Vacuum is an informational no-op returning a status message.
func (t *Table) Vacuum() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("table %q vacuumed: %d rows", t.Name, len(t.records))
}

// Analyze refreshes RowCount/LastAnalyzed bookkeeping and returns a
// status message. It remains a no-op with respect to query planning —
// there is no cost model to feed.
func (t *Table) Analyze(now string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.RowCount = len(t.records)
	t.LastAnalyzed = now
	return fmt.Sprintf("table %q analyzed: %d rows", t.Name, t.RowCount)
}

// SortRecords stably sorts records by the given columns, nulls first,
// ties broken by original input order. descending[k] reverses the
// comparison for columns[k]; a column without an entry sorts ascending.
func SortRecords(records []*Record, columns []string, descending []bool) {
	sort.SliceStable(records, func(i, j int) bool {
		for k, col := range columns {
			vi, oki := records[i].Get(col)
			vj, okj := records[j].Get(col)
			cmp := compareNullable(vi, oki, vj, okj)
			if cmp == 0 {
				continue
			}
			if k < len(descending) && descending[k] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareNullable orders absent (null) values before present ones, then
// lexicographically.
func compareNullable(a string, aOK bool, b string, bOK bool) int {
	if !aOK && !bOK {
		return 0
	}
	if !aOK {
		return -1
	}
	if !bOK {
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
