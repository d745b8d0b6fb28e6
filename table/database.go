package table

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emberql/ember/errs"
)

// Database is a named mapping from table name to Table.
type Database struct {
	mu     sync.RWMutex
	Name   string
	tables map[string]*Table
}

// NewDatabase creates an empty, named Database.
func NewDatabase(name string) *Database {
	return &Database{Name: name, tables: make(map[string]*Table)}
}

// CreateTable registers t under its own name. Fails if a table with that
// name already exists.
func (d *Database) CreateTable(t *Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tables[t.Name]; exists {
		return &errs.SchemaError{Detail: fmt.Sprintf("table %q already exists", t.Name)}
	}
	d.tables[t.Name] = t
	return nil
}

// DropTable removes a table by name. Fails if it does not exist.
func (d *Database) DropTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tables[name]; !exists {
		return &errs.SchemaError{Detail: fmt.Sprintf("table %q does not exist", name)}
	}
	delete(d.tables, name)
	return nil
}

// Table looks up a table by name.
func (d *Database) Table(name string) (*Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[name]
	if !ok {
		return nil, &errs.SchemaError{Detail: fmt.Sprintf("table %q does not exist", name)}
	}
	return t, nil
}

// TableNames returns every table name, sorted.
func (d *Database) TableNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tables))
	for n := range d.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tables returns every table, sorted by name.
func (d *Database) Tables() []*Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tables))
	for n := range d.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Table, 0, len(names))
	for _, n := range names {
		out = append(out, d.tables[n])
	}
	return out
}
