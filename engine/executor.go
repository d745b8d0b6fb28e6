// Package engine implements the query executor, cache, audit log, and
// facade that tie the parser and storage layers together into a single
// callable statement entry point.
package engine

import (
	"fmt"
	"time"

	"github.com/emberql/ember/ast"
	"github.com/emberql/ember/errs"
	"github.com/emberql/ember/table"
	"github.com/emberql/ember/txn"
)

// Executor dispatches a parsed statement against a Database, wrapping
// each statement in a transaction that acquires the lock resource its
// kind demands (one resource, or both tables' shared locks for a join)
// before commit or abort.
type Executor struct {
	db    *table.Database
	locks *txn.LockManager
	txns  *txn.Manager
}

// NewExecutor builds an Executor bound to db, sharing locks/txns with the
// rest of the engine so that Commit/Abort release the same resources
// Acquire took.
func NewExecutor(db *table.Database, locks *txn.LockManager, txns *txn.Manager) *Executor {
	return &Executor{db: db, locks: locks, txns: txns}
}

// Execute runs stmt to completion, acquiring the lock resource the
// statement kind demands, committing on success and aborting on error.
func (e *Executor) Execute(stmt ast.Statement) (*QueryResult, error) {
	tx := e.txns.Begin()

	result, err := e.dispatch(tx.ID, stmt)
	if err != nil {
		e.txns.Abort(tx.ID)
		return nil, err
	}
	if cerr := e.txns.Commit(tx.ID); cerr != nil {
		return nil, cerr
	}
	return result, nil
}

func (e *Executor) dispatch(txnID int64, stmt ast.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		e.locks.AcquireShared(txnID, "table:"+s.Table.Value)
		return e.execSelect(s)
	case *ast.JoinStatement:
		e.locks.AcquireShared(txnID, "table:"+s.LeftTable.Value)
		e.locks.AcquireShared(txnID, "table:"+s.RightTable.Value)
		return e.execJoin(s)
	case *ast.InsertStatement:
		e.locks.AcquireExclusive(txnID, "table:"+s.Table.Value)
		return e.execInsert(s)
	case *ast.UpdateStatement:
		e.locks.AcquireExclusive(txnID, "table:"+s.Table.Value)
		return e.execUpdate(s)
	case *ast.DeleteStatement:
		e.locks.AcquireExclusive(txnID, "table:"+s.Table.Value)
		return e.execDelete(s)
	case *ast.CreateTableStatement:
		e.locks.AcquireExclusive(txnID, "schema:"+e.db.Name)
		return e.execCreateTable(s)
	case *ast.CreateIndexStatement:
		e.locks.AcquireExclusive(txnID, "table:"+s.Table.Value)
		return e.execCreateIndex(s)
	case *ast.ShowStatement:
		if s.Table != nil {
			e.locks.AcquireShared(txnID, "table:"+s.Table.Value)
		} else {
			e.locks.AcquireShared(txnID, "schema:"+e.db.Name)
		}
		return e.execShow(s)
	case *ast.ExplainStatement:
		switch inner := s.Inner.(type) {
		case *ast.SelectStatement:
			e.locks.AcquireShared(txnID, "table:"+inner.Table.Value)
		case *ast.UpdateStatement:
			e.locks.AcquireShared(txnID, "table:"+inner.Table.Value)
		case *ast.DeleteStatement:
			e.locks.AcquireShared(txnID, "table:"+inner.Table.Value)
		default:
			e.locks.AcquireShared(txnID, "schema:"+e.db.Name)
		}
		return e.execExplain(s)
	case *ast.VacuumStatement:
		e.acquireExclusiveForTableOrAll(txnID, s.Table)
		return e.execVacuum(s)
	case *ast.AnalyzeStatement:
		e.acquireExclusiveForTableOrAll(txnID, s.Table)
		return e.execAnalyze(s)
	default:
		return nil, &errs.ParseError{Detail: fmt.Sprintf("unsupported statement type %T", stmt)}
	}
}

func (e *Executor) acquireExclusiveForTableOrAll(txnID int64, ident *ast.Identifier) {
	if ident != nil {
		e.locks.AcquireExclusive(txnID, "table:"+ident.Value)
		return
	}
	e.locks.AcquireExclusive(txnID, "schema:"+e.db.Name)
}

func (e *Executor) execSelect(s *ast.SelectStatement) (*QueryResult, error) {
	tbl, err := e.db.Table(s.Table.Value)
	if err != nil {
		return nil, err
	}

	var records []*table.Record
	if s.Where == nil {
		records = tbl.FullScan()
	} else if col, val, ok := indexedEquality(s.Where); ok && tbl.IsIndexed(col) {
		if rec, found := tbl.IndexLookup(col, val); found {
			records = []*table.Record{rec}
		}
	} else {
		for _, r := range tbl.FullScan() {
			match, merr := matchesPredicate(s.Where, r)
			if merr != nil {
				return nil, &errs.ParseError{Detail: merr.Error()}
			}
			if match {
				records = append(records, r)
			}
		}
	}

	if len(s.OrderBy) > 0 {
		cols := make([]string, len(s.OrderBy))
		desc := make([]bool, len(s.OrderBy))
		for i, t := range s.OrderBy {
			cols[i] = t.Column.Value
			desc[i] = !t.Ascending
		}
		table.SortRecords(records, cols, desc)
	}

	if s.Offset != nil {
		if *s.Offset >= len(records) {
			records = nil
		} else {
			records = records[*s.Offset:]
		}
	}
	if s.Limit != nil && *s.Limit < len(records) {
		records = records[:*s.Limit]
	}

	records = projectRecords(records, s.Columns)
	return &QueryResult{Kind: SelectResult, Records: records, SQL: s.String()}, nil
}

func projectRecords(records []*table.Record, cols []*ast.Identifier) []*table.Record {
	if len(cols) == 0 {
		return records
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Value
	}
	out := make([]*table.Record, 0, len(records))
	for _, r := range records {
		proj := &table.Record{ID: r.ID, Values: make(map[string]string)}
		for _, n := range names {
			if v, ok := r.Values[n]; ok {
				proj.Values[n] = v
			}
		}
		out = append(out, proj)
	}
	return out
}

func (e *Executor) execJoin(s *ast.JoinStatement) (*QueryResult, error) {
	left, err := e.db.Table(s.LeftTable.Value)
	if err != nil {
		return nil, err
	}
	right, err := e.db.Table(s.RightTable.Value)
	if err != nil {
		return nil, err
	}

	var out []*table.Record
	leftRows := left.FullScan()
	rightRows := right.FullScan()

	for _, lr := range leftRows {
		lv, lok := lr.Get(s.LeftColumn.Value)
		matched := false
		for _, rr := range rightRows {
			rv, rok := rr.Get(s.RightColumn.Value)
			if lok && rok && lv == rv {
				matched = true
				out = append(out, mergeRecords(lr, rr))
			}
		}
		if !matched && (s.JoinType == ast.LeftJoin || s.JoinType == ast.FullJoin) {
			out = append(out, mergeRecords(lr, nil))
		}
	}
	if s.JoinType == ast.RightJoin || s.JoinType == ast.FullJoin {
		for _, rr := range rightRows {
			rv, rok := rr.Get(s.RightColumn.Value)
			matched := false
			for _, lr := range leftRows {
				lv, lok := lr.Get(s.LeftColumn.Value)
				if lok && rok && lv == rv {
					matched = true
				}
			}
			if !matched {
				out = append(out, mergeRecords(nil, rr))
			}
		}
	}

	if s.Where != nil {
		var filtered []*table.Record
		for _, r := range out {
			match, merr := matchesPredicate(s.Where, r)
			if merr != nil {
				return nil, &errs.ParseError{Detail: merr.Error()}
			}
			if match {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	out = projectRecords(out, s.Columns)
	return &QueryResult{Kind: SelectResult, Records: out, SQL: s.String()}, nil
}

func mergeRecords(left, right *table.Record) *table.Record {
	merged := &table.Record{Values: make(map[string]string)}
	if left != nil {
		merged.ID = left.ID
		for k, v := range left.Values {
			merged.Values[k] = v
		}
	}
	if right != nil {
		for k, v := range right.Values {
			merged.Values[k] = v
		}
	}
	return merged
}

func (e *Executor) execInsert(s *ast.InsertStatement) (*QueryResult, error) {
	tbl, err := e.db.Table(s.Table.Value)
	if err != nil {
		return nil, err
	}
	if len(s.Columns) != len(s.Values) {
		return nil, &errs.ParseError{Detail: "column count does not match value count"}
	}

	values := make(map[string]string, len(s.Columns))
	for i, col := range s.Columns {
		v, isNull := literalValue(s.Values[i])
		if isNull {
			continue
		}
		values[col.Value] = v
	}

	if _, err := tbl.InsertRecord(values); err != nil {
		return nil, err
	}
	return &QueryResult{Kind: InsertResult, AffectedRows: 1, SQL: s.String()}, nil
}

func (e *Executor) execUpdate(s *ast.UpdateStatement) (*QueryResult, error) {
	tbl, err := e.db.Table(s.Table.Value)
	if err != nil {
		return nil, err
	}

	targets, err := e.selectTargets(tbl, s.Where)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]string, len(s.Updates))
	for _, a := range s.Updates {
		v, isNull := literalValue(a.Value)
		if isNull {
			continue
		}
		updates[a.Column.Value] = v
	}

	n, err := tbl.UpdateRecords(targets, updates)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Kind: UpdateResult, AffectedRows: n, SQL: s.String()}, nil
}

func (e *Executor) execDelete(s *ast.DeleteStatement) (*QueryResult, error) {
	tbl, err := e.db.Table(s.Table.Value)
	if err != nil {
		return nil, err
	}
	targets, err := e.selectTargets(tbl, s.Where)
	if err != nil {
		return nil, err
	}
	n := tbl.DeleteRecords(targets)
	return &QueryResult{Kind: DeleteResult, AffectedRows: n, SQL: s.String()}, nil
}

func (e *Executor) selectTargets(tbl *table.Table, where ast.Expression) ([]*table.Record, error) {
	if where == nil {
		return tbl.FullScan(), nil
	}
	if col, val, ok := indexedEquality(where); ok && tbl.IsIndexed(col) {
		if rec, found := tbl.IndexLookup(col, val); found {
			return []*table.Record{rec}, nil
		}
		return nil, nil
	}
	var targets []*table.Record
	for _, r := range tbl.FullScan() {
		match, merr := matchesPredicate(where, r)
		if merr != nil {
			return nil, &errs.ParseError{Detail: merr.Error()}
		}
		if match {
			targets = append(targets, r)
		}
	}
	return targets, nil
}

func (e *Executor) execCreateTable(s *ast.CreateTableStatement) (*QueryResult, error) {
	cols := make([]table.Column, len(s.Columns))
	for i, cd := range s.Columns {
		col := table.Column{
			Name:          cd.Name,
			Type:          cd.Type,
			Length:        cd.Length,
			PrimaryKey:    cd.PrimaryKey,
			Unique:        cd.Unique,
			NotNull:       cd.NotNull,
			AutoIncrement: cd.AutoIncrement,
		}
		if cd.Default != nil {
			v, isNull := literalValue(cd.Default)
			if !isNull {
				col.Default = v
				col.HasDefault = true
			}
		}
		cols[i] = col
	}

	tbl, err := table.New(s.Table.Value, cols)
	if err != nil {
		return nil, err
	}
	if err := e.db.CreateTable(tbl); err != nil {
		return nil, err
	}
	return &QueryResult{Kind: CreateTableResult, Message: fmt.Sprintf("table %q created", s.Table.Value), SQL: s.String()}, nil
}

func (e *Executor) execCreateIndex(s *ast.CreateIndexStatement) (*QueryResult, error) {
	tbl, err := e.db.Table(s.Table.Value)
	if err != nil {
		return nil, err
	}
	if err := tbl.CreateIndex(s.Column.Value); err != nil {
		return nil, err
	}
	return &QueryResult{Kind: CreateTableResult, Message: fmt.Sprintf("index %q created on %s(%s)", s.IndexName.Value, s.Table.Value, s.Column.Value), SQL: s.String()}, nil
}

func (e *Executor) execShow(s *ast.ShowStatement) (*QueryResult, error) {
	switch s.Kind {
	case ast.ShowTables, ast.ShowDatabases:
		var records []*table.Record
		for i, name := range e.db.TableNames() {
			records = append(records, &table.Record{ID: int64(i + 1), Values: map[string]string{"name": name}})
		}
		return &QueryResult{Kind: SelectResult, Records: records, SQL: s.String()}, nil

	case ast.ShowIndexes:
		var tables []*table.Table
		if s.Table != nil {
			tbl, err := e.db.Table(s.Table.Value)
			if err != nil {
				return nil, err
			}
			tables = []*table.Table{tbl}
		} else {
			tables = e.db.Tables()
		}
		var records []*table.Record
		id := int64(1)
		for _, tbl := range tables {
			for _, col := range tbl.IndexedColumns() {
				records = append(records, &table.Record{ID: id, Values: map[string]string{
					"table": tbl.Name, "column": col,
				}})
				id++
			}
		}
		return &QueryResult{Kind: SelectResult, Records: records, SQL: s.String()}, nil

	case ast.ShowStats:
		var records []*table.Record
		id := int64(1)
		for _, tbl := range e.db.Tables() {
			records = append(records, &table.Record{ID: id, Values: map[string]string{
				"table":         tbl.Name,
				"row_count":     fmt.Sprintf("%d", tbl.RowCount),
				"last_analyzed": tbl.LastAnalyzed,
			}})
			id++
		}
		return &QueryResult{Kind: SelectResult, Records: records, SQL: s.String()}, nil

	default:
		return nil, &errs.ParseError{Detail: "unsupported SHOW kind"}
	}
}

func (e *Executor) execExplain(s *ast.ExplainStatement) (*QueryResult, error) {
	var tableName, filter, order string
	usesIndex := false

	switch inner := s.Inner.(type) {
	case *ast.SelectStatement:
		tableName = inner.Table.Value
		if inner.Where != nil {
			filter = inner.Where.String()
			if col, _, ok := indexedEquality(inner.Where); ok {
				if tbl, err := e.db.Table(tableName); err == nil {
					usesIndex = tbl.IsIndexed(col)
				}
			}
		}
		if len(inner.OrderBy) > 0 {
			var parts []string
			for _, t := range inner.OrderBy {
				dir := "ASC"
				if !t.Ascending {
					dir = "DESC"
				}
				parts = append(parts, t.Column.Value+" "+dir)
			}
			order = fmt.Sprintf("%v", parts)
		}
	case *ast.DeleteStatement:
		tableName = inner.Table.Value
		if inner.Where != nil {
			filter = inner.Where.String()
		}
	case *ast.UpdateStatement:
		tableName = inner.Table.Value
		if inner.Where != nil {
			filter = inner.Where.String()
		}
	}

	rec := &table.Record{ID: 1, Values: map[string]string{
		"operation":      s.Inner.TokenLiteral(),
		"table":          tableName,
		"filter":         filter,
		"uses_index":     fmt.Sprintf("%t", usesIndex),
		"order":          order,
		"estimated_cost": "1.0",
	}}
	return &QueryResult{Kind: SelectResult, Records: []*table.Record{rec}, SQL: s.String()}, nil
}

func (e *Executor) execVacuum(s *ast.VacuumStatement) (*QueryResult, error) {
	if s.Table != nil {
		tbl, err := e.db.Table(s.Table.Value)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Kind: CreateTableResult, Message: tbl.Vacuum(), SQL: s.String()}, nil
	}
	var msgs []string
	for _, tbl := range e.db.Tables() {
		msgs = append(msgs, tbl.Vacuum())
	}
	return &QueryResult{Kind: CreateTableResult, Message: fmt.Sprintf("%v", msgs), SQL: s.String()}, nil
}

func (e *Executor) execAnalyze(s *ast.AnalyzeStatement) (*QueryResult, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if s.Table != nil {
		tbl, err := e.db.Table(s.Table.Value)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Kind: CreateTableResult, Message: tbl.Analyze(now), SQL: s.String()}, nil
	}
	var msgs []string
	for _, tbl := range e.db.Tables() {
		msgs = append(msgs, tbl.Analyze(now))
	}
	return &QueryResult{Kind: CreateTableResult, Message: fmt.Sprintf("%v", msgs), SQL: s.String()}, nil
}
