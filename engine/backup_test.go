package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/lexer"
	"github.com/emberql/ember/parser"
	"github.com/emberql/ember/table"
	"github.com/emberql/ember/txn"
)

func TestBackupRoundTripPreservesSchemaRecordsAndIndexes(t *testing.T) {
	db := table.NewDatabase("app")
	tbl, err := table.New("users", []table.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "email", Type: "VARCHAR", Unique: true},
		{Name: "name", Type: "VARCHAR"},
	})
	require.NoError(t, err)
	require.NoError(t, db.CreateTable(tbl))
	_, err = tbl.InsertRecord(map[string]string{"id": "1", "email": "a@x.com", "name": "Alice"})
	require.NoError(t, err)
	_, err = tbl.InsertRecord(map[string]string{"id": "2", "email": "b@x.com", "name": "Bob"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportBackup(&buf, db))

	restored := table.NewDatabase("app2")
	locks := txn.NewLockManager()
	txns := txn.NewManager(locks)
	restoreExec := NewExecutor(restored, locks, txns)

	executor := func(sql string) error {
		p := parser.New(lexer.New(sql))
		stmt := p.ParseStatement()
		require.Empty(t, p.Errors(), "parse errors for %q: %v", sql, p.Errors())
		_, err := restoreExec.Execute(stmt)
		return err
	}
	require.NoError(t, ImportBackup(&buf, executor))

	restoredTable, err := restored.Table("users")
	require.NoError(t, err)
	require.Len(t, restoredTable.FullScan(), 2)
	require.Contains(t, restoredTable.IndexedColumns(), "email")
	require.True(t, restoredTable.IsIndexed("id"))
}
