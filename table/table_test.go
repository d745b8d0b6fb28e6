package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/errs"
)

func usersTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New("users", []Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR", Length: 50},
	})
	require.NoError(t, err)
	return tbl
}

func TestInsertRecordAssignsMonotonicIDs(t *testing.T) {
	tbl := usersTable(t)
	r1, err := tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	require.NoError(t, err)
	r2, err := tbl.InsertRecord(map[string]string{"id": "2", "name": "Bob"})
	require.NoError(t, err)
	require.Equal(t, int64(1), r1.ID)
	require.Equal(t, int64(2), r2.ID)
}

func TestInsertRecordRejectsMissingPrimaryKey(t *testing.T) {
	tbl := usersTable(t)
	_, err := tbl.InsertRecord(map[string]string{"name": "Alice"})
	require.Error(t, err)
	require.IsType(t, &errs.ConstraintError{}, err)
}

func TestInsertRecordRejectsDuplicatePrimaryKey(t *testing.T) {
	tbl := usersTable(t)
	_, err := tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	require.NoError(t, err)
	_, err = tbl.InsertRecord(map[string]string{"id": "1", "name": "Eve"})
	require.Error(t, err)
	var ce *errs.ConstraintError
	require.ErrorAs(t, err, &ce)
	require.Contains(t, ce.Error(), "Duplicate primary key value: 1")
}

func TestIndexLookupFindsRecordByIndexedColumn(t *testing.T) {
	tbl := usersTable(t)
	_, err := tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	require.NoError(t, err)
	_, err = tbl.InsertRecord(map[string]string{"id": "2", "name": "Bob"})
	require.NoError(t, err)

	rec, ok := tbl.IndexLookup("id", "2")
	require.True(t, ok)
	require.Equal(t, "Bob", rec.Values["name"])
}

func TestSelectRecordsProjectsRequestedColumns(t *testing.T) {
	tbl := usersTable(t)
	_, _ = tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	got := tbl.SelectRecords([]string{"name"}, "", "", false)
	require.Len(t, got, 1)
	_, hasID := got[0].Values["id"]
	require.False(t, hasID)
	require.Equal(t, "Alice", got[0].Values["name"])
}

func TestUpdateRecordsRevalidatesUniquenessExcludingSelf(t *testing.T) {
	tbl := usersTable(t)
	r1, _ := tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	_, _ = tbl.InsertRecord(map[string]string{"id": "2", "name": "Bob"})

	n, err := tbl.UpdateRecords([]*Record{r1}, map[string]string{"id": "1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = tbl.UpdateRecords([]*Record{r1}, map[string]string{"id": "2"})
	require.Error(t, err)
	require.IsType(t, &errs.ConstraintError{}, err)
}

func TestDeleteRecordsRemovesFromIndexes(t *testing.T) {
	tbl := usersTable(t)
	r1, _ := tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	n := tbl.DeleteRecords([]*Record{r1})
	require.Equal(t, 1, n)

	_, ok := tbl.IndexLookup("id", "1")
	require.False(t, ok)
}

func TestCreateIndexPopulatesFromExistingRecords(t *testing.T) {
	tbl := usersTable(t)
	_, _ = tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	_, _ = tbl.InsertRecord(map[string]string{"id": "2", "name": "Bob"})

	require.NoError(t, tbl.CreateIndex("name"))
	rec, ok := tbl.IndexLookup("name", "Bob")
	require.True(t, ok)
	require.Equal(t, int64(2), rec.ID)
}

func TestCreateIndexRejectsUnknownColumn(t *testing.T) {
	tbl := usersTable(t)
	err := tbl.CreateIndex("nope")
	require.Error(t, err)
	require.IsType(t, &errs.SchemaError{}, err)
}

func TestCreateIndexRejectsAlreadyIndexedColumn(t *testing.T) {
	tbl := usersTable(t)
	err := tbl.CreateIndex("id")
	require.Error(t, err)
}

func TestSortRecordsTwoColumnsMixedDirection(t *testing.T) {
	tbl, err := New("p", []Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "cat", Type: "VARCHAR"},
		{Name: "price", Type: "INTEGER"},
	})
	require.NoError(t, err)
	rows := []map[string]string{
		{"id": "1", "cat": "E", "price": "100"},
		{"id": "2", "cat": "E", "price": "050"},
		{"id": "3", "cat": "B", "price": "015"},
		{"id": "4", "cat": "B", "price": "025"},
	}
	for _, r := range rows {
		_, err := tbl.InsertRecord(r)
		require.NoError(t, err)
	}
	records := tbl.FullScan()
	SortRecords(records, []string{"cat", "price"}, []bool{false, true})

	var order []string
	for _, r := range records {
		order = append(order, r.Values["id"])
	}
	require.Equal(t, []string{"4", "3", "1", "2"}, order)
}

func TestSortRecordsNullsFirst(t *testing.T) {
	tbl, err := New("e", []Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "mgr", Type: "INTEGER"},
	})
	require.NoError(t, err)
	_, _ = tbl.InsertRecord(map[string]string{"id": "1"})
	_, _ = tbl.InsertRecord(map[string]string{"id": "2", "mgr": "1"})

	records := tbl.FullScan()
	SortRecords(records, []string{"mgr"}, []bool{false})
	require.Equal(t, "1", records[0].Values["id"])
}

func TestVacuumAndAnalyzeReturnStatusMessages(t *testing.T) {
	tbl := usersTable(t)
	_, _ = tbl.InsertRecord(map[string]string{"id": "1", "name": "Alice"})
	require.Contains(t, tbl.Vacuum(), "users")
	msg := tbl.Analyze("2026-07-30T00:00:00Z")
	require.Contains(t, msg, "1 rows")
	require.Equal(t, 1, tbl.RowCount)
	require.Equal(t, "2026-07-30T00:00:00Z", tbl.LastAnalyzed)
}

func TestNewRejectsUnrecognizedColumnType(t *testing.T) {
	_, err := New("bad", []Column{{Name: "x", Type: "BLOB"}})
	require.Error(t, err)
	require.IsType(t, &errs.SchemaError{}, err)
}
