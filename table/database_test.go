package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/errs"
)

func TestDatabaseCreateAndLookupTable(t *testing.T) {
	db := NewDatabase("app")
	tbl, err := New("users", []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}})
	require.NoError(t, err)
	require.NoError(t, db.CreateTable(tbl))

	got, err := db.Table("users")
	require.NoError(t, err)
	require.Same(t, tbl, got)
}

func TestDatabaseCreateTableRejectsDuplicateName(t *testing.T) {
	db := NewDatabase("app")
	tbl, _ := New("users", []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}})
	require.NoError(t, db.CreateTable(tbl))

	dup, _ := New("users", []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}})
	err := db.CreateTable(dup)
	require.Error(t, err)
	require.IsType(t, &errs.SchemaError{}, err)
}

func TestDatabaseTableLookupMissingFails(t *testing.T) {
	db := NewDatabase("app")
	_, err := db.Table("nope")
	require.Error(t, err)
}

func TestDatabaseTableNamesSorted(t *testing.T) {
	db := NewDatabase("app")
	for _, name := range []string{"zebra", "alpha", "mid"} {
		tbl, _ := New(name, []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}})
		require.NoError(t, db.CreateTable(tbl))
	}
	require.Equal(t, []string{"alpha", "mid", "zebra"}, db.TableNames())
}
