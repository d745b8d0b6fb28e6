package engine

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/config"
	"github.com/emberql/ember/errs"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e := New(config.Default())
	require.NoError(t, e.Start("testdb", dir))
	t.Cleanup(func() { _ = e.Stop() })
	return e, dir
}

func TestExecuteSQLFailsWhenNotRunning(t *testing.T) {
	e := New(config.Default())
	_, err := e.ExecuteSQL("SELECT * FROM t")
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.IsType(t, &errs.StateError{}, execErr.Cause)
}

func TestStartStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	e := New(config.Default())
	require.NoError(t, e.Start("db", dir))
	require.NoError(t, e.Start("db", dir))
	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop())
}

func TestExecuteSQLCachesSelectAndInvalidatesOnWrite(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.ExecuteSQL("CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(20))")
	require.NoError(t, err)
	_, err = e.ExecuteSQL("INSERT INTO t (id, name) VALUES (1, 'a')")
	require.NoError(t, err)

	first, err := e.ExecuteSQL("SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, first.Records, 1)

	_, err = e.ExecuteSQL("INSERT INTO t (id, name) VALUES (2, 'b')")
	require.NoError(t, err)

	second, err := e.ExecuteSQL("SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, second.Records, 2)
}

// TestExecuteSQLDoesNotCoalesceConcurrentIdenticalWrites guards against
// routing non-Select statements through the cache's singleflight group:
// if identical concurrent INSERT text were collapsed onto one execution,
// only one of these rows would ever land.
func TestExecuteSQLDoesNotCoalesceConcurrentIdenticalWrites(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ExecuteSQL("CREATE TABLE t (id INTEGER, name VARCHAR(20))")
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sql := "INSERT INTO t (id, name) VALUES (1, 'same')"
			_, errs[i] = e.ExecuteSQL(sql)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	result, err := e.ExecuteSQL("SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, result.Records, n)
}

func TestExecuteSQLAppendsStats(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ExecuteSQL("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	stats := e.Stats()
	require.Len(t, stats, 1)
	require.True(t, stats[0].Success)
}

func TestExecuteSQLWrapsParseErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ExecuteSQL("GARBAGE NOT SQL")
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	e, dir := newTestEngine(t)
	_, err := e.ExecuteSQL("CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(20))")
	require.NoError(t, err)
	_, err = e.ExecuteSQL("INSERT INTO t (id, name) VALUES (1, 'a')")
	require.NoError(t, err)

	backupPath := filepath.Join(dir, "backup.sql")
	require.NoError(t, e.Backup(backupPath))

	e2 := New(config.Default())
	require.NoError(t, e2.Start("testdb2", t.TempDir()))
	defer e2.Stop()
	require.NoError(t, e2.Restore(backupPath))

	result, err := e2.ExecuteSQL("SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
}

func TestExecutePreparedSubstitutesParameters(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ExecuteSQL("CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(20))")
	require.NoError(t, err)

	ps := e.PrepareStatement("INSERT INTO t (id, name) VALUES (?, ?)")
	require.NoError(t, ps.Bind(1, ParamInt, "1"))
	require.NoError(t, ps.Bind(2, ParamString, "Alice"))

	_, err = e.ExecutePrepared(ps)
	require.NoError(t, err)

	result, err := e.ExecuteSQL("SELECT * FROM t WHERE id = 1")
	require.NoError(t, err)
	require.Equal(t, "Alice", result.Records[0].Values["name"])
}
