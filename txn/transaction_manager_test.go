package txn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/errs"
)

func TestBeginAssignsMonotonicIDs(t *testing.T) {
	m := NewManager(NewLockManager())
	t1 := m.Begin()
	t2 := m.Begin()
	require.Less(t, t1.ID, t2.ID)
	require.Equal(t, Active, t1.State())
}

func TestCommitReleasesLocksAndRemovesFromActiveMap(t *testing.T) {
	locks := NewLockManager()
	m := NewManager(locks)
	tx := m.Begin()
	locks.AcquireExclusive(tx.ID, "table:users")

	require.NoError(t, m.Commit(tx.ID))
	require.False(t, m.Active(tx.ID))
	require.Empty(t, locks.HeldResources(tx.ID))
}

func TestCommitUnknownTransactionFails(t *testing.T) {
	m := NewManager(NewLockManager())
	err := m.Commit(999)
	require.Error(t, err)
	require.IsType(t, &errs.StateError{}, err)
}

func TestCommitTwiceFails(t *testing.T) {
	m := NewManager(NewLockManager())
	tx := m.Begin()
	require.NoError(t, m.Commit(tx.ID))
	err := m.Commit(tx.ID)
	require.Error(t, err)
}

func TestAbortUnknownTransactionIsTolerated(t *testing.T) {
	m := NewManager(NewLockManager())
	require.NotPanics(t, func() { m.Abort(12345) })
}

func TestAbortReleasesLocks(t *testing.T) {
	locks := NewLockManager()
	m := NewManager(locks)
	tx := m.Begin()
	locks.AcquireShared(tx.ID, "table:users")
	m.Abort(tx.ID)
	require.Empty(t, locks.HeldResources(tx.ID))
	require.False(t, m.Active(tx.ID))
}
