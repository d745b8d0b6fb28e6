package txn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireSharedAllowsConcurrentReaders(t *testing.T) {
	m := NewLockManager()
	m.AcquireShared(1, "table:users")
	m.AcquireShared(2, "table:users")
	m.Release(1, "table:users")
	m.Release(2, "table:users")
}

func TestReleaseTolerantOfResourceNotHeld(t *testing.T) {
	m := NewLockManager()
	require.NotPanics(t, func() { m.Release(1, "table:nope") })
}

func TestDoubleAcquireSharedOnSameResourceReleasesBothOnOneRelease(t *testing.T) {
	m := NewLockManager()
	// A self-join ("FROM t JOIN t ON ...") acquires the shared lock on
	// the same resource twice for one transaction.
	m.AcquireShared(1, "table:t")
	m.AcquireShared(1, "table:t")
	require.Equal(t, []string{"table:t"}, m.HeldResources(1))

	m.Release(1, "table:t")
	require.Empty(t, m.HeldResources(1))

	// Both RLocks must be gone: an exclusive acquire from another
	// transaction must not block waiting on a leaked reader.
	done := make(chan struct{})
	go func() {
		m.AcquireExclusive(2, "table:t")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AcquireExclusive blocked on a leaked reader lock")
	}
	m.Release(2, "table:t")
}

func TestReleaseAllReleasesEveryResource(t *testing.T) {
	m := NewLockManager()
	m.AcquireExclusive(1, "table:a")
	m.AcquireShared(1, "table:b")
	require.Len(t, m.HeldResources(1), 2)

	m.ReleaseAll(1)
	require.Empty(t, m.HeldResources(1))

	// lock must genuinely be free: another transaction can take it
	// exclusively without blocking.
	done := make(chan struct{})
	go func() {
		m.AcquireExclusive(2, "table:a")
		close(done)
	}()
	<-done
	m.Release(2, "table:a")
}
