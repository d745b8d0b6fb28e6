package txn

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberql/ember/errs"
)

// State is a Transaction's lifecycle state.
type State int

const (
	Active State = iota
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Transaction is a single unit of work. Unlike the back-reference to its
// manager that an object-oriented rendition would carry, commit/abort
// here take an explicit id passed to Manager's methods.
type Transaction struct {
	ID        int64
	CreatedAt time.Time
	state     State
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State { return t.state }

// Manager maintains the active-transaction map and owns the monotonic
// id counter (explicitly, rather than via a shared global).
type Manager struct {
	mu      sync.Mutex
	nextID  int64
	active  map[int64]*Transaction
	locks   *LockManager
}

// NewManager creates a Manager backed by the given LockManager.
func NewManager(locks *LockManager) *Manager {
	return &Manager{active: make(map[int64]*Transaction), locks: locks}
}

// Begin starts a new ACTIVE transaction with an id from the monotonic
// counter.
func (m *Manager) Begin() *Transaction {
	id := atomic.AddInt64(&m.nextID, 1)
	t := &Transaction{ID: id, CreatedAt: time.Now(), state: Active}
	m.mu.Lock()
	m.active[id] = t
	m.mu.Unlock()
	return t
}

// Commit releases every lock the transaction holds and removes it from
// the active map. Committing an unknown or non-ACTIVE transaction fails.
func (m *Manager) Commit(txnID int64) error {
	m.mu.Lock()
	t, ok := m.active[txnID]
	if !ok {
		m.mu.Unlock()
		return &errs.StateError{Detail: fmt.Sprintf("commit of unknown transaction %d", txnID)}
	}
	if t.state != Active {
		m.mu.Unlock()
		return &errs.StateError{Detail: fmt.Sprintf("commit of non-active transaction %d (state %s)", txnID, t.state)}
	}
	t.state = Committed
	delete(m.active, txnID)
	m.mu.Unlock()

	m.locks.ReleaseAll(txnID)
	return nil
}

// Abort releases every lock the transaction holds and removes it from
// the active map. Aborting an unknown transaction is tolerated.
func (m *Manager) Abort(txnID int64) {
	m.mu.Lock()
	t, ok := m.active[txnID]
	if ok {
		t.state = Aborted
		delete(m.active, txnID)
	}
	m.mu.Unlock()

	m.locks.ReleaseAll(txnID)
}

// Active reports whether txnID is currently active.
func (m *Manager) Active(txnID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[txnID]
	return ok
}
