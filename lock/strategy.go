package lock

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrLockUpgrade is the fatal error surfaced when a read-to-write upgrade
// attempt finds the lock held, incompatibly, by another goroutine.
// Upgrade is advisory: it makes exactly one non-blocking attempt.
var ErrLockUpgrade = errors.New("qcore/lock: could not upgrade read lock to write lock")

// Mode names one of the four request shapes a container can hold a lock in:
// (read, write) crossed with (update, structural).
type Mode int

const (
	ReadUpdate Mode = iota
	ReadStructural
	WriteUpdate
	WriteStructural
)

func (m Mode) String() string {
	switch m {
	case ReadUpdate:
		return "read/update"
	case ReadStructural:
		return "read/structural"
	case WriteUpdate:
		return "write/update"
	case WriteStructural:
		return "write/structural"
	default:
		return "unknown"
	}
}

func (m Mode) isWrite() bool {
	return m == WriteUpdate || m == WriteStructural
}

func (m Mode) isStructural() bool {
	return m == ReadStructural || m == WriteStructural
}

// satisfies reports whether a goroutine already holding `have` may treat
// itself as also holding `want` without acquiring anything further: a
// thread already holding a lock of the required or stronger mode
// acquires a nop transaction.
func satisfies(have, want Mode) bool {
	if have == want {
		return true
	}
	switch want {
	case ReadUpdate:
		return have == WriteUpdate || have == WriteStructural
	case ReadStructural:
		// Write/update holds a read on the structural lock: write on
		// the update-lock, read on the struct-lock.
		return have == WriteUpdate || have == WriteStructural
	case WriteUpdate:
		return have == WriteStructural
	case WriteStructural:
		return false
	}
	return false
}

// Txn is a held lock transaction. Callers must call Close exactly once,
// in LIFO order relative to any nested transactions obtained from the
// same Strategy while this one is open.
type Txn interface {
	Mode() Mode
	Close()
}

// Strategy is the pluggable concurrency substrate a container is built
// with: "stamped" (Container, below), "fast_fail", or "none".
type Strategy interface {
	// Begin blocks until mode can be acquired, honoring reentrancy
	// against parent if parent is a transaction already held by the
	// calling goroutine on this same Strategy.
	Begin(mode Mode, parent Txn) Txn
	// TryBegin is the non-blocking form; ok is false on contention.
	TryBegin(mode Mode, parent Txn) (t Txn, ok bool)
	// Upgrade makes a single non-blocking attempt to replace a held read
	// transaction with the corresponding write transaction (ReadUpdate
	// -> WriteUpdate, ReadStructural -> WriteStructural). The read
	// transaction is consumed (closed) regardless of outcome.
	Upgrade(read Txn) (Txn, error)
	// DoOptimistically runs fn up to retries times using stamp-validated
	// optimistic reads of the given domain and, if none of those attempts
	// validated, runs it once more under a real read lock. fn must call the validate callback it
	// is given before trusting any value it read, and must be free of
	// observable side effects on the container.
	DoOptimistically(structural bool, retries int, fn func(validate func() bool) bool) bool
	// GetStamp returns the structural (structural=true) or
	// all-modifications (structural=false) monotonic counter.
	GetStamp(structural bool) int64
}

// ---- Container: the full stamped strategy -------------------------------

// Container is the stamped locking strategy: two Stamped locks
// (structural, update) plus two monotonic write counters.
type Container struct {
	structLock  *Stamped
	updateLock  *Stamped
	structCount int64
	totalCount  int64
	retries     int
}

// NewContainer returns a Container strategy. retries bounds the number of
// optimistic-read attempts DoOptimistically makes before falling back to
// a real read lock; 1-3 is a reasonable range.
func NewContainer(retries int) *Container {
	if retries < 1 {
		retries = 1
	}
	return &Container{
		structLock: NewStamped(),
		updateLock: NewStamped(),
		retries:    retries,
	}
}

type containerTxn struct {
	c           *Container
	mode        Mode
	nop         bool
	lockedStruc bool
	lockedUpd   bool
	writeStruc  bool
	writeUpd    bool
}

func (t *containerTxn) Mode() Mode { return t.mode }

func (t *containerTxn) Close() {
	if t.nop {
		return
	}
	// WriteStructural holds both locks in write mode (see acquire, below),
	// so counting totalCount once per flag here would double-count it;
	// a single transaction contributes at most one all-modifications tick
	// regardless of how many of the two locks it wrote.
	if t.writeStruc {
		atomic.AddInt64(&t.c.structCount, 1)
	}
	if t.writeUpd || t.writeStruc {
		atomic.AddInt64(&t.c.totalCount, 1)
	}
	if t.writeUpd {
		t.c.updateLock.Unlock()
	} else if t.lockedUpd {
		t.c.updateLock.RUnlock()
	}
	if t.writeStruc {
		t.c.structLock.Unlock()
	} else if t.lockedStruc {
		t.c.structLock.RUnlock()
	}
}

func (c *Container) acquire(mode Mode, block bool) (*containerTxn, bool) {
	t := &containerTxn{c: c, mode: mode}
	switch mode {
	case ReadUpdate:
		if block {
			c.updateLock.RLock()
		} else if !c.updateLock.TryRLock() {
			return nil, false
		}
		t.lockedUpd = true
	case ReadStructural:
		if block {
			c.structLock.RLock()
		} else if !c.structLock.TryRLock() {
			return nil, false
		}
		t.lockedStruc = true
	case WriteUpdate:
		if block {
			c.structLock.RLock()
		} else if !c.structLock.TryRLock() {
			return nil, false
		}
		t.lockedStruc = true
		if block {
			c.updateLock.Lock()
		} else if !c.updateLock.TryLock() {
			c.structLock.RUnlock()
			return nil, false
		}
		t.writeUpd = true
	case WriteStructural:
		// Acquired structLock-before-updateLock, the same order as
		// WriteUpdate above: acquiring in opposite orders across modes
		// is an AB-BA deadlock waiting to happen.
		if block {
			c.structLock.Lock()
		} else if !c.structLock.TryLock() {
			return nil, false
		}
		t.writeStruc = true
		if block {
			c.updateLock.Lock()
		} else if !c.updateLock.TryLock() {
			c.structLock.Unlock()
			return nil, false
		}
		t.writeUpd = true
	}
	return t, true
}

func (c *Container) Begin(mode Mode, parent Txn) Txn {
	if parent != nil && satisfies(parent.Mode(), mode) {
		return &containerTxn{c: c, mode: mode, nop: true}
	}
	t, _ := c.acquire(mode, true)
	return t
}

func (c *Container) TryBegin(mode Mode, parent Txn) (Txn, bool) {
	if parent != nil && satisfies(parent.Mode(), mode) {
		return &containerTxn{c: c, mode: mode, nop: true}, true
	}
	t, ok := c.acquire(mode, false)
	if !ok {
		return nil, false
	}
	return t, true
}

func (c *Container) Upgrade(read Txn) (Txn, error) {
	rt, ok := read.(*containerTxn)
	if !ok {
		return nil, errors.New("qcore/lock: Upgrade called with a transaction from a different strategy")
	}
	var want Mode
	switch rt.mode {
	case ReadUpdate:
		want = WriteUpdate
	case ReadStructural:
		want = WriteStructural
	default:
		return nil, errors.New("qcore/lock: Upgrade called on a transaction that is not a read")
	}
	rt.Close()
	t, ok := c.acquire(want, false)
	if !ok {
		return nil, ErrLockUpgrade
	}
	return t, nil
}

func (c *Container) DoOptimistically(structural bool, retries int, fn func(validate func() bool) bool) bool {
	lk := c.updateLock
	if structural {
		lk = c.structLock
	}
	if retries <= 0 {
		retries = c.retries
	}
	for i := 0; i < retries; i++ {
		stamp, ok := lk.TryOptimisticRead()
		if !ok {
			break
		}
		called := false
		result := fn(func() bool {
			called = true
			return lk.Validate(stamp)
		})
		if called && result {
			return true
		}
	}
	lk.RLock()
	defer lk.RUnlock()
	return fn(func() bool { return true })
}

func (c *Container) GetStamp(structural bool) int64 {
	if structural {
		return atomic.LoadInt64(&c.structCount)
	}
	return atomic.LoadInt64(&c.totalCount)
}

// ---- FastFail: a single mutex plus fast-fail modification counting -----

// FastFail is a lighter-weight strategy: one sync.RWMutex shared by both
// the structural and update domains (no separate upgrade path, no
// optimistic reads) paired with the same monotonic counters. It trades
// Container's separated domains for lower overhead; callers that need
// "read/structural tolerates concurrent update writes" should use
// Container instead.
type FastFail struct {
	mu          sync.RWMutex
	structCount int64
	totalCount  int64
}

func NewFastFail() *FastFail {
	return &FastFail{}
}

type fastFailTxn struct {
	f     *FastFail
	mode  Mode
	nop   bool
	write bool
}

func (t *fastFailTxn) Mode() Mode { return t.mode }

func (t *fastFailTxn) Close() {
	if t.nop {
		return
	}
	if t.write {
		atomic.AddInt64(&t.f.totalCount, 1)
		if t.mode.isStructural() {
			atomic.AddInt64(&t.f.structCount, 1)
		}
		t.f.mu.Unlock()
	} else {
		t.f.mu.RUnlock()
	}
}

func (f *FastFail) Begin(mode Mode, parent Txn) Txn {
	if parent != nil && satisfies(parent.Mode(), mode) {
		return &fastFailTxn{f: f, mode: mode, nop: true}
	}
	if mode.isWrite() {
		f.mu.Lock()
		return &fastFailTxn{f: f, mode: mode, write: true}
	}
	f.mu.RLock()
	return &fastFailTxn{f: f, mode: mode}
}

func (f *FastFail) TryBegin(mode Mode, parent Txn) (Txn, bool) {
	if parent != nil && satisfies(parent.Mode(), mode) {
		return &fastFailTxn{f: f, mode: mode, nop: true}, true
	}
	if mode.isWrite() {
		if !f.mu.TryLock() {
			return nil, false
		}
		return &fastFailTxn{f: f, mode: mode, write: true}, true
	}
	if !f.mu.TryRLock() {
		return nil, false
	}
	return &fastFailTxn{f: f, mode: mode}, true
}

func (f *FastFail) Upgrade(read Txn) (Txn, error) {
	rt, ok := read.(*fastFailTxn)
	if !ok {
		return nil, errors.New("qcore/lock: Upgrade called with a transaction from a different strategy")
	}
	want := WriteUpdate
	if rt.mode.isStructural() {
		want = WriteStructural
	}
	rt.Close()
	t, ok := f.TryBegin(want, nil)
	if !ok {
		return nil, ErrLockUpgrade
	}
	return t, nil
}

func (f *FastFail) DoOptimistically(_ bool, _ int, fn func(validate func() bool) bool) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fn(func() bool { return true })
}

func (f *FastFail) GetStamp(structural bool) int64 {
	if structural {
		return atomic.LoadInt64(&f.structCount)
	}
	return atomic.LoadInt64(&f.totalCount)
}

// ---- None: no synchronization at all -----------------------------------

// None performs no locking whatsoever; it exists for single-threaded use
// where the overhead of even an uncontended RWMutex is undesirable. The
// monotonic counters are still maintained (with plain, non-atomic
// increments, since the contract assumes a single goroutine) so that
// GetStamp and consistency checks keep working.
type None struct {
	structCount int64
	totalCount  int64
}

func NewNone() *None { return &None{} }

type noneTxn struct {
	n    *None
	mode Mode
}

func (t *noneTxn) Mode() Mode { return t.mode }

func (t *noneTxn) Close() {
	if !t.mode.isWrite() {
		return
	}
	t.n.totalCount++
	if t.mode.isStructural() {
		t.n.structCount++
	}
}

func (n *None) Begin(mode Mode, _ Txn) Txn              { return &noneTxn{n: n, mode: mode} }
func (n *None) TryBegin(mode Mode, _ Txn) (Txn, bool)   { return &noneTxn{n: n, mode: mode}, true }
func (n *None) Upgrade(read Txn) (Txn, error) {
	rt := read.(*noneTxn)
	want := WriteUpdate
	if rt.mode.isStructural() {
		want = WriteStructural
	}
	return &noneTxn{n: n, mode: want}, nil
}
func (n *None) DoOptimistically(_ bool, _ int, fn func(validate func() bool) bool) bool {
	return fn(func() bool { return true })
}
func (n *None) GetStamp(structural bool) int64 {
	if structural {
		return n.structCount
	}
	return n.totalCount
}
