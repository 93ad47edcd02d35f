// Package lock implements a stamped shared/exclusive locking strategy:
// a reentrant multi-mode lock serving four request shapes (read, write)
// crossed with (update, structural), plus an optimistic-read protocol
// guarded by version stamps.
//
// The blocking primitive below is built around a single atomically
// CAS'd state word, a sync.Cond used as the wake-up barrier, and a
// register/check/broadcast-on-zero discipline for each waiter class,
// collapsed down to the two counts a shared/exclusive lock needs
// (writer flag, reader count) plus the version stamp the optimistic
// read protocol requires.
package lock

import (
	"sync"
	"sync/atomic"
)

const writerBit uint64 = 1 << 63

// readerMask covers every bit below writerBit.
const readerMask uint64 = writerBit - 1

// Stamped is a single shared/exclusive lock with a monotonically
// increasing version stamp, bumped every time the exclusive holder
// releases. It is the building block lock.Container composes two of
// (structural, update).
type Stamped struct {
	mtx   sync.Mutex
	c     *sync.Cond
	state uint64 // bit 63: writer held; bits 0-62: reader count
	stamp int64  // bumped on every write release
}

// NewStamped returns a ready-to-use Stamped lock with stamp 0.
func NewStamped() *Stamped {
	s := &Stamped{}
	s.c = sync.NewCond(&s.mtx)
	return s
}

func compatibleWithRead(state uint64) bool {
	return state&writerBit == 0
}

func compatibleWithWrite(state uint64) bool {
	return state == 0
}

// registerReader performs the same CAS-loop-then-check dance as the
// teacher's registerIS/registerS: increment the reader count atomically,
// then report whether the state we observed before our own registration
// was compatible with a read.
func (s *Stamped) registerReader() bool {
	for {
		old := atomic.LoadUint64(&s.state)
		next := old + 1
		if atomic.CompareAndSwapUint64(&s.state, old, next) {
			return compatibleWithRead(old)
		}
	}
}

func (s *Stamped) unregisterReader() uint64 {
	for {
		old := atomic.LoadUint64(&s.state)
		next := old - 1
		if atomic.CompareAndSwapUint64(&s.state, old, next) {
			return next & readerMask
		}
	}
}

// RLock blocks until no writer holds the lock, then registers as a
// reader. Multiple readers may hold the lock concurrently.
func (s *Stamped) RLock() {
	s.mtx.Lock()
	for !compatibleWithRead(atomic.LoadUint64(&s.state)) {
		s.c.Wait()
	}
	s.registerReader()
	s.mtx.Unlock()
}

// TryRLock attempts RLock without blocking.
func (s *Stamped) TryRLock() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !compatibleWithRead(atomic.LoadUint64(&s.state)) {
		return false
	}
	s.registerReader()
	return true
}

// RUnlock releases one reader registration.
func (s *Stamped) RUnlock() {
	remaining := s.unregisterReader()
	if remaining == 0 {
		s.mtx.Lock()
		s.c.Broadcast()
		s.mtx.Unlock()
	}
}

// Lock acquires the lock exclusively, blocking while any reader or
// writer currently holds it.
func (s *Stamped) Lock() {
	s.mtx.Lock()
	for !compatibleWithWrite(atomic.LoadUint64(&s.state)) {
		s.c.Wait()
	}
	atomic.StoreUint64(&s.state, writerBit)
	s.mtx.Unlock()
}

// TryLock attempts Lock without blocking. Used by upgrade-from-read,
// which makes a single non-waiting attempt.
func (s *Stamped) TryLock() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !compatibleWithWrite(atomic.LoadUint64(&s.state)) {
		return false
	}
	atomic.StoreUint64(&s.state, writerBit)
	return true
}

// Unlock releases the exclusive hold and bumps the version stamp.
func (s *Stamped) Unlock() {
	atomic.AddInt64(&s.stamp, 1)
	s.mtx.Lock()
	atomic.StoreUint64(&s.state, 0)
	s.c.Broadcast()
	s.mtx.Unlock()
}

// Stamp returns the current version stamp. Stamps never decrease and
// strictly increase on every Unlock.
func (s *Stamped) Stamp() int64 {
	return atomic.LoadInt64(&s.stamp)
}

// TryOptimisticRead returns the current stamp if no writer presently
// holds the lock, and ok == true. If a writer holds the lock the
// returned stamp is meaningless and ok is false: the caller should fall
// back to RLock immediately rather than spin.
func (s *Stamped) TryOptimisticRead() (stamp int64, ok bool) {
	if atomic.LoadUint64(&s.state)&writerBit != 0 {
		return 0, false
	}
	return atomic.LoadInt64(&s.stamp), true
}

// Validate reports whether no exclusive write has completed since
// stamp was observed, AND no writer currently holds the lock (a writer
// may be mid-mutation even though it hasn't bumped the stamp yet).
func (s *Stamped) Validate(stamp int64) bool {
	if atomic.LoadUint64(&s.state)&writerBit != 0 {
		return false
	}
	return atomic.LoadInt64(&s.stamp) == stamp
}
