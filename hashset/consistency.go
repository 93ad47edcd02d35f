package hashset

import (
	"github.com/nbtaylor/qcore/consistency"
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/rbtree"
)

// IsConsistent reports whether id's current hash still matches the
// bucket it was stored under.
func (s *Set[T]) IsConsistent(id handle.ID) bool {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	e, err := s.resolve(id)
	if err != nil {
		return false
	}
	return s.eq.Hash(e.value) == e.hash
}

// CheckConsistency performs a linear scan and reports whether any
// entry's stored hash disagrees with a fresh computation: true iff any
// inconsistency exists, not "all entries are consistent".
func (s *Set[T]) CheckConsistency() bool {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	for e := s.head; e != nil; e = e.next {
		if s.eq.Hash(e.value) != e.hash {
			return true
		}
	}
	return false
}

// Repair re-files the single entry named by id at the bucket its
// current value's hash demands. A no-op (no listener callbacks) if the
// entry is already consistent, so repeated calls are idempotent.
func (s *Set[T]) Repair(id handle.ID, listener consistency.Listener[T]) error {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	e, err := s.resolve(id)
	if err != nil {
		return err
	}
	s.repairEntryLocked(e, listener)
	return nil
}

// RepairAll walks every entry (in insertion order) and repairs it. The
// full list is snapshotted before any repair runs: a repair can remove
// a different entry entirely (a collision victim), which would
// otherwise sever the very next-pointer chain a live walk depends on
// to find the rest of the work.
func (s *Set[T]) RepairAll(listener consistency.Listener[T]) {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	var entries []*entry[T]
	for e := s.head; e != nil; e = e.next {
		entries = append(entries, e)
	}
	for _, e := range entries {
		if !e.removed {
			s.repairEntryLocked(e, listener)
		}
	}
}

func (s *Set[T]) repairEntryLocked(e *entry[T], listener consistency.Listener[T]) {
	newHash := s.eq.Hash(e.value)
	if newHash == e.hash {
		return
	}

	if collision := s.findInBucketExcluding(newHash, e.value, e); collision != nil {
		var data any
		if listener != nil {
			data = listener.Removed(collision.value)
		}
		s.removeLocked(collision)
		if listener != nil {
			listener.Disposed(collision.value, data)
		}
		s.removeFromBucket(e)
		e.hash = newHash
		s.insertBucket(e)
		return
	}

	var data any
	if listener != nil {
		data = listener.PreTransfer(e.value)
	}
	s.removeFromBucket(e)
	e.hash = newHash
	s.insertBucket(e)
	if listener != nil {
		listener.PostTransfer(e.value, data)
	}
}

// findInBucketExcluding looks for an entry equivalent to value in the
// bucket that hash h maps to, ignoring exclude itself. Used by repair
// to detect whether an entry's new hash would collide with an
// already-present element.
func (s *Set[T]) findInBucketExcluding(h uint64, value T, exclude *entry[T]) *entry[T] {
	idx := s.bucketFor(h)
	n := s.buckets[idx].Search(bucketCmp[T](h), rbtree.FilterOnlyMatch)
	if n == nil {
		return nil
	}
	for cur := n; cur != nil && cur.Value.hash == h; cur = cur.Predecessor() {
		if cur.Value != exclude && s.eq.Equal(cur.Value.value, value) {
			return cur.Value
		}
	}
	for cur := n.Successor(); cur != nil && cur.Value.hash == h; cur = cur.Successor() {
		if cur.Value != exclude && s.eq.Equal(cur.Value.value, value) {
			return cur.Value
		}
	}
	return nil
}

// removeFromBucket excises e from whichever bucket tree currently
// holds it, without touching the global list or the live-element
// count. Used by repair, which relocates an entry between buckets
// without treating it as a remove+add.
func (s *Set[T]) removeFromBucket(e *entry[T]) {
	idx := s.bucketFor(e.hash)
	n := s.buckets[idx].Search(bucketCmp[T](e.hash), rbtree.FilterOnlyMatch)
	for cur := n; cur != nil && cur.Value.hash == e.hash; cur = cur.Predecessor() {
		if cur.Value == e {
			s.buckets[idx].Remove(cur)
			return
		}
	}
	for cur := n.Successor(); cur != nil && cur.Value.hash == e.hash; cur = cur.Successor() {
		if cur.Value == e {
			s.buckets[idx].Remove(cur)
			return
		}
	}
}
