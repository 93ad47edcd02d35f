package hashset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/orderstamp"
	"github.com/nbtaylor/qcore/rbtree"
)

// Add inserts value if no equivalent element is present, or does
// nothing and returns the incumbent otherwise. It is GetOrAdd with no
// pre/post hooks.
func (s *Set[T]) Add(value T, after, before handle.ID, preferFirst bool) (handle.Element[T], bool, error) {
	return s.GetOrAdd(value, after, before, preferFirst, nil, nil)
}

// GetOrAdd finds an equivalent existing element first; if absent, runs
// preAdd (a caller hook that may refuse the insertion), makes room
// (rehashing if needed), links the new entry into both the global list
// and its bucket tree, then runs postAdd. added reports whether a new
// entry was created.
func (s *Set[T]) GetOrAdd(value T, after, before handle.ID, preferFirst bool, preAdd func() handle.Reason, postAdd func(handle.Element[T])) (el handle.Element[T], added bool, err error) {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()

	if existing := s.findLocked(value); existing != nil {
		return s.element(existing), false, nil
	}

	if preAdd != nil {
		if r := preAdd(); r != "" {
			return nil, false, &handle.RefusalError{Reason: r}
		}
	}

	var afterEntry, beforeEntry *entry[T]
	if after != nil {
		if afterEntry, err = s.resolve(after); err != nil {
			return nil, false, err
		}
	}
	if before != nil {
		if beforeEntry, err = s.resolve(before); err != nil {
			return nil, false, err
		}
	}

	if s.size+1 > int(float64(len(s.buckets))*s.loadFactor) {
		s.rehashLocked(int(float64(s.size+1) * 1.5 / s.loadFactor))
	}

	h := s.eq.Hash(value)
	e := &entry[T]{value: value, hash: h}
	s.linkList(e, afterEntry, beforeEntry, preferFirst)
	s.insertBucket(e)
	s.size++

	view := s.element(e)
	if postAdd != nil {
		postAdd(view)
	}
	s.log.Debug().Str("set", s.description).Msg("hashset: added element")
	return view, true, nil
}

func (s *Set[T]) insertBucket(e *entry[T]) {
	idx := s.bucketFor(e.hash)
	s.buckets[idx].InsertByComparator(func(cand *entry[T]) int {
		switch {
		case cand.hash < e.hash:
			return -1
		case cand.hash > e.hash:
			return 1
		default:
			return -1 // ties: descend right, so the new entry goes after every entry with an equal hash
		}
	}, e)
}

// linkList splices e into the global insertion-order list per the
// anchor rules shared with treelist.Add: after-only, before-only,
// between, or (absent both) append/prepend.
func (s *Set[T]) linkList(e *entry[T], after, before *entry[T], preferFirst bool) {
	switch {
	case after != nil:
		e.stamp = s.stampAfter(after, before)
		e.prev = after
		e.next = after.next
		if after.next != nil {
			after.next.prev = e
		} else {
			s.tail = e
		}
		after.next = e
	case before != nil:
		e.stamp = s.stampBefore(before)
		e.next = before
		e.prev = before.prev
		if before.prev != nil {
			before.prev.next = e
		} else {
			s.head = e
		}
		before.prev = e
	case preferFirst:
		e.stamp = s.stamps.First()
		e.next = s.head
		if s.head != nil {
			s.head.prev = e
		} else {
			s.tail = e
		}
		s.head = e
	default:
		e.stamp = s.stamps.Last()
		e.prev = s.tail
		if s.tail != nil {
			s.tail.next = e
		} else {
			s.head = e
		}
		s.tail = e
	}
}

func (s *Set[T]) unlinkList(e *entry[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (s *Set[T]) stampAfter(after, before *entry[T]) int64 {
	high := after.next
	if before != nil {
		high = before
	}
	if high == nil {
		return s.stamps.Last()
	}
	if v, ok := orderstamp.Between(after.stamp, high.stamp); ok {
		return v
	}
	s.renumberFrom(high, after.stamp+renumberStride)
	v, _ := orderstamp.Between(after.stamp, high.stamp)
	return v
}

func (s *Set[T]) stampBefore(before *entry[T]) int64 {
	pred := before.prev
	if pred == nil {
		return s.stamps.First()
	}
	if v, ok := orderstamp.Between(pred.stamp, before.stamp); ok {
		return v
	}
	s.renumberFrom(before, pred.stamp+renumberStride)
	v, _ := orderstamp.Between(pred.stamp, before.stamp)
	return v
}

const renumberStride = 1 << 16

func (s *Set[T]) renumberFrom(start *entry[T], base int64) {
	next := base
	for n := start; n != nil; n = n.next {
		n.stamp = next
		next += renumberStride
	}
}

// Remove deletes the element identified by id.
func (s *Set[T]) Remove(id handle.ID) error {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	e, err := s.resolve(id)
	if err != nil {
		return err
	}
	s.removeLocked(e)
	s.log.Debug().Str("set", s.description).Msg("hashset: removed element")
	return nil
}

func (s *Set[T]) removeLocked(e *entry[T]) {
	s.removeFromBucket(e)
	s.unlinkList(e)
	e.removed = true
	s.size--
}

// Move structurally relocates an entry in the insertion-order list
// without touching the bucket array. The caller's afterRemove callback
// runs with the entry unlinked but not yet relinked; no mutation of the
// set is permitted during that window (afterRemove may read, but must
// not call back into s), and the entry's stamp is only assigned after
// the callback returns, so nothing the callback observes could see a
// stamp this call has already chosen.
func (s *Set[T]) Move(id handle.ID, after, before handle.ID, first bool, afterRemove func()) error {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	e, err := s.resolve(id)
	if err != nil {
		return err
	}

	var afterEntry, beforeEntry *entry[T]
	if after != nil {
		if afterEntry, err = s.resolve(after); err != nil {
			return err
		}
	}
	if before != nil {
		if beforeEntry, err = s.resolve(before); err != nil {
			return err
		}
	}

	s.unlinkList(e)
	if afterRemove != nil {
		afterRemove()
	}
	s.linkList(e, afterEntry, beforeEntry, first)
	return nil
}

// Rehash reallocates the bucket array for expected elements and
// reinserts every live entry, walking the global list (insertion
// order) rather than the old bucket array.
func (s *Set[T]) Rehash(expected int) {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	s.rehashLocked(expected)
}

func (s *Set[T]) rehashLocked(expected int) {
	size := nextPow2(int(float64(expected) / s.loadFactor))
	if size < minTableSize {
		size = minTableSize
	}
	if size <= len(s.buckets) {
		size = len(s.buckets) * 2
	}
	s.buckets = make([]rbtree.Tree[*entry[T]], size)
	s.mask = uint64(size - 1)
	for e := s.head; e != nil; e = e.next {
		s.insertBucket(e)
	}
	s.log.Debug().Str("set", s.description).Int("new_size", size).Msg("hashset: rehashed")
}
