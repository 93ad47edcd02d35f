// Package hashset implements a hash set: a bucket array where each
// bucket is itself a red-black tree of entries ordered by hash code
// (grounded on the pack's cache/concurrent-map examples for the
// bucket-array-plus-chaining idiom, adapted from plain chains to
// red-black-tree buckets), plus a second, independent
// ordering - a global doubly-linked list by insertion time - that
// iteration always follows instead of the bucket array, so observable
// order is deterministic and independent of hash.
package hashset

import (
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/orderstamp"
	"github.com/nbtaylor/qcore/qerr"
	"github.com/nbtaylor/qcore/rbtree"
)

// Equivalence is the user-supplied hash/equality pair the builder's
// "equivalence" or "identity" option installs. Equal receives the
// incumbent entry's value first and the candidate second; a symmetric
// user predicate never notices, but this order is part of the contract
// for anyone supplying an asymmetric one.
type Equivalence[T any] struct {
	Hash  func(T) uint64
	Equal func(incumbent, candidate T) bool
}

const (
	defaultLoadFactor = 0.75
	minLoadFactor     = 0.2
	maxLoadFactor     = 0.9
	minTableSize      = 8
)

// Set is a hash set.
type Set[T any] struct {
	buckets     []rbtree.Tree[*entry[T]]
	mask        uint64
	size        int
	loadFactor  float64
	eq          Equivalence[T]
	stamps      *orderstamp.Allocator
	head, tail  *entry[T]
	strategy    lock.Strategy
	description string
	log         zerolog.Logger
}

// New returns an empty Set. initialCapacity is the minimum number of
// buckets to allocate (rounded up to a power of two); loadFactor is
// clamped to [0.2, 0.9], defaulting to 0.75.
func New[T any](eq Equivalence[T], initialCapacity int, loadFactor float64, strategy lock.Strategy, description string, log zerolog.Logger) *Set[T] {
	if loadFactor <= 0 {
		loadFactor = defaultLoadFactor
	}
	if loadFactor < minLoadFactor {
		loadFactor = minLoadFactor
	}
	if loadFactor > maxLoadFactor {
		loadFactor = maxLoadFactor
	}
	if strategy == nil {
		strategy = lock.NewContainer(3)
	}
	tableSize := nextPow2(initialCapacity)
	if tableSize < minTableSize {
		tableSize = minTableSize
	}
	return &Set[T]{
		buckets:     make([]rbtree.Tree[*entry[T]], tableSize),
		mask:        uint64(tableSize - 1),
		loadFactor:  loadFactor,
		eq:          eq,
		stamps:      orderstamp.New(),
		strategy:    strategy,
		description: description,
		log:         log,
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

var _ handle.Container[int] = (*Set[int])(nil)

func (s *Set[T]) bucketFor(h uint64) int { return int(h & s.mask) }

func bucketCmp[T any](h uint64) func(*entry[T]) int {
	return func(e *entry[T]) int {
		switch {
		case e.hash < h:
			return -1
		case e.hash > h:
			return 1
		default:
			return 0
		}
	}
}

// findLocked performs the collision-scanning lookup: locate the
// bucket, find a node with a matching hash, then walk outward across
// ties testing equality. Caller must already hold at least a read lock.
func (s *Set[T]) findLocked(value T) *entry[T] {
	h := s.eq.Hash(value)
	idx := s.bucketFor(h)
	n := s.buckets[idx].Search(bucketCmp[T](h), rbtree.FilterOnlyMatch)
	if n == nil {
		return nil
	}
	for cur := n; cur != nil && cur.Value.hash == h; cur = cur.Predecessor() {
		if s.eq.Equal(cur.Value.value, value) {
			return cur.Value
		}
	}
	for cur := n.Successor(); cur != nil && cur.Value.hash == h; cur = cur.Successor() {
		if s.eq.Equal(cur.Value.value, value) {
			return cur.Value
		}
	}
	return nil
}

// Get returns the element equivalent to value, or nil.
func (s *Set[T]) Get(value T) handle.Element[T] {
	var out handle.Element[T]
	s.strategy.DoOptimistically(true, 3, func(validate func() bool) bool {
		e := s.findLocked(value)
		if !validate() {
			return false
		}
		out = s.element(e)
		return true
	})
	return out
}

// Size returns the number of present elements.
func (s *Set[T]) Size() int {
	var n int
	s.strategy.DoOptimistically(true, 3, func(validate func() bool) bool {
		n = s.size
		return validate()
	})
	return n
}

func (s *Set[T]) IsEmpty() bool { return s.Size() == 0 }

func (s *Set[T]) element(e *entry[T]) handle.Element[T] {
	if e == nil {
		return nil
	}
	return &elementView[T]{set: s, e: e}
}

func (s *Set[T]) resolve(id handle.ID) (*entry[T], error) {
	if id == nil {
		return nil, qerr.ErrNotPresent
	}
	eid, ok := id.(*ID[T])
	if !ok || eid.set != s {
		return nil, qerr.ErrForeignElement
	}
	if eid.e.removed {
		return nil, qerr.ErrNotPresent
	}
	return eid.e, nil
}

// GetElement resolves id to an Element, or nil if absent.
func (s *Set[T]) GetElement(id handle.ID) handle.Element[T] {
	e, err := s.resolve(id)
	if err != nil {
		return nil
	}
	return s.element(e)
}

// MutableElement resolves id to a MutableElement, or nil if absent.
func (s *Set[T]) MutableElement(id handle.ID) handle.MutableElement[T] {
	e, err := s.resolve(id)
	if err != nil {
		return nil
	}
	return &elementView[T]{set: s, e: e}
}

// GetTerminalElement returns the first- or last-inserted element still
// present, or nil if the set is empty.
func (s *Set[T]) GetTerminalElement(first bool) handle.Element[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	if first {
		return s.element(s.head)
	}
	return s.element(s.tail)
}

// GetAdjacentElement returns id's successor or predecessor in insertion
// order.
func (s *Set[T]) GetAdjacentElement(id handle.ID, next bool) handle.Element[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	e, err := s.resolve(id)
	if err != nil {
		panic(err)
	}
	if next {
		return s.element(e.next)
	}
	return s.element(e.prev)
}

// Clear removes every element.
func (s *Set[T]) Clear() {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	for i := range s.buckets {
		s.buckets[i] = rbtree.Tree[*entry[T]]{}
	}
	s.head, s.tail = nil, nil
	s.size = 0
	s.stamps = orderstamp.New()
}

// GetStamp returns the structural or all-modifications monotonic stamp.
func (s *Set[T]) GetStamp(structural bool) int64 {
	return s.strategy.GetStamp(structural)
}
