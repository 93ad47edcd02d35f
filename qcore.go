// Package qcore is the builder/façade: the single configuration surface
// applications use to obtain a handle-based container backed by
// treelist, hashset, or sortedset, wired to one of the three
// lock.Strategy substrates.
//
// There is no persisted state, CLI, or network surface: Build is the
// entire public entry point.
package qcore

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/hashset"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/sortedset"
	"github.com/nbtaylor/qcore/treelist"
)

// Locking names one of the three pluggable concurrency substrates.
type Locking string

const (
	LockingStamped  Locking = "stamped"
	LockingFastFail Locking = "fast_fail"
	LockingNone     Locking = "none"
)

// ErrAmbiguousKind is returned by Build when both a comparator and an
// equivalence/identity option are supplied: the builder cannot tell
// whether to construct a sorted or a hash container.
var ErrAmbiguousKind = errors.New("qcore: builder configured with both a comparator and a hash equivalence")

// Builder accumulates the recognised configuration options before Build
// resolves them into a concrete container. Which of the three container
// kinds gets built is determined by which options were set: a
// comparator selects the sorted-set family, an equivalence (or
// Identity()) selects the hash set, and neither selects the tree list -
// this dispatch rule is recorded as a resolved Open Question in
// DESIGN.md.
type Builder[T any] struct {
	initialCapacity int
	loadFactor      float64
	equivalence     *hashset.Equivalence[T]
	comparator      sortedset.Comparator[T]
	locking         Locking
	description     string
	logger          zerolog.Logger
	metrics         *Metrics
}

// Build returns a new Builder with its defaults: stamped locking,
// zerolog.Nop() logging, and an auto-generated description.
func Build[T any]() *Builder[T] {
	return &Builder[T]{
		locking:     LockingStamped,
		logger:      zerolog.Nop(),
		description: "qcore-" + uuid.NewString(),
	}
}

// WithInitialCapacity sets the minimum hash-table size to allocate.
// Only meaningful for the hash-set kind.
func (b *Builder[T]) WithInitialCapacity(n int) *Builder[T] {
	b.initialCapacity = n
	return b
}

// WithLoadFactor sets the hash set's rehash threshold, clamped to
// [0.2, 0.9] by hashset.New. Only meaningful for the hash-set kind.
func (b *Builder[T]) WithLoadFactor(f float64) *Builder[T] {
	b.loadFactor = f
	return b
}

// WithEquivalence selects the hash-set kind, using hash/eq as the
// hasher and equality predicate.
func (b *Builder[T]) WithEquivalence(hash func(T) uint64, eq func(incumbent, candidate T) bool) *Builder[T] {
	b.equivalence = &hashset.Equivalence[T]{Hash: hash, Equal: eq}
	return b
}

// WithIdentity selects the hash-set kind using reference-identity
// hashing and equality. See Identity for the concrete semantics.
func (b *Builder[T]) WithIdentity() *Builder[T] {
	eq := Identity[T]()
	b.equivalence = &eq
	return b
}

// WithComparator selects the sorted-set kind, ordered by cmp.
func (b *Builder[T]) WithComparator(cmp func(a, b T) int) *Builder[T] {
	b.comparator = cmp
	return b
}

// WithLocking selects the concurrency substrate. Default is
// LockingStamped.
func (b *Builder[T]) WithLocking(l Locking) *Builder[T] {
	b.locking = l
	return b
}

// WithDescription sets the opaque debug identifier containers log
// alongside their mutations.
func (b *Builder[T]) WithDescription(d string) *Builder[T] {
	b.description = d
	return b
}

// WithLogger installs a zerolog.Logger. Containers log only at
// Debug/Trace level and default to zerolog.Nop() - a library stays
// silent unless a caller opts in.
func (b *Builder[T]) WithLogger(log zerolog.Logger) *Builder[T] {
	b.logger = log
	return b
}

// WithMetrics installs an optional Prometheus metrics hook. Nil (the
// default) means the lock strategy never touches a counter or gauge.
func (b *Builder[T]) WithMetrics(m *Metrics) *Builder[T] {
	b.metrics = m
	return b
}

func (b *Builder[T]) strategy() lock.Strategy {
	var s lock.Strategy
	switch b.locking {
	case LockingFastFail:
		s = lock.NewFastFail()
	case LockingNone:
		s = lock.NewNone()
	default:
		s = lock.NewContainer(3)
	}
	if b.metrics != nil {
		s = b.metrics.wrap(b.description, s)
	}
	return s
}

// Build resolves the accumulated options into a concrete
// handle.Container[T]. Returns ErrAmbiguousKind if both a comparator and
// an equivalence were supplied.
func (b *Builder[T]) Build() (handle.Container[T], error) {
	if b.comparator != nil && b.equivalence != nil {
		return nil, ErrAmbiguousKind
	}
	strategy := b.strategy()
	switch {
	case b.comparator != nil:
		return sortedset.New[T](b.comparator, strategy, b.description, b.logger), nil
	case b.equivalence != nil:
		return hashset.New[T](*b.equivalence, b.initialCapacity, b.loadFactor, strategy, b.description, b.logger), nil
	default:
		return treelist.New[T](strategy, b.description, b.logger), nil
	}
}

// BuildSortedSet is a typed convenience equivalent to Build that also
// exposes sortedset.Set's search/index_of/sub_set surface beyond the
// handle.Container interface. It panics if WithComparator was not
// called - use Build for the generic container-only surface.
func (b *Builder[T]) BuildSortedSet() *sortedset.Set[T] {
	if b.comparator == nil {
		panic("qcore: BuildSortedSet requires WithComparator")
	}
	return sortedset.New[T](b.comparator, b.strategy(), b.description, b.logger)
}

// BuildHashSet is a typed convenience equivalent to Build that also
// exposes hashset.Set's get_or_add/move/repair surface beyond the
// handle.Container interface. It panics if neither WithEquivalence nor
// WithIdentity was called.
func (b *Builder[T]) BuildHashSet() *hashset.Set[T] {
	if b.equivalence == nil {
		panic("qcore: BuildHashSet requires WithEquivalence or WithIdentity")
	}
	return hashset.New[T](*b.equivalence, b.initialCapacity, b.loadFactor, b.strategy(), b.description, b.logger)
}

// BuildList is a typed convenience equivalent to Build for the
// tree-list kind, exposing treelist.List's add/get_adjacent_element
// surface beyond handle.Container.
func (b *Builder[T]) BuildList() *treelist.List[T] {
	return treelist.New[T](b.strategy(), b.description, b.logger)
}
