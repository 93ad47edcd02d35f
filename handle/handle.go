// Package handle defines the abstract contract that every ordered container
// in qcore implements: values are never addressed directly, only through an
// opaque, comparable element identifier that survives unrelated insertions
// and removals and supports O(1) adjacency navigation.
//
// A handle is a pair (container, element id). Mutating operations on a
// MutableElement re-locate the current node via the id on every call; the
// handle itself never caches a node pointer, so it stays valid across
// rotations, rehashes, and repairs performed by the backing container.
package handle

// Reason is a short, fixed-vocabulary string explaining why a mutation was
// refused. The empty Reason ("") means the operation is permitted.
type Reason string

// The closed vocabulary of refusal reasons. Mutators that are invoked
// despite a non-empty Reason panic with a *RefusalError of the matching kind.
const (
	ReasonUnsupported    Reason = "unsupported"
	ReasonElementExists  Reason = "element exists"
	ReasonNotFound       Reason = "not found"
	ReasonIllegalElement Reason = "illegal element"
	ReasonBadType        Reason = "bad type"
	ReasonNullDisallowed Reason = "null disallowed"
)

// RefusalError is thrown when a mutator is invoked despite its matching
// can-* probe having returned a non-empty Reason.
type RefusalError struct {
	Reason Reason
}

func (e *RefusalError) Error() string {
	return "qcore: operation refused: " + string(e.Reason)
}

// ID is an opaque, comparable token identifying one occupied slot in a
// container. Equal IDs from the same container identify the same slot;
// IDs from distinct containers never compare equal. Total ordering between
// IDs from the same container matches the container's observable iteration
// order (insertion position for ordered containers, linked-list position
// for the hash set, comparator rank for sorted containers).
type ID interface {
	// IsPresent reports whether the slot this ID identifies is still
	// occupied. Once false, it stays false forever; the ID itself remains
	// valid for equality and ordering comparisons.
	IsPresent() bool

	// Compare orders this ID against another ID from the same container.
	// The result is unspecified (and Compare may panic) if other was
	// minted by a different container.
	Compare(other ID) int
}

// Element is the immutable, read-only facet of a handle: it yields only the
// value currently stored at the identified slot.
type Element[T any] interface {
	ID() ID
	// Value returns the element's current value. Panics with
	// qerr.ErrNotPresent if the slot has been removed.
	Value() T
}

// MutableElement is the read-write facet of a handle. Every method
// re-resolves the current node from the ID; none of them are safe to call
// without the appropriate write lock held (see the lock package).
type MutableElement[T any] interface {
	Element[T]

	// CanRemove returns "" if Remove would succeed, otherwise the Reason
	// it would fail for.
	CanRemove() Reason
	// CanSet returns "" if Set(v) would succeed for the given candidate
	// value, otherwise the Reason it would fail for.
	CanSet(v T) Reason
	// CanAdd returns "" if Add(v, beforeThis) would succeed, otherwise
	// the Reason it would fail for.
	CanAdd(v T, beforeThis bool) Reason

	// Set replaces the value at this element's slot. This is an update
	// write: it never changes the element's adjacency. Panics with
	// *RefusalError if CanSet(v) is non-empty.
	Set(v T) error
	// Remove deletes this element's slot. This is a structural write.
	// Panics with *RefusalError if CanRemove() is non-empty.
	Remove() error
	// Add inserts a new element adjacent to this one, before it if
	// beforeThis is true, else after. This is a structural write.
	// Panics with *RefusalError if CanAdd(v, beforeThis) is non-empty.
	Add(v T, beforeThis bool) (Element[T], error)
}

// Container is the abstract contract of every handle-based ordered
// container qcore provides. T is the element value type.
type Container[T any] interface {
	// Size returns the number of elements currently present.
	Size() int
	// IsEmpty reports whether Size() == 0.
	IsEmpty() bool

	// GetElement resolves an ID minted by this container back to an
	// Element, or nil if the ID no longer identifies a present slot.
	GetElement(id ID) Element[T]
	// MutableElement resolves an ID minted by this container back to a
	// MutableElement, or nil if the ID no longer identifies a present
	// slot.
	MutableElement(id ID) MutableElement[T]

	// GetTerminalElement returns the first (first == true) or last
	// element in the container's order, or nil if the container is
	// empty.
	GetTerminalElement(first bool) Element[T]
	// GetAdjacentElement returns the element adjacent to id: the
	// successor if next is true, else the predecessor. Returns nil if
	// there is no such neighbor.
	GetAdjacentElement(id ID, next bool) Element[T]

	// Clear removes every element. Structural write.
	Clear()

	// GetStamp returns the structural stamp if structural is true, else
	// the all-modifications stamp. Stamps are monotonically
	// non-decreasing and strictly increase on every write of the
	// matching kind.
	GetStamp(structural bool) int64
}
