// Package orderstamp implements a permanent total-order token: every
// entry in an ordered or hash-keyed container gets a 64-bit stamp that
// compares correctly against every other entry's stamp forever, even
// after one of the two entries has been removed from its container
// (removal never clears an entry's stamp).
//
// Stamps are handed out from a pair of counters - one counting down from
// -stride for front-inserts, one counting up from 0 for back-inserts - the
// scheme the hash set uses for its insertion-order chain. treelist
// reuses the identical scheme for the same reason: a tree-list
// element's rank shifts under unrelated insertions/removals, but its
// identifier must compare consistently forever, so comparison is defined
// against the immutable stamp rather than the element's transient rank.
//
// To keep typical between-inserts O(1) without renumbering, both counters
// advance in large strides; Between finds a free integer inside the
// stride whenever one exists, and only asks the caller to renumber the
// surrounding run when the gap has been fully consumed.
package orderstamp

const stride = 1 << 16

// Allocator hands out stamps for one container's entries.
type Allocator struct {
	first int64
	last  int64
}

// New returns an allocator ready to mint the first stamps of an empty
// container.
func New() *Allocator {
	return &Allocator{first: -stride, last: 0}
}

// Last allocates a stamp greater than every stamp previously allocated by
// Last (used for add-at-end / add-last).
func (a *Allocator) Last() int64 {
	s := a.last
	a.last += stride
	return s
}

// First allocates a stamp less than every stamp previously allocated by
// First (used for add-at-front / add-first).
func (a *Allocator) First() int64 {
	s := a.first
	a.first -= stride
	return s
}

// Between attempts to allocate a stamp strictly between low and high
// (low < high). ok is false if the two stamps are adjacent integers and
// the caller must renumber the run starting at high forward (or ending
// at low backward) before retrying.
func Between(low, high int64) (stamp int64, ok bool) {
	if high-low <= 1 {
		return 0, false
	}
	return low + (high-low)/2, true
}
