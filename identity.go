package qcore

import (
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/nbtaylor/qcore/hashset"
)

// Identity returns the hashset.Equivalence the "identity" builder
// option installs: reference hashing/equality for pointer-like
// values (pointers, maps, channels, funcs, slices), falling back to a
// value hash/equality for everything else, since a plain struct or
// scalar T has no reference identity distinct from its value. No
// library in the example pack solves "identity equivalence for an
// arbitrary generic T" (Go's own `comparable` constraint isn't
// satisfied by T here, since T is only `any`), so this one function is
// built on the standard library's reflect and hash/fnv rather than a
// third-party dependency.
func Identity[T any]() hashset.Equivalence[T] {
	return hashset.Equivalence[T]{
		Hash:  identityHash[T],
		Equal: identityEqual[T],
	}
}

func hasReferenceIdentity(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Slice:
		return true
	default:
		return false
	}
}

func identityHash[T any](v T) uint64 {
	rv := reflect.ValueOf(v)
	if hasReferenceIdentity(rv.Kind()) {
		return uint64(rv.Pointer())
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%#v", v)
	return h.Sum64()
}

func identityEqual[T any](incumbent, candidate T) bool {
	ri, rc := reflect.ValueOf(incumbent), reflect.ValueOf(candidate)
	if hasReferenceIdentity(ri.Kind()) && hasReferenceIdentity(rc.Kind()) {
		return ri.Pointer() == rc.Pointer()
	}
	return reflect.DeepEqual(incumbent, candidate)
}
