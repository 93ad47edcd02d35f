// Package qerr holds the fatal-error channel every qcore container shares:
// the small set of sentinel errors that represent unrecoverable
// caller mistakes or concurrency violations, as distinct from the
// reason-string refusals (handle.Reason) that callers are expected to
// check and recover from.
package qerr

import (
	"errors"

	"github.com/nbtaylor/qcore/lock"
)

var (
	// ErrForeignElement is returned when an ID minted by one container
	// is presented to another.
	ErrForeignElement = errors.New("qcore: element identifier belongs to a different container")

	// ErrNotPresent is returned when an operation targets an element
	// whose slot has already been removed.
	ErrNotPresent = errors.New("qcore: element is not present")

	// ErrConcurrentModification is the value a spliterator panics with
	// when its anchor element was removed by a different goroutine since
	// the last step.
	ErrConcurrentModification = errors.New("qcore: concurrent structural modification detected")

	// ErrLockUpgrade is lock.ErrLockUpgrade, re-exported so callers that
	// only import qerr can still errors.Is against the same value
	// containers actually return.
	ErrLockUpgrade = lock.ErrLockUpgrade

	// ErrIllegalElement names the failure of an operation on a bounded
	// sub-range view that targets a value outside the view's lower/upper
	// bound. The sortedset views do not return it: they report such
	// refusals as a *handle.RefusalError carrying handle.ReasonIllegalElement.
	ErrIllegalElement = errors.New("qcore: value is outside the sub-range bound")
)
