// Package consistency holds the repair-listener contract shared by
// every value-stored container: hashset and sortedset
// each implement is_consistent/check_consistency/repair themselves,
// since fixing up a stale bucket placement or a stale tree position
// requires type-specific structural surgery, but they all report
// progress to the caller through this one Listener shape.
package consistency

// Listener lets external code ride along a repair transfer. PreTransfer
// is called with the about-to-move value and may return arbitrary data
// (e.g. a record to update once the move is visible); PostTransfer
// receives that data back once the move has completed. If the entry's
// new position collides with an existing element, the collided
// element is removed instead: Removed fires first (mirroring
// PreTransfer's data-capture role), then Disposed (mirroring
// PostTransfer), and PreTransfer/PostTransfer never fire for that
// entry in the same repair call.
type Listener[T any] interface {
	PreTransfer(value T) any
	PostTransfer(value T, data any)
	Removed(value T) any
	Disposed(value T, data any)
}

// NopListener implements Listener with no-ops, for callers that only
// want repair's side effects and don't need to track transferred data.
type NopListener[T any] struct{}

func (NopListener[T]) PreTransfer(T) any          { return nil }
func (NopListener[T]) PostTransfer(T, any)        {}
func (NopListener[T]) Removed(T) any              { return nil }
func (NopListener[T]) Disposed(T, any)            {}

var _ Listener[int] = NopListener[int]{}
