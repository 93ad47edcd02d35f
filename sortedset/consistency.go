package sortedset

import (
	"github.com/nbtaylor/qcore/consistency"
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/rbtree"
)

// IsConsistent reports whether id's element is still correctly ordered
// relative to its immediate neighbors under the set's comparator.
func (s *Set[T]) IsConsistent(id handle.ID) bool {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := s.resolve(id)
	if err != nil {
		return false
	}
	if pred := n.Predecessor(); pred != nil && s.cmp(pred.Value, n.Value) > 0 {
		return false
	}
	if succ := n.Successor(); succ != nil && s.cmp(n.Value, succ.Value) > 0 {
		return false
	}
	return true
}

// CheckConsistency performs a linear scan and reports whether any
// adjacent pair violates the comparator's ordering.
func (s *Set[T]) CheckConsistency() bool {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	root := s.tree.Root()
	if root == nil {
		return false
	}
	prev := root.Min()
	for cur := prev.Successor(); cur != nil; cur = cur.Successor() {
		if s.cmp(prev.Value, cur.Value) > 0 {
			return true
		}
		prev = cur
	}
	return false
}

// Repair re-files id's entry at the tree position its current value
// demands. A no-op (no listener callbacks) if already consistent.
func (s *Set[T]) Repair(id handle.ID, listener consistency.Listener[T]) error {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	n, err := s.resolve(id)
	if err != nil {
		return err
	}
	s.repairNodeLocked(n, listener)
	return nil
}

// RepairAll walks every entry in sorted order and repairs it. The full
// set of nodes is snapshotted before any repair runs: a repair can
// remove a different node entirely (a collision victim), which would
// otherwise sever the very successor chain a live walk depends on to
// find the rest of the work.
func (s *Set[T]) RepairAll(listener consistency.Listener[T]) {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	var nodes []*rbtree.Node[T]
	root := s.tree.Root()
	if root != nil {
		for n := root.Min(); n != nil; n = n.Successor() {
			nodes = append(nodes, n)
		}
	}
	for _, n := range nodes {
		if !n.Removed() {
			s.repairNodeLocked(n, listener)
		}
	}
}

func (s *Set[T]) repairNodeLocked(n *rbtree.Node[T], listener consistency.Listener[T]) {
	value := n.Value
	pred := n.Predecessor()
	succ := n.Successor()
	inPlace := (pred == nil || s.cmp(pred.Value, value) <= 0) && (succ == nil || s.cmp(value, succ.Value) <= 0)
	if inPlace {
		return
	}

	s.tree.Remove(n)
	if collision := s.tree.Search(s.cmpAgainst(value), rbtree.FilterOnlyMatch); collision != nil {
		var data any
		if listener != nil {
			data = listener.Removed(collision.Value)
		}
		cv := collision.Value
		s.tree.Remove(collision)
		if listener != nil {
			listener.Disposed(cv, data)
		}
		s.tree.InsertByComparator(s.cmpAgainst(value), value)
		return
	}

	var data any
	if listener != nil {
		data = listener.PreTransfer(value)
	}
	s.tree.InsertByComparator(s.cmpAgainst(value), value)
	if listener != nil {
		listener.PostTransfer(value, data)
	}
}
