package qcore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nbtaylor/qcore/lock"
)

// Metrics is the optional Prometheus hook of the expanded spec's §6.2:
// when installed via Builder.WithMetrics, the lock strategy increments
// Contention on every transaction that had to block (rather than being
// granted immediately or as a reentrant nop), and StructuralStamp tracks
// each container's live structural stamp. Grounded on the CounterVec/
// GaugeVec-with-init-time-MustRegister idiom of cuemby-warren's
// pkg/metrics, adapted to a library: qcore never calls MustRegister
// itself (a library instantiated more than once in the same process
// would panic on double-registration), so the caller constructs and
// registers these vectors and hands them in.
type Metrics struct {
	// Contention counts transactions that could not be granted
	// immediately, labeled by container description and lock.Mode.
	Contention *prometheus.CounterVec
	// StructuralStamp tracks the current structural stamp per container
	// description.
	StructuralStamp *prometheus.GaugeVec
}

func (m *Metrics) wrap(description string, inner lock.Strategy) lock.Strategy {
	if m == nil {
		return inner
	}
	return &instrumentedStrategy{m: m, description: description, inner: inner}
}

type instrumentedStrategy struct {
	m           *Metrics
	description string
	inner       lock.Strategy
}

func (s *instrumentedStrategy) Begin(mode lock.Mode, parent lock.Txn) lock.Txn {
	if t, ok := s.inner.TryBegin(mode, parent); ok {
		return s.wrapTxn(t, mode)
	}
	if s.m.Contention != nil {
		s.m.Contention.WithLabelValues(s.description, mode.String()).Inc()
	}
	return s.wrapTxn(s.inner.Begin(mode, parent), mode)
}

func (s *instrumentedStrategy) TryBegin(mode lock.Mode, parent lock.Txn) (lock.Txn, bool) {
	t, ok := s.inner.TryBegin(mode, parent)
	if !ok {
		return nil, false
	}
	return s.wrapTxn(t, mode), true
}

func (s *instrumentedStrategy) Upgrade(read lock.Txn) (lock.Txn, error) {
	if it, ok := read.(*instrumentedTxn); ok {
		read = it.inner
	}
	t, err := s.inner.Upgrade(read)
	if err != nil {
		return nil, err
	}
	return s.wrapTxn(t, t.Mode()), nil
}

func (s *instrumentedStrategy) DoOptimistically(structural bool, retries int, fn func(validate func() bool) bool) bool {
	return s.inner.DoOptimistically(structural, retries, fn)
}

func (s *instrumentedStrategy) GetStamp(structural bool) int64 { return s.inner.GetStamp(structural) }

func (s *instrumentedStrategy) wrapTxn(t lock.Txn, mode lock.Mode) lock.Txn {
	return &instrumentedTxn{s: s, inner: t, mode: mode}
}

type instrumentedTxn struct {
	s     *instrumentedStrategy
	inner lock.Txn
	mode  lock.Mode
}

func (t *instrumentedTxn) Mode() lock.Mode { return t.mode }

func (t *instrumentedTxn) Close() {
	t.inner.Close()
	if t.s.m.StructuralStamp != nil && (t.mode == lock.WriteStructural) {
		t.s.m.StructuralStamp.WithLabelValues(t.s.description).Set(float64(t.s.inner.GetStamp(true)))
	}
}

var _ lock.Strategy = (*instrumentedStrategy)(nil)
var _ lock.Txn = (*instrumentedTxn)(nil)
