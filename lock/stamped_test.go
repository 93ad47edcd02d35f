package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var workloads = []struct {
	name        string
	concurrency int
}{
	{"Serial", 1},
	{"Low concurrency", 2},
	{"Medium concurrency", 8},
	{"High concurrency", 32},
}

func TestStampedBasicExclusion(t *testing.T) {
	s := NewStamped()
	s.Lock()
	assert.False(t, s.TryRLock())
	assert.False(t, s.TryLock())
	s.Unlock()
	assert.True(t, s.TryRLock())
	s.RUnlock()
}

func TestStampedMultipleReaders(t *testing.T) {
	s := NewStamped()
	s.RLock()
	assert.True(t, s.TryRLock(), "a second reader must not block behind the first")
	assert.False(t, s.TryLock(), "a writer must block behind any reader")
	s.RUnlock()
	s.RUnlock()
}

func TestStampedStampBumpsOnWrite(t *testing.T) {
	s := NewStamped()
	stamp, ok := s.TryOptimisticRead()
	require.True(t, ok)
	require.Equal(t, int64(0), stamp)

	s.Lock()
	s.Unlock()

	assert.False(t, s.Validate(stamp), "stamp must invalidate across a write")
	next, ok := s.TryOptimisticRead()
	require.True(t, ok)
	assert.True(t, s.Validate(next))
}

func TestStampedOptimisticReadFailsWhileWriterHeld(t *testing.T) {
	s := NewStamped()
	s.Lock()
	_, ok := s.TryOptimisticRead()
	assert.False(t, ok)
	s.Unlock()
}

func TestStampedConcurrentWritersSerialize(t *testing.T) {
	for _, w := range workloads {
		w := w
		t.Run(w.name, func(t *testing.T) {
			s := NewStamped()
			counter := 0
			observed := make([]int, 0, w.concurrency*10)
			var mu = make(chan struct{}, 1)
			mu <- struct{}{}

			g, _ := errgroup.WithContext(context.Background())
			for i := 0; i < w.concurrency; i++ {
				g.Go(func() error {
					for j := 0; j < 10; j++ {
						s.Lock()
						counter++
						val := counter
						s.Unlock()
						<-mu
						observed = append(observed, val)
						mu <- struct{}{}
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())
			assert.Equal(t, w.concurrency*10, counter)
			assert.Len(t, observed, w.concurrency*10)
		})
	}
}

func TestContainerReentrancyIsExplicit(t *testing.T) {
	c := NewContainer(3)
	outer := c.Begin(WriteStructural, nil)
	inner := c.Begin(ReadUpdate, outer)
	innerTxn := inner.(*containerTxn)
	assert.True(t, innerTxn.nop, "nested compatible request must be a nop transaction")
	inner.Close()
	outer.Close()
}

func TestContainerReadStructuralTakesUpdateWrites(t *testing.T) {
	c := NewContainer(3)
	rs := c.Begin(ReadStructural, nil)
	// Read/structural must tolerate a concurrent update writer.
	wu, ok := c.TryBegin(WriteUpdate, nil)
	require.True(t, ok)
	wu.Close()
	rs.Close()
}

func TestContainerWriteStructuralExcludesEverything(t *testing.T) {
	c := NewContainer(3)
	ws := c.Begin(WriteStructural, nil)
	_, ok := c.TryBegin(ReadUpdate, nil)
	assert.False(t, ok)
	_, ok = c.TryBegin(ReadStructural, nil)
	assert.False(t, ok)
	_, ok = c.TryBegin(WriteUpdate, nil)
	assert.False(t, ok)
	ws.Close()
}

// TestContainerWriteUpdateAndWriteStructuralDoNotDeadlock guards against an
// AB-BA lock-ordering inversion between the two blocking Begin branches:
// WriteUpdate and WriteStructural must acquire structLock and updateLock in
// the same order, or two goroutines racing one of each permanently
// deadlock. TryBegin-based tests can't exercise this, since TryBegin backs
// out on contention instead of blocking.
func TestContainerWriteUpdateAndWriteStructuralDoNotDeadlock(t *testing.T) {
	for _, w := range workloads {
		w := w
		t.Run(w.name, func(t *testing.T) {
			c := NewContainer(3)
			done := make(chan error, 1)
			go func() {
				g, _ := errgroup.WithContext(context.Background())
				for i := 0; i < w.concurrency; i++ {
					g.Go(func() error {
						for j := 0; j < 20; j++ {
							c.Begin(WriteUpdate, nil).Close()
						}
						return nil
					})
					g.Go(func() error {
						for j := 0; j < 20; j++ {
							c.Begin(WriteStructural, nil).Close()
						}
						return nil
					})
				}
				done <- g.Wait()
			}()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("WriteUpdate/WriteStructural acquisition deadlocked")
			}
		})
	}
}

func TestContainerUpgradeSucceedsWhenAlone(t *testing.T) {
	c := NewContainer(3)
	r := c.Begin(ReadUpdate, nil)
	w, err := c.Upgrade(r)
	require.NoError(t, err)
	assert.Equal(t, WriteUpdate, w.Mode())
	w.Close()
}

func TestContainerUpgradeFailsUnderContention(t *testing.T) {
	c := NewContainer(3)
	r1 := c.Begin(ReadUpdate, nil)
	done := make(chan struct{})
	go func() {
		r2 := c.Begin(ReadUpdate, nil)
		<-done
		r2.Close()
	}()
	time.Sleep(10 * time.Millisecond)

	_, err := c.Upgrade(r1)
	assert.ErrorIs(t, err, ErrLockUpgrade)
	close(done)
}

func TestContainerStampsMonotonic(t *testing.T) {
	c := NewContainer(3)
	assert.Equal(t, int64(0), c.GetStamp(true))
	assert.Equal(t, int64(0), c.GetStamp(false))

	c.Begin(WriteStructural, nil).Close()
	assert.Equal(t, int64(1), c.GetStamp(true))
	assert.Equal(t, int64(1), c.GetStamp(false))

	c.Begin(WriteUpdate, nil).Close()
	assert.Equal(t, int64(1), c.GetStamp(true), "an update write must not bump the structural stamp")
	assert.Equal(t, int64(2), c.GetStamp(false))
}

func TestContainerDoOptimisticallyRetriesThenEscalates(t *testing.T) {
	c := NewContainer(2)
	var attempts int
	start := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		<-start
		w := c.Begin(WriteUpdate, nil)
		time.Sleep(20 * time.Millisecond)
		w.Close()
		close(writerDone)
	}()

	close(start)
	time.Sleep(5 * time.Millisecond)

	ok := c.DoOptimistically(false, 2, func(validate func() bool) bool {
		attempts++
		return validate()
	})
	<-writerDone
	assert.True(t, ok, "the escalated real read lock must ultimately succeed")
	assert.GreaterOrEqual(t, attempts, 1)
}

func TestDoOptimisticallyRequiresValidateCall(t *testing.T) {
	c := NewContainer(1)
	calls := 0
	ok := c.DoOptimistically(false, 1, func(validate func() bool) bool {
		calls++
		return true // never calls validate
	})
	assert.True(t, ok, "must still succeed once escalated to a real read lock")
	assert.Equal(t, 2, calls, "one optimistic attempt plus one escalated attempt")
}

func TestFastFailBasicExclusion(t *testing.T) {
	f := NewFastFail()
	w := f.Begin(WriteStructural, nil)
	_, ok := f.TryBegin(ReadUpdate, nil)
	assert.False(t, ok)
	w.Close()

	r := f.Begin(ReadUpdate, nil)
	_, ok = f.TryBegin(WriteStructural, nil)
	assert.False(t, ok)
	r.Close()
}

func TestFastFailUpgrade(t *testing.T) {
	f := NewFastFail()
	r := f.Begin(ReadStructural, nil)
	w, err := f.Upgrade(r)
	require.NoError(t, err)
	assert.Equal(t, WriteStructural, w.Mode())
	w.Close()
}

func TestNoneStrategyNeverBlocks(t *testing.T) {
	n := NewNone()
	a := n.Begin(WriteStructural, nil)
	b := n.Begin(WriteStructural, nil)
	a.Close()
	b.Close()
	assert.Equal(t, int64(2), n.GetStamp(true))
}
