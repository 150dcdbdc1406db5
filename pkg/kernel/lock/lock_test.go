package lock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRejectsIllegalResourceKind(t *testing.T) {
	m := New()
	err := m.Acquire(1, Key{Kind: EntityKind(99), ID: 1}, Read)
	assert.ErrorIs(t, err, ErrIllegalResource)
}

func TestReentrantReadLockDoesNotBlockItself(t *testing.T) {
	m := New()
	key := Key{Kind: KindNode, ID: 1}
	require.NoError(t, m.Acquire(1, key, Read))
	require.NoError(t, m.Acquire(1, key, Read))
}

func TestWriteUpgradeFromSoleReader(t *testing.T) {
	m := New()
	key := Key{Kind: KindNode, ID: 1}
	require.NoError(t, m.Acquire(1, key, Read))
	require.NoError(t, m.Acquire(1, key, Write))
}

func TestWriteReentrantIsNoop(t *testing.T) {
	m := New()
	key := Key{Kind: KindNode, ID: 1}
	require.NoError(t, m.Acquire(1, key, Write))
	require.NoError(t, m.Acquire(1, key, Write))
}

// TestWriteBlocksOtherReaderUntilReleased exercises the case where a
// second reader can't be granted while tx 1 holds the write lock, and
// Release must wake it.
func TestWriteBlocksOtherReaderUntilReleased(t *testing.T) {
	m := New()
	key := Key{Kind: KindNode, ID: 1}
	require.NoError(t, m.Acquire(1, key, Write))

	done := make(chan error, 1)
	go func() {
		done <- m.Acquire(2, key, Read)
	}()

	select {
	case <-done:
		t.Fatal("second reader acquired the lock while the writer still held it")
	case <-time.After(50 * time.Millisecond):
	}

	m.Release(1, key)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reader was never woken after Release")
	}
}

// TestDeadlockDetectionBreaksCycle is testable property #6: two
// transactions that would wait on each other in a cycle must have the
// cycle-closing Acquire call fail with a DeadlockError instead of
// hanging forever.
func TestDeadlockDetectionBreaksCycle(t *testing.T) {
	m := New()
	keyA := Key{Kind: KindNode, ID: 1}
	keyB := Key{Kind: KindNode, ID: 2}

	require.NoError(t, m.Acquire(1, keyA, Write))
	require.NoError(t, m.Acquire(2, keyB, Write))

	tx1Blocked := make(chan error, 1)
	go func() {
		tx1Blocked <- m.Acquire(1, keyB, Write)
	}()

	// Give tx1 time to register its wait-for edge before tx2 tries to
	// close the cycle.
	time.Sleep(50 * time.Millisecond)

	err := m.Acquire(2, keyA, Write)
	var deadlock *DeadlockError
	require.True(t, errors.As(err, &deadlock), "expected a DeadlockError, got %v", err)
	assert.Equal(t, keyA, deadlock.Key)

	// Unblock tx1 by releasing the lock it's actually waiting on (tx2's
	// hold on keyB), so the goroutine doesn't leak past the test.
	m.Release(2, keyB)
	m.Release(1, keyA)
	select {
	case err := <-tx1Blocked:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tx1's blocked Acquire never returned")
	}
}

func TestReleaserReleaseAllIsIdempotent(t *testing.T) {
	m := New()
	r := NewReleaser(m, 1)
	key := Key{Kind: KindNode, ID: 1}
	require.NoError(t, r.AcquireWrite(key))

	r.ReleaseAll()
	r.ReleaseAll() // must not panic or double-release

	// The lock is free again: another tx can take it immediately.
	require.NoError(t, m.Acquire(2, key, Write))
}

func TestReleaseUnheldLockIsNoop(t *testing.T) {
	m := New()
	m.Release(1, Key{Kind: KindNode, ID: 1})
}
