package txn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicdb/pkg/kernel"
	"github.com/orneryd/nornicdb/pkg/kernel/txlog"
)

func TestCommitRequiresPrepare(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	err := tx.Commit(1)
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestPrepareTwiceFails(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))
	require.NoError(t, tx.Prepare(nil, 1))
	err := tx.Prepare(nil, 2)
	assert.ErrorIs(t, err, ErrAlreadyPrepared)
}

func TestCommitAppliesStagedRecordsToStore(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))
	require.NoError(t, tx.Prepare(nil, 1))
	require.NoError(t, tx.Commit(1))

	rec, err := stores.Nodes.Get(id)
	require.NoError(t, err)
	assert.True(t, rec.InUse)
}

// TestCommitRejectsOutOfOrderTxID is scenario S5: a CommitSequencer
// enforces that commitTxID is always exactly lastCommitted+1; a commit
// that skips ahead (or repeats) must be rejected and the sequencer's
// counter must not move.
func TestCommitRejectsOutOfOrderTxID(t *testing.T) {
	stores := newTestStores()
	seq := NewSequencer(0)

	tx1 := New(stores, nil, nil)
	id1 := stores.Nodes.NextID()
	require.NoError(t, tx1.NodeCreate(id1))
	require.NoError(t, tx1.Prepare(nil, 1))
	tx1.SetCommitSequencer(seq)
	require.NoError(t, tx1.Commit(1))
	assert.Equal(t, int64(1), seq.Last())

	tx2 := New(stores, nil, nil)
	id2 := stores.Nodes.NextID()
	require.NoError(t, tx2.NodeCreate(id2))
	require.NoError(t, tx2.Prepare(nil, 2))
	tx2.SetCommitSequencer(seq)

	err := tx2.Commit(3) // skips 2
	assert.ErrorIs(t, err, ErrOutOfOrderCommit)
	assert.Equal(t, int64(1), seq.Last(), "a rejected commit must not advance the sequencer")
}

func TestReadOnlyCommitIsANoop(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	require.NoError(t, tx.Prepare(nil, 1))
	require.NoError(t, tx.Commit(1))
}

func TestRollbackAfterCommitIsANoop(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))
	require.NoError(t, tx.Prepare(nil, 1))
	require.NoError(t, tx.Commit(1))
	require.NoError(t, tx.Rollback())

	rec, err := stores.Nodes.Get(id)
	require.NoError(t, err)
	assert.True(t, rec.InUse, "rollback after commit must not undo the committed write")
}

func TestOrderForRecoveryGroupsByKindRegardlessOfInputOrder(t *testing.T) {
	cmds := []Command{
		{Kind: CommandNode, Key: 1},
		{Kind: CommandRelationship, Key: 1},
		{Kind: CommandPropertyIndex, Key: 1},
		{Kind: CommandProperty, Key: 1},
		{Kind: CommandRelationshipType, Key: 1},
		{Kind: CommandNode, Key: 2},
	}
	ordered := orderForRecovery(cmds)
	require.Len(t, ordered, 6)
	kinds := make([]CommandKind, len(ordered))
	for i, c := range ordered {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []CommandKind{
		CommandPropertyIndex,
		CommandProperty,
		CommandRelationshipType,
		CommandRelationship,
		CommandNode,
		CommandNode,
	}, kinds)
}

func TestOrderForRecoveryIsStableWithinKind(t *testing.T) {
	cmds := []Command{
		{Kind: CommandNode, Key: 3},
		{Kind: CommandNode, Key: 1},
		{Kind: CommandNode, Key: 2},
	}
	ordered := orderForRecovery(cmds)
	assert.Equal(t, []int64{3, 1, 2}, []int64{ordered[0].Key, ordered[1].Key, ordered[2].Key})
}

// TestRecoverReproducesPreCrashState is testable property #5: a
// transaction that completed Prepare against a real logical log is
// durable, and replaying that log into a fresh set of stores
// reproduces the same node/relationship/property state, scalars
// included, without ever calling Commit on the original transaction.
func TestRecoverReproducesPreCrashState(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "txn.log")
	log, err := txlog.Open(logPath)
	require.NoError(t, err)

	stores := newTestStores()
	tx := New(stores, nil, nil)
	n1, n2 := stores.Nodes.NextID(), stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n1))
	require.NoError(t, tx.NodeCreate(n2))
	relID := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(relID, 0, n1, n2))
	_, err = tx.NodeAddProperty(n1, 1, int64(7))
	require.NoError(t, err)
	_, err = tx.NodeAddProperty(n1, 2, "a string value")
	require.NoError(t, err)

	require.NoError(t, tx.Prepare(log, 1))
	require.NoError(t, log.Close())

	fresh := kernel.NewMemoryStores()
	lastTx, err := Recover(fresh, logPath, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lastTx)

	node1, err := fresh.Nodes.Get(n1)
	require.NoError(t, err)
	assert.True(t, node1.InUse)
	assert.NotEqual(t, kernel.NoID, node1.NextRel)
	assert.NotEqual(t, kernel.NoID, node1.NextProp)

	rel, err := fresh.Relationships.Get(relID)
	require.NoError(t, err)
	assert.Equal(t, n1, rel.FirstNode)
	assert.Equal(t, n2, rel.SecondNode)

	recoverTx := New(fresh, nil, nil)
	props, err := recoverTx.LoadProperties(kernel.OwnerRef{NodeID: n1, RelID: kernel.NoID}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), props[1].Value, "scalar values must survive the JSON round trip through the log")
	assert.Equal(t, "a string value", props[2].Value)
}
