package txn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicdb/pkg/kernel"
)

func newTestStores() *kernel.Stores {
	return kernel.NewMemoryStores()
}

func TestNodeCreateThenDelete(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))

	node, err := tx.LoadLightNode(id)
	require.NoError(t, err)
	assert.True(t, node.InUse)
	assert.Equal(t, kernel.NoID, node.NextRel)
	assert.Equal(t, kernel.NoID, node.NextProp)

	_, err = tx.NodeDelete(id)
	require.NoError(t, err)
	node, err = tx.LoadLightNode(id)
	require.NoError(t, err)
	assert.False(t, node.InUse)
}

func TestNodeDeleteAlreadyDeleted(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))
	_, err := tx.NodeDelete(id)
	require.NoError(t, err)
	_, err = tx.NodeDelete(id)
	assert.ErrorIs(t, err, ErrAlreadyDeleted)
}

// TestNodeDeleteWithLiveRelationshipFails is scenario S3: deleting a
// node that still has an incident relationship must fail with
// ErrIntegrityViolation rather than silently orphaning the chain.
func TestNodeDeleteWithLiveRelationshipFails(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	n1, n2 := stores.Nodes.NextID(), stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n1))
	require.NoError(t, tx.NodeCreate(n2))
	relID := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(relID, 0, n1, n2))

	_, err := tx.NodeDelete(n1)
	assert.ErrorIs(t, err, ErrIntegrityViolation)
}

// TestTwoNodesOneRelationshipChainValues is scenario S1: after
// creating two nodes and one relationship between them, every chain
// pointer on both sides must be exactly NONE since it's the only
// relationship either endpoint has.
func TestTwoNodesOneRelationshipChainValues(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	n1, n2 := stores.Nodes.NextID(), stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n1))
	require.NoError(t, tx.NodeCreate(n2))
	relID := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(relID, 0, n1, n2))

	node1, err := tx.LoadLightNode(n1)
	require.NoError(t, err)
	node2, err := tx.LoadLightNode(n2)
	require.NoError(t, err)
	assert.Equal(t, relID, node1.NextRel)
	assert.Equal(t, relID, node2.NextRel)

	rel, err := tx.LoadLightRelationship(relID)
	require.NoError(t, err)
	assert.Equal(t, kernel.NoID, rel.FirstPrevRel)
	assert.Equal(t, kernel.NoID, rel.FirstNextRel)
	assert.Equal(t, kernel.NoID, rel.SecondPrevRel)
	assert.Equal(t, kernel.NoID, rel.SecondNextRel)
}

// TestDeleteMiddleOfThreeRelationshipsSplicesNeighbors is scenario S2:
// three relationships between the same pair of nodes, deleting the
// middle one must splice its two neighbors together and leave the
// chain head untouched (the deleted record was never the head).
func TestDeleteMiddleOfThreeRelationshipsSplicesNeighbors(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	n1, n2 := stores.Nodes.NextID(), stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n1))
	require.NoError(t, tx.NodeCreate(n2))

	r1, r2, r3 := stores.Relationships.NextID(), stores.Relationships.NextID(), stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(r1, 0, n1, n2))
	require.NoError(t, tx.RelationshipCreate(r2, 0, n1, n2))
	require.NoError(t, tx.RelationshipCreate(r3, 0, n1, n2))

	_, err := tx.RelDelete(r2)
	require.NoError(t, err)

	node1, err := tx.LoadLightNode(n1)
	require.NoError(t, err)
	assert.Equal(t, r3, node1.NextRel, "head must remain the last-created relationship")

	head, err := tx.LoadLightRelationship(r3)
	require.NoError(t, err)
	assert.Equal(t, r1, head.FirstNextRel)
	assert.Equal(t, kernel.NoID, head.FirstPrevRel)
	assert.Equal(t, r1, head.SecondNextRel)
	assert.Equal(t, kernel.NoID, head.SecondPrevRel)

	tail, err := tx.LoadLightRelationship(r1)
	require.NoError(t, err)
	assert.Equal(t, r3, tail.FirstPrevRel)
	assert.Equal(t, kernel.NoID, tail.FirstNextRel)
	assert.Equal(t, r3, tail.SecondPrevRel)
	assert.Equal(t, kernel.NoID, tail.SecondNextRel)

	deleted, err := tx.LoadLightRelationship(r2)
	require.NoError(t, err)
	assert.False(t, deleted.InUse)
}

func TestSelfLoopRelationshipOccupiesBothChainSlots(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	n := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n))
	selfRel := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(selfRel, 0, n, n))

	otherRel := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(otherRel, 0, n, n))

	node, err := tx.LoadLightNode(n)
	require.NoError(t, err)
	assert.Equal(t, otherRel, node.NextRel)

	_, err = tx.RelDelete(otherRel)
	require.NoError(t, err)
	node, err = tx.LoadLightNode(n)
	require.NoError(t, err)
	assert.Equal(t, selfRel, node.NextRel)

	rel, err := tx.LoadLightRelationship(selfRel)
	require.NoError(t, err)
	assert.Equal(t, kernel.NoID, rel.FirstPrevRel)
	assert.Equal(t, kernel.NoID, rel.FirstNextRel)
	assert.Equal(t, kernel.NoID, rel.SecondPrevRel)
	assert.Equal(t, kernel.NoID, rel.SecondNextRel)
}

// TestChainSymmetryAndHeadCorrectnessProperty is a generative test
// covering testable properties #1 (chain symmetry) and #2 (head
// correctness): for every node, if it has a relationship chain, the
// record at its head has NONE on the pointer facing that node, and
// every relationship's forward/backward pointers agree with its
// neighbor's pointer back.
func TestChainSymmetryAndHeadCorrectnessProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	stores := newTestStores()
	tx := New(stores, nil, nil)

	const nodeCount = 6
	nodes := make([]kernel.RecordID, nodeCount)
	for i := range nodes {
		nodes[i] = stores.Nodes.NextID()
		require.NoError(t, tx.NodeCreate(nodes[i]))
	}

	var live []kernel.RecordID
	for i := 0; i < 60; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			a := nodes[rng.Intn(nodeCount)]
			b := nodes[rng.Intn(nodeCount)]
			id := stores.Relationships.NextID()
			require.NoError(t, tx.RelationshipCreate(id, 0, a, b))
			live = append(live, id)
		} else {
			idx := rng.Intn(len(live))
			victim := live[idx]
			if _, err := tx.RelDelete(victim); err == nil {
				live = append(live[:idx], live[idx+1:]...)
			}
		}
		assertChainInvariants(t, tx, nodes)
	}
}

// assertChainInvariants walks every node's chain in both directions
// and checks head correctness and neighbor-pointer symmetry.
func assertChainInvariants(t *testing.T, tx *Transaction, nodes []kernel.RecordID) {
	t.Helper()
	for _, n := range nodes {
		node, err := tx.LoadLightNode(n)
		require.NoError(t, err)
		if node.NextRel == kernel.NoID {
			continue
		}
		head, err := tx.LoadLightRelationship(node.NextRel)
		require.NoError(t, err)
		if head.FirstNode == n {
			assert.Equal(t, kernel.NoID, head.FirstPrevRel, "head correctness: node %d's head rel %d", n, node.NextRel)
		}
		if head.SecondNode == n {
			assert.Equal(t, kernel.NoID, head.SecondPrevRel, "head correctness: node %d's head rel %d", n, node.NextRel)
		}

		visited := make(map[kernel.RecordID]bool)
		cur := node.NextRel
		steps := 0
		for cur != kernel.NoID {
			steps++
			require.LessOrEqual(t, steps, 10_000, "chain from node %d does not terminate", n)
			require.False(t, visited[cur], "chain from node %d revisits relationship %d", n, cur)
			visited[cur] = true

			rel, err := tx.LoadLightRelationship(cur)
			require.NoError(t, err)
			var next, prev kernel.RecordID
			if rel.FirstNode == n {
				next, prev = rel.FirstNextRel, rel.FirstPrevRel
			} else {
				next, prev = rel.SecondNextRel, rel.SecondPrevRel
			}
			if next != kernel.NoID {
				nrel, err := tx.LoadLightRelationship(next)
				require.NoError(t, err)
				var nprev kernel.RecordID
				if nrel.FirstNode == n {
					nprev = nrel.FirstPrevRel
				} else {
					nprev = nrel.SecondPrevRel
				}
				assert.Equal(t, cur, nprev, "symmetry: rel %d's next %d does not point back", cur, next)
			}
			_ = prev
			cur = next
		}
	}
}

func TestLoadPropertiesNonDestructive(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))

	_, err := tx.NodeAddProperty(id, 1, int64(42))
	require.NoError(t, err)

	props, err := tx.LoadProperties(kernel.OwnerRef{NodeID: id, RelID: kernel.NoID}, false)
	require.NoError(t, err)
	require.Contains(t, props, kernel.TypeID(1))
	assert.Equal(t, int64(42), props[1].Value)

	// A second read must see exactly the same data: LoadProperties never
	// mutates the chain the way deletePropertyChain does.
	props2, err := tx.LoadProperties(kernel.OwnerRef{NodeID: id, RelID: kernel.NoID}, false)
	require.NoError(t, err)
	assert.Equal(t, props, props2)

	node, err := tx.LoadLightNode(id)
	require.NoError(t, err)
	assert.NotEqual(t, kernel.NoID, node.NextProp)
}

// TestLoadPropertiesLightLeavesDynamicValuesUnresolved exercises a
// block the way a non-memory store backend would hand it back: the
// dynamic chain is known but the value was never eagerly decoded (no
// SetValue call), the shape loadProperties' light flag exists for.
func TestLoadPropertiesLightLeavesDynamicValuesUnresolved(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))

	dynID := stores.Properties.NextDynamicID()
	dyn := &kernel.DynamicRecord{ID: dynID, InUse: true, Kind: kernel.DynamicKindPropertyValue, Data: kernel.EncodeString("a string value"), Next: kernel.NoID}
	tx.dynamics[dynID] = &stagedDynamic{rec: dyn, created: true}

	propID := stores.Properties.NextID()
	block := kernel.PropertyBlock{InUse: true, KeyIndexID: 1, Type: kernel.PropertyTypeString, ValueChain: dynID, Light: true}
	rec := &kernel.PropertyRecord{ID: propID, InUse: true, PrevProp: kernel.NoID, NextProp: kernel.NoID, NodeID: id, RelID: kernel.NoID, Blocks: []kernel.PropertyBlock{block}}
	tx.props[propID] = &stagedProp{rec: rec, created: true}
	tx.nodes[id].rec.NextProp = propID

	light, err := tx.LoadProperties(kernel.OwnerRef{NodeID: id, RelID: kernel.NoID}, true)
	require.NoError(t, err)
	assert.Nil(t, light[1].Value)

	heavy, err := tx.LoadProperties(kernel.OwnerRef{NodeID: id, RelID: kernel.NoID}, false)
	require.NoError(t, err)
	assert.Equal(t, "a string value", heavy[1].Value)
}

// TestRollbackReturnsCreatedIDsToFreeList is testable property #4:
// create-then-rollback leaks nothing.
func TestRollbackReturnsCreatedIDsToFreeList(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)

	nodeID := stores.Nodes.NextID()
	relNode := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(nodeID))
	require.NoError(t, tx.NodeCreate(relNode))
	relID := stores.Relationships.NextID()
	require.NoError(t, tx.RelationshipCreate(relID, 0, nodeID, relNode))
	data, err := tx.NodeAddProperty(nodeID, 1, int64(1))
	require.NoError(t, err)
	propID := data.PropertyRecordID

	require.NoError(t, tx.Rollback())

	// Both created nodes go back to the free list; map iteration order
	// over the staging map isn't guaranteed, so check membership rather
	// than a specific pop order.
	freedNodes := []kernel.RecordID{stores.Nodes.NextID(), stores.Nodes.NextID()}
	assert.ElementsMatch(t, []kernel.RecordID{nodeID, relNode}, freedNodes)
	assert.Equal(t, relID, stores.Relationships.NextID())
	assert.Equal(t, propID, stores.Properties.NextID())
}

func TestRollbackIsIdempotent(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	id := stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(id))
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback())
}

func TestRelationshipCreateRejectsDeletedEndpoint(t *testing.T) {
	stores := newTestStores()
	tx := New(stores, nil, nil)
	n1, n2 := stores.Nodes.NextID(), stores.Nodes.NextID()
	require.NoError(t, tx.NodeCreate(n1))
	require.NoError(t, tx.NodeCreate(n2))
	_, err := tx.NodeDelete(n2)
	require.NoError(t, err)

	relID := stores.Relationships.NextID()
	err = tx.RelationshipCreate(relID, 0, n1, n2)
	assert.True(t, errors.Is(err, ErrIntegrityViolation))
}
