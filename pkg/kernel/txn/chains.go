package txn

import (
	"fmt"

	"github.com/orneryd/nornicdb/pkg/kernel"
)

// createRelationship splices a new relationship record onto the head
// of both endpoints' relationship chains. Splicing at the head keeps
// the operation O(1) regardless of how long either chain already is —
// the same shape as Neo4j's own RelationshipCreator, generalized here
// to also cover the self-loop case where both endpoints are the same
// node (GLOSSARY "Self-loop").
func (t *Transaction) createRelationship(id kernel.RecordID, typeID kernel.TypeID, firstNode, secondNode kernel.RecordID) error {
	fn, err := t.loadNode(firstNode)
	if err != nil {
		return fmt.Errorf("txn: create relationship %d: first node: %w", id, err)
	}
	if !fn.rec.InUse {
		return fmt.Errorf("%w: first node %d not in use", ErrIntegrityViolation, firstNode)
	}

	selfLoop := firstNode == secondNode
	var sn *stagedNode
	if !selfLoop {
		sn, err = t.loadNode(secondNode)
		if err != nil {
			return fmt.Errorf("txn: create relationship %d: second node: %w", id, err)
		}
		if !sn.rec.InUse {
			return fmt.Errorf("%w: second node %d not in use", ErrIntegrityViolation, secondNode)
		}
	}

	rec := &kernel.RelationshipRecord{
		ID:            id,
		InUse:         true,
		FirstNode:     firstNode,
		SecondNode:    secondNode,
		Type:          typeID,
		FirstPrevRel:  kernel.NoID, // new record always sits at the head of both chains
		SecondPrevRel: kernel.NoID,
		FirstNextRel:  kernel.NoID,
		SecondNextRel: kernel.NoID,
		NextProp:      kernel.NoID,
	}

	// Splice onto the first node's chain: new record's next is the old
	// head; the old head's prev-on-this-side becomes the new record.
	oldFirstHead := fn.rec.NextRel
	rec.FirstNextRel = oldFirstHead
	if oldFirstHead != kernel.NoID {
		if err := t.relinkNeighborPrev(oldFirstHead, firstNode, id); err != nil {
			return err
		}
	}
	fn.rec.NextRel = id

	if selfLoop {
		rec.SecondNextRel = rec.FirstNextRel
		rec.SecondPrevRel = kernel.NoID
	} else {
		oldSecondHead := sn.rec.NextRel
		rec.SecondNextRel = oldSecondHead
		if oldSecondHead != kernel.NoID {
			if err := t.relinkNeighborPrev(oldSecondHead, secondNode, id); err != nil {
				return err
			}
		}
		sn.rec.NextRel = id
	}

	t.rels[id] = &stagedRel{rec: rec, created: true}
	return nil
}

// relinkNeighborPrev points neighborID's prev-pointer on the side
// facing node back at newID. Both endpoints of neighborID are checked
// since the neighbor may have node as either its first or second
// endpoint (or both, if the neighbor is itself a self-loop).
func (t *Transaction) relinkNeighborPrev(neighborID, node, newID kernel.RecordID) error {
	sr, err := t.loadRel(neighborID)
	if err != nil {
		return fmt.Errorf("txn: relink neighbor %d: %w", neighborID, err)
	}
	touched := false
	if sr.rec.FirstNode == node {
		sr.rec.FirstPrevRel = newID
		touched = true
	}
	if sr.rec.SecondNode == node {
		sr.rec.SecondPrevRel = newID
		touched = true
	}
	if !touched {
		return fmt.Errorf("%w: relationship %d does not touch node %d", ErrCorruptChain, neighborID, node)
	}
	return nil
}

// unspliceRelationship removes rec from both endpoints' chains,
// patching each neighbor's pointer on the side facing the deleted
// record, and the owning node's chain head if rec was the head.
func (t *Transaction) unspliceRelationship(rec *kernel.RelationshipRecord) error {
	// A self-loop relationship still occupies two distinct slots in its
	// single node's chain — one reached via the "first" role, one via
	// the "second" — so both sides are always unspliced independently,
	// selfLoop or not.
	if err := t.unspliceSide(rec, rec.FirstNode, rec.FirstPrevRel, rec.FirstNextRel); err != nil {
		return err
	}
	return t.unspliceSide(rec, rec.SecondNode, rec.SecondPrevRel, rec.SecondNextRel)
}

func (t *Transaction) unspliceSide(rec *kernel.RelationshipRecord, node, prev, next kernel.RecordID) error {
	if prev != kernel.NoID {
		if err := t.relinkNeighborNext(prev, node, next); err != nil {
			return err
		}
	}
	if next != kernel.NoID {
		if err := t.relinkNeighborPrevValue(next, node, prev); err != nil {
			return err
		}
	}
	if prev == kernel.NoID {
		// rec was the chain head for node; advance the node's pointer.
		sn, err := t.loadNode(node)
		if err != nil {
			return fmt.Errorf("txn: unsplice: owner node %d: %w", node, err)
		}
		sn.rec.NextRel = next
	}
	return nil
}

func (t *Transaction) relinkNeighborNext(neighborID, node, newNext kernel.RecordID) error {
	sr, err := t.loadRel(neighborID)
	if err != nil {
		return fmt.Errorf("txn: relink neighbor %d: %w", neighborID, err)
	}
	touched := false
	if sr.rec.FirstNode == node {
		sr.rec.FirstNextRel = newNext
		touched = true
	}
	if sr.rec.SecondNode == node {
		sr.rec.SecondNextRel = newNext
		touched = true
	}
	if !touched {
		return fmt.Errorf("%w: relationship %d does not touch node %d", ErrCorruptChain, neighborID, node)
	}
	return nil
}

func (t *Transaction) relinkNeighborPrevValue(neighborID, node, newPrev kernel.RecordID) error {
	sr, err := t.loadRel(neighborID)
	if err != nil {
		return fmt.Errorf("txn: relink neighbor %d: %w", neighborID, err)
	}
	touched := false
	if sr.rec.FirstNode == node {
		sr.rec.FirstPrevRel = newPrev
		touched = true
	}
	if sr.rec.SecondNode == node {
		sr.rec.SecondPrevRel = newPrev
		touched = true
	}
	if !touched {
		return fmt.Errorf("%w: relationship %d does not touch node %d", ErrCorruptChain, neighborID, node)
	}
	return nil
}
