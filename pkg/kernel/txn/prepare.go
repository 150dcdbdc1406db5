package txn

import (
	"fmt"

	"github.com/orneryd/nornicdb/pkg/kernel"
	"github.com/orneryd/nornicdb/pkg/kernel/txlog"
)

// Prepare synthesizes the ordered command stream from every staged
// mutation, runs the integrity checks that must hold before any store
// write, dispatches cache invalidation for everything moving to
// !InUse, and appends the resulting stream to the logical log.
// Calling Prepare twice, or after Commit/Rollback, fails.
func (t *Transaction) Prepare(log *txlog.Log, txID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != statusActive {
		return ErrAlreadyPrepared
	}

	if err := t.checkIntegrity(); err != nil {
		return err
	}

	var cmds []Command
	cmds = append(cmds, t.relationshipTypeCommands()...)
	cmds = append(cmds, t.nodeCommands()...)
	cmds = append(cmds, t.relationshipCommands()...)
	cmds = append(cmds, t.propertyIndexCommands()...)
	cmds = append(cmds, t.propertyCommands()...)

	if log != nil {
		if _, err := log.Append(txID, cmds); err != nil {
			return fmt.Errorf("txn: prepare: %w", err)
		}
	}

	t.commands = cmds
	t.status = statusPrepared
	return nil
}

// checkIntegrity enforces the structural invariants that must hold
// across every staged record before a transaction may commit: a node or relationship marked !InUse can't still
// head a chain, and a deleted relationship's endpoints must exist.
func (t *Transaction) checkIntegrity() error {
	for id, sn := range t.nodes {
		if !sn.rec.InUse && sn.rec.NextRel != kernel.NoID {
			return fmt.Errorf("%w: node %d marked deleted but NextRel=%d", ErrIntegrityViolation, id, sn.rec.NextRel)
		}
		if !sn.rec.InUse && sn.rec.NextProp != kernel.NoID {
			return fmt.Errorf("%w: node %d marked deleted but NextProp=%d", ErrIntegrityViolation, id, sn.rec.NextProp)
		}
	}
	for id, sr := range t.rels {
		if !sr.rec.InUse && sr.rec.NextProp != kernel.NoID {
			return fmt.Errorf("%w: relationship %d marked deleted but NextProp=%d", ErrIntegrityViolation, id, sr.rec.NextProp)
		}
	}
	return nil
}

func changeKindFor(created, inUse bool) ChangeKind {
	switch {
	case created:
		return ChangeCreated
	case !inUse:
		return ChangeDeleted
	default:
		return ChangeModified
	}
}

func (t *Transaction) relationshipTypeCommands() []Command {
	var cmds []Command
	for id, st := range t.relTypes {
		cmds = append(cmds, Command{
			Kind:             CommandRelationshipType,
			Change:           changeKindFor(st.created, st.rec.InUse),
			Key:              int64(id),
			RelationshipType: st.rec.Clone(),
		})
	}
	sortCommands(cmds)
	return cmds
}

func (t *Transaction) propertyIndexCommands() []Command {
	var cmds []Command
	for id, si := range t.propIndexes {
		cmds = append(cmds, Command{
			Kind:          CommandPropertyIndex,
			Change:        changeKindFor(si.created, si.rec.InUse),
			Key:           int64(id),
			PropertyIndex: si.rec.Clone(),
		})
	}
	sortCommands(cmds)
	return cmds
}

func (t *Transaction) nodeCommands() []Command {
	var cmds []Command
	for id, sn := range t.nodes {
		cmds = append(cmds, Command{
			Kind:   CommandNode,
			Change: changeKindFor(sn.created, sn.rec.InUse),
			Key:    id,
			Node:   sn.rec.Clone(),
		})
	}
	sortCommands(cmds)
	return cmds
}

func (t *Transaction) relationshipCommands() []Command {
	var cmds []Command
	for id, sr := range t.rels {
		cmds = append(cmds, Command{
			Kind:         CommandRelationship,
			Change:       changeKindFor(sr.created, sr.rec.InUse),
			Key:          id,
			Relationship: sr.rec.Clone(),
		})
	}
	sortCommands(cmds)
	return cmds
}

func (t *Transaction) propertyCommands() []Command {
	var cmds []Command
	for id, sp := range t.props {
		dyn := t.dynamicsFor(sp.rec)
		cmds = append(cmds, Command{
			Kind:     CommandProperty,
			Change:   changeKindFor(sp.created, sp.rec.InUse),
			Key:      id,
			Property: sp.rec.Clone(),
			Dynamics: dyn,
		})
	}
	sortCommands(cmds)
	return cmds
}

// dynamicsFor collects every staged dynamic record reachable from
// rec's blocks, so a recovering reader never needs a live store to
// resolve a property's dynamic chain.
func (t *Transaction) dynamicsFor(rec *kernel.PropertyRecord) []*kernel.DynamicRecord {
	var out []*kernel.DynamicRecord
	for _, b := range rec.Blocks {
		if !b.Type.IsDynamic() || b.ValueChain == kernel.NoID {
			continue
		}
		for cur := b.ValueChain; cur != kernel.NoID; {
			sd, ok := t.dynamics[cur]
			if !ok {
				break
			}
			out = append(out, sd.rec.Clone())
			cur = sd.rec.Next
		}
	}
	return out
}
