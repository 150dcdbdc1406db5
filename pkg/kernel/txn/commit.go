package txn

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/orneryd/nornicdb/pkg/kernel"
	"github.com/orneryd/nornicdb/pkg/kernel/cache"
	"github.com/orneryd/nornicdb/pkg/kernel/txlog"
)

// Commit applies every prepared command to the store in strict order:
// relationship-types, then property-indexes, then each of
// {properties, relationships, nodes} split into created, modified,
// and deleted groups (deletions applied properties-first so no
// record is ever written after something that depended on it was
// already removed). commitTxID must be exactly one greater than the
// store's lastCommittedTx or the commit is rejected outright and
// nothing is written.
func (t *Transaction) Commit(commitTxID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != statusPrepared {
		return ErrNotPrepared
	}
	if len(t.commands) == 0 {
		t.status = statusCommitted
		t.releaseLocks()
		return nil
	}
	if t.seq != nil {
		if !t.seq.Advance(commitTxID - 1) {
			return fmt.Errorf("%w: want %d", ErrOutOfOrderCommit, t.seq.Last()+1)
		}
	}

	if err := t.applyRelationshipTypes(); err != nil {
		return err
	}
	if err := t.applyPropertyIndexes(); err != nil {
		return err
	}
	for _, change := range []ChangeKind{ChangeCreated, ChangeModified} {
		if err := t.applyProperties(change); err != nil {
			return err
		}
		if err := t.applyRelationships(change); err != nil {
			return err
		}
		if err := t.applyNodes(change); err != nil {
			return err
		}
	}
	if err := t.applyProperties(ChangeDeleted); err != nil {
		return err
	}
	if err := t.applyRelationships(ChangeDeleted); err != nil {
		return err
	}
	if err := t.applyNodes(ChangeDeleted); err != nil {
		return err
	}

	t.status = statusCommitted
	t.releaseLocks()
	return nil
}

func (t *Transaction) releaseLocks() {
	if t.locks != nil {
		t.locks.ReleaseAll()
	}
}

func (t *Transaction) applyRelationshipTypes() error {
	for _, cmd := range t.commands {
		if cmd.Kind != CommandRelationshipType {
			continue
		}
		if err := t.stores.RelationshipTypes.Update(cmd.RelationshipType); err != nil {
			return fmt.Errorf("txn: commit relationship-type %d: %w", cmd.Key, err)
		}
	}
	return nil
}

func (t *Transaction) applyPropertyIndexes() error {
	for _, cmd := range t.commands {
		if cmd.Kind != CommandPropertyIndex {
			continue
		}
		if err := t.stores.PropertyIndexes.Update(cmd.PropertyIndex); err != nil {
			return fmt.Errorf("txn: commit property-index %d: %w", cmd.Key, err)
		}
	}
	return nil
}

func (t *Transaction) applyProperties(change ChangeKind) error {
	for _, cmd := range t.commands {
		if cmd.Kind != CommandProperty || cmd.Change != change {
			continue
		}
		for _, d := range cmd.Dynamics {
			if err := t.stores.Properties.UpdateDynamic(d); err != nil {
				return fmt.Errorf("txn: commit dynamic %d: %w", d.ID, err)
			}
		}
		if err := t.stores.Properties.Update(cmd.Property); err != nil {
			return fmt.Errorf("txn: commit property %d: %w", cmd.Key, err)
		}
	}
	return nil
}

func (t *Transaction) applyRelationships(change ChangeKind) error {
	for _, cmd := range t.commands {
		if cmd.Kind != CommandRelationship || cmd.Change != change {
			continue
		}
		if err := t.stores.Relationships.Update(cmd.Relationship); err != nil {
			return fmt.Errorf("txn: commit relationship %d: %w", cmd.Key, err)
		}
	}
	return nil
}

func (t *Transaction) applyNodes(change ChangeKind) error {
	for _, cmd := range t.commands {
		if cmd.Kind != CommandNode || cmd.Change != change {
			continue
		}
		if err := t.stores.Nodes.Update(cmd.Node); err != nil {
			return fmt.Errorf("txn: commit node %d: %w", cmd.Key, err)
		}
	}
	return nil
}

// Rollback discards every staged change without writing to the store.
// Ids allocated for records this transaction created (nodes,
// relationships, properties, and their dynamic chains) are returned to
// the store's free list; property-index and relationship-type ids are
// never freed since their names must stay immutable for the id's
// lifetime even if the create that minted them is undone. Safe to call
// on an already-rolled-back transaction.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == statusRolledBack || t.status == statusCommitted {
		return nil
	}

	for id, sn := range t.nodes {
		if sn.created {
			t.stores.Nodes.FreeID(id)
		}
		t.invalidate(cache.KindNode, id)
	}
	for id, sr := range t.rels {
		if sr.created {
			t.stores.Relationships.FreeID(id)
		}
		t.invalidate(cache.KindRelationship, id)
	}
	for id, sp := range t.props {
		if sp.created {
			t.stores.Properties.FreeID(id)
		}
	}
	for id, sd := range t.dynamics {
		if sd.created {
			t.stores.Properties.FreeDynamicID(id)
		}
	}

	t.status = statusRolledBack
	t.commands = nil
	t.releaseLocks()
	return nil
}

// InjectCommand applies a single already-prepared command directly to
// the store, bypassing the staging maps entirely. Used only by log
// recovery, which replays a prior transaction's already-ordered
// command stream rather than re-deriving one from scratch.
func (t *Transaction) InjectCommand(cmd Command, invalidate func(kind cacheKindAlias, id int64)) error {
	switch cmd.Kind {
	case CommandRelationshipType:
		return t.stores.RelationshipTypes.Update(cmd.RelationshipType)
	case CommandPropertyIndex:
		return t.stores.PropertyIndexes.Update(cmd.PropertyIndex)
	case CommandProperty:
		for _, d := range cmd.Dynamics {
			if err := t.stores.Properties.UpdateDynamic(d); err != nil {
				return err
			}
		}
		return t.stores.Properties.Update(cmd.Property)
	case CommandRelationship:
		if cmd.Change == ChangeDeleted && invalidate != nil {
			invalidate(cacheKindNode, cmd.Relationship.FirstNode)
			invalidate(cacheKindNode, cmd.Relationship.SecondNode)
		}
		return t.stores.Relationships.Update(cmd.Relationship)
	case CommandNode:
		if cmd.Change == ChangeDeleted && invalidate != nil {
			invalidate(cacheKindNode, cmd.Key)
		}
		return t.stores.Nodes.Update(cmd.Node)
	default:
		return fmt.Errorf("txn: recover: unknown command kind %d", cmd.Kind)
	}
}

// cacheKindAlias mirrors cache.EntityKind without importing the cache
// package here, so recovery can run against stores that were opened
// before any cache exists.
type cacheKindAlias uint8

const (
	cacheKindNode cacheKindAlias = iota
	cacheKindRelationship
)

// recoveryKindOrder is the apply order Recover uses, which is distinct
// from both the normal commit order (relationship-types, property-
// indexes, then properties/relationships/nodes by change kind) and
// the order commands are written to the log at prepare time
// (relationship-types, nodes, relationships, property-indexes,
// properties): property-indexes and properties first establishes every
// name and value a record might reference, then relationship-types,
// then relationships, then nodes last.
var recoveryKindOrder = map[CommandKind]int{
	CommandPropertyIndex:    0,
	CommandProperty:         1,
	CommandRelationshipType: 2,
	CommandRelationship:     3,
	CommandNode:             4,
}

// orderForRecovery returns cmds reordered for replay, stable within
// each kind so same-kind commands keep their original relative order.
func orderForRecovery(cmds []Command) []Command {
	ordered := make([]Command, len(cmds))
	copy(ordered, cmds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return recoveryKindOrder[ordered[i].Kind] < recoveryKindOrder[ordered[j].Kind]
	})
	return ordered
}

// Recover rebuilds store state by replaying every prepare record in
// the logical log, reordering each record's commands into recovery
// order before applying them, and returns the reconstructed
// lastCommittedTx so the caller can wire up a CommitSequencer for
// subsequent live transactions.
func Recover(stores *kernel.Stores, log string, invalidate func(kind cacheKindAlias, id int64)) (int64, error) {
	var lastTx int64
	recoverTx := New(stores, nil, nil)
	recoverTx.fromLog = true

	err := txlog.Replay(log, func(txID int64, payload json.RawMessage) error {
		var cmds []Command
		if err := json.Unmarshal(payload, &cmds); err != nil {
			return fmt.Errorf("txn: recover: decode tx %d: %w", txID, err)
		}
		for _, cmd := range orderForRecovery(cmds) {
			if err := recoverTx.InjectCommand(cmd, invalidate); err != nil {
				return fmt.Errorf("txn: recover: apply tx %d: %w", txID, err)
			}
		}
		if txID > lastTx {
			lastTx = txID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return lastTx, nil
}
