// Package txn implements the write-transaction engine: the component
// that stages node/relationship/property mutations in memory, writes
// a prepare record to the logical log, and then applies or discards
// the staged changes.
package txn

import "github.com/orneryd/nornicdb/pkg/kernel"

// CommandKind identifies which per-kind staging map a Command came from.
type CommandKind uint8

const (
	CommandRelationshipType CommandKind = iota
	CommandNode
	CommandRelationship
	CommandPropertyIndex
	CommandProperty
)

// ChangeKind classifies a command within its kind for commit ordering:
// created records apply before modified, modified before deleted.
type ChangeKind uint8

const (
	ChangeCreated ChangeKind = iota
	ChangeModified
	ChangeDeleted
)

// Command is a typed carrier of a single record mutation, appended to
// the logical log at prepare time and replayed at commit time
// (GLOSSARY "Command"). Every command embeds the enclosing record in
// full — including a deleted relationship's FirstNode/SecondNode —
// so a recovering engine can invalidate both endpoints unconditionally:
// the real endpoints travel with the command, so recovery invalidates
// exactly the two nodes that were actually connected.
type Command struct {
	Kind   CommandKind
	Change ChangeKind
	Key    int64 // record key used for the ascending sort within a sub-list

	Node             *kernel.NodeRecord
	Relationship     *kernel.RelationshipRecord
	Property         *kernel.PropertyRecord
	PropertyIndex    *kernel.PropertyIndexRecord
	RelationshipType *kernel.RelationshipTypeRecord

	// Dynamic value chain records touched by Property, included so a
	// replaying engine doesn't need a live store to resolve them.
	Dynamics []*kernel.DynamicRecord
}

// sortCommands orders a sub-list by record key ascending, the order
// required within each of the five prepare groups.
func sortCommands(cmds []Command) {
	// Small slices (one per staged record kind); insertion sort keeps
	// this allocation-free and avoids pulling in sort for a handful of
	// comparisons per prepare call.
	for i := 1; i < len(cmds); i++ {
		for j := i; j > 0 && cmds[j-1].Key > cmds[j].Key; j-- {
			cmds[j-1], cmds[j] = cmds[j], cmds[j-1]
		}
	}
}
