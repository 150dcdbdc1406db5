package kernel

import "errors"

// ErrNotFound is returned by a store's Get when no record exists for
// the requested id. It is distinct from a record existing with
// InUse == false, which callers must check for explicitly (see
// Transaction.AlreadyDeleted checks in pkg/kernel/txn).
var ErrNotFound = errors.New("kernel: record not found")

// NodeStore is the store surface for node records. The page store and
// free-list that back it are an external collaborator — this interface is the contract the write-transaction
// engine depends on, not an implementation requirement.
type NodeStore interface {
	Get(id RecordID) (*NodeRecord, error)
	Update(rec *NodeRecord) error
	NextID() RecordID
	FreeID(id RecordID)
	HighID() RecordID
}

// RelationshipStore is the store surface for relationship records.
type RelationshipStore interface {
	Get(id RecordID) (*RelationshipRecord, error)
	Update(rec *RelationshipRecord) error
	NextID() RecordID
	FreeID(id RecordID)
	HighID() RecordID
}

// PropertyStore is the store surface for property records plus their
// companion dynamic value chains.
type PropertyStore interface {
	Get(id RecordID) (*PropertyRecord, error)
	Update(rec *PropertyRecord) error
	NextID() RecordID
	FreeID(id RecordID)
	HighID() RecordID

	GetDynamic(id RecordID) (*DynamicRecord, error)
	UpdateDynamic(rec *DynamicRecord) error
	NextDynamicID() RecordID
	FreeDynamicID(id RecordID)
}

// PropertyIndexStore is the store surface for property-key names.
type PropertyIndexStore interface {
	Get(id TypeID) (*PropertyIndexRecord, error)
	Update(rec *PropertyIndexRecord) error
	NextID() TypeID
	IDForName(name string) (TypeID, bool)
}

// RelationshipTypeStore is the store surface for relationship-type names.
type RelationshipTypeStore interface {
	Get(id TypeID) (*RelationshipTypeRecord, error)
	Update(rec *RelationshipTypeRecord) error
	NextID() TypeID
	IDForName(name string) (TypeID, bool)
}

// Stores bundles the five per-kind store collaborators the engine
// depends on. A Transaction is constructed against
// one Stores value; nothing in pkg/kernel/txn reaches outside it.
type Stores struct {
	Nodes             NodeStore
	Relationships     RelationshipStore
	Properties        PropertyStore
	PropertyIndexes   PropertyIndexStore
	RelationshipTypes RelationshipTypeStore
}

// Snapshottable is optionally implemented by a concrete store backing
// one of the Stores fields, so a full store copy (the master
// coordinator's copyStore RPC) can serialize and later restore its
// entire contents as an opaque blob without the Store interfaces
// above needing an iteration method every implementation must carry.
// The in-memory stores in memstore.go all implement it; a page-store
// backed implementation may choose a different bulk-copy mechanism
// and simply not implement this interface.
type Snapshottable interface {
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}
