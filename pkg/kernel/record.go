// Package kernel implements NornicDB's low-level record store: the
// fixed-schema node, relationship, and property records that back the
// write-transaction engine in pkg/kernel/txn.
//
// This is the physical layer beneath pkg/storage's higher-level
// Node/Edge model. Where pkg/storage.Engine deals in whole graph
// entities, kernel deals in individually addressable records linked by
// RecordID so that a single property change or chain splice touches
// only the records it must.
package kernel

import "fmt"

// NoID is the sentinel "no record" pointer value, used in place of a
// nullable record id across every chain field (nextRel, nextProp,
// firstPrevRel, ...). It mirrors Neo4j's own convention of reserving
// -1 for "no such record" rather than introducing a separate
// has-pointer boolean per field.
const NoID int64 = -1

// NoID32 is the 32-bit analogue of NoID, used for property-index and
// relationship-type ids.
const NoID32 int32 = -1

// RecordID addresses a node, relationship, or property record.
type RecordID = int64

// TypeID addresses a property-index or relationship-type record.
type TypeID = int32

// NodeRecord is the physical record for a graph node.
//
// Invariant: if !InUse then NextRel == NoID. NextProp is either NoID
// or the head of a property chain this node owns.
type NodeRecord struct {
	ID       RecordID
	InUse    bool
	NextRel  RecordID
	NextProp RecordID
}

// Clone returns an independent copy so staging maps never alias a
// record another transaction (or the store) might still be holding.
func (n *NodeRecord) Clone() *NodeRecord {
	c := *n
	return &c
}

// RelationshipRecord is the physical record for a directed
// relationship between two nodes. Chain pointers form a doubly-linked
// list per endpoint: FirstPrevRel/FirstNextRel thread the list rooted
// at FirstNode, SecondPrevRel/SecondNextRel the list rooted at
// SecondNode. A self-loop (FirstNode == SecondNode) occupies both
// lists simultaneously and must be spliced on both sides independently.
type RelationshipRecord struct {
	ID            RecordID
	InUse         bool
	FirstNode     RecordID
	SecondNode    RecordID
	Type          TypeID
	FirstPrevRel  RecordID
	FirstNextRel  RecordID
	SecondPrevRel RecordID
	SecondNextRel RecordID
	NextProp      RecordID
}

// Clone returns an independent copy.
func (r *RelationshipRecord) Clone() *RelationshipRecord {
	c := *r
	return &c
}

// IsSelfLoop reports whether the relationship connects a node to itself.
func (r *RelationshipRecord) IsSelfLoop() bool {
	return r.FirstNode == r.SecondNode
}

// PropertyType enumerates the encodings a PropertyBlock may hold.
// STRING and ARRAY are never inlined; they live in a dynamic value
// chain and the block only carries the chain's head id.
type PropertyType uint8

const (
	PropertyTypeBool PropertyType = iota
	PropertyTypeByte
	PropertyTypeShort
	PropertyTypeInt
	PropertyTypeLong
	PropertyTypeFloat
	PropertyTypeDouble
	PropertyTypeString
	PropertyTypeArray
)

// IsDynamic reports whether values of this type live in a dynamic
// value chain rather than being packed inline into the block.
func (t PropertyType) IsDynamic() bool {
	return t == PropertyTypeString || t == PropertyTypeArray
}

// inlineBlockOverhead is the fixed per-block cost (key index + type tag
// + pointer bookkeeping) charged against payloadCap regardless of the
// value's own size, mirroring a record-store's fixed block header.
const inlineBlockOverhead = 9

// PropertyBlock is one key/value entry inside a PropertyRecord.
//
// InlineValue carries the raw encoded bytes for non-dynamic types.
// Light is true when Type.IsDynamic() and the ValueChain has not yet
// been loaded from the store.
type PropertyBlock struct {
	InUse      bool
	KeyIndexID TypeID
	Type       PropertyType
	Inline     []byte // encoded scalar value; empty for dynamic types until materialized
	ValueChain RecordID
	Light      bool // true => ValueChain not yet walked; dynamic value unknown
	value      any  // decoded scalar, or materialized string/array once loaded
}

// Size returns the number of payloadCap bytes this block occupies.
// Dynamic blocks are charged only the pointer-sized cost of the chain
// head; their backing dynamic records live outside the property
// record's own payload accounting.
func (b *PropertyBlock) Size() int {
	if b.Type.IsDynamic() {
		return inlineBlockOverhead + 8
	}
	return inlineBlockOverhead + len(b.Inline)
}

// Value returns the decoded scalar for non-dynamic blocks, or the
// already-materialized dynamic value. Callers must load the dynamic
// chain first (see txn.Transaction.loadPropertyValue) if Light is true.
func (b *PropertyBlock) Value() any { return b.value }

// SetValue assigns the decoded value, used by encode/decode helpers in
// dynamic.go and by the txn package after materializing a chain.
func (b *PropertyBlock) SetValue(v any) { b.value = v }

// PropertyRecord packs one or more PropertyBlocks up to payloadCap
// bytes and forms a singly-linked chain, headed by the owning
// primitive's NextProp pointer.
type PropertyRecord struct {
	ID       RecordID
	InUse    bool
	PrevProp RecordID
	NextProp RecordID

	// Exactly one of NodeID/RelID is set (>= 0) when the record is
	// linked to an owner; both are NoID for a record staged but not
	// yet attached (should not occur past Add()).
	NodeID RecordID
	RelID  RecordID

	Blocks []PropertyBlock
}

// Clone deep-copies the record, including its block slice, so the
// staging map and any caller-held reference never share backing arrays.
func (p *PropertyRecord) Clone() *PropertyRecord {
	c := *p
	c.Blocks = make([]PropertyBlock, len(p.Blocks))
	copy(c.Blocks, p.Blocks)
	return &c
}

// Size returns the total size, in payloadCap units, of the record's
// live (InUse) blocks.
func (p *PropertyRecord) Size() int {
	total := 0
	for i := range p.Blocks {
		if p.Blocks[i].InUse {
			total += p.Blocks[i].Size()
		}
	}
	return total
}

// LiveBlockCount returns the number of blocks still marked InUse.
func (p *PropertyRecord) LiveBlockCount() int {
	n := 0
	for i := range p.Blocks {
		if p.Blocks[i].InUse {
			n++
		}
	}
	return n
}

// OwnerRef identifies the primitive (node or relationship) a property
// chain is rooted on.
type OwnerRef struct {
	NodeID RecordID
	RelID  RecordID
}

// IsNode reports whether the owner is a node rather than a relationship.
func (o OwnerRef) IsNode() bool { return o.RelID == NoID }

func (o OwnerRef) String() string {
	if o.IsNode() {
		return fmt.Sprintf("node(%d)", o.NodeID)
	}
	return fmt.Sprintf("rel(%d)", o.RelID)
}

// PropertyIndexRecord names a property key. Once created, the name is
// immutable for the lifetime of the id.
type PropertyIndexRecord struct {
	ID         TypeID
	InUse      bool
	Name       string
	KeyChain   RecordID // head of the dynamic char chain backing Name
}

// Clone returns an independent copy.
func (p *PropertyIndexRecord) Clone() *PropertyIndexRecord {
	c := *p
	return &c
}

// RelationshipTypeRecord names a relationship type. Immutable once
// created, same as PropertyIndexRecord.
type RelationshipTypeRecord struct {
	ID       TypeID
	InUse    bool
	Name     string
	KeyChain RecordID
}

// Clone returns an independent copy.
func (r *RelationshipTypeRecord) Clone() *RelationshipTypeRecord {
	c := *r
	return &c
}

// DynamicRecordKind distinguishes the two dynamic chain payload shapes
// the engine materializes: opaque property values (string/array
// encodings) versus plain key-name characters (property index and
// relationship type names).
type DynamicRecordKind uint8

const (
	DynamicKindPropertyValue DynamicRecordKind = iota
	DynamicKindKeyName
)

// DynamicRecord is one fixed-size block in a dynamic value chain
// (GLOSSARY "Dynamic block / chain").
type DynamicRecord struct {
	ID    RecordID
	InUse bool
	Kind  DynamicRecordKind
	Data  []byte
	Next  RecordID // NoID if this is the chain's tail
}

// Clone returns an independent copy.
func (d *DynamicRecord) Clone() *DynamicRecord {
	c := *d
	c.Data = append([]byte(nil), d.Data...)
	return &c
}

// PropertyData is the caller-facing view of a single property value,
// returned by the engine's Add/Change/Remove and delete-chain
// operations so a higher layer can mirror the change into its own
// caches.
type PropertyData struct {
	KeyIndexID       TypeID
	PropertyRecordID RecordID
	Value            any
}
