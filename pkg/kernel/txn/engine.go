package txn

import (
	"errors"
	"fmt"
	"sync"

	"github.com/orneryd/nornicdb/pkg/kernel"
	"github.com/orneryd/nornicdb/pkg/kernel/cache"
	"github.com/orneryd/nornicdb/pkg/kernel/lock"
)

// Engine error kinds.
var (
	ErrIntegrityViolation = errors.New("txn: integrity violation")
	ErrAlreadyDeleted     = errors.New("txn: already deleted")
	ErrMissingBlock       = errors.New("txn: property block not found")
	ErrAlreadyPrepared    = errors.New("txn: already prepared")
	ErrNotPrepared        = errors.New("txn: not prepared")
	ErrOutOfOrderCommit   = errors.New("txn: commit id out of sequence")
	ErrCorruptChain       = errors.New("txn: relationship chain corruption")
	ErrReadOnlyCommit     = errors.New("txn: read-only transaction has nothing to commit")
)

// payloadCap is the default maximum total size, in PropertyBlock.Size
// units, of the live blocks packed into one PropertyRecord.
const defaultPayloadCap = 128

type stagedNode struct {
	rec     *kernel.NodeRecord
	created bool
}

type stagedRel struct {
	rec     *kernel.RelationshipRecord
	created bool
}

type stagedProp struct {
	rec     *kernel.PropertyRecord
	created bool
}

type stagedPropIndex struct {
	rec     *kernel.PropertyIndexRecord
	created bool
}

type stagedRelType struct {
	rec     *kernel.RelationshipTypeRecord
	created bool
}

type stagedDynamic struct {
	rec     *kernel.DynamicRecord
	created bool
}

// status is the transaction's lifecycle state.
type status uint8

const (
	statusActive status = iota
	statusPrepared
	statusCommitted
	statusRolledBack
)

// CommitSequencer is the shared, thread-safe "lastCommittedTx" counter
// every transaction against the same stores must agree on.
type CommitSequencer interface {
	// Last returns the most recently committed txId.
	Last() int64
	// Advance moves the counter from expect to expect+1, returning
	// false if another commit already advanced past it.
	Advance(expect int64) bool
}

// Transaction is the write-transaction engine. One Transaction
// stages all mutations for a single logical unit of work; nothing
// outside observes its staging maps or command list until after
// Prepare.
type Transaction struct {
	mu sync.Mutex

	stores      *kernel.Stores
	invalidator cache.Invalidator
	locks       *lock.Releaser
	payloadCap  int

	status status

	nodes       map[kernel.RecordID]*stagedNode
	rels        map[kernel.RecordID]*stagedRel
	props       map[kernel.RecordID]*stagedProp
	propIndexes map[kernel.TypeID]*stagedPropIndex
	relTypes    map[kernel.TypeID]*stagedRelType
	dynamics    map[kernel.RecordID]*stagedDynamic

	commands []Command // built by Prepare, replayed by Commit
	seq      CommitSequencer

	// recovery path: filled by InjectCommand instead of Stage+Prepare.
	fromLog bool
}

// SetCommitSequencer binds the shared lastCommittedTx counter this
// transaction's Commit must check against. Transactions created
// without one (e.g. standalone tests) skip the ordering check.
func (t *Transaction) SetCommitSequencer(seq CommitSequencer) { t.seq = seq }

// sequencer is a trivial in-process CommitSequencer, the default a
// store wires up when nothing else shares its commit counter.
type sequencer struct {
	mu   sync.Mutex
	last int64
}

// NewSequencer returns a CommitSequencer starting at lastCommittedTx.
func NewSequencer(lastCommittedTx int64) CommitSequencer {
	return &sequencer{last: lastCommittedTx}
}

func (s *sequencer) Last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *sequencer) Advance(expect int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != expect {
		return false
	}
	s.last = expect + 1
	return true
}

// New begins a write transaction against stores. invalidator and
// locks may be nil for read-only/offline use (e.g. recovery replay
// before a cache or lock manager exists).
func New(stores *kernel.Stores, invalidator cache.Invalidator, locks *lock.Releaser) *Transaction {
	return &Transaction{
		stores:      stores,
		invalidator: invalidator,
		locks:       locks,
		payloadCap:  defaultPayloadCap,
		nodes:       make(map[kernel.RecordID]*stagedNode),
		rels:        make(map[kernel.RecordID]*stagedRel),
		props:       make(map[kernel.RecordID]*stagedProp),
		propIndexes: make(map[kernel.TypeID]*stagedPropIndex),
		relTypes:    make(map[kernel.TypeID]*stagedRelType),
		dynamics:    make(map[kernel.RecordID]*stagedDynamic),
	}
}

// SetPayloadCap overrides the default property-record payload cap.
// Must be called before any Add.
func (t *Transaction) SetPayloadCap(n int) { t.payloadCap = n }

// Commands returns a copy of the prepared command stream. Valid after
// Prepare; empty before it. Used by the master coordinator to feed
// its pullUpdates replay buffer with exactly what a commit applied,
// without re-deriving the command set from the logical log.
func (t *Transaction) Commands() []Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// IsReadOnly reports whether the transaction has staged any mutation.
func (t *Transaction) IsReadOnly() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes) == 0 && len(t.rels) == 0 && len(t.props) == 0 &&
		len(t.propIndexes) == 0 && len(t.relTypes) == 0
}

// --- staging-map-first reads ---

func (t *Transaction) loadNode(id kernel.RecordID) (*stagedNode, error) {
	if sn, ok := t.nodes[id]; ok {
		return sn, nil
	}
	rec, err := t.stores.Nodes.Get(id)
	if err != nil {
		return nil, err
	}
	sn := &stagedNode{rec: rec}
	t.nodes[id] = sn
	return sn, nil
}

func (t *Transaction) loadRel(id kernel.RecordID) (*stagedRel, error) {
	if sr, ok := t.rels[id]; ok {
		return sr, nil
	}
	rec, err := t.stores.Relationships.Get(id)
	if err != nil {
		return nil, err
	}
	sr := &stagedRel{rec: rec}
	t.rels[id] = sr
	return sr, nil
}

func (t *Transaction) loadProp(id kernel.RecordID) (*stagedProp, error) {
	if sp, ok := t.props[id]; ok {
		return sp, nil
	}
	rec, err := t.stores.Properties.Get(id)
	if err != nil {
		return nil, err
	}
	sp := &stagedProp{rec: rec}
	t.props[id] = sp
	return sp, nil
}

func (t *Transaction) loadPropIndex(id kernel.TypeID) (*stagedPropIndex, error) {
	if si, ok := t.propIndexes[id]; ok {
		return si, nil
	}
	rec, err := t.stores.PropertyIndexes.Get(id)
	if err != nil {
		return nil, err
	}
	si := &stagedPropIndex{rec: rec}
	t.propIndexes[id] = si
	return si, nil
}

func (t *Transaction) loadRelType(id kernel.TypeID) (*stagedRelType, error) {
	if st, ok := t.relTypes[id]; ok {
		return st, nil
	}
	rec, err := t.stores.RelationshipTypes.Get(id)
	if err != nil {
		return nil, err
	}
	st := &stagedRelType{rec: rec}
	t.relTypes[id] = st
	return st, nil
}

func (t *Transaction) loadDynamic(id kernel.RecordID) (*stagedDynamic, error) {
	if sd, ok := t.dynamics[id]; ok {
		return sd, nil
	}
	rec, err := t.stores.Properties.GetDynamic(id)
	if err != nil {
		return nil, err
	}
	sd := &stagedDynamic{rec: rec}
	t.dynamics[id] = sd
	return sd, nil
}

func (t *Transaction) requireActive() error {
	if t.status != statusActive {
		return fmt.Errorf("txn: transaction is not active (status %d)", t.status)
	}
	return nil
}

// --- node lifecycle ---

// NodeCreate stages a new node record, allocating id's slot.
func (t *Transaction) NodeCreate(id kernel.RecordID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	t.nodes[id] = &stagedNode{
		rec:     &kernel.NodeRecord{ID: id, InUse: true, NextRel: kernel.NoID, NextProp: kernel.NoID},
		created: true,
	}
	return nil
}

// NodeDelete stages a node's deletion, returning every live property
// it carried (keyed by property-index id) for the caller to mirror
// into higher-level caches. Fails with
// ErrIntegrityViolation if the node still has a relationship chain —
// callers must delete every incident relationship first.
func (t *Transaction) NodeDelete(id kernel.RecordID) (map[kernel.TypeID]kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return nil, err
	}
	sn, err := t.loadNode(id)
	if err != nil {
		return nil, err
	}
	if !sn.rec.InUse {
		return nil, ErrAlreadyDeleted
	}
	if sn.rec.NextRel != kernel.NoID {
		return nil, fmt.Errorf("%w: node %d still has relationships", ErrIntegrityViolation, id)
	}

	props, err := t.deletePropertyChain(sn.rec.NextProp)
	if err != nil {
		return nil, err
	}
	sn.rec.InUse = false
	sn.rec.NextRel = kernel.NoID
	sn.rec.NextProp = kernel.NoID
	t.invalidate(cache.KindNode, id)
	return props, nil
}

// LoadLightNode returns the current (possibly staged) node record
// without materializing its property chain.
func (t *Transaction) LoadLightNode(id kernel.RecordID) (*kernel.NodeRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sn, err := t.loadNode(id)
	if err != nil {
		return nil, err
	}
	return sn.rec.Clone(), nil
}

// --- relationship lifecycle ---

// RelationshipCreate stages a new relationship and splices it into
// both endpoints' chains.
func (t *Transaction) RelationshipCreate(id kernel.RecordID, typeID kernel.TypeID, firstNode, secondNode kernel.RecordID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	return t.createRelationship(id, typeID, firstNode, secondNode)
}

// RelDelete stages a relationship's deletion, un-splicing it from both
// endpoint chains and returning its live properties.
func (t *Transaction) RelDelete(id kernel.RecordID) (map[kernel.TypeID]kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return nil, err
	}
	sr, err := t.loadRel(id)
	if err != nil {
		return nil, err
	}
	if !sr.rec.InUse {
		return nil, ErrAlreadyDeleted
	}

	props, err := t.deletePropertyChain(sr.rec.NextProp)
	if err != nil {
		return nil, err
	}
	if err := t.unspliceRelationship(sr.rec); err != nil {
		return nil, err
	}
	sr.rec.InUse = false
	sr.rec.NextProp = kernel.NoID
	t.invalidate(cache.KindRelationship, id)
	return props, nil
}

// LoadLightRelationship returns the current (possibly staged)
// relationship record.
func (t *Transaction) LoadLightRelationship(id kernel.RecordID) (*kernel.RelationshipRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sr, err := t.loadRel(id)
	if err != nil {
		return nil, err
	}
	return sr.rec.Clone(), nil
}

// LoadProperties returns a non-destructive snapshot of owner's current
// property chain, keyed by property-index id, for in-tx reads that
// must not disturb the chain the way deletePropertyChain does. When
// light is true, dynamic (STRING/ARRAY) values are left unresolved
// (Value is nil) so callers enumerating keys don't pay to page in
// every large value; pass light=false to materialize everything.
func (t *Transaction) LoadProperties(owner kernel.OwnerRef, light bool) (map[kernel.TypeID]kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return nil, err
	}
	var head kernel.RecordID
	if owner.IsNode() {
		sn, err := t.loadNode(owner.NodeID)
		if err != nil {
			return nil, err
		}
		head = sn.rec.NextProp
	} else {
		sr, err := t.loadRel(owner.RelID)
		if err != nil {
			return nil, err
		}
		head = sr.rec.NextProp
	}
	return t.loadProperties(head, light)
}

// --- naming tables ---

// CreateRelationshipType stages a new relationship-type name. Once
// created, a type's name is immutable for the lifetime of its id.
func (t *Transaction) CreateRelationshipType(id kernel.TypeID, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	t.relTypes[id] = &stagedRelType{
		rec:     &kernel.RelationshipTypeRecord{ID: id, InUse: true, Name: name, KeyChain: kernel.NoID},
		created: true,
	}
	return nil
}

// CreatePropertyIndex stages a new property-key name.
func (t *Transaction) CreatePropertyIndex(key string, id kernel.TypeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	t.propIndexes[id] = &stagedPropIndex{
		rec:     &kernel.PropertyIndexRecord{ID: id, InUse: true, Name: key, KeyChain: kernel.NoID},
		created: true,
	}
	return nil
}

func (t *Transaction) invalidate(kind cache.EntityKind, id kernel.RecordID) {
	if t.invalidator != nil {
		t.invalidator.Invalidate(kind, id)
	}
}
