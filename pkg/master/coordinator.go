package master

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/orneryd/nornicdb/pkg/kernel"
	"github.com/orneryd/nornicdb/pkg/kernel/cache"
	"github.com/orneryd/nornicdb/pkg/kernel/lock"
	"github.com/orneryd/nornicdb/pkg/kernel/txlog"
	"github.com/orneryd/nornicdb/pkg/kernel/txn"
)

// GrabSize is how many ids the coordinator reserves per allocation
// round-trip, so a busy slave doesn't need a fresh id for every
// created record.
const GrabSize = 1000

// IdleThreshold is how long a dispatched-but-inactive transaction may
// sit in the table before the reaper rolls it back.
const IdleThreshold = 30 * time.Second

// ReapInterval is how often the reaper sweeps the transaction table.
const ReapInterval = 5 * time.Second

var (
	// ErrUnknownSlave is returned when an operation references a
	// SlaveContext with no entry in the transaction table.
	ErrUnknownSlave = errors.New("master: unknown slave context")
	// ErrShuttingDown is returned by any dispatch issued after Shutdown.
	ErrShuttingDown = errors.New("master: coordinator is shutting down")
)

// LockStatus is the coarse outcome of a lock-acquisition RPC.
type LockStatus uint8

const (
	LockOK LockStatus = iota
	LockNotLocked
	LockDeadlock
)

// LockResult is what the coordinator returns for every lock RPC —
// deadlocks are reported here, not as a raised panic, so a slave can
// decide whether to retry or give up.
type LockResult struct {
	Status LockStatus
	Err    error
}

// IOFailureKind distinguishes a transient transport failure (worth
// retrying) from a durable log/store failure (it isn't).
type IOFailureKind uint8

const (
	IOFailureNone IOFailureKind = iota
	IOFailureRetryable
	IOFailureFatal
)

// IOFailure is the typed error commitSingleResourceTransaction returns
// instead of a bare error, so callers can branch on retryability.
type IOFailure struct {
	Kind IOFailureKind
	Err  error
}

func (f *IOFailure) Error() string { return fmt.Sprintf("master: io failure (%v): %v", f.Kind, f.Err) }
func (f *IOFailure) Unwrap() error { return f.Err }

type txEntry struct {
	mu             sync.Mutex
	tx             *txn.Transaction
	txID           lock.TxID
	releaser       *lock.Releaser
	lastActivityTs atomic.Int64 // unix nanos; 0 means "not currently suspended with pending work"
}

// idBatch is a simple [next, high) allocator for one id-type namespace.
type idBatch struct {
	mu   sync.Mutex
	next int64
	high int64
}

func (b *idBatch) allocate(grab int64, refill func() int64) (start, count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next >= b.high {
		b.next = refill()
		b.high = b.next + grab
	}
	start = b.next
	count = b.high - b.next
	b.next = b.high
	return start, count
}

// Coordinator is the master's write-path coordinator: one per running
// process, shared by every request a slave's RPC layer dispatches
// through it.
type Coordinator struct {
	mu    sync.Mutex
	table map[slaveIdentity]*txEntry

	stores  *kernel.Stores
	lockMgr *lock.Manager
	log     *txlog.Log
	cacheC  *cache.InvalidationCache

	nextTxn   atomic.Int64 // mints lock.TxID / commit-txId values
	seq       txn.CommitSequencer
	ids       map[string]*idBatch
	masterID  string               // this process's identity, returned by getMasterIdForCommittedTx
	committed []CommittedTransaction // in-memory replay buffer pullUpdates serves from

	tracer  trace.Tracer
	dispCnt metric.Int64Counter
	reapCnt metric.Int64Counter

	shuttingDown atomic.Bool
	stopReaper   chan struct{}
	reaperDone   chan struct{}
}

// New builds a Coordinator wired to stores, starting from
// lastCommittedTx, and starts its idle reaper. Call Shutdown to stop
// the reaper cleanly.
func New(stores *kernel.Stores, lockMgr *lock.Manager, wal *txlog.Log, cacheC *cache.InvalidationCache, lastCommittedTx int64) (*Coordinator, error) {
	meter := otel.Meter("github.com/orneryd/nornicdb/pkg/master")
	dispCnt, err := meter.Int64Counter("master_dispatch_total")
	if err != nil {
		return nil, fmt.Errorf("master: meter: %w", err)
	}
	reapCnt, err := meter.Int64Counter("master_reaped_total")
	if err != nil {
		return nil, fmt.Errorf("master: meter: %w", err)
	}

	c := &Coordinator{
		table:      make(map[slaveIdentity]*txEntry),
		stores:     stores,
		lockMgr:    lockMgr,
		log:        wal,
		cacheC:     cacheC,
		seq:        txn.NewSequencer(lastCommittedTx),
		ids:        make(map[string]*idBatch),
		masterID:   uuid.NewString(),
		tracer:     otel.Tracer("github.com/orneryd/nornicdb/pkg/master"),
		dispCnt:    dispCnt,
		reapCnt:    reapCnt,
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	go c.runReaper()
	return c, nil
}

// entryFor returns the table entry for ctx's identity, beginning a
// fresh transaction if none exists yet.
func (c *Coordinator) entryFor(ctx SlaveContext) *txEntry {
	key := ctx.identity()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.table[key]; ok {
		return e
	}
	txID := lock.TxID(c.nextTxn.Add(1))
	releaser := lock.NewReleaser(c.lockMgr, txID)
	tx := txn.New(c.stores, c.cacheC, releaser)
	tx.SetCommitSequencer(c.seq)
	e := &txEntry{
		tx:       tx,
		txID:     txID,
		releaser: releaser,
	}
	c.table[key] = e
	return e
}

func (c *Coordinator) dropEntry(ctx SlaveContext) {
	c.dropEntryByIdentity(ctx.identity())
}

// dropEntryByIdentity removes a table entry by its already-derived key,
// for callers (the reaper) that only ever see the map's key type and
// never reconstruct a full SlaveContext.
func (c *Coordinator) dropEntryByIdentity(key slaveIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.table, key)
}

// Dispatch runs fn against ctx's transaction under the dispatch
// discipline: resume-or-begin, execute with at most one in-flight
// call per slave context, record last-activity, suspend.
// Every dispatch is wrapped in a span so the coordinator's
// concurrency is directly observable in traces.
func (c *Coordinator) Dispatch(parent context.Context, ctx SlaveContext, fn func(*txn.Transaction) error) error {
	if c.shuttingDown.Load() {
		return ErrShuttingDown
	}
	correlationID := uuid.NewString()
	spanCtx, span := c.tracer.Start(parent, "master.dispatch", trace.WithAttributes(
		attribute.Int64("slave.session_id", ctx.SessionID),
		attribute.String("dispatch.correlation_id", correlationID),
	))
	defer span.End()

	e := c.entryFor(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.tx)
	e.lastActivityTs.Store(time.Now().UnixNano())
	c.dispCnt.Add(spanCtx, 1)
	if err != nil {
		log.Printf("master: dispatch %s failed for %s: %v", correlationID, ctx, err)
		span.RecordError(err)
	}
	return err
}

// AcquireNodeReadLock brokers a read lock on a node for ctx's
// transaction, registering it with that transaction's releaser.
func (c *Coordinator) AcquireNodeReadLock(ctx SlaveContext, nodeID int64) LockResult {
	return c.acquire(ctx, lock.Key{Kind: lock.KindNode, ID: nodeID}, lock.Read)
}

// AcquireNodeWriteLock brokers a write lock on a node.
func (c *Coordinator) AcquireNodeWriteLock(ctx SlaveContext, nodeID int64) LockResult {
	return c.acquire(ctx, lock.Key{Kind: lock.KindNode, ID: nodeID}, lock.Write)
}

// AcquireRelationshipReadLock brokers a read lock on a relationship.
func (c *Coordinator) AcquireRelationshipReadLock(ctx SlaveContext, relID int64) LockResult {
	return c.acquire(ctx, lock.Key{Kind: lock.KindRelationship, ID: relID}, lock.Read)
}

// AcquireRelationshipWriteLock brokers a write lock on a relationship.
func (c *Coordinator) AcquireRelationshipWriteLock(ctx SlaveContext, relID int64) LockResult {
	return c.acquire(ctx, lock.Key{Kind: lock.KindRelationship, ID: relID}, lock.Write)
}

func (c *Coordinator) acquire(ctx SlaveContext, key lock.Key, mode lock.Mode) LockResult {
	e := c.entryFor(ctx)
	var err error
	if mode == lock.Read {
		err = e.releaser.AcquireRead(key)
	} else {
		err = e.releaser.AcquireWrite(key)
	}
	if err == nil {
		return LockResult{Status: LockOK}
	}
	var dl *lock.DeadlockError
	if errors.As(err, &dl) {
		return LockResult{Status: LockDeadlock, Err: err}
	}
	return LockResult{Status: LockNotLocked, Err: err}
}

// AllocateIDs reserves a contiguous block of up to GrabSize ids for
// idType ("node", "relationship", "property", "propertyIndex",
// "relationshipType") so a slave can mint local ids between round
// trips to the master.
func (c *Coordinator) AllocateIDs(idType string) (start, count int64, err error) {
	c.mu.Lock()
	b, ok := c.ids[idType]
	if !ok {
		b = &idBatch{}
		c.ids[idType] = b
	}
	c.mu.Unlock()

	refill, err := c.refillFuncFor(idType)
	if err != nil {
		return 0, 0, err
	}
	s, n := b.allocate(GrabSize, refill)
	return s, n, nil
}

func (c *Coordinator) refillFuncFor(idType string) (func() int64, error) {
	switch idType {
	case "node":
		return func() int64 { return c.stores.Nodes.HighID() }, nil
	case "relationship":
		return func() int64 { return c.stores.Relationships.HighID() }, nil
	case "property":
		return func() int64 { return c.stores.Properties.HighID() }, nil
	default:
		return nil, fmt.Errorf("master: unknown id type %q", idType)
	}
}

// CreateRelationshipType registers a new relationship-type name
// directly against the store (outside any slave transaction, since
// names are global and immutable once minted).
func (c *Coordinator) CreateRelationshipType(name string) (kernel.TypeID, error) {
	id := c.stores.RelationshipTypes.NextID()
	if err := c.stores.RelationshipTypes.Update(&kernel.RelationshipTypeRecord{ID: id, InUse: true, Name: name, KeyChain: kernel.NoID}); err != nil {
		return 0, fmt.Errorf("master: create relationship type: %w", err)
	}
	return id, nil
}

// CreatePropertyIndex registers a new property-key name directly
// against the store, the same way CreateRelationshipType does for
// relationship-type names.
func (c *Coordinator) CreatePropertyIndex(name string) (kernel.TypeID, error) {
	id := c.stores.PropertyIndexes.NextID()
	if err := c.stores.PropertyIndexes.Update(&kernel.PropertyIndexRecord{ID: id, InUse: true, Name: name, KeyChain: kernel.NoID}); err != nil {
		return 0, fmt.Errorf("master: create property index: %w", err)
	}
	return id, nil
}

// CommitSingleResourceTransaction prepares and commits ctx's
// transaction against resourceName as commitTxID, returning the typed
// IO failure a caller can branch on instead of a bare error. A
// successful commit's command stream is appended to the in-memory
// replay buffer pullUpdates serves from.
func (c *Coordinator) CommitSingleResourceTransaction(ctx SlaveContext, resourceName string, commitTxID int64) (txID int64, previousTxID int64, err error) {
	e := c.entryFor(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tx.Prepare(c.log, commitTxID); err != nil {
		return 0, 0, &IOFailure{Kind: IOFailureFatal, Err: err}
	}
	if err := e.tx.Commit(commitTxID); err != nil {
		if errors.Is(err, txn.ErrOutOfOrderCommit) {
			return 0, 0, &IOFailure{Kind: IOFailureRetryable, Err: err}
		}
		return 0, 0, &IOFailure{Kind: IOFailureFatal, Err: err}
	}

	if cmds := e.tx.Commands(); len(cmds) > 0 {
		c.recordCommitted(resourceName, commitTxID, cmds)
	}
	c.dropEntry(ctx)
	return commitTxID, commitTxID - 1, nil
}

// CommittedTransaction is one entry in the stream pullUpdates
// returns: a committed write's prepared command set, tagged with the
// resource and txId it applies to, so a slave lagging behind can
// replay exactly what it's missing instead of re-copying the whole
// store.
type CommittedTransaction struct {
	ResourceName string
	TxID         int64
	Commands     []txn.Command
}

// recordCommitted appends a committed transaction to the replay
// buffer pullUpdates serves from.
func (c *Coordinator) recordCommitted(resourceName string, txID int64, cmds []txn.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, CommittedTransaction{ResourceName: resourceName, TxID: txID, Commands: cmds})
}

// PullUpdates returns every committed transaction for resourceName
// newer than ctx's last-applied txId for that resource, and ctx
// advanced to reflect them: the RPC response carrying "a stream of
// committed transactions the slave is missing."
func (c *Coordinator) PullUpdates(ctx SlaveContext, resourceName string) ([]CommittedTransaction, SlaveContext, error) {
	since := ctx.LastAppliedTx[resourceName]

	c.mu.Lock()
	var missing []CommittedTransaction
	for _, ct := range c.committed {
		if ct.ResourceName == resourceName && ct.TxID > since {
			missing = append(missing, ct)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return nil, ctx, nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].TxID < missing[j].TxID })

	next := cloneLastAppliedTx(ctx.LastAppliedTx)
	next[resourceName] = missing[len(missing)-1].TxID
	updated := SlaveContext{SessionID: ctx.SessionID, MachineID: ctx.MachineID, EventID: ctx.EventID, LastAppliedTx: next}
	return missing, updated, nil
}

// StoreSnapshot is the full-copy payload CopyStore streams to a slave
// bootstrapping from nothing, one serialized blob per store kind plus
// the txId the snapshot was taken as-of.
type StoreSnapshot struct {
	AsOfTxID          int64
	Nodes             []byte
	Relationships     []byte
	Properties        []byte
	PropertyIndexes   []byte
	RelationshipTypes []byte
}

// CopyStore streams the coordinator's entire current store state to w
// as a StoreSnapshot, for a slave with no local data to bootstrap
// from. The returned SlaveContext has LastAppliedTx[resourceName] set
// to AsOfTxID-1, not AsOfTxID: the snapshot and the commit watermark
// aren't captured atomically with each other, so the slave
// deliberately re-pulls the last transaction via PullUpdates
// afterward rather than risk treating a transaction the snapshot
// raced with as already applied.
func (c *Coordinator) CopyStore(ctx SlaveContext, resourceName string, w io.Writer) (SlaveContext, error) {
	c.mu.Lock()
	asOf := c.seq.Last()
	c.mu.Unlock()

	snap := StoreSnapshot{AsOfTxID: asOf}
	var err error
	if snap.Nodes, err = snapshotOf(c.stores.Nodes); err != nil {
		return ctx, fmt.Errorf("master: copy store: nodes: %w", err)
	}
	if snap.Relationships, err = snapshotOf(c.stores.Relationships); err != nil {
		return ctx, fmt.Errorf("master: copy store: relationships: %w", err)
	}
	if snap.Properties, err = snapshotOf(c.stores.Properties); err != nil {
		return ctx, fmt.Errorf("master: copy store: properties: %w", err)
	}
	if snap.PropertyIndexes, err = snapshotOf(c.stores.PropertyIndexes); err != nil {
		return ctx, fmt.Errorf("master: copy store: property indexes: %w", err)
	}
	if snap.RelationshipTypes, err = snapshotOf(c.stores.RelationshipTypes); err != nil {
		return ctx, fmt.Errorf("master: copy store: relationship types: %w", err)
	}
	if err := json.NewEncoder(w).Encode(&snap); err != nil {
		return ctx, fmt.Errorf("master: copy store: encode: %w", err)
	}

	next := cloneLastAppliedTx(ctx.LastAppliedTx)
	next[resourceName] = asOf - 1
	updated := SlaveContext{SessionID: ctx.SessionID, MachineID: ctx.MachineID, EventID: ctx.EventID, LastAppliedTx: next}
	return updated, nil
}

// snapshotOf type-asserts store to kernel.Snapshottable so CopyStore
// doesn't need five near-identical branches; every store this
// coordinator is built with is expected to implement it.
func snapshotOf(store any) ([]byte, error) {
	s, ok := store.(kernel.Snapshottable)
	if !ok {
		return nil, fmt.Errorf("store %T does not support snapshotting", store)
	}
	return s.Snapshot()
}

// GetMasterIDForCommittedTx reports which master instance committed
// txID, letting a slave detect whether its applied data came from a
// prior master epoch after an election. This coordinator only ever
// runs as a single master instance per process, so the answer is
// always its own masterID once txID is within the committed range,
// and an error otherwise.
func (c *Coordinator) GetMasterIDForCommittedTx(txID int64) (string, error) {
	c.mu.Lock()
	last := c.seq.Last()
	c.mu.Unlock()
	if txID < 0 || txID > last {
		return "", fmt.Errorf("master: tx %d was never committed by this master (last committed %d)", txID, last)
	}
	return c.masterID, nil
}

// RollbackSlaveTransaction discards ctx's staged work without
// committing anything, and drops its table entry.
func (c *Coordinator) RollbackSlaveTransaction(ctx SlaveContext) error {
	e := c.entryFor(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.tx.Rollback(); err != nil {
		return err
	}
	c.dropEntry(ctx)
	return nil
}

// Shutdown stops the reaper. It never rolls back outstanding
// transactions on its own — whatever is mid-flight is left for the
// next recovery pass to resolve from the logical log.
func (c *Coordinator) Shutdown() {
	if !c.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	close(c.stopReaper)
	<-c.reaperDone
	c.mu.Lock()
	pending := len(c.table)
	c.mu.Unlock()
	log.Printf("master: coordinator shut down (%d slave entries still in table)", pending)
}
