package kernel

import (
	"encoding/json"
	"sync"
	"sync/atomic"
)

// idGenerator hands out monotonically increasing 64-bit ids and
// recycles freed ones from a LIFO free list, mirroring the external
// page-store/free-list collaborator a persistent store backs this
// interface with.
type idGenerator struct {
	mu       sync.Mutex
	highID   RecordID
	freeList []RecordID
}

func (g *idGenerator) next() RecordID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := len(g.freeList); n > 0 {
		id := g.freeList[n-1]
		g.freeList = g.freeList[:n-1]
		return id
	}
	id := g.highID
	g.highID++
	return id
}

func (g *idGenerator) free(id RecordID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freeList = append(g.freeList, id)
}

func (g *idGenerator) high() RecordID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.highID
}

// seed raises highID to at least n, used after Restore replaces a
// store's record map wholesale so subsequent NextID calls never
// collide with a copied-in id.
func (g *idGenerator) seed(n RecordID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.highID {
		g.highID = n
	}
	g.freeList = nil
}

// idGenerator32 is the 32-bit analogue used for property-index and
// relationship-type ids, which are never freed (names are immutable
// for the id's lifetime, so there is nothing to recycle).
type idGenerator32 struct {
	next atomic.Int32
}

func (g *idGenerator32) nextID() TypeID {
	return TypeID(g.next.Add(1) - 1)
}

// seed raises the generator past n, same purpose as idGenerator.seed.
func (g *idGenerator32) seed(n TypeID) {
	for {
		cur := g.next.Load()
		if cur > int32(n) {
			return
		}
		if g.next.CompareAndSwap(cur, int32(n)+1) {
			return
		}
	}
}

// MemoryNodeStore is an in-memory NodeStore, suitable for tests and
// for the recovery/replay path before a real page store is wired in.
type MemoryNodeStore struct {
	mu   sync.RWMutex
	ids  idGenerator
	recs map[RecordID]*NodeRecord
}

// NewMemoryNodeStore returns an empty MemoryNodeStore.
func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{recs: make(map[RecordID]*NodeRecord)}
}

func (s *MemoryNodeStore) Get(id RecordID) (*NodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryNodeStore) Update(rec *NodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryNodeStore) NextID() RecordID { return s.ids.next() }
func (s *MemoryNodeStore) FreeID(id RecordID) {
	s.mu.Lock()
	delete(s.recs, id)
	s.mu.Unlock()
	s.ids.free(id)
}
func (s *MemoryNodeStore) HighID() RecordID { return s.ids.high() }

// Snapshot returns every record as a JSON-encoded map, for a full
// store copy.
func (s *MemoryNodeStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.recs)
}

// Restore replaces the store's contents with data from a prior
// Snapshot and advances the id generator past the highest id seen.
func (s *MemoryNodeStore) Restore(data []byte) error {
	recs := make(map[RecordID]*NodeRecord)
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	var maxID RecordID = -1
	for id := range recs {
		if id > maxID {
			maxID = id
		}
	}
	s.mu.Lock()
	s.recs = recs
	s.mu.Unlock()
	s.ids.seed(maxID + 1)
	return nil
}

// MemoryRelationshipStore is an in-memory RelationshipStore.
type MemoryRelationshipStore struct {
	mu   sync.RWMutex
	ids  idGenerator
	recs map[RecordID]*RelationshipRecord
}

// NewMemoryRelationshipStore returns an empty MemoryRelationshipStore.
func NewMemoryRelationshipStore() *MemoryRelationshipStore {
	return &MemoryRelationshipStore{recs: make(map[RecordID]*RelationshipRecord)}
}

func (s *MemoryRelationshipStore) Get(id RecordID) (*RelationshipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryRelationshipStore) Update(rec *RelationshipRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryRelationshipStore) NextID() RecordID { return s.ids.next() }
func (s *MemoryRelationshipStore) FreeID(id RecordID) {
	s.mu.Lock()
	delete(s.recs, id)
	s.mu.Unlock()
	s.ids.free(id)
}
func (s *MemoryRelationshipStore) HighID() RecordID { return s.ids.high() }

// Snapshot returns every record as a JSON-encoded map.
func (s *MemoryRelationshipStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.recs)
}

// Restore replaces the store's contents from a prior Snapshot.
func (s *MemoryRelationshipStore) Restore(data []byte) error {
	recs := make(map[RecordID]*RelationshipRecord)
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	var maxID RecordID = -1
	for id := range recs {
		if id > maxID {
			maxID = id
		}
	}
	s.mu.Lock()
	s.recs = recs
	s.mu.Unlock()
	s.ids.seed(maxID + 1)
	return nil
}

// MemoryPropertyStore is an in-memory PropertyStore, including the
// dynamic value chain records property blocks of type STRING/ARRAY
// point into.
type MemoryPropertyStore struct {
	mu        sync.RWMutex
	ids       idGenerator
	dynIDs    idGenerator
	recs      map[RecordID]*PropertyRecord
	dynamics  map[RecordID]*DynamicRecord
}

// NewMemoryPropertyStore returns an empty MemoryPropertyStore.
func NewMemoryPropertyStore() *MemoryPropertyStore {
	return &MemoryPropertyStore{
		recs:     make(map[RecordID]*PropertyRecord),
		dynamics: make(map[RecordID]*DynamicRecord),
	}
}

func (s *MemoryPropertyStore) Get(id RecordID) (*PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryPropertyStore) Update(rec *PropertyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryPropertyStore) NextID() RecordID { return s.ids.next() }
func (s *MemoryPropertyStore) FreeID(id RecordID) {
	s.mu.Lock()
	delete(s.recs, id)
	s.mu.Unlock()
	s.ids.free(id)
}
func (s *MemoryPropertyStore) HighID() RecordID { return s.ids.high() }

func (s *MemoryPropertyStore) GetDynamic(id RecordID) (*DynamicRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.dynamics[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryPropertyStore) UpdateDynamic(rec *DynamicRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dynamics[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryPropertyStore) NextDynamicID() RecordID { return s.dynIDs.next() }
func (s *MemoryPropertyStore) FreeDynamicID(id RecordID) {
	s.mu.Lock()
	delete(s.dynamics, id)
	s.mu.Unlock()
	s.dynIDs.free(id)
}

// propertyStoreSnapshot is the on-wire shape of a MemoryPropertyStore
// snapshot: records and their dynamic value chain both travel
// together since a property block's ValueChain id is meaningless
// without the dynamics map it points into.
type propertyStoreSnapshot struct {
	Records  map[RecordID]*PropertyRecord
	Dynamics map[RecordID]*DynamicRecord
}

// Snapshot returns every property record and dynamic chain block,
// JSON-encoded together.
func (s *MemoryPropertyStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(propertyStoreSnapshot{Records: s.recs, Dynamics: s.dynamics})
}

// Restore replaces the store's contents from a prior Snapshot.
func (s *MemoryPropertyStore) Restore(data []byte) error {
	var snap propertyStoreSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Records == nil {
		snap.Records = make(map[RecordID]*PropertyRecord)
	}
	if snap.Dynamics == nil {
		snap.Dynamics = make(map[RecordID]*DynamicRecord)
	}
	var maxID, maxDynID RecordID = -1, -1
	for id := range snap.Records {
		if id > maxID {
			maxID = id
		}
	}
	for id := range snap.Dynamics {
		if id > maxDynID {
			maxDynID = id
		}
	}
	s.mu.Lock()
	s.recs = snap.Records
	s.dynamics = snap.Dynamics
	s.mu.Unlock()
	s.ids.seed(maxID + 1)
	s.dynIDs.seed(maxDynID + 1)
	return nil
}

// MemoryPropertyIndexStore is an in-memory PropertyIndexStore.
type MemoryPropertyIndexStore struct {
	mu      sync.RWMutex
	ids     idGenerator32
	recs    map[TypeID]*PropertyIndexRecord
	byName  map[string]TypeID
}

// NewMemoryPropertyIndexStore returns an empty MemoryPropertyIndexStore.
func NewMemoryPropertyIndexStore() *MemoryPropertyIndexStore {
	return &MemoryPropertyIndexStore{
		recs:   make(map[TypeID]*PropertyIndexRecord),
		byName: make(map[string]TypeID),
	}
}

func (s *MemoryPropertyIndexStore) Get(id TypeID) (*PropertyIndexRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryPropertyIndexStore) Update(rec *PropertyIndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec.Clone()
	if rec.InUse {
		s.byName[rec.Name] = rec.ID
	}
	return nil
}

func (s *MemoryPropertyIndexStore) NextID() TypeID { return s.ids.nextID() }

func (s *MemoryPropertyIndexStore) IDForName(name string) (TypeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	return id, ok
}

// Snapshot returns every property-key name record, JSON-encoded. The
// byName lookup table is rebuilt from the records on Restore rather
// than traveling on the wire itself.
func (s *MemoryPropertyIndexStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.recs)
}

// Restore replaces the store's contents from a prior Snapshot.
func (s *MemoryPropertyIndexStore) Restore(data []byte) error {
	recs := make(map[TypeID]*PropertyIndexRecord)
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	byName := make(map[string]TypeID, len(recs))
	var maxID TypeID = -1
	for id, rec := range recs {
		if id > maxID {
			maxID = id
		}
		if rec.InUse {
			byName[rec.Name] = id
		}
	}
	s.mu.Lock()
	s.recs = recs
	s.byName = byName
	s.mu.Unlock()
	s.ids.seed(maxID)
	return nil
}

// MemoryRelationshipTypeStore is an in-memory RelationshipTypeStore.
type MemoryRelationshipTypeStore struct {
	mu     sync.RWMutex
	ids    idGenerator32
	recs   map[TypeID]*RelationshipTypeRecord
	byName map[string]TypeID
}

// NewMemoryRelationshipTypeStore returns an empty MemoryRelationshipTypeStore.
func NewMemoryRelationshipTypeStore() *MemoryRelationshipTypeStore {
	return &MemoryRelationshipTypeStore{
		recs:   make(map[TypeID]*RelationshipTypeRecord),
		byName: make(map[string]TypeID),
	}
}

func (s *MemoryRelationshipTypeStore) Get(id TypeID) (*RelationshipTypeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryRelationshipTypeStore) Update(rec *RelationshipTypeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec.Clone()
	if rec.InUse {
		s.byName[rec.Name] = rec.ID
	}
	return nil
}

func (s *MemoryRelationshipTypeStore) NextID() TypeID { return s.ids.nextID() }

func (s *MemoryRelationshipTypeStore) IDForName(name string) (TypeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	return id, ok
}

// Snapshot returns every relationship-type name record, JSON-encoded.
func (s *MemoryRelationshipTypeStore) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.recs)
}

// Restore replaces the store's contents from a prior Snapshot.
func (s *MemoryRelationshipTypeStore) Restore(data []byte) error {
	recs := make(map[TypeID]*RelationshipTypeRecord)
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	byName := make(map[string]TypeID, len(recs))
	var maxID TypeID = -1
	for id, rec := range recs {
		if id > maxID {
			maxID = id
		}
		if rec.InUse {
			byName[rec.Name] = id
		}
	}
	s.mu.Lock()
	s.recs = recs
	s.byName = byName
	s.mu.Unlock()
	s.ids.seed(maxID)
	return nil
}

// NewMemoryStores builds a Stores bundle backed entirely by the
// in-memory implementations above. Used by tests and by `recover`
// before the destination store is attached.
func NewMemoryStores() *Stores {
	return &Stores{
		Nodes:             NewMemoryNodeStore(),
		Relationships:     NewMemoryRelationshipStore(),
		Properties:        NewMemoryPropertyStore(),
		PropertyIndexes:   NewMemoryPropertyIndexStore(),
		RelationshipTypes: NewMemoryRelationshipTypeStore(),
	}
}
