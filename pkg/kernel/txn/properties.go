package txn

import (
	"fmt"

	"github.com/orneryd/nornicdb/pkg/kernel"
)

// nodeOwner/relOwner let the property helpers below read and write an
// owner's NextProp pointer, and stamp new property records with the
// right owner reference, without duplicating the staging-map lookup
// for each of the two owner kinds.
type owner struct {
	ref         kernel.OwnerRef
	getNextProp func() (kernel.RecordID, error)
	setNextProp func(kernel.RecordID) error
}

func (t *Transaction) nodeOwner(id kernel.RecordID) owner {
	return owner{
		ref: kernel.OwnerRef{NodeID: id, RelID: kernel.NoID},
		getNextProp: func() (kernel.RecordID, error) {
			sn, err := t.loadNode(id)
			if err != nil {
				return kernel.NoID, err
			}
			return sn.rec.NextProp, nil
		},
		setNextProp: func(v kernel.RecordID) error {
			sn, err := t.loadNode(id)
			if err != nil {
				return err
			}
			sn.rec.NextProp = v
			return nil
		},
	}
}

func (t *Transaction) relOwner(id kernel.RecordID) owner {
	return owner{
		ref: kernel.OwnerRef{NodeID: kernel.NoID, RelID: id},
		getNextProp: func() (kernel.RecordID, error) {
			sr, err := t.loadRel(id)
			if err != nil {
				return kernel.NoID, err
			}
			return sr.rec.NextProp, nil
		},
		setNextProp: func(v kernel.RecordID) error {
			sr, err := t.loadRel(id)
			if err != nil {
				return err
			}
			sr.rec.NextProp = v
			return nil
		},
	}
}

// NodeAddProperty adds or overwrites a property on a node.
func (t *Transaction) NodeAddProperty(nodeID kernel.RecordID, keyIndex kernel.TypeID, value any) (kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return kernel.PropertyData{}, err
	}
	return t.addProperty(t.nodeOwner(nodeID), keyIndex, value)
}

// RelAddProperty adds or overwrites a property on a relationship.
func (t *Transaction) RelAddProperty(relID kernel.RecordID, keyIndex kernel.TypeID, value any) (kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return kernel.PropertyData{}, err
	}
	return t.addProperty(t.relOwner(relID), keyIndex, value)
}

// addProperty walks owner's property chain looking for an existing
// block for keyIndex (overwrite case acts like Change), otherwise
// finds the first record with room for one more block (first-fit by
// payloadCap) or allocates and prepends a new head record.
func (t *Transaction) addProperty(own owner, keyIndex kernel.TypeID, value any) (kernel.PropertyData, error) {
	block, err := t.makeBlock(keyIndex, value)
	if err != nil {
		return kernel.PropertyData{}, err
	}

	head, err := own.getNextProp()
	if err != nil {
		return kernel.PropertyData{}, err
	}

	cur := head
	for cur != kernel.NoID {
		sp, err := t.loadProp(cur)
		if err != nil {
			return kernel.PropertyData{}, err
		}
		for i, b := range sp.rec.Blocks {
			if b.InUse && b.KeyIndexID == keyIndex {
				// Existing property for this key: behaves like Change.
				if err := t.freeBlockDynamics(b); err != nil {
					return kernel.PropertyData{}, err
				}
				sp.rec.Blocks[i] = block
				return kernel.PropertyData{KeyIndexID: keyIndex, PropertyRecordID: sp.rec.ID, Value: value}, nil
			}
		}
		if sp.rec.Size()+block.Size() <= t.payloadCap {
			sp.rec.Blocks = append(sp.rec.Blocks, block)
			return kernel.PropertyData{KeyIndexID: keyIndex, PropertyRecordID: sp.rec.ID, Value: value}, nil
		}
		cur = sp.rec.NextProp
	}

	// No record had room: allocate a new one and prepend it as the head.
	newID := t.stores.Properties.NextID()
	rec := &kernel.PropertyRecord{
		ID:       newID,
		InUse:    true,
		PrevProp: kernel.NoID,
		NextProp: head,
		NodeID:   own.ref.NodeID,
		RelID:    own.ref.RelID,
		Blocks:   []kernel.PropertyBlock{block},
	}
	if head != kernel.NoID {
		sp, err := t.loadProp(head)
		if err != nil {
			return kernel.PropertyData{}, err
		}
		sp.rec.PrevProp = newID
	}
	t.props[newID] = &stagedProp{rec: rec, created: true}
	if err := own.setNextProp(newID); err != nil {
		return kernel.PropertyData{}, err
	}
	return kernel.PropertyData{KeyIndexID: keyIndex, PropertyRecordID: newID, Value: value}, nil
}

// makeBlock encodes value into a PropertyBlock, writing any overflow
// into a fresh dynamic chain for STRING/ARRAY-typed values.
func (t *Transaction) makeBlock(keyIndex kernel.TypeID, value any) (kernel.PropertyBlock, error) {
	if kernel.IsScalarType(value) {
		pt, data, err := kernel.EncodeScalar(value)
		if err != nil {
			return kernel.PropertyBlock{}, err
		}
		b := kernel.PropertyBlock{InUse: true, KeyIndexID: keyIndex, Type: pt, Inline: data, ValueChain: kernel.NoID}
		b.SetValue(value)
		return b, nil
	}

	var raw []byte
	var pt kernel.PropertyType
	var err error
	switch v := value.(type) {
	case string:
		raw, pt = kernel.EncodeString(v), kernel.PropertyTypeString
	default:
		raw, err = kernel.EncodeArray(v)
		pt = kernel.PropertyTypeArray
		if err != nil {
			return kernel.PropertyBlock{}, err
		}
	}

	chain := kernel.WriteDynamicChain(raw, kernel.DynamicKindPropertyValue, func() kernel.RecordID {
		return t.stores.Properties.NextDynamicID()
	})
	for _, d := range chain {
		t.dynamics[d.ID] = &stagedDynamic{rec: d, created: true}
	}
	b := kernel.PropertyBlock{InUse: true, KeyIndexID: keyIndex, Type: pt, ValueChain: chain[0].ID, Light: true}
	b.SetValue(value)
	return b, nil
}

func (t *Transaction) freeBlockDynamics(b kernel.PropertyBlock) error {
	if !b.Type.IsDynamic() || b.ValueChain == kernel.NoID {
		return nil
	}
	cur := b.ValueChain
	for cur != kernel.NoID {
		sd, err := t.loadDynamic(cur)
		if err != nil {
			return err
		}
		sd.rec.InUse = false
		next := sd.rec.Next
		sd.rec.Next = kernel.NoID
		cur = next
	}
	return nil
}

// NodeChangeProperty overwrites an existing property's value in place
// if the new encoding still fits the host record, otherwise frees the
// old block and re-adds. The owner isn't needed for an
// in-place change (the PropertyRecordID is already known), only for
// the re-add path, so callers pass the owning node/relationship id
// through ownerID.
func (t *Transaction) NodeChangeProperty(ownerID kernel.RecordID, data kernel.PropertyData, value any) (kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return kernel.PropertyData{}, err
	}
	return t.changeProperty(t.nodeOwner(ownerID), data, value)
}

// RelChangeProperty is the relationship-owner analogue of NodeChangeProperty.
func (t *Transaction) RelChangeProperty(ownerID kernel.RecordID, data kernel.PropertyData, value any) (kernel.PropertyData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return kernel.PropertyData{}, err
	}
	return t.changeProperty(t.relOwner(ownerID), data, value)
}

func (t *Transaction) changeProperty(own owner, data kernel.PropertyData, value any) (kernel.PropertyData, error) {
	sp, err := t.loadProp(data.PropertyRecordID)
	if err != nil {
		return kernel.PropertyData{}, err
	}
	idx := -1
	for i, b := range sp.rec.Blocks {
		if b.InUse && b.KeyIndexID == data.KeyIndexID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return kernel.PropertyData{}, fmt.Errorf("%w: key %d on record %d", ErrMissingBlock, data.KeyIndexID, data.PropertyRecordID)
	}

	newBlock, err := t.makeBlock(data.KeyIndexID, value)
	if err != nil {
		return kernel.PropertyData{}, err
	}

	old := sp.rec.Blocks[idx]
	sizeWithout := sp.rec.Size() - old.Size()
	if sizeWithout+newBlock.Size() <= t.payloadCap {
		if err := t.freeBlockDynamics(old); err != nil {
			return kernel.PropertyData{}, err
		}
		sp.rec.Blocks[idx] = newBlock
		return kernel.PropertyData{KeyIndexID: data.KeyIndexID, PropertyRecordID: sp.rec.ID, Value: value}, nil
	}

	// Doesn't fit alongside its siblings anymore: remove then re-add,
	// which may relocate it to a different (or new) host record.
	sp.rec.Blocks[idx].InUse = false
	if err := t.freeBlockDynamics(old); err != nil {
		return kernel.PropertyData{}, err
	}
	if err := t.compactIfEmpty(own, sp); err != nil {
		return kernel.PropertyData{}, err
	}
	return t.addProperty(own, data.KeyIndexID, value)
}

// NodeRemoveProperty removes a property from a node's chain.
func (t *Transaction) NodeRemoveProperty(nodeID kernel.RecordID, data kernel.PropertyData) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	return t.removeProperty(t.nodeOwner(nodeID), data)
}

// RelRemoveProperty removes a property from a relationship's chain.
func (t *Transaction) RelRemoveProperty(relID kernel.RecordID, data kernel.PropertyData) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireActive(); err != nil {
		return err
	}
	return t.removeProperty(t.relOwner(relID), data)
}

func (t *Transaction) removeProperty(own owner, data kernel.PropertyData) error {
	sp, err := t.loadProp(data.PropertyRecordID)
	if err != nil {
		return err
	}
	found := false
	for i, b := range sp.rec.Blocks {
		if b.InUse && b.KeyIndexID == data.KeyIndexID {
			if err := t.freeBlockDynamics(b); err != nil {
				return err
			}
			sp.rec.Blocks[i].InUse = false
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: key %d on record %d", ErrMissingBlock, data.KeyIndexID, data.PropertyRecordID)
	}
	return t.compactIfEmpty(own, sp)
}

// compactIfEmpty unlinks sp from its chain and marks it unused if it
// no longer holds any live block, patching its neighbors' pointers and
// the owner's NextProp if sp was the chain head.
func (t *Transaction) compactIfEmpty(own owner, sp *stagedProp) error {
	if sp.rec.LiveBlockCount() > 0 {
		return nil
	}
	prev, next := sp.rec.PrevProp, sp.rec.NextProp
	if prev != kernel.NoID {
		psp, err := t.loadProp(prev)
		if err != nil {
			return err
		}
		psp.rec.NextProp = next
	} else if err := own.setNextProp(next); err != nil {
		return err
	}
	if next != kernel.NoID {
		nsp, err := t.loadProp(next)
		if err != nil {
			return err
		}
		nsp.rec.PrevProp = prev
	}
	sp.rec.InUse = false
	sp.rec.PrevProp, sp.rec.NextProp = kernel.NoID, kernel.NoID
	return nil
}

// deletePropertyChain walks every record from head, materializing
// light blocks (resolving dynamic chains so the caller gets real
// values, not chain pointers) into a map keyed by property-index id,
// and marks every record and dynamic chain along the way unused.
func (t *Transaction) deletePropertyChain(head kernel.RecordID) (map[kernel.TypeID]kernel.PropertyData, error) {
	out := make(map[kernel.TypeID]kernel.PropertyData)
	cur := head
	for cur != kernel.NoID {
		sp, err := t.loadProp(cur)
		if err != nil {
			return nil, err
		}
		for i, b := range sp.rec.Blocks {
			if !b.InUse {
				continue
			}
			val, err := t.materializeBlock(b)
			if err != nil {
				return nil, err
			}
			out[b.KeyIndexID] = kernel.PropertyData{KeyIndexID: b.KeyIndexID, PropertyRecordID: sp.rec.ID, Value: val}
			if err := t.freeBlockDynamics(b); err != nil {
				return nil, err
			}
			sp.rec.Blocks[i].InUse = false
		}
		next := sp.rec.NextProp
		sp.rec.InUse = false
		sp.rec.PrevProp, sp.rec.NextProp = kernel.NoID, kernel.NoID
		cur = next
	}
	return out, nil
}

// loadProperties walks head's chain non-destructively, collecting
// every live block's value (or leaving dynamic values unresolved when
// light is true) keyed by property-index id. Unlike
// deletePropertyChain, no record or dynamic chain is mutated, so a
// live transaction can call this as often as it likes.
func (t *Transaction) loadProperties(head kernel.RecordID, light bool) (map[kernel.TypeID]kernel.PropertyData, error) {
	out := make(map[kernel.TypeID]kernel.PropertyData)
	cur := head
	for cur != kernel.NoID {
		sp, err := t.loadProp(cur)
		if err != nil {
			return nil, err
		}
		for _, b := range sp.rec.Blocks {
			if !b.InUse {
				continue
			}
			var val any
			if light && b.Type.IsDynamic() && b.Value() == nil {
				val = nil
			} else {
				val, err = t.materializeBlock(b)
				if err != nil {
					return nil, err
				}
			}
			out[b.KeyIndexID] = kernel.PropertyData{KeyIndexID: b.KeyIndexID, PropertyRecordID: sp.rec.ID, Value: val}
		}
		cur = sp.rec.NextProp
	}
	return out, nil
}

// materializeBlock resolves a block's Value, reading its dynamic
// chain if it's a light (not yet resolved) string/array block. A
// scalar block with no resident value (e.g. one just reloaded from a
// recovery replay, where the decoded value never travels over the
// wire) is decoded straight from its Inline bytes instead.
func (t *Transaction) materializeBlock(b kernel.PropertyBlock) (any, error) {
	if v := b.Value(); v != nil {
		return v, nil
	}
	if !b.Type.IsDynamic() {
		return kernel.DecodeScalar(b.Type, b.Inline)
	}
	data, err := kernel.ReadDynamicChain(b.ValueChain, func(id kernel.RecordID) (*kernel.DynamicRecord, error) {
		sd, err := t.loadDynamic(id)
		if err != nil {
			return nil, err
		}
		return sd.rec, nil
	})
	if err != nil {
		return nil, err
	}
	if b.Type == kernel.PropertyTypeString {
		return kernel.DecodeString(data), nil
	}
	return kernel.DecodeArray(data)
}
