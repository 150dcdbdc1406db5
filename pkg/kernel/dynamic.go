package kernel

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// DynamicBlockSize is the fixed payload carried by each DynamicRecord,
// matching the "fixed-size byte blocks" the GLOSSARY defines a dynamic
// chain as being made of.
const DynamicBlockSize = 120

// EncodeScalar packs a non-dynamic property value into inline bytes
// plus the matching PropertyType tag. STRING and ARRAY values are
// rejected; callers route those through WriteDynamicChain instead.
func EncodeScalar(v any) (PropertyType, []byte, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return PropertyTypeBool, []byte{1}, nil
		}
		return PropertyTypeBool, []byte{0}, nil
	case int8, int16, int32:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(toInt64(val)))
		return PropertyTypeInt, buf, nil
	case int, int64:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(toInt64(val)))
		return PropertyTypeLong, buf, nil
	case float32:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(val))
		return PropertyTypeFloat, buf, nil
	case float64:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(val))
		return PropertyTypeDouble, buf, nil
	default:
		return 0, nil, fmt.Errorf("kernel: %T is not a scalar property type", v)
	}
}

// DecodeScalar is the inverse of EncodeScalar.
func DecodeScalar(t PropertyType, data []byte) (any, error) {
	switch t {
	case PropertyTypeBool:
		return len(data) > 0 && data[0] != 0, nil
	case PropertyTypeInt:
		return int32(binary.BigEndian.Uint32(data)), nil
	case PropertyTypeLong:
		return int64(binary.BigEndian.Uint64(data)), nil
	case PropertyTypeFloat:
		return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
	case PropertyTypeDouble:
		return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
	default:
		return nil, fmt.Errorf("kernel: type %d is not a scalar property type", t)
	}
}

// IsScalarType reports whether v encodes as an inline scalar.
func IsScalarType(v any) bool {
	switch v.(type) {
	case bool, int8, int16, int32, int, int64, float32, float64:
		return true
	default:
		return false
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// WriteDynamicChain serializes a string or array value and splits it
// into DynamicBlockSize-byte DynamicRecord blocks, allocating fresh ids
// from store and staging each block for the caller via alloc/stage
// callbacks so the write-transaction engine can track them as
// created records pending commit.
func WriteDynamicChain(data []byte, kind DynamicRecordKind, nextID func() RecordID) []*DynamicRecord {
	if len(data) == 0 {
		// A zero-length string/array is still a value, not an absent one:
		// emit a single block with empty Data rather than no chain at all,
		// so callers always get a valid chain head.
		return []*DynamicRecord{{
			ID:    nextID(),
			InUse: true,
			Kind:  kind,
			Data:  nil,
			Next:  NoID,
		}}
	}
	var records []*DynamicRecord
	for offset := 0; offset < len(data); offset += DynamicBlockSize {
		end := offset + DynamicBlockSize
		if end > len(data) {
			end = len(data)
		}
		chunk := append([]byte(nil), data[offset:end]...)
		records = append(records, &DynamicRecord{
			ID:    nextID(),
			InUse: true,
			Kind:  kind,
			Data:  chunk,
			Next:  NoID,
		})
	}
	for i := 0; i < len(records)-1; i++ {
		records[i].Next = records[i+1].ID
	}
	return records
}

// EncodeArray/DecodeArray and EncodeString/DecodeString convert
// between Go values and the raw bytes a dynamic chain carries.

// EncodeString returns the UTF-8 bytes of s.
func EncodeString(s string) []byte { return []byte(s) }

// DecodeString is the inverse of EncodeString.
func DecodeString(data []byte) string { return string(data) }

// EncodeArray JSON-encodes an array value for storage in a dynamic
// chain. Neo4j's on-disk array encoding is a typed binary format; this
// reimplementation uses JSON for simplicity since the wire format is
// an internal store collaborator detail.
func EncodeArray(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeArray is the inverse of EncodeArray.
func DecodeArray(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadDynamicChain walks a dynamic chain starting at head, concatenating
// every live block's bytes, using get to fetch each record from the
// property store. Returns an error if the chain is broken (a non-NoID
// Next that the store can't resolve).
func ReadDynamicChain(head RecordID, get func(RecordID) (*DynamicRecord, error)) ([]byte, error) {
	var buf []byte
	for id := head; id != NoID; {
		rec, err := get(id)
		if err != nil {
			return nil, fmt.Errorf("kernel: reading dynamic chain at %d: %w", id, err)
		}
		buf = append(buf, rec.Data...)
		id = rec.Next
	}
	return buf, nil
}
