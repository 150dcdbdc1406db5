// Package master implements the coordinator a primary (master) role
// runs to service write requests forwarded by replica (slave) roles:
// a per-slave transaction table, lock brokering on their behalf, id
// batch allocation, and an idle-transaction reaper.
package master

import "fmt"

// SlaveContext identifies the remote worker a dispatched request came
// from, together with the last transaction id it has applied per
// named resource (one of the coordinator's store kinds, or a
// caller-defined multi-resource name). Two contexts are the same
// slave exactly when SessionID/MachineID/EventID match — LastAppliedTx
// is per-call bookkeeping a slave's next request carries forward, not
// part of that identity, since a map isn't a valid Go map key and the
// coordinator's transaction table is keyed on identity alone (see
// identity/slaveIdentity below).
type SlaveContext struct {
	SessionID int64
	MachineID int32
	EventID   int32

	LastAppliedTx map[string]int64
}

// identity returns the comparable subset of c used as the
// coordinator's transaction-table key.
func (c SlaveContext) identity() slaveIdentity {
	return slaveIdentity{SessionID: c.SessionID, MachineID: c.MachineID, EventID: c.EventID}
}

// slaveIdentity is SlaveContext stripped of LastAppliedTx, so it can
// be used as a map key.
type slaveIdentity struct {
	SessionID int64
	MachineID int32
	EventID   int32
}

func (c SlaveContext) String() string {
	return fmt.Sprintf("slave(session=%d machine=%d event=%d)", c.SessionID, c.MachineID, c.EventID)
}

func (k slaveIdentity) String() string {
	return fmt.Sprintf("slave(session=%d machine=%d event=%d)", k.SessionID, k.MachineID, k.EventID)
}

// cloneLastAppliedTx returns an independent copy of m (nil-safe), so
// advancing one SlaveContext's bookkeeping never mutates a map a
// caller might still be holding a reference to.
func cloneLastAppliedTx(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
