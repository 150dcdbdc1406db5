package master

import (
	"context"
	"log"
	"time"
)

// runReaper is the coordinator's single background goroutine, woken
// every ReapInterval to look for transactions that have sat idle past
// IdleThreshold and roll them back. It never touches an entry whose
// lastActivityTs is still zero (never dispatched once) and it is the
// only goroutine that rolls back on a slave's behalf without being
// asked.
func (c *Coordinator) runReaper() {
	ticker := time.NewTicker(ReapInterval)
	defer ticker.Stop()
	defer close(c.reaperDone)

	for {
		select {
		case <-c.stopReaper:
			return
		case <-ticker.C:
			c.reapIdle()
		}
	}
}

func (c *Coordinator) reapIdle() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	snapshot := make(map[slaveIdentity]*txEntry, len(c.table))
	for k, v := range c.table {
		snapshot[k] = v
	}
	c.mu.Unlock()

	for key, e := range snapshot {
		ts := e.lastActivityTs.Load()
		if ts == 0 {
			continue
		}
		if time.Duration(now-ts) < IdleThreshold {
			continue
		}
		// Never block behind a request already in flight against this
		// entry; skip it this round and reconsider next tick.
		if !e.mu.TryLock() {
			continue
		}
		err := e.tx.Rollback()
		e.mu.Unlock()
		if err != nil {
			log.Printf("master: reaper: rollback of %s failed: %v", key, err)
			continue
		}
		c.dropEntryByIdentity(key)
		c.reapCnt.Add(context.Background(), 1)
	}
}
