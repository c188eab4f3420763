package app

import (
	"sync"
	"time"

	"homework_status_bot/internal/domain/homework"
)

// Snapshot is a read-only view of the poll loop after its latest cycle.
type Snapshot struct {
	State       homework.PollState
	Cycles      int
	LastCycleAt time.Time
	LastError   string
	LastClass   ErrorClass
}

// StatusBoard publishes snapshots from the poll loop to concurrent readers such as bot commands.
// The zero value is ready to use.
type StatusBoard struct {
	mu   sync.RWMutex
	snap Snapshot
}

func (b *StatusBoard) Publish(snap Snapshot) {
	b.mu.Lock()
	b.snap = snap
	b.mu.Unlock()
}

func (b *StatusBoard) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}
