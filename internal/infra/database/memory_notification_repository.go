package database

import (
	"context"
	"sync"
	"time"

	"homework_status_bot/internal/domain/notification"
)

// MemoryNotificationRepository keeps the most recent journal entries in process memory.
// It is used when no DATABASE_URL is configured.
type MemoryNotificationRepository struct {
	mu       sync.Mutex
	capacity int
	nextID   int64
	entries  []notification.Entry // oldest first
	now      func() time.Time
}

func NewMemoryNotificationRepository(capacity int) *MemoryNotificationRepository {
	if capacity <= 0 {
		capacity = 50
	}
	return &MemoryNotificationRepository{capacity: capacity, now: time.Now}
}

func (r *MemoryNotificationRepository) Record(ctx context.Context, entry *notification.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	entry.SentAt = r.now()
	r.entries = append(r.entries, *entry)
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = append(r.entries[:0], r.entries[over:]...)
	}
	return nil
}

func (r *MemoryNotificationRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*notification.Entry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		out = append(out, &e)
	}
	return out, nil
}
