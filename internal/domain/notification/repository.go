// internal/domain/notification/repository.go
package notification

import "context"

// Repository keeps the journal of delivered notifications.
type Repository interface {
	// Record stores entry and fills its ID and SentAt.
	Record(ctx context.Context, entry *Entry) error
	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
