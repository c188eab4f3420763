// internal/domain/notification/entry.go
package notification

import (
	"time"

	"homework_status_bot/internal/domain/homework"
)

// Entry is a journal record of a delivered status notification.
type Entry struct {
	ID           int64
	HomeworkName string
	Verdict      homework.Verdict
	Message      string
	SentAt       time.Time
}
