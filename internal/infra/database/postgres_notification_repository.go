// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/lib/pq"
)

// ErrInvalidLimit is returned by ListRecent for a non-positive limit.
var ErrInvalidLimit = fmt.Errorf("limit must be positive")

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Record(ctx context.Context, entry *notification.Entry) error {
	query := `INSERT INTO homework_notifications (homework_name, verdict, message)
               VALUES ($1, $2, $3)
               RETURNING id, sent_at`
	err := r.db.QueryRowContext(ctx, query, entry.HomeworkName, string(entry.Verdict), entry.Message).Scan(&entry.ID, &entry.SentAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("error recording notification (postgres code %s): %w", pqErr.Code, err)
		}
		return fmt.Errorf("error recording notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT id, homework_name, verdict, message, sent_at
               FROM homework_notifications
               ORDER BY sent_at DESC, id DESC
               LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	var entries []*notification.Entry
	for rows.Next() {
		e := &notification.Entry{}
		var verdict string
		if err := rows.Scan(&e.ID, &e.HomeworkName, &verdict, &e.Message, &e.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		e.Verdict = homework.Verdict(verdict)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return entries, nil
}
