package app

import (
	"context"
	"fmt"

	"homework_status_bot/internal/domain/homework"
)

// NotifyFunc delivers a notification text.
type NotifyFunc func(ctx context.Context, text string) error

// Reconcile notifies about verdict unless it was the last verdict notified.
// The returned state records verdict only after notify succeeded; on failure the
// input state is returned with an error wrapping ErrDelivery.
// LastPolledTimestamp is left for the caller to update.
func Reconcile(ctx context.Context, state homework.PollState, homeworkName string, verdict homework.Verdict, notify NotifyFunc) (homework.PollState, error) {
	if verdict == state.LastNotifiedVerdict {
		return state, nil
	}

	message := homework.FormatMessage(homeworkName, verdict)
	if err := notify(ctx, message); err != nil {
		return state, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	state.LastNotifiedVerdict = verdict
	return state, nil
}
