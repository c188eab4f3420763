// internal/app/status_service.go
package app

import (
	"context"
	"encoding/json"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

const journalTimeout = 5 * time.Second

// StatusFetcher returns the raw homework status payload for updates since a unix timestamp.
type StatusFetcher interface {
	Fetch(ctx context.Context, since int64) (json.RawMessage, error)
}

// StatusService runs a single poll cycle: fetch, validate, extract, reconcile.
type StatusService struct {
	fetcher        StatusFetcher
	telegramClient domainTelegram.Client
	chatID         int64
	journal        notification.Repository
	logger         *logrus.Entry
}

func NewStatusService(
	fetcher StatusFetcher,
	tc domainTelegram.Client,
	chatID int64,
	journal notification.Repository,
	logger *logrus.Entry,
) *StatusService {
	return &StatusService{
		fetcher:        fetcher,
		telegramClient: tc,
		chatID:         chatID,
		journal:        journal,
		logger:         logger,
	}
}

// RunCycle performs one poll cycle starting from state and returns the next state.
// Failures are logged and returned for reporting only; in that case the returned
// state equals the input state.
func (s *StatusService) RunCycle(ctx context.Context, state homework.PollState) (homework.PollState, error) {
	logCtx := s.logger.WithField("from_date", state.LastPolledTimestamp)

	payload, err := s.fetcher.Fetch(ctx, state.LastPolledTimestamp)
	if err != nil {
		logCtx.WithError(err).WithField("error_class", Classify(err)).Error("Failed to fetch homework statuses")
		return state, err
	}

	resp, err := homework.Validate(payload)
	if err != nil {
		logCtx.WithError(err).WithField("error_class", Classify(err)).Error("API response failed validation")
		return state, err
	}

	name, verdict, ok, err := homework.Extract(resp)
	if err != nil {
		logCtx.WithError(err).WithField("error_class", Classify(err)).Error("Could not extract homework status")
		return state, err
	}
	if !ok {
		logCtx.Debug("No new homework statuses in API response")
		state.LastPolledTimestamp = resp.CurrentDate
		return state, nil
	}

	logCtx = logCtx.WithFields(logrus.Fields{"homework_name": name, "verdict": verdict})
	next, err := Reconcile(ctx, state, name, verdict, func(ctx context.Context, text string) error {
		if err := s.telegramClient.SendMessage(ctx, s.chatID, text); err != nil {
			return err
		}
		s.recordNotification(ctx, name, verdict, text)
		return nil
	})
	if err != nil {
		logCtx.WithError(err).WithField("error_class", Classify(err)).Error("Failed to send status notification")
		return state, err
	}

	if next.LastNotifiedVerdict != state.LastNotifiedVerdict {
		logCtx.Info("Status notification sent to Telegram")
	} else {
		logCtx.Debug("Homework status unchanged, notification skipped")
	}
	next.LastPolledTimestamp = resp.CurrentDate
	return next, nil
}

// recordNotification writes a journal entry. Journal failures never affect the poll state.
func (s *StatusService) recordNotification(ctx context.Context, name string, verdict homework.Verdict, text string) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()

	entry := &notification.Entry{HomeworkName: name, Verdict: verdict, Message: text}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("homework_name", name).Warn("Failed to record notification in journal")
		return
	}
	s.logger.WithField("entry_id", entry.ID).Debug("Notification recorded in journal")
}
