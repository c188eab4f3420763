// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	historyLimit   = 10
	historyTimeout = 5 * time.Second
	timeLayout     = "2006-01-02 15:04:05 MST"
)

// RegisterBotCommands registers /start, /status and /history.
// Commands are answered only in the configured chat.
func RegisterBotCommands(
	b *telebot.Bot,
	chatID int64,
	board *app.StatusBoard,
	journal notification.Repository,
	baseLogger *logrus.Entry, // For contextual logging
) {
	cmdLogger := baseLogger.WithField("handler_group", "bot_commands")

	allowed := func(c telebot.Context, command string) (*logrus.Entry, bool) {
		logCtx := cmdLogger.WithField("command", command)
		if c.Chat() == nil || c.Chat().ID != chatID {
			if c.Chat() != nil {
				logCtx = logCtx.WithField("chat_id", c.Chat().ID)
			}
			logCtx.Warn("Command from a foreign chat ignored")
			return logCtx, false
		}
		logCtx.Info("Processing command")
		return logCtx, true
	}

	b.Handle("/start", func(c telebot.Context) error {
		if _, ok := allowed(c, "/start"); !ok {
			return nil
		}
		return c.Send("Привет! Я слежу за статусом проверки домашней работы и сообщу, когда он изменится.\n\n/status - текущее состояние\n/history - последние уведомления")
	})

	b.Handle("/status", func(c telebot.Context) error {
		if _, ok := allowed(c, "/status"); !ok {
			return nil
		}
		return c.Send(FormatStatus(board.Snapshot()))
	})

	b.Handle("/history", func(c telebot.Context) error {
		logCtx, ok := allowed(c, "/history")
		if !ok {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()

		entries, err := journal.ListRecent(ctx, historyLimit)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list notification history")
			return c.Send("Не удалось получить историю уведомлений. Попробуйте позже.")
		}
		return c.Send(FormatHistory(entries))
	})
}

// FormatStatus renders a poll loop snapshot for the /status command.
func FormatStatus(snap app.Snapshot) string {
	if snap.Cycles == 0 {
		return "Бот ещё не выполнил ни одного запроса к API."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Выполнено запросов: %d\n", snap.Cycles)
	fmt.Fprintf(&sb, "Последний запрос: %s\n", snap.LastCycleAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Статусы запрашиваются с: %s\n", time.Unix(snap.State.LastPolledTimestamp, 0).In(snap.LastCycleAt.Location()).Format(timeLayout))
	if snap.State.LastNotifiedVerdict == "" {
		sb.WriteString("Уведомлений ещё не было.")
	} else {
		fmt.Fprintf(&sb, "Последний статус: %s", verdictTitle(snap.State.LastNotifiedVerdict))
	}
	if snap.LastError != "" {
		fmt.Fprintf(&sb, "\nОшибка последнего запроса (%s): %s", snap.LastClass, snap.LastError)
	}
	return sb.String()
}

// FormatHistory renders journal entries, newest first, for the /history command.
func FormatHistory(entries []*notification.Entry) string {
	if len(entries) == 0 {
		return "Уведомлений ещё не было."
	}
	var sb strings.Builder
	sb.WriteString("Последние уведомления:")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%s - %s: %s", e.SentAt.Format(timeLayout), e.HomeworkName, verdictTitle(e.Verdict))
	}
	return sb.String()
}

func verdictTitle(v homework.Verdict) string {
	if msg := v.Message(); msg != "" {
		return msg
	}
	return string(v)
}
