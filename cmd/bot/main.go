package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const memoryJournalCapacity = 50

func main() {
	fmt.Println("Homework Status Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Log.WithField("env_key", cfgErr.Key).Fatalf("Missing required environment variable, bot stopped: %v", err)
		}
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"chat_id":     cfg.TelegramChatID,
		"schedule":    cfg.PollSchedule,
	}).Info("Configuration loaded")

	pollSchedule, err := scheduler.ParseSchedule(cfg.PollSchedule)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not parse poll schedule")
	}

	// Initialize notification journal
	var journal notification.Repository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err == nil {
			err = idb.EnsureSchema(ctx, db)
		}
		cancel()
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not prepare notification journal database")
		}
		defer db.Close()
		journal = idb.NewPostgresNotificationRepository(db)
		mainLogger.Info("Postgres notification journal initialized.")
	} else {
		journal = idb.NewMemoryNotificationRepository(memoryJournalCapacity)
		mainLogger.Info("DATABASE_URL is not set, keeping notification journal in memory.")
	}

	// Initialize Telegram Bot
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			logCtx := botLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				logCtx = logCtx.WithField("chat_id", c.Chat().ID)
			}
			logCtx.Error("Telegram bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot, cfg.TelegramRatePerSec)

	statusService := app.NewStatusService(
		practicum.NewClient(cfg.PracticumEndpoint, cfg.PracticumToken, cfg.HTTPTimeout),
		telegramClient,
		cfg.TelegramChatID,
		journal,
		logger.Component("status_service"),
	)

	board := &app.StatusBoard{}
	if cfg.TelegramCommands {
		telegram.RegisterBotCommands(bot, cfg.TelegramChatID, board, journal, logger.Component("telegram"))
		go bot.Start()
		mainLogger.Info("Telegram bot commands enabled.")
	}

	initial := homework.PollState{LastPolledTimestamp: cfg.PollFromDate}
	if initial.LastPolledTimestamp == 0 {
		initial.LastPolledTimestamp = time.Now().Unix()
	}
	poller := scheduler.NewPollScheduler(statusService, pollSchedule, initial, board, logger.Component("scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	mainLogger.Info("Application setup complete. Poller is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	cancel()
	<-done // The in-flight cycle, if any, finishes first
	if cfg.TelegramCommands {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully.")
}
