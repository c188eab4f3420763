package scheduler

import (
	"context"
	"fmt"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner executes one poll cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, state homework.PollState) (homework.PollState, error)
}

// minPollWait is the shortest pause between two cycles, whatever the schedule says.
const minPollWait = time.Second

// ParseSchedule parses a standard cron spec or a descriptor such as "@every 10m".
// Specs that never fire, like "0 0 30 2 *", are rejected.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", spec, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("invalid poll schedule %q: it never fires", spec)
	}
	return schedule, nil
}

// PollScheduler owns the poll state and runs cycles strictly one after another.
type PollScheduler struct {
	runner   CycleRunner
	schedule cron.Schedule
	board    *app.StatusBoard
	logger   *logrus.Entry
	state    homework.PollState
	cycles   int
	now      func() time.Time
	minWait  time.Duration
}

func NewPollScheduler(
	runner CycleRunner,
	schedule cron.Schedule,
	initial homework.PollState,
	board *app.StatusBoard,
	logger *logrus.Entry,
) *PollScheduler {
	return &PollScheduler{
		runner:   runner,
		schedule: schedule,
		board:    board,
		logger:   logger,
		state:    initial,
		now:      time.Now,
		minWait:  minPollWait,
	}
}

// Run executes a cycle immediately and then on every schedule tick until ctx is cancelled.
// Cancellation is only observed between cycles: a cycle in flight runs to completion.
// Run returns the final poll state.
func (s *PollScheduler) Run(ctx context.Context) homework.PollState {
	s.logger.WithField("from_date", s.state.LastPolledTimestamp).Info("Starting homework status poller...")

	for {
		if ctx.Err() != nil {
			break
		}
		s.runCycle(context.WithoutCancel(ctx))

		next := s.schedule.Next(s.now())
		wait := next.Sub(s.now())
		if next.IsZero() || wait < s.minWait {
			wait = s.minWait
			next = s.now().Add(wait)
		}
		s.logger.WithField("next_poll", next.Format(time.RFC3339)).Debug("Waiting for the next poll")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.logger.WithField("cycles", s.cycles).Info("Homework status poller stopped.")
	return s.state
}

func (s *PollScheduler) runCycle(ctx context.Context) {
	next, err := s.runner.RunCycle(ctx, s.state)
	s.state = next
	s.cycles++

	snap := app.Snapshot{
		State:       s.state,
		Cycles:      s.cycles,
		LastCycleAt: s.now(),
	}
	if err != nil {
		snap.LastError = err.Error()
		snap.LastClass = app.Classify(err)
	}
	if s.board != nil {
		s.board.Publish(snap)
	}
}
