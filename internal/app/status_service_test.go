package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/practicum"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type fakeFetcher struct {
	payloads []string
	errs     []error
	since    []int64
}

func (f *fakeFetcher) Fetch(_ context.Context, since int64) (json.RawMessage, error) {
	n := len(f.since)
	f.since = append(f.since, since)
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	return json.RawMessage(f.payloads[n]), nil
}

type fakeTelegram struct {
	sent    []string
	chatIDs []int64
	failN   int // fail this many sends before succeeding
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.failN > 0 {
		f.failN--
		return errors.New("telegram is down")
	}
	f.sent = append(f.sent, text)
	f.chatIDs = append(f.chatIDs, chatID)
	return nil
}

type failingJournal struct{}

func (failingJournal) Record(context.Context, *notification.Entry) error {
	return errors.New("database is down")
}

func (failingJournal) ListRecent(context.Context, int) ([]*notification.Entry, error) {
	return nil, errors.New("database is down")
}

func payload(status string, date int64) string {
	return fmt.Sprintf(`{"homeworks": [{"homework_name": "username__project1.zip", "status": %q}], "current_date": %d}`, status, date)
}

func newTestService(f StatusFetcher, tg *fakeTelegram, journal notification.Repository) (*StatusService, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewStatusService(f, tg, 777, journal, logrus.NewEntry(logger)), hook
}

func TestReconcileSkipsSameVerdict(t *testing.T) {
	t.Parallel()
	state := homework.PollState{LastPolledTimestamp: 10, LastNotifiedVerdict: homework.VerdictApproved}
	calls := 0
	next, err := Reconcile(context.Background(), state, "project1", homework.VerdictApproved, func(context.Context, string) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("notify called %d times, want 0", calls)
	}
	if next != state {
		t.Fatalf("state changed: %+v -> %+v", state, next)
	}
}

func TestReconcileKeepsStateOnDeliveryFailure(t *testing.T) {
	t.Parallel()
	state := homework.PollState{LastPolledTimestamp: 10, LastNotifiedVerdict: homework.VerdictReviewing}
	next, err := Reconcile(context.Background(), state, "project1", homework.VerdictApproved, func(context.Context, string) error {
		return errors.New("network down")
	})
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("Reconcile error = %v, want ErrDelivery", err)
	}
	if next != state {
		t.Fatalf("state changed on failure: %+v -> %+v", state, next)
	}
}

func TestRunCycleTransitionDetection(t *testing.T) {
	t.Parallel()
	verdicts := []string{"reviewing", "reviewing", "approved", "approved", "rejected"}
	fetcher := &fakeFetcher{}
	for i, v := range verdicts {
		fetcher.payloads = append(fetcher.payloads, payload(v, int64(100*(i+1))))
	}
	tg := &fakeTelegram{}
	journal := database.NewMemoryNotificationRepository(10)
	svc, _ := newTestService(fetcher, tg, journal)

	state := homework.PollState{LastPolledTimestamp: 0, LastNotifiedVerdict: homework.VerdictReviewing}
	for i := range verdicts {
		var err error
		state, err = svc.RunCycle(context.Background(), state)
		if err != nil {
			t.Fatalf("cycle %d error: %v", i+1, err)
		}
		if state.LastPolledTimestamp != int64(100*(i+1)) {
			t.Fatalf("cycle %d LastPolledTimestamp = %d", i+1, state.LastPolledTimestamp)
		}
	}

	want := []string{
		`Изменился статус проверки работы "project1". Работа проверена: ревьюеру всё понравилось. Ура!`,
		`Изменился статус проверки работы "project1". Работа проверена: у ревьюера есть замечания.`,
	}
	if len(tg.sent) != len(want) {
		t.Fatalf("sent %d notifications, want %d: %q", len(tg.sent), len(want), tg.sent)
	}
	for i := range want {
		if tg.sent[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, tg.sent[i], want[i])
		}
		if tg.chatIDs[i] != 777 {
			t.Errorf("notification %d chat = %d, want 777", i, tg.chatIDs[i])
		}
	}
	if state.LastNotifiedVerdict != homework.VerdictRejected {
		t.Fatalf("LastNotifiedVerdict = %s, want rejected", state.LastNotifiedVerdict)
	}
	wantSince := []int64{0, 100, 200, 300, 400}
	for i, since := range wantSince {
		if fetcher.since[i] != since {
			t.Errorf("cycle %d from_date = %d, want %d", i+1, fetcher.since[i], since)
		}
	}

	entries, err := journal.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(entries) != 2 || entries[0].Verdict != homework.VerdictRejected || entries[1].Verdict != homework.VerdictApproved {
		t.Fatalf("unexpected journal: %+v", entries)
	}
}

func TestRunCycleIdempotentNotification(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{}
	for i := 0; i < 6; i++ {
		fetcher.payloads = append(fetcher.payloads, payload("approved", int64(i+1)))
	}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, nil)

	state := homework.PollState{}
	for i := 0; i < 6; i++ {
		state, _ = svc.RunCycle(context.Background(), state)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(tg.sent))
	}
}

func TestRunCycleMalformedPayloadKeepsState(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{payloads: []string{`{"current_date": 500}`}}
	tg := &fakeTelegram{}
	svc, hook := newTestService(fetcher, tg, nil)

	state := homework.PollState{LastPolledTimestamp: 42, LastNotifiedVerdict: homework.VerdictReviewing}
	next, err := svc.RunCycle(context.Background(), state)

	var vErr *homework.ValidationError
	if !errors.As(err, &vErr) || vErr.Reason != homework.ReasonMissingKey || vErr.Field != "homeworks" {
		t.Fatalf("RunCycle error = %v, want missing homeworks", err)
	}
	if Classify(err) != ClassData {
		t.Fatalf("Classify = %s, want data", Classify(err))
	}
	if next != state {
		t.Fatalf("state changed: %+v -> %+v", state, next)
	}
	if len(tg.sent) != 0 {
		t.Fatalf("sent %d notifications, want 0", len(tg.sent))
	}
	last := hook.LastEntry()
	if last == nil || last.Level != logrus.ErrorLevel || last.Message != "API response failed validation" {
		t.Fatalf("unexpected last log entry: %+v", last)
	}
}

func TestRunCycleUnknownVerdictIsRejected(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{payloads: []string{payload("in_progress", 900)}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, nil)

	state := homework.PollState{LastPolledTimestamp: 800}
	next, err := svc.RunCycle(context.Background(), state)

	var eErr *homework.ExtractError
	if !errors.As(err, &eErr) || eErr.Kind != homework.ExtractUnknownVerdict || eErr.RawStatus != "in_progress" {
		t.Fatalf("RunCycle error = %v, want unknown verdict", err)
	}
	if next != state {
		t.Fatalf("state changed: %+v -> %+v", state, next)
	}
	if len(tg.sent) != 0 {
		t.Fatalf("sent %d notifications, want 0", len(tg.sent))
	}
}

func TestRunCycleFetchFailureKeepsState(t *testing.T) {
	t.Parallel()
	fetchErr := &practicum.FetchError{Kind: practicum.KindUnexpectedStatus, Endpoint: "http://api", StatusCode: 503}
	fetcher := &fakeFetcher{errs: []error{fetchErr}}
	svc, hook := newTestService(fetcher, &fakeTelegram{}, nil)

	state := homework.PollState{LastPolledTimestamp: 7}
	next, err := svc.RunCycle(context.Background(), state)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("RunCycle error = %v, want %v", err, fetchErr)
	}
	if Classify(err) != ClassTransient {
		t.Fatalf("Classify = %s, want transient", Classify(err))
	}
	if next != state {
		t.Fatalf("state changed: %+v -> %+v", state, next)
	}
	if got := hook.LastEntry().Data["error_class"]; got != ClassTransient {
		t.Fatalf("error_class field = %v, want transient", got)
	}
}

func TestRunCycleRetriesAfterDeliveryFailure(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{payloads: []string{payload("approved", 100), payload("approved", 200)}}
	tg := &fakeTelegram{failN: 1}
	svc, _ := newTestService(fetcher, tg, nil)

	state := homework.PollState{LastPolledTimestamp: 50}
	next, err := svc.RunCycle(context.Background(), state)
	if Classify(err) != ClassDelivery {
		t.Fatalf("first cycle error = %v, want delivery failure", err)
	}
	if next != state {
		t.Fatalf("state changed on delivery failure: %+v -> %+v", state, next)
	}

	next, err = svc.RunCycle(context.Background(), next)
	if err != nil {
		t.Fatalf("second cycle error: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(tg.sent))
	}
	if next.LastNotifiedVerdict != homework.VerdictApproved || next.LastPolledTimestamp != 200 {
		t.Fatalf("unexpected state after retry: %+v", next)
	}
	if fetcher.since[1] != 50 {
		t.Fatalf("retry cycle from_date = %d, want 50", fetcher.since[1])
	}
}

func TestRunCycleEmptyHomeworksAdvancesTimestamp(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{payloads: []string{`{"homeworks": [], "current_date": 1234}`}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, nil)

	next, err := svc.RunCycle(context.Background(), homework.PollState{LastPolledTimestamp: 1000})
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}
	if next.LastPolledTimestamp != 1234 || next.LastNotifiedVerdict != "" {
		t.Fatalf("unexpected state: %+v", next)
	}
	if len(tg.sent) != 0 {
		t.Fatalf("sent %d notifications, want 0", len(tg.sent))
	}
}

func TestRunCycleJournalFailureDoesNotBlockState(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{payloads: []string{payload("rejected", 10)}}
	tg := &fakeTelegram{}
	svc, hook := newTestService(fetcher, tg, failingJournal{})

	next, err := svc.RunCycle(context.Background(), homework.PollState{})
	if err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}
	if next.LastNotifiedVerdict != homework.VerdictRejected {
		t.Fatalf("LastNotifiedVerdict = %s, want rejected", next.LastNotifiedVerdict)
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Failed to record notification in journal" {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a journal warning in the log")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want ErrorClass
	}{
		{nil, ClassNone},
		{&practicum.FetchError{Kind: practicum.KindTransport, Err: errors.New("dial")}, ClassTransient},
		{fmt.Errorf("cycle: %w", &homework.ValidationError{Reason: homework.ReasonNotAnObject}), ClassData},
		{&homework.ExtractError{Kind: homework.ExtractMissingField, Field: "status"}, ClassData},
		{fmt.Errorf("%w: %w", ErrDelivery, errors.New("blocked")), ClassDelivery},
		{errors.New("something else"), ClassUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
