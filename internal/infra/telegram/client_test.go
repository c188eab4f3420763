package telegram

import (
	"context"
	"errors"
	"testing"

	"gopkg.in/telebot.v3"
)

type fakeSender struct {
	to   []string
	what []interface{}
	err  error
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	f.to = append(f.to, to.Recipient())
	f.what = append(f.what, what)
	if f.err != nil {
		return nil, f.err
	}
	return &telebot.Message{}, nil
}

func TestSendMessageUsesChatID(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	adapter := NewTelebotAdapter(sender, 5)

	if err := adapter.SendMessage(context.Background(), -100123, "hello"); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "-100123" {
		t.Fatalf("recipients = %v, want [-100123]", sender.to)
	}
	if sender.what[0] != "hello" {
		t.Fatalf("text = %v, want hello", sender.what[0])
	}
}

func TestSendMessageWrapsError(t *testing.T) {
	t.Parallel()
	boom := errors.New("bot was blocked by the user")
	adapter := NewTelebotAdapter(&fakeSender{err: boom}, 1)

	err := adapter.SendMessage(context.Background(), 1, "hello")
	if !errors.Is(err, boom) {
		t.Fatalf("SendMessage error = %v, want wrapped %v", err, boom)
	}
}

func TestSendMessageRespectsContext(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	adapter := NewTelebotAdapter(sender, 1)
	ctx := context.Background()

	// Burst of one is used up by the first message.
	if err := adapter.SendMessage(ctx, 1, "first"); err != nil {
		t.Fatalf("first SendMessage error: %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := adapter.SendMessage(cancelled, 1, "second"); err == nil {
		t.Fatal("SendMessage with cancelled context should fail")
	}
	if len(sender.to) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.to))
	}
}
