package testutils

import (
	"sync"
	"testing"
	"time"
)

type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// FakeMailer records outbound messages. Delivery happens on a goroutine in
// the OTP send path, so WaitForMessage is the way to observe it from a test.
type FakeMailer struct {
	mu       sync.Mutex
	messages []SentMessage
	sent     chan SentMessage
	err      error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{
		sent: make(chan SentMessage, 16),
	}
}

// SetErr makes every subsequent SendPlain call fail with err. Pass nil to
// restore deliveries.
func (f *FakeMailer) SetErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeMailer) SendPlain(to, subject, body string) error {
	f.mu.Lock()
	err := f.err
	msg := SentMessage{To: to, Subject: subject, Body: body}
	if err == nil {
		f.messages = append(f.messages, msg)
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}

	f.sent <- msg
	return nil
}

func (f *FakeMailer) Messages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *FakeMailer) WaitForMessage(t *testing.T, timeout time.Duration) SentMessage {
	t.Helper()
	select {
	case msg := <-f.sent:
		return msg
	case <-time.After(timeout):
		t.Fatalf("no message delivered within %v", timeout)
		return SentMessage{}
	}
}
