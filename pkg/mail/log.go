package mail

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/souq/pkg/logger"
)

// Log writes messages to the request logger instead of delivering them.
type Log struct {
	From Sender
}

func (l Log) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("mail (log driver)",
		"from", l.From.String(), "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// Recorder keeps every sent message in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error // returned by Send when set
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
