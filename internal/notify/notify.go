// Package notify sends account lifecycle emails. Dispatch is fire-and-forget:
// callers never wait for delivery and never see delivery errors.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind selects the email template.
type Kind int

const (
	// Welcome is sent after registration.
	Welcome Kind = iota
	// Farewell is sent after account deletion.
	Farewell
)

// String returns a lower-case name for logs.
func (k Kind) String() string {
	switch k {
	case Welcome:
		return "welcome"
	case Farewell:
		return "farewell"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Message is a plain-text email.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
}

// Sender delivers one message through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Compose renders the message for kind addressed to name at email.
func Compose(kind Kind, from, email, name string) (Message, error) {
	msg := Message{To: email, From: from}
	switch kind {
	case Welcome:
		msg.Subject = "Thanks for joining us"
		msg.Text = fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app", name)
	case Farewell:
		msg.Subject = "Good Bye"
		msg.Text = fmt.Sprintf("We are sorry that you are leaving us %s, PLS come back we love you", name)
	default:
		return Message{}, fmt.Errorf("unknown notification kind %v", kind)
	}
	return msg, nil
}

// DefaultTimeout bounds a single send.
const DefaultTimeout = 10 * time.Second

// Dispatcher composes messages and hands them to a Sender on a goroutine.
type Dispatcher struct {
	sender  Sender
	from    string
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher builds a Dispatcher sending from the fixed address from.
func NewDispatcher(sender Sender, from string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		from:    from,
		timeout: DefaultTimeout,
		log:     log,
	}
}

// Notify schedules a kind email to email/name and returns immediately.
// Failures are logged and dropped.
func (d *Dispatcher) Notify(kind Kind, email, name string) {
	msg, err := Compose(kind, d.from, email, name)
	if err != nil {
		d.log.Error("compose notification", zap.Error(err))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification sender panicked",
					zap.Stringer("kind", kind), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Warn("failed to send notification",
				zap.Stringer("kind", kind), zap.String("to", msg.To), zap.Error(err))
			return
		}
		d.log.Debug("notification sent", zap.Stringer("kind", kind), zap.String("to", msg.To))
	}()
}

// Wait blocks until every scheduled send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
