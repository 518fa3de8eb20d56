package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"devexchange-service/internal/domain"
)

// Sender delivers one email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// Dispatcher sends emails from a fixed pool of workers. Notify never blocks:
// when the queue is full the email is dropped and logged.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.Email
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, workers, bufferSize int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: 30 * time.Second,
		jobs:    make(chan domain.Email, bufferSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.jobs {
		d.send(msg)
	}
}

func (d *Dispatcher) send(msg domain.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	id, err := d.sender.Send(ctx, msg.To, msg.Subject, msg.HTML)
	if err != nil {
		d.logger.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "err", err)
		return
	}
	d.logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "messageId", id)
}

func (d *Dispatcher) Notify(msg domain.Email) {
	if msg.To == "" {
		d.logger.Warn("email dropped, no recipient", "subject", msg.Subject)
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("email dropped, dispatcher closed", "to", msg.To, "subject", msg.Subject)
		return
	}
	select {
	case d.jobs <- msg:
	default:
		d.logger.Warn("email dropped, queue full", "to", msg.To, "subject", msg.Subject)
	}
}

// Close stops accepting emails and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}
