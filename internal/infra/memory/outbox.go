package memory

import (
	"sync"

	"devexchange-service/internal/domain"
)

// Outbox is a Notifier that records emails instead of sending them.
type Outbox struct {
	mu   sync.Mutex
	sent []domain.Email
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Notify(msg domain.Email) {
	o.mu.Lock()
	o.sent = append(o.sent, msg)
	o.mu.Unlock()
}

// Sent returns a copy of every recorded email.
func (o *Outbox) Sent() []domain.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Email(nil), o.sent...)
}
