// Package notify delivers issued codes to their owners out of band.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/codeAuth/credential"
)

// Recipient identifies who receives a notification.
type Recipient struct {
	Email string
	Name  string
}

// Notification is one code delivery. Binding and Code together form a magic
// link; Code alone is what the user types.
type Notification struct {
	Purpose   credential.Purpose
	Code      string
	Binding   string
	Recipient Recipient
	Subject   string
}

// Notifier sends notifications. Callers treat delivery as fire-and-forget:
// an error is logged by the caller and never changes the flow result.
type Notifier interface {
	SendCode(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) SendCode(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to a logger instead of sending them.
// It logs codes and addresses, so it is meant for development only.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (s *LogNotifier) SendCode(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "send code",
		"purpose", n.Purpose.String(),
		"recipient", n.Recipient.Email,
		"name", n.Recipient.Name,
		"subject", n.Subject,
		"code", n.Code,
		"binding", n.Binding,
	)
	return nil
}

// MemoryNotifier records notifications in memory.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (s *MemoryNotifier) SendCode(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns a copy of every recorded notification.
func (s *MemoryNotifier) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.sent...)
}

// Last returns the most recent notification for email.
func (s *MemoryNotifier) Last(email string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].Recipient.Email == email {
			return s.sent[i], true
		}
	}
	return Notification{}, false
}
