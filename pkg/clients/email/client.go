package email

import (
	"context"
	"log/slog"
	"sync"
)

// Message represents an email to be sent. HTML is required; Text and
// ReplyTo are optional.
type Message struct {
	FromName string
	From     string
	To       string
	ReplyTo  string
	Subject  string
	HTML     string
	Text     string
}

// Client defines the interface for delivering emails.
// Implementations report failures through the typed errors in this
// package (*AuthError, *ConnectionError, *UnknownTransportError) so
// callers never depend on a specific transport library.
type Client interface {
	Send(ctx context.Context, msg Message) error
	// Verify checks that the relay is reachable and accepts the credentials.
	Verify(ctx context.Context) error
}

// StubClient simulates sending emails by logging them.
// Used for local development and previews.
type StubClient struct {
	mu   sync.Mutex
	sent []Message
}

// NewStubClient creates an email client that logs instead of sending.
func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) Send(_ context.Context, msg Message) error {
	slog.Info("sending email (stub)", "to", msg.To, "from", msg.From, "subject", msg.Subject)
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

func (c *StubClient) Verify(_ context.Context) error {
	return nil
}

// Sent returns a copy of every message passed to Send.
func (c *StubClient) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}
