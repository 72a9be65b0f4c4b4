package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// TLS modes for the relay connection.
const (
	TLSImplicit = "implicit"
	TLSStartTLS = "starttls"
	TLSNone     = "none"
)

// SMTPConfig holds relay settings. With TLS unset, port 465 uses implicit
// TLS and any other port negotiates STARTTLS. TLSNone is meant for local
// catch-all relays.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	TLS      string
}

// SMTPClient delivers messages through an authenticated SMTP relay.
// A new connection is opened for every Send, so the client holds no
// per-request state and is safe for concurrent use.
type SMTPClient struct {
	cfg SMTPConfig
}

// NewSMTPClient validates the relay settings and returns a client.
func NewSMTPClient(cfg SMTPConfig) (*SMTPClient, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host cannot be empty")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp: username and password are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	switch cfg.TLS {
	case "":
		cfg.TLS = TLSStartTLS
		if cfg.Port == 465 {
			cfg.TLS = TLSImplicit
		}
	case TLSImplicit, TLSStartTLS, TLSNone:
	default:
		return nil, fmt.Errorf("smtp: unknown tls mode %q", cfg.TLS)
	}
	return &SMTPClient{cfg: cfg}, nil
}

func (c *SMTPClient) newTransport() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password),
		mail.WithTimeout(c.cfg.Timeout),
	}
	switch c.cfg.TLS {
	case TLSImplicit:
		opts = append(opts, mail.WithSSL())
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(c.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

// Send builds a MIME message and delivers it in its own SMTP session.
func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return &UnknownTransportError{Err: err}
	}

	client, err := c.newTransport()
	if err != nil {
		return &UnknownTransportError{Err: err}
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return Classify(err)
	}
	slog.Debug("email delivered", "to", msg.To, "subject", msg.Subject, "elapsed", time.Since(start))
	return nil
}

// Verify dials the relay and authenticates without sending anything.
func (c *SMTPClient) Verify(ctx context.Context) error {
	client, err := c.newTransport()
	if err != nil {
		return &UnknownTransportError{Err: err}
	}
	if err := client.DialWithContext(ctx); err != nil {
		return Classify(err)
	}
	if err := client.Close(); err != nil {
		slog.Warn("failed to close smtp session after verify", "error", err)
	}
	return nil
}

func buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to %q: %w", msg.ReplyTo, err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}
