package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"diagnostic-mailer/api/pkg/clients/email"
)

// Dispatch modes for the two outbound emails.
const (
	DispatchSequential = "sequential"
	DispatchConcurrent = "concurrent"
)

// Mail transports. The stub transport logs messages instead of sending.
const (
	TransportSMTP = "smtp"
	TransportStub = "stub"
)

// Config holds everything the service needs at start-up.
// It is built once by Load and passed down explicitly.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	SMTPHost     string
	SMTPPort     int
	SMTPTimeout  time.Duration
	SMTPTLS      string
	MailUser     string
	MailPassword string
	Transport    string

	AdminEmail string
	FromName   string
	SiteURL    string
	BookingURL string

	LabelsFile      string
	DispatchMode    string
	VerifyTransport bool
}

// Load reads configuration from the environment and a .env file (if present).
// Missing mail credentials are not an error here; call Validate before
// serving traffic.
func Load() (*Config, error) {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Addr:         getenv("ADDR", ":8080"),
		LogLevel:     strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "json")),
		SMTPHost:     getenv("SMTP_HOST", "smtp.fastmail.com"),
		SMTPTLS:      strings.ToLower(os.Getenv("SMTP_TLS")),
		MailUser:     strings.TrimSpace(os.Getenv("FASTMAIL_USER")),
		MailPassword: os.Getenv("FASTMAIL_PASSWORD"),
		FromName:     getenv("FROM_NAME", "Logos & Praxis"),
		SiteURL:      strings.TrimRight(getenv("SITE_URL", "https://logosandpraxis.com"), "/"),
		LabelsFile:   os.Getenv("LABELS_FILE"),
		DispatchMode: strings.ToLower(getenv("DISPATCH_MODE", DispatchSequential)),
		Transport:    strings.ToLower(getenv("MAIL_TRANSPORT", TransportSMTP)),
	}

	var err error
	cfg.SMTPPort, err = strconv.Atoi(getenv("SMTP_PORT", "465"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.SMTPTimeout, err = time.ParseDuration(getenv("SMTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_TIMEOUT: %w", err)
	}

	cfg.VerifyTransport, err = strconv.ParseBool(getenv("VERIFY_TRANSPORT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_TRANSPORT: %w", err)
	}

	cfg.AdminEmail = getenv("ADMIN_EMAIL", cfg.MailUser)
	cfg.BookingURL = getenv("BOOKING_URL", cfg.SiteURL+"/book")

	switch cfg.DispatchMode {
	case DispatchSequential, DispatchConcurrent:
	default:
		return nil, fmt.Errorf("invalid DISPATCH_MODE %q: want %q or %q", cfg.DispatchMode, DispatchSequential, DispatchConcurrent)
	}

	switch cfg.Transport {
	case TransportSMTP, TransportStub:
	default:
		return nil, fmt.Errorf("invalid MAIL_TRANSPORT %q: want %q or %q", cfg.Transport, TransportSMTP, TransportStub)
	}

	// Empty picks implicit TLS on 465 and STARTTLS elsewhere.
	switch cfg.SMTPTLS {
	case "", email.TLSImplicit, email.TLSStartTLS, email.TLSNone:
	default:
		return nil, fmt.Errorf("invalid SMTP_TLS %q: want %q, %q or %q", cfg.SMTPTLS, email.TLSImplicit, email.TLSStartTLS, email.TLSNone)
	}

	return cfg, nil
}

// Validate reports whether the mail credentials required to deliver
// anything are present. The stub transport needs them too: the account
// is still the sender of both copies.
func (c *Config) Validate() error {
	if c.MailUser == "" {
		return fmt.Errorf("FASTMAIL_USER is not set")
	}
	if c.MailPassword == "" {
		return fmt.Errorf("FASTMAIL_PASSWORD is not set")
	}
	return nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
