package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "LOG_LEVEL", "LOG_FORMAT", "SMTP_HOST", "SMTP_PORT", "SMTP_TIMEOUT",
		"ADMIN_EMAIL", "FROM_NAME", "SITE_URL", "BOOKING_URL", "LABELS_FILE",
		"DISPATCH_MODE", "VERIFY_TRANSPORT", "MAIL_TRANSPORT", "SMTP_TLS",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("FASTMAIL_USER", "hello@example.com")
	t.Setenv("FASTMAIL_PASSWORD", "app-password")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %q", cfg.Addr)
	}
	if cfg.SMTPHost != "smtp.fastmail.com" || cfg.SMTPPort != 465 {
		t.Errorf("unexpected smtp endpoint %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if cfg.SMTPTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.SMTPTimeout)
	}
	if cfg.AdminEmail != "hello@example.com" {
		t.Errorf("admin email should default to the mail user, got %q", cfg.AdminEmail)
	}
	if cfg.FromName != "Logos & Praxis" {
		t.Errorf("unexpected from name %q", cfg.FromName)
	}
	if cfg.BookingURL != "https://logosandpraxis.com/book" {
		t.Errorf("unexpected booking url %q", cfg.BookingURL)
	}
	if cfg.DispatchMode != DispatchSequential {
		t.Errorf("expected sequential dispatch, got %q", cfg.DispatchMode)
	}
	if cfg.VerifyTransport {
		t.Error("verify transport should default to false")
	}
	if cfg.Transport != TransportSMTP || cfg.SMTPTLS != "" {
		t.Errorf("unexpected transport=%q tls=%q", cfg.Transport, cfg.SMTPTLS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_TIMEOUT", "3s")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("SITE_URL", "https://example.org/")
	t.Setenv("DISPATCH_MODE", "Concurrent")
	t.Setenv("VERIFY_TRANSPORT", "true")
	t.Setenv("MAIL_TRANSPORT", "Stub")
	t.Setenv("SMTP_TLS", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTPPort != 2525 || cfg.SMTPTimeout != 3*time.Second {
		t.Errorf("overrides not applied: port=%d timeout=%v", cfg.SMTPPort, cfg.SMTPTimeout)
	}
	if cfg.AdminEmail != "ops@example.com" {
		t.Errorf("unexpected admin email %q", cfg.AdminEmail)
	}
	if cfg.SiteURL != "https://example.org" || cfg.BookingURL != "https://example.org/book" {
		t.Errorf("unexpected urls %q %q", cfg.SiteURL, cfg.BookingURL)
	}
	if cfg.DispatchMode != DispatchConcurrent || !cfg.VerifyTransport {
		t.Errorf("unexpected dispatch=%q verify=%v", cfg.DispatchMode, cfg.VerifyTransport)
	}
	if cfg.Transport != TransportStub || cfg.SMTPTLS != "none" {
		t.Errorf("unexpected transport=%q tls=%q", cfg.Transport, cfg.SMTPTLS)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "port", key: "SMTP_PORT", value: "smtp", wantErr: "invalid SMTP_PORT"},
		{name: "timeout", key: "SMTP_TIMEOUT", value: "soon", wantErr: "invalid SMTP_TIMEOUT"},
		{name: "verify", key: "VERIFY_TRANSPORT", value: "maybe", wantErr: "invalid VERIFY_TRANSPORT"},
		{name: "dispatch", key: "DISPATCH_MODE", value: "parallel", wantErr: "invalid DISPATCH_MODE"},
		{name: "transport", key: "MAIL_TRANSPORT", value: "sendgrid", wantErr: "invalid MAIL_TRANSPORT"},
		{name: "tls", key: "SMTP_TLS", value: "ssl", wantErr: "invalid SMTP_TLS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		setBaseEnv(t)
		t.Chdir(t.TempDir())

		if _, err := Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("values are read", func(t *testing.T) {
		setBaseEnv(t)
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FROM_NAME=Dotenv Sender\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Chdir(dir)
		// godotenv only fills variables that are unset.
		os.Unsetenv("FROM_NAME")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.FromName != "Dotenv Sender" {
			t.Errorf("expected from name from .env, got %q", cfg.FromName)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		setBaseEnv(t)
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FOO=\"unterminated\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Chdir(dir)

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "failed to load .env") {
			t.Fatalf("expected .env parse error, got %v", err)
		}
	})
}

func TestValidate_MissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		wantErr  string
	}{
		{name: "no user", password: "secret", wantErr: "FASTMAIL_USER is not set"},
		{name: "no password", user: "hello@example.com", wantErr: "FASTMAIL_PASSWORD is not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{MailUser: tt.user, MailPassword: tt.password}
			err := cfg.Validate()
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}
