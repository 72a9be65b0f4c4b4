package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"diagnostic-mailer/api/pkg/clients/email"
	"diagnostic-mailer/api/pkg/config"
	"diagnostic-mailer/api/pkg/logging"
	"diagnostic-mailer/api/services/diagnostic"
	"diagnostic-mailer/api/services/labels"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "diagnosticd",
		Short:        "Receives diagnostic quiz submissions and emails the results",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newLambdaCmd(), newCheckSMTPCmd(), newPreviewCmd())
	return root
}

// loadConfig reads configuration, installs the logger and fails closed
// when mail credentials are missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return nil, err
	}
	return cfg, nil
}

// buildHandler wires the mail transport, label tables and routes into
// the root HTTP handler.
func buildHandler(cfg *config.Config) (http.Handler, error) {
	table, err := labels.Load(cfg.LabelsFile)
	if err != nil {
		return nil, err
	}
	slog.Info("label tables loaded", "version", table.Version, "source", labelSource(cfg.LabelsFile))

	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := diagnostic.NewService(diagnostic.Settings{
		MailUser:        cfg.MailUser,
		MailPassword:    cfg.MailPassword,
		AdminEmail:      cfg.AdminEmail,
		FromName:        cfg.FromName,
		SiteURL:         cfg.SiteURL,
		BookingURL:      cfg.BookingURL,
		Concurrent:      cfg.DispatchMode == config.DispatchConcurrent,
		VerifyTransport: cfg.VerifyTransport,
	}, mailer, table)
	if err != nil {
		return nil, err
	}

	mainRouter := mux.NewRouter()
	apiRouter := mainRouter.PathPrefix("/api").Subrouter()
	svc.LoadRoutes(apiRouter)

	var h http.Handler = mainRouter
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logging.RecoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, logging.AccessLog)
	return h, nil
}

// newMailer returns the configured mail transport.
func newMailer(cfg *config.Config) (email.Client, error) {
	if cfg.Transport == config.TransportStub {
		slog.Warn("using stub mail transport, messages are logged and not sent")
		return email.NewStubClient(), nil
	}
	client, err := email.NewSMTPClient(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.MailUser,
		Password: cfg.MailPassword,
		Timeout:  cfg.SMTPTimeout,
		TLS:      cfg.SMTPTLS,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func labelSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			h, err := buildHandler(cfg)
			if err != nil {
				slog.Error("failed to build handler", "error", err)
				return err
			}
			return runServer(cmd.Context(), cfg.Addr, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func runServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("Server error", "error", err)
		return err

	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Could not stop server gracefully", "error", err)
			srv.Close()
			return err
		}
	}
	return nil
}
