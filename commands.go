package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"diagnostic-mailer/api/pkg/config"
	"diagnostic-mailer/api/pkg/lambdahttp"
	"diagnostic-mailer/api/pkg/logging"
	"diagnostic-mailer/api/services/diagnostic"
	"diagnostic-mailer/api/services/labels"
)

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve requests as an AWS Lambda function behind an HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			h, err := buildHandler(cfg)
			if err != nil {
				slog.Error("failed to build handler", "error", err)
				return err
			}
			lambda.Start(lambdahttp.Handler(h))
			return nil
		},
	}
}

func newCheckSMTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-smtp",
		Short: "Connect and authenticate to the mail relay without sending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mailer, err := newMailer(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SMTPTimeout+5*time.Second)
			defer cancel()
			if err := mailer.Verify(ctx); err != nil {
				slog.Error("mail relay check failed", "host", cfg.SMTPHost, "port", cfg.SMTPPort, "error", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s:%d accepted credentials for %s\n", cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser)
			return nil
		},
	}
}

type previewOptions struct {
	email        string
	conflictPair string
	answers      labels.Answers
	admin        bool
	text         bool
}

func newPreviewCmd() *cobra.Command {
	var opts previewOptions
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render an email for a sample submission to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			table, err := labels.Load(cfg.LabelsFile)
			if err != nil {
				return err
			}
			return renderPreview(cmd, cfg, table, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.email, "email", "reader@example.com", "submitter address")
	f.StringVar(&opts.conflictPair, "conflict", "Speed vs Quality", "conflict pair")
	f.StringVar(&opts.answers.Q1, "q1", "jaw", "signal code")
	f.StringVar(&opts.answers.Q2, "q2", "meetings", "trigger code")
	f.StringVar(&opts.answers.Q3, "q3", "shipping", "deferred work code")
	f.BoolVar(&opts.admin, "admin", false, "render the admin copy instead of the user copy")
	f.BoolVar(&opts.text, "text", false, "print the plain-text part (user copy only)")
	return cmd
}

func renderPreview(cmd *cobra.Command, cfg *config.Config, table *labels.Table, opts previewOptions) error {
	renderer, err := diagnostic.NewRenderer(cfg.SiteURL, cfg.BookingURL)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(opts.answers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	sub := &diagnostic.Submission{
		Email:        opts.email,
		Answers:      opts.answers,
		RawAnswers:   string(raw),
		ConflictPair: opts.conflictPair,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	data := renderer.Data("preview", sub, table.Resolve(opts.answers), table.Version)

	var content diagnostic.Content
	if opts.admin {
		content, err = renderer.Admin(data)
	} else {
		content, err = renderer.User(data)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subject: %s\n\n", content.Subject)
	if opts.text && !opts.admin {
		fmt.Fprint(out, content.Text)
		return nil
	}
	fmt.Fprint(out, content.HTML)
	return nil
}
