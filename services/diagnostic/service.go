package diagnostic

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"diagnostic-mailer/api/pkg/clients/email"
	"diagnostic-mailer/api/services/labels"
)

// Settings is the per-process configuration the handler needs. It is
// built once at start-up and never re-read from the environment.
type Settings struct {
	MailUser     string
	MailPassword string
	AdminEmail   string
	FromName     string
	SiteURL      string
	BookingURL   string

	// Concurrent sends both copies at once instead of admin-then-user.
	Concurrent bool
	// VerifyTransport checks relay connectivity before sending.
	VerifyTransport bool
}

func (s Settings) credentialsConfigured() bool {
	return s.MailUser != "" && s.MailPassword != ""
}

// Service handles diagnostic submissions over HTTP.
// It depends on the email.Client interface rather than a concrete
// transport, keeping the HTTP layer decoupled from SMTP.
type Service struct {
	settings Settings
	mailer   email.Client
	labels   *labels.Table
	renderer *Renderer
	now      func() time.Time
}

// NewService creates a diagnostic Service.
func NewService(settings Settings, mailer email.Client, table *labels.Table) (*Service, error) {
	if mailer == nil {
		return nil, fmt.Errorf("service: mailer cannot be nil")
	}
	if table == nil {
		return nil, fmt.Errorf("service: label table cannot be nil")
	}
	if settings.AdminEmail == "" {
		settings.AdminEmail = settings.MailUser
	}
	renderer, err := NewRenderer(settings.SiteURL, settings.BookingURL)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return &Service{
		settings: settings,
		mailer:   mailer,
		labels:   table,
		renderer: renderer,
		now:      time.Now,
	}, nil
}

// jsonMiddleware sets the Content-Type header to application/json
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.NewRoute().Subrouter()
	router.Use(requestIDMiddleware, corsMiddleware, jsonMiddleware)

	// No method matchers: corsMiddleware answers OPTIONS and the handlers
	// write their own 405, so every response carries CORS headers and JSON.
	router.HandleFunc("/submit-diagnostic", s.HandleSubmitDiagnostic)
	router.HandleFunc("/healthz", s.HandleHealth)
}
