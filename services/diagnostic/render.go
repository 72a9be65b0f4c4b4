package diagnostic

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"diagnostic-mailer/api/services/labels"
)

//go:embed templates
var templateFS embed.FS

// timestampLayout matches the millisecond ISO-8601 form browsers send.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// EmailData is everything both templates can reference.
type EmailData struct {
	SubmissionID  string
	Email         string
	ConflictPair  string
	Timestamp     string
	RawAnswers    string
	Answers       labels.Resolved
	LabelsVersion int
	SiteURL       string
	BookingURL    string
}

// Content is a rendered subject and body pair.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns a submission into the admin and user emails.
// Templates are parsed once; html/template escapes every submitted field.
type Renderer struct {
	siteURL    string
	bookingURL string
	admin      *htmltemplate.Template
	user       *htmltemplate.Template
	userText   *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(siteURL, bookingURL string) (*Renderer, error) {
	admin, err := htmltemplate.ParseFS(templateFS, "templates/admin.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin template: %w", err)
	}
	user, err := htmltemplate.ParseFS(templateFS, "templates/user.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse user template: %w", err)
	}
	userText, err := texttemplate.ParseFS(templateFS, "templates/user.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse user text template: %w", err)
	}
	return &Renderer{
		siteURL:    siteURL,
		bookingURL: bookingURL,
		admin:      admin,
		user:       user,
		userText:   userText,
	}, nil
}

// Data assembles template data for a submission.
func (r *Renderer) Data(id string, sub *Submission, resolved labels.Resolved, labelsVersion int) EmailData {
	return EmailData{
		SubmissionID:  id,
		Email:         sub.Email,
		ConflictPair:  sub.ConflictPair,
		Timestamp:     sub.Timestamp,
		RawAnswers:    sub.RawAnswers,
		Answers:       resolved,
		LabelsVersion: labelsVersion,
		SiteURL:       r.siteURL,
		BookingURL:    r.bookingURL,
	}
}

// Admin renders the operator notification.
func (r *Renderer) Admin(d EmailData) (Content, error) {
	var buf bytes.Buffer
	if err := r.admin.Execute(&buf, d); err != nil {
		return Content{}, fmt.Errorf("failed to render admin email: %w", err)
	}
	return Content{
		Subject: fmt.Sprintf("[Diagnostic] %s - %s", d.ConflictPair, d.Email),
		HTML:    buf.String(),
	}, nil
}

// User renders the result email sent to the submitter.
func (r *Renderer) User(d EmailData) (Content, error) {
	var html, text bytes.Buffer
	if err := r.user.Execute(&html, d); err != nil {
		return Content{}, fmt.Errorf("failed to render user email: %w", err)
	}
	if err := r.userText.Execute(&text, d); err != nil {
		return Content{}, fmt.Errorf("failed to render user text email: %w", err)
	}
	return Content{
		Subject: fmt.Sprintf("Your Diagnostic: %s", d.ConflictPair),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
