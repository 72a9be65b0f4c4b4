package diagnostic

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/google/uuid"

	"diagnostic-mailer/api/pkg/clients/email"
)

// HandleSubmitDiagnostic validates a quiz submission, renders the admin
// and user emails and sends both. Every outcome is a JSON response;
// delivery failures never say which of the two sends failed.
func (s *Service) HandleSubmitDiagnostic(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)

	// OPTIONS never reaches here: corsMiddleware answers it.
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	sub, err := decodeSubmission(r.Body)
	if err != nil {
		var vErr *validationError
		if !errors.As(err, &vErr) {
			vErr = errInvalidBody
		}
		slog.Warn("rejected submission", "requestId", rid, "reason", vErr.code, "error", err)
		writeErrorJSON(w, vErr.code, vErr.message, http.StatusBadRequest)
		return
	}

	if !s.settings.credentialsConfigured() {
		slog.Error("mail credentials are not configured", "requestId", rid)
		writeErrorJSON(w, "CONFIG_ERROR", "Server configuration error", http.StatusInternalServerError)
		return
	}

	if sub.Timestamp == "" {
		sub.Timestamp = s.now().UTC().Format(timestampLayout)
	}

	submissionID := uuid.NewString()
	resolved := s.labels.Resolve(sub.Answers)
	data := s.renderer.Data(submissionID, sub, resolved, s.labels.Version)

	batch, err := s.compose(data)
	if err != nil {
		slog.Error("failed to render emails", "requestId", rid, "submissionId", submissionID, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "Failed to send diagnostic results", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	if s.settings.VerifyTransport {
		if err := s.mailer.Verify(ctx); err != nil {
			code, msg := deliveryFailure(err)
			slog.Error("mail transport check failed", "requestId", rid, "submissionId", submissionID, "reason", code, "error", err)
			writeErrorJSON(w, code, msg, http.StatusInternalServerError)
			return
		}
	}

	if err := s.dispatch(ctx, batch); err != nil {
		code, msg := deliveryFailure(err)
		slog.Error("failed to send diagnostic emails",
			"requestId", rid,
			"submissionId", submissionID,
			"reason", code,
			"error", err,
		)
		writeErrorJSON(w, code, msg, http.StatusInternalServerError)
		return
	}

	slog.Info("diagnostic submission delivered",
		"requestId", rid,
		"submissionId", submissionID,
		"conflictPair", sub.ConflictPair,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"submissionId": submissionID,
		"message":      "Diagnostic results sent",
	}, rid)
}

// compose builds the admin copy followed by the user copy.
func (s *Service) compose(d EmailData) ([]outbound, error) {
	admin, err := s.renderer.Admin(d)
	if err != nil {
		return nil, err
	}
	user, err := s.renderer.User(d)
	if err != nil {
		return nil, err
	}

	// The submitter address only has to contain "@"; a Reply-To header
	// is added when it also parses, so the admin copy never fails on it.
	var replyTo string
	if _, err := mail.ParseAddress(d.Email); err == nil {
		replyTo = d.Email
	}

	from := s.settings.MailUser
	return []outbound{
		{kind: "admin", msg: email.Message{
			FromName: s.settings.FromName,
			From:     from,
			To:       s.settings.AdminEmail,
			ReplyTo:  replyTo,
			Subject:  admin.Subject,
			HTML:     admin.HTML,
		}},
		{kind: "user", msg: email.Message{
			FromName: s.settings.FromName,
			From:     from,
			To:       d.Email,
			Subject:  user.Subject,
			HTML:     user.HTML,
			Text:     user.Text,
		}},
	}, nil
}

// HandleHealth reports liveness and the label table version in use.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"labelsVersion": s.labels.Version,
	}, reqID(r))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path, "requestId", reqID(r))
	writeErrorJSON(w, "METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, body any, rid string) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to marshal response", "requestId", rid, "error", err)
		writeErrorJSON(w, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		slog.Error("failed to write response", "requestId", rid, "error", err)
	}
}

// writeErrorJSON writes a JSON error with a human-readable "error" message
// and a machine-readable "code".
func writeErrorJSON(w http.ResponseWriter, errCode, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": errCode, "error": message})
}
