package diagnostic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"diagnostic-mailer/api/services/labels"
)

// maxRequestBody limits the size of the submission body to prevent abuse.
const maxRequestBody = 1 << 20 // 1MB

// SubmissionRequest is the inbound JSON body. Fields stay raw so that
// each one is checked in order with its own error, whatever its type.
type SubmissionRequest struct {
	Email        json.RawMessage `json:"email"`
	Answers      json.RawMessage `json:"answers"`
	ConflictPair json.RawMessage `json:"conflictPair"`
	Timestamp    json.RawMessage `json:"timestamp,omitempty"`
}

// Submission is a validated request with its answers decoded.
type Submission struct {
	Email        string
	Answers      labels.Answers
	RawAnswers   string
	ConflictPair string
	Timestamp    string
}

// validationError is a client input problem, reported as 400.
type validationError struct {
	code    string
	message string
}

func (e *validationError) Error() string { return e.message }

var (
	errInvalidBody  = &validationError{code: "INVALID_BODY", message: "Invalid request body"}
	errInvalidEmail = &validationError{code: "INVALID_EMAIL", message: "Valid email required"}
	errIncomplete   = &validationError{code: "INCOMPLETE_DIAGNOSTIC", message: "Incomplete diagnostic data"}
)

// decodeSubmission parses and validates the request body. Checks run in
// a fixed order: body shape, email, then answers and conflict pair, then
// the answer fields.
func decodeSubmission(body io.Reader) (*Submission, error) {
	// An empty body or a JSON null is treated like an empty object.
	var req SubmissionRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	var email string
	if err := json.Unmarshal(req.Email, &email); err != nil || !strings.Contains(email, "@") {
		return nil, errInvalidEmail
	}

	pair, ok := textValue(req.ConflictPair)
	if !truthy(req.Answers) || !ok {
		return nil, errIncomplete
	}

	raw := bytes.TrimSpace(req.Answers)
	var answers labels.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("%w: answers: %v", errInvalidBody, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}

	return &Submission{
		Email:        email,
		Answers:      answers,
		RawAnswers:   pretty.String(),
		ConflictPair: pair,
		Timestamp:    timestampValue(req.Timestamp),
	}, nil
}

// truthy reports whether a raw field is present and not one of null,
// false, 0 or "".
func truthy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// textValue returns a truthy field as text: strings as-is, anything else
// as its JSON literal.
func textValue(raw json.RawMessage) (string, bool) {
	if !truthy(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(bytes.TrimSpace(raw)), true
}

// timestampValue keeps a string timestamp verbatim and renders a number
// as epoch milliseconds. Anything else is dropped so the receive time is
// used instead.
func timestampValue(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format(timestampLayout)
	}
	return ""
}
