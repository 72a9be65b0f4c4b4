package diagnostic

import (
	"io"
	"time"
)

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func DecodeSubmission(body io.Reader) (*Submission, error) {
	return decodeSubmission(body)
}
