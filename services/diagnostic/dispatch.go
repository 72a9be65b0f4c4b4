package diagnostic

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"diagnostic-mailer/api/pkg/clients/email"
)

// outbound is one email plus the name used for it in logs and errors.
type outbound struct {
	kind string
	msg  email.Message
}

// dispatch delivers every message at most once. In sequential mode a
// message is only attempted after the previous one succeeded; in
// concurrent mode all are attempted and the first error is returned.
// Nothing already sent is compensated on failure.
func (s *Service) dispatch(ctx context.Context, batch []outbound) error {
	if !s.settings.Concurrent {
		for _, o := range batch {
			if err := s.mailer.Send(ctx, o.msg); err != nil {
				return fmt.Errorf("send %s copy: %w", o.kind, err)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range batch {
		g.Go(func() error {
			if err := s.mailer.Send(gctx, o.msg); err != nil {
				return fmt.Errorf("send %s copy: %w", o.kind, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// deliveryFailure maps a transport error onto the response code and message.
func deliveryFailure(err error) (code, message string) {
	var (
		authErr *email.AuthError
		connErr *email.ConnectionError
	)
	switch {
	case errors.As(err, &authErr):
		return "EMAIL_AUTH_FAILED", "Email authentication failed"
	case errors.As(err, &connErr):
		return "EMAIL_UNREACHABLE", "Cannot connect to email server"
	default:
		return "EMAIL_SEND_FAILED", "Failed to send diagnostic results"
	}
}
