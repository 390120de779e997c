package port

import "context"

// Mailer abstracts the outbound transactional email capability. Implementations
// must time-box the underlying network call; callers decide per flow whether a
// failure is swallowed or surfaced.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
