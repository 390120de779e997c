package mail

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
)

// RetryMailer retries transient delivery failures with a fixed delay between
// attempts. The wrapped error is the one from the final attempt.
type RetryMailer struct {
	inner    port.Mailer
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

var _ port.Mailer = (*RetryMailer)(nil)

func NewRetryMailer(inner port.Mailer, attempts int, delay time.Duration, log *zap.Logger) *RetryMailer {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryMailer{inner: inner, attempts: attempts, delay: delay, logger: log}
}

func (m *RetryMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	var lastErr error

	for attempt := 1; attempt <= m.attempts; attempt++ {
		lastErr = m.inner.Send(ctx, to, subject, htmlBody, textBody)
		if lastErr == nil {
			return nil
		}

		m.logger.Warn("Email delivery attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.attempts),
			zap.String("recipient", logger.MaskEmail(to)),
			zap.Error(lastErr),
		)

		if attempt == m.attempts {
			break
		}

		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return fmt.Errorf("send email to %s: %w", logger.MaskEmail(to), ctx.Err())
		}
	}

	return fmt.Errorf("send email after %d attempts: %w", m.attempts, lastErr)
}
