package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// LogMailer writes outbound mail to the log instead of delivering it, so
// signup and reset flows keep working in development without an API key.
type LogMailer struct {
	logger *zap.Logger
}

var _ port.Mailer = (*LogMailer)(nil)

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string, textBody string) error {
	m.logger.Info("Dev email log",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("text", textBody),
	)
	return nil
}
