package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// minAPIKeyLength catches accidentally truncated or pasted-over keys before
// the first request fails with a confusing 401.
const minAPIKeyLength = 20

// BrevoMailer delivers mail through the Brevo transactional email API.
type BrevoMailer struct {
	client *http.Client
	cfg    config.MailSettings
	logger *zap.Logger
}

var _ port.Mailer = (*BrevoMailer)(nil)

// NewBrevoMailer validates the API key shape and returns a Brevo-backed mailer.
// With Strict disabled a suspicious key only logs a warning and the API is
// left to reject it.
func NewBrevoMailer(cfg config.MailSettings, log *zap.Logger) (*BrevoMailer, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if len(key) < minAPIKeyLength || strings.Contains(key, " ") {
		if cfg.Strict {
			return nil, fmt.Errorf("brevo api key looks invalid (length=%d)", len(key))
		}
		log.Warn("Brevo API key looks invalid", zap.Int("length", len(key)))
	}

	return &BrevoMailer{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: log,
	}, nil
}

type brevoParticipant struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoParticipant   `json:"sender"`
	To          []brevoParticipant `json:"to"`
	Subject     string             `json:"subject"`
	HTMLContent string             `json:"htmlContent"`
	TextContent string             `json:"textContent,omitempty"`
}

// Send posts a single transactional email. The HTTP client timeout bounds the
// call in addition to the caller's context.
func (m *BrevoMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	payload := brevoRequest{
		Sender: brevoParticipant{
			Name:  m.cfg.SenderName,
			Email: m.cfg.SenderAddr,
		},
		To:          []brevoParticipant{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
		TextContent: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}

	req.Header.Set("api-key", m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.logger.Error("Brevo API error",
			zap.Int("status", resp.StatusCode),
			zap.String("recipient", logger.MaskEmail(to)),
			zap.ByteString("detail", detail),
		)
		return fmt.Errorf("brevo api error: status %d", resp.StatusCode)
	}

	m.logger.Info("Email sent",
		zap.String("recipient", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)

	return nil
}
