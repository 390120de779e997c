package mail

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// Service renders the account email templates and hands them to a Mailer.
type Service struct {
	mailer  port.Mailer
	baseURL string
	now     func() time.Time
}

func NewService(mailer port.Mailer, baseURL string) *Service {
	return &Service{mailer: mailer, baseURL: baseURL, now: time.Now}
}

// WithClock overrides the timestamp source used in rendered templates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) wrap(content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
      <h1>Urlsclickearn</h1>
    </div>
    <div style="background: white; padding: 30px; border: 1px solid #e5e7eb; border-radius: 0 0 10px 10px;">
      %s
      <div style="text-align: center; color: #6b7280; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb;">
        <p>This is an automated message from Urlsclickearn.</p>
        <p>&copy; %d Urlsclickearn. All rights reserved.</p>
        <p>If you didn't request this email, please ignore it or contact support.</p>
      </div>
    </div>
  </div>
</body>
</html>`, content, s.now().Year())
}

func greeting(name string) string {
	if name == "" {
		return ""
	}
	return " " + html.EscapeString(name)
}

// SendVerificationEmail delivers the six-digit signup verification code.
func (s *Service) SendVerificationEmail(ctx context.Context, to, code string) error {
	htmlBody := s.wrap(fmt.Sprintf(`
      <h2>Verify Your Email</h2>
      <p>Your verification code is:</p>
      <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; text-align: center; margin: 20px 0;">
        <span style="font-size: 32px; font-weight: bold; color: #667eea; letter-spacing: 5px;">%s</span>
      </div>
      <p>This code expires in 60 minutes.</p>`, html.EscapeString(code)))

	textBody := fmt.Sprintf("Your Urlsclickearn verification code is: %s. This code expires in 60 minutes.", code)

	return s.mailer.Send(ctx, to, "Verify Your Email", htmlBody, textBody)
}

// SendWelcomeEmail confirms a successful verification.
func (s *Service) SendWelcomeEmail(ctx context.Context, to, name string) error {
	htmlBody := s.wrap(fmt.Sprintf(`
      <h2>Welcome aboard%s!</h2>
      <p>Your account has been successfully verified and you're all set to start using Urlsclickearn.</p>
      <a href="%s/dashboard" style="display: inline-block; padding: 12px 24px; background: #667eea; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0;">Go to Dashboard</a>`,
		greeting(name), s.baseURL))

	textBody := fmt.Sprintf("Welcome to Urlsclickearn! Your account has been verified. Visit %s/dashboard to get started.", s.baseURL)

	return s.mailer.Send(ctx, to, "Welcome to Urlsclickearn!", htmlBody, textBody)
}

// SendResetCodeEmail delivers the six-digit password reset code.
func (s *Service) SendResetCodeEmail(ctx context.Context, to, code, name string) error {
	htmlBody := s.wrap(fmt.Sprintf(`
      <h2>Password Reset Request</h2>
      <p>Hello%s,</p>
      <p>We received a request to reset your password for your Urlsclickearn account.</p>
      <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; text-align: center; margin: 20px 0;">
        <span style="font-size: 32px; font-weight: bold; color: #667eea; letter-spacing: 5px;">%s</span>
      </div>
      <p>This code expires in 60 minutes. If you didn't request this, please ignore this email.</p>`,
		greeting(name), html.EscapeString(code)))

	textBody := fmt.Sprintf("Your password reset code is: %s. This code expires in 60 minutes. If you didn't request this, please ignore this email.", code)

	return s.mailer.Send(ctx, to, "Password Reset Code for Urlsclickearn", htmlBody, textBody)
}

// SendPasswordChangedEmail confirms that the account password was changed.
func (s *Service) SendPasswordChangedEmail(ctx context.Context, to, name string) error {
	htmlBody := s.wrap(fmt.Sprintf(`
      <h2>Password Successfully Changed</h2>
      <p>Hello%s,</p>
      <p>This email confirms that your Urlsclickearn account password was successfully changed on %s.</p>
      <div style="background: #fef2f2; color: #991b1b; padding: 10px; border-radius: 6px; margin-top: 20px;">
        <strong>Wasn't you?</strong> If you didn't make this change, your account may be compromised.
        Please contact our support team immediately.
      </div>`,
		greeting(name), s.now().UTC().Format(time.RFC1123)))

	textBody := "Your Urlsclickearn password has been successfully changed. If you didn't make this change, please contact support immediately."

	return s.mailer.Send(ctx, to, "Your Urlsclickearn password has been changed", htmlBody, textBody)
}

// LoginAlert carries the context rendered into login notification emails.
type LoginAlert struct {
	IP     string
	Device string
}

// SendLoginAlertEmail notifies the account owner of a new login.
func (s *Service) SendLoginAlertEmail(ctx context.Context, to string, alert LoginAlert) error {
	var details strings.Builder
	fmt.Fprintf(&details, "<p><strong>Time:</strong> %s</p>", s.now().UTC().Format(time.RFC1123))
	if alert.IP != "" {
		fmt.Fprintf(&details, "<p><strong>IP Address:</strong> %s</p>", html.EscapeString(alert.IP))
	}
	if alert.Device != "" {
		fmt.Fprintf(&details, "<p><strong>Device:</strong> %s</p>", html.EscapeString(alert.Device))
	}

	htmlBody := s.wrap(fmt.Sprintf(`
      <h2>New Login Detected</h2>
      <p>We noticed a new login to your Urlsclickearn account:</p>
      <div style="background: #f9fafb; padding: 15px; border-radius: 8px; margin: 20px 0;">
        %s
      </div>
      <p>If this was you, no action is needed. If you don't recognize this login, please change your password immediately.</p>`,
		details.String()))

	textBody := "New login detected on your Urlsclickearn account. If this wasn't you, please secure your account immediately."

	return s.mailer.Send(ctx, to, "New login to your Urlsclickearn account", htmlBody, textBody)
}
