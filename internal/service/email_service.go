package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrMailNotConfigured is returned when no outbound mail credentials are set.
var ErrMailNotConfigured = errors.New("email service is not configured")

// OTPSubject is the subject line of one-time code emails.
const OTPSubject = "Your Aura OTP"

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailService renders Aura emails and hands them to a Mailer
type EmailService struct {
	mailer Mailer
	logger *slog.Logger
	debug  bool
}

// NewEmailService creates a new email service. A nil mailer creates a
// disabled service whose sends fail with ErrMailNotConfigured.
func NewEmailService(mailer Mailer, logger *slog.Logger, debug bool) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		logger.Warn("email service disabled: no mail credentials configured")
	}
	return &EmailService{
		mailer: mailer,
		logger: logger,
		debug:  debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.mailer != nil
}

// SendOTPEmail sends a password reset code to toEmail
func (s *EmailService) SendOTPEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error {
	if !s.IsEnabled() {
		return ErrMailNotConfigured
	}

	if s.debug {
		s.logger.DebugContext(ctx, "sending otp email", "to", toEmail)
	}

	htmlBody := fmt.Sprintf(
		"<h2>Password Reset</h2><p>Your OTP: <strong>%s</strong></p><p>This OTP expires in %d minutes.</p><p>If you didn't request this, ignore this email.</p>",
		code, int(ttl.Minutes()))

	if err := s.mailer.Send(ctx, toEmail, OTPSubject, htmlBody); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.InfoContext(ctx, "email sent", "to", toEmail, "subject", OTPSubject)
	return nil
}
