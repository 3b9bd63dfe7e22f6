package main

import (
	"context"
	"log/slog"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/config"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// newMailer picks the outbound mail transport. It returns a nil Mailer when
// no credentials are configured; OTP requests then fail with a config error.
func newMailer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	switch cfg.ResolvedMailProvider() {
	case "ses":
		logger.Info("mail transport configured", "provider", "ses", "region", cfg.AWSRegion, "from", cfg.SenderAddress())
		mailer, err := service.NewSESMailer(ctx, cfg.AWSRegion, cfg.MailAPIKey, cfg.SenderAddress(), cfg.MailSenderName)
		if err != nil {
			return nil, err
		}
		return mailer, nil
	case "smtp":
		logger.Info("mail transport configured", "provider", "smtp", "host", cfg.SMTPHost, "from", cfg.SenderAddress())
		return service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPassword,
			cfg.SenderAddress(), cfg.MailSenderName), nil
	default:
		logger.Warn("mail credentials missing: set MAIL_USER and MAIL_PASSWORD, or MAIL_API_KEY and MAIL_SENDER",
			"mail_provider", cfg.MailProvider)
		return nil, nil
	}
}
