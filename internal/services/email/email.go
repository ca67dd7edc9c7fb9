// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends the account confirmation message.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/config"
	"codeberg.org/oliverandrich/accounts-api/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Service sends confirmation emails via SMTP.
type Service struct {
	cfg    *config.SMTPConfig
	expiry time.Duration

	// Now is the clock used for the copyright year.
	Now func() time.Time
}

// NewService creates a new email service. expiry is the confirmation window
// quoted in the message.
func NewService(cfg *config.SMTPConfig, expiry time.Duration) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:    cfg,
		expiry: expiry,
		Now:    time.Now,
	}, nil
}

// SendConfirmation sends the confirmation link to an account's address.
func (s *Service) SendConfirmation(ctx context.Context, to, link string) error {
	subject, body := confirmationText(ctx, to, link, s.expiry, s.Now())

	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}

	if err := s.send(ctx, msg); err != nil {
		slog.WarnContext(ctx, "email_failed", "to", to, "error", err)
		return err
	}

	slog.InfoContext(ctx, "email_sent", "to", to, "subject", subject)
	return nil
}

// confirmationText renders the localized subject and body.
func confirmationText(ctx context.Context, to, link string, expiry time.Duration, now time.Time) (string, string) {
	subject := i18n.T(ctx, "confirm_email_subject")
	body := i18n.TData(ctx, "confirm_email_body", map[string]any{
		"Email":   to,
		"Link":    link,
		"Hours":   int(expiry.Hours()),
		"Year":    now.Year(),
		"AppName": i18n.T(ctx, "app_name"),
	})
	return subject, body
}

func (s *Service) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// send delivers msg via SMTP using go-mail.
func (s *Service) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogMailer writes confirmation links to the log instead of sending them.
// It is used when no SMTP server is configured.
type LogMailer struct{}

// SendConfirmation logs the link.
func (LogMailer) SendConfirmation(ctx context.Context, to, link string) error {
	slog.InfoContext(ctx, "email_not_sent", "to", to, "link", link, "reason", "smtp_disabled")
	return nil
}
