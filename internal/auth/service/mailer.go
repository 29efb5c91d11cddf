package service

import (
	"context"
	"log/slog"

	"github.com/inkwell/inkwell/pkg/slogx"
)

// Mailer delivers account emails. The concrete transport is an app wiring
// concern; the service layer only needs delivery.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, code string) error
	SendRecovery(ctx context.Context, email, code string) error
}

// LogMailer writes would-be emails to the log. It stands in wherever no SMTP
// relay is configured, which includes every test.
type LogMailer struct{}

func (LogMailer) SendConfirmation(ctx context.Context, email, code string) error {
	slogx.FromContext(ctx).Info("confirmation email",
		slog.String("email", email), slog.String("code", code))
	return nil
}

func (LogMailer) SendRecovery(ctx context.Context, email, code string) error {
	slogx.FromContext(ctx).Info("recovery email",
		slog.String("email", email), slog.String("code", code))
	return nil
}
