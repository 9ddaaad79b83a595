package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/smtp"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// SMTPEmitter отправляет уведомления письмом напрямую, без очереди.
type SMTPEmitter struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSMTPEmitter создает новый экземпляр SMTPEmitter.
func NewSMTPEmitter(transport smtp.TransportInterface, log *slog.Logger) *SMTPEmitter {
	return &SMTPEmitter{transport: transport, log: log}
}

// Deliver отправляет письмо получателю события.
func (e *SMTPEmitter) Deliver(_ context.Context, event models.NotificationEvent) error {
	return e.sendEmail([]string{event.Email}, subject(event.Kind), event.Message)
}

func subject(kind string) string {
	switch kind {
	case models.KindTrialExpiring:
		return "Пробный период скоро закончится"
	case models.KindTrialReminder:
		return "Напоминание об окончании пробного периода"
	default:
		return "Пробный период завершен"
	}
}

func (e *SMTPEmitter) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + e.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := e.transport.Connect()
	if err != nil {
		e.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(e.transport.GetSMTPUser()); err != nil {
		e.log.Error("failed to set MAIL FROM", "from", e.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			e.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		e.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		e.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		e.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		e.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	e.log.Info("notification email sent", "to", to)
	return nil
}
