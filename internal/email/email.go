// Package email delivers outgoing mail: tour reminders and the messages staff
// send from the dashboard.
package email

import (
	"context"
	"time"

	"dojoflow_backend/platform/logger"
)

// TourReminder is the data a reminder mail is rendered from.
type TourReminder struct {
	GuardianName  string
	FranchiseName string
	ScheduledAt   time.Time
	CheckInURL    string
}

type Sender interface {
	// SendEmail sends one HTML message to every recipient.
	SendEmail(ctx context.Context, recipients []string, subject, htmlBody string) error
	SendTourReminderEmail(ctx context.Context, toEmail string, reminder TourReminder) error
}

// NoopSender is used when SMTP is not configured. It logs and drops mail.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (n *NoopSender) SendEmail(ctx context.Context, recipients []string, subject, _ string) error {
	if n.log != nil {
		n.log.WithContext(ctx).Debug("email disabled, dropping message", "recipients", len(recipients), "subject", subject)
	}
	return nil
}

func (n *NoopSender) SendTourReminderEmail(ctx context.Context, toEmail string, _ TourReminder) error {
	return n.SendEmail(ctx, []string{toEmail}, subjectTourReminder, "")
}
