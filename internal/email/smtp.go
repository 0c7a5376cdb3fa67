package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"dojoflow_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

var errNoRecipients = errors.New("email: no recipients")

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// New returns the SMTP sender when email is enabled and a NoopSender otherwise.
func New(cfg config.EmailConfig, noop *NoopSender) Sender {
	if !cfg.GetEmailEnabled() {
		return noop
	}
	return NewSMTPSender(cfg)
}

func (s *SMTPSender) buildMessage(recipients []string, subject, htmlContent string) (*gomail.Msg, error) {
	if len(recipients) == 0 {
		return nil, errNoRecipients
	}
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, recipients []string, subject, htmlContent string) error {
	msg, err := s.buildMessage(recipients, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendEmail(ctx context.Context, recipients []string, subject, htmlBody string) error {
	content, err := renderCustom(subject, htmlBody)
	if err != nil {
		return err
	}
	return s.send(ctx, recipients, subject, content)
}

func (s *SMTPSender) SendTourReminderEmail(ctx context.Context, toEmail string, reminder TourReminder) error {
	content, err := renderTourReminder(reminder)
	if err != nil {
		return err
	}
	return s.send(ctx, []string{toEmail}, subjectTourReminder, content)
}
