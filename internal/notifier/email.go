package notifier

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// EmailSender delivers one HTML email.
type EmailSender interface {
	SendEmail(to, subject, htmlBody string) error
}

// Ensure implementations satisfy the interface.
var (
	_ EmailSender = (*SMTPSender)(nil)
	_ EmailSender = (*LogEmailSender)(nil)
)

// SMTPSender sends email through an authenticated SMTP server using STARTTLS.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPSender returns a sender for the given SMTP server and credentials.
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, username: username, password: password}
}

// SendEmail sends a single HTML message to the given address.
func (s *SMTPSender) SendEmail(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.username, to, subject, htmlBody)

	if err := smtp.SendMail(addr, auth, s.username, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogEmailSender logs instead of sending. Used when no SMTP credentials are
// configured.
type LogEmailSender struct {
	logger *slog.Logger
}

// NewLogEmailSender returns a sender that writes each message to the logger.
func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (l *LogEmailSender) SendEmail(to, subject, htmlBody string) error {
	l.logger.Info("email (log mode)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}
