package email

import (
	"context"
	"fmt"

	"huddle/internal/core/ports"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers account mail over SMTP.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

var _ ports.EmailSender = (*Sender)(nil)

func (s *Sender) SendPasswordReset(ctx context.Context, to, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset Request")
	m.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Reset code: %s\n\n"+
			"If you did not request this, you can ignore this email.", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// LogSender is used when SMTP is not configured: the reset code only
// lands in the server log.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender {
	return &LogSender{logger: logger}
}

var _ ports.EmailSender = (*LogSender)(nil)

func (s *LogSender) SendPasswordReset(ctx context.Context, to, code string) error {
	s.logger.Infow("password reset requested", "to", to, "code", code)
	return nil
}
