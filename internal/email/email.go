package email

import (
	"fmt"
	"net/smtp"

	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/internal/logger"
)

// Sender delivers one message and reports success or failure. A failed
// send leaves the reminder retryable on a later run.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	if s.Host == "" || s.Port == "" || s.Username == "" || s.Password == "" {
		logger.Error("SMTP configuration missing")
		return fmt.Errorf("SMTP configuration missing")
	}
	if to == "" {
		logger.Warn("Recipient address empty, skipping send")
		return fmt.Errorf("recipient address empty")
	}

	from := s.From
	if from == "" {
		from = s.Username
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}
