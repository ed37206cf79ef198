package service

import (
	"fmt"
	"net/smtp"

	"docpoint/config"

	"github.com/sirupsen/logrus"
)

// Notifier dispatches fire-and-forget emails. Failures are logged by
// callers, never retried.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier sends mail through the configured SMTP relay.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.cfg.From, to, subject, body))
	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
}

// LogNotifier writes notifications to the log instead of sending mail.
// Used in development and tests.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(to, subject, body string) error {
	n.log.Infof("notify %s: %s :: %s", to, subject, body)
	return nil
}
