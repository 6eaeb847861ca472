// Package alert notifies operators when a dependency of the query pipeline
// becomes unavailable, such as a tripped generation circuit breaker.
package alert

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/soundprediction/hybridrag/pkg/config"
)

// Alerter defines an interface for sending alerts
type Alerter interface {
	Alert(subject, message string) error
}

// New returns an EmailAlerter when alerting is enabled and a LogAlerter otherwise.
func New(cfg config.AlertConfig, logger *slog.Logger) Alerter {
	if cfg.Enabled {
		return NewEmailAlerter(cfg)
	}
	return NewLogAlerter(logger)
}

// EmailAlerter implements Alerter using SMTP
type EmailAlerter struct {
	cfg  config.AlertConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailAlerter creates a new email alerter
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Alert sends an email with the given subject and message
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled || len(a.cfg.To) == 0 {
		return nil
	}

	var auth smtp.Auth
	if a.cfg.Username != "" {
		auth = smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)
	if err := a.send(addr, auth, a.cfg.From, a.cfg.To, buildMessage(a.cfg.From, a.cfg.To, subject, message)); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// buildMessage renders an RFC 822 message. Header values are stripped of line
// breaks so a subject cannot inject extra headers.
func buildMessage(from string, to []string, subject, body string) []byte {
	clean := strings.NewReplacer("\r", " ", "\n", " ")
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", clean.Replace(from))
	}
	fmt.Fprintf(&b, "To: %s\r\n", clean.Replace(strings.Join(to, ",")))
	fmt.Fprintf(&b, "Subject: %s\r\n", clean.Replace(subject))
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogAlerter writes alerts to a logger at error level.
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates an alerter backed by logger, or slog.Default when nil.
func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAlerter{logger: logger}
}

func (l *LogAlerter) Alert(subject, message string) error {
	l.logger.Error(subject, "alert", message)
	return nil
}

// NoOpAlerter is a dummy alerter for when alerting is disabled
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}
