// Package email delivers notification emails through an asynq queue.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender performs the final delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail with net/smtp.
type SMTPSender struct {
	from string
	addr string
	auth smtp.Auth
}

// NewSender returns an SMTP sender, or a logging sender when no host is configured.
func NewSender(cfg SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		logger.Info("SMTP host not configured, using logging email sender")
		return &LoggingSender{logger: logger, from: cfg.From}
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		from: cfg.From,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, buildRaw(s.from, msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LoggingSender logs instead of sending. Used in development.
type LoggingSender struct {
	logger *slog.Logger
	from   string
}

func (s *LoggingSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email delivered to log",
		"from", s.from,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

func buildRaw(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// sanitizeHeader strips CR/LF so a subject cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
