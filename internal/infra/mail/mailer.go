package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/notification"

	"go.uber.org/zap"
)

// New picks SMTP when an address is configured, the log otherwise.
func New(cfg config.NotificationConfig, logger *zap.Logger) notification.Mailer {
	if strings.TrimSpace(cfg.SMTPAddr) == "" {
		return NewLogMailer(cfg.FromAddress, logger)
	}
	return NewSMTPMailer(cfg, logger)
}

type LogMailer struct {
	from   string
	logger *zap.Logger
}

func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, e notification.Email) error {
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	m.logger.Info("email (not sent, no SMTP configured)",
		zap.String("from", m.from),
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("html_bytes", len(e.HTML)),
	)
	return nil
}

type SMTPMailer struct {
	addr   string
	from   string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPMailer(cfg config.NotificationConfig, logger *zap.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		host, _, _ := net.SplitHostPort(cfg.SMTPAddr)
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, host)
	}
	return &SMTPMailer{
		addr:   cfg.SMTPAddr,
		from:   cfg.FromAddress,
		auth:   auth,
		send:   smtp.SendMail,
		logger: logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, e notification.Email) error {
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{e.To}, buildMessage(m.from, e)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", e.To, err)
	}
	m.logger.Debug("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

const boundary = "bookstore-alt-boundary"

// buildMessage writes a multipart/alternative message with text and HTML parts.
func buildMessage(from string, e notification.Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, e.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, e.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
