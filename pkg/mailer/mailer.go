// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrHeaderInjection is returned when an address or subject contains a line break.
var ErrHeaderInjection = errors.New("mailer: line break in header value")

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Enabled reports whether enough settings are present to deliver mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// Message is one outgoing email. Bodies are HTML.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender when cfg is usable, otherwise a sender that only logs.
func New(cfg Config, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured; emails will be dropped")
		return &LogSender{logger: logger}
	}
	return &SMTP{cfg: cfg, logger: logger, now: time.Now}
}

// SMTP sends mail through a relay. Port 465 uses implicit TLS, other ports STARTTLS
// when the server offers it.
type SMTP struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// Send delivers msg.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	raw, err := s.build(msg)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var d net.Dialer
	var conn net.Conn
	if s.cfg.Port == "465" {
		conn, err = (&tls.Dialer{NetDialer: &d, Config: &tls.Config{ServerName: s.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mailer: dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mailer: handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok && s.cfg.Port != "465" {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("mailer: starttls: %w", err)
		}
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mailer: auth: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mailer: mail from: %w", err)
	}
	for _, to := range msg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("mailer: rcpt: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("mailer: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mailer: close data: %w", err)
	}
	if err := client.Quit(); err != nil {
		s.logger.Debug("smtp quit failed", zap.Error(err))
	}
	s.logger.Info("email sent", zap.Int("recipients", len(msg.To)), zap.String("subject", msg.Subject))
	return nil
}

func (s *SMTP) build(msg Message) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("mailer: no recipients")
	}
	for _, v := range append([]string{msg.Subject}, msg.To...) {
		if strings.ContainsAny(v, "\r\n") {
			return nil, ErrHeaderInjection
		}
	}
	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + s.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String()), nil
}

// LogSender drops messages, logging only their envelope.
type LogSender struct {
	logger *zap.Logger
}

// Send logs the recipients count and subject.
func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Warn("email dropped: SMTP not configured", zap.Int("recipients", len(msg.To)), zap.String("subject", msg.Subject))
	return nil
}
