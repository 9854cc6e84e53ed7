package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/shashiranjanraj/souq/config"
)

// SMTPConfig holds connection credentials.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// SMTPConfigFromEnv reads MAIL_HOST, MAIL_PORT, MAIL_USERNAME and MAIL_PASSWORD.
func SMTPConfigFromEnv() SMTPConfig {
	return SMTPConfig{
		Host:     config.Get("MAIL_HOST", "localhost"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
	}
}

// SMTP sends over SMTP. Port 465 uses implicit TLS; other ports use
// STARTTLS when the server offers it.
type SMTP struct {
	cfg  SMTPConfig
	from Sender
}

func NewSMTP(cfg SMTPConfig, from Sender) *SMTP {
	return &SMTP{cfg: cfg, from: from}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	raw := buildRaw(s.from.String(), msg)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.Port == "465" {
		return s.sendTLS(ctx, addr, auth, msg.To, raw)
	}
	return smtp.SendMail(addr, auth, s.from.Address, msg.To, raw)
}

func (s *SMTP) sendTLS(ctx context.Context, addr string, auth smtp.Auth, to []string, raw []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail/smtp: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.from.Address); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func buildRaw(from string, msg Message) []byte {
	contentType := "text/plain"
	body := msg.Text
	if msg.HTML != "" {
		contentType = "text/html"
		body = msg.HTML
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mimeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// mimeHeader Q-encodes non-ASCII subjects (Arabic text).
func mimeHeader(s string) string {
	return mime.QEncoding.Encode("UTF-8", s)
}
