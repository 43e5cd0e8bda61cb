package provider

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/solobill/solobill/internal/config"
)

// SMTP is the deployment-level fallback transport for owners without a
// provider API key.
type SMTP struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	from := msg.FromEmail
	if s.cfg.From != "" {
		from = s.cfg.From
	}

	headers := "From: " + formatSender(msg.FromName, from) + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n"
	if msg.ReplyTo != "" {
		headers += "Reply-To: " + msg.ReplyTo + "\r\n"
	}
	headers += "MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n"

	body := msg.HTML
	if body == "" {
		body = msg.Text
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	if err := smtp.SendMail(addr, auth, from, []string{msg.To}, []byte(headers+body)); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "", nil
}
