package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig carries SMTP settings for the email channel.
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

// Email delivers alerts over SMTP with STARTTLS.
type Email struct {
	cfg  EmailConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(cfg EmailConfig) *Email {
	return &Email{cfg: cfg, send: smtp.SendMail}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Enabled() bool { return e.cfg.Enabled }

func (e *Email) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := strings.Split(e.cfg.To, ",")
	for i := range to {
		to[i] = strings.TrimSpace(to[i])
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		e.cfg.User, strings.Join(to, ", "), subject, body)

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	auth := smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	if err := e.send(addr, auth, e.cfg.User, to, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
