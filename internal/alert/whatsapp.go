package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WhatsAppConfig carries Twilio settings for the WhatsApp channel.
type WhatsAppConfig struct {
	Enabled    bool
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// WhatsApp delivers alerts through the Twilio messaging API.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *resty.Client
}

func NewWhatsApp(cfg WhatsAppConfig) *WhatsApp {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WhatsApp{cfg: cfg, client: client}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

func (w *WhatsApp) Enabled() bool { return w.cfg.Enabled }

// Notify posts one message. Subject and body are joined because WhatsApp
// has no subject line.
func (w *WhatsApp) Notify(ctx context.Context, subject, body string) error {
	text := body
	if subject != "" {
		text = subject + "\n" + body
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": "whatsapp:" + w.cfg.From,
			"To":   "whatsapp:" + w.cfg.To,
			"Body": text,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", w.cfg.AccountSID))
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
