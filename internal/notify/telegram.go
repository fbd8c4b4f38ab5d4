// Package notify delivers out-of-band security notifications through the
// Telegram bot API. Delivery is best effort; callers log failures and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegram returns a sink posting to the given chat. With an empty token
// the sink is disabled and Notify is a no-op.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *Telegram) Notify(ctx context.Context, event model.SecurityEvent) error {
	if t.botToken == "" {
		return nil
	}

	origin := event.Origin
	if origin == "" {
		origin = "unknown"
	}
	text := fmt.Sprintf(
		"*Security alert: kiosk lockout*\nUser: `%s`\nRole: `%s`\nOrigin: `%s`\nThe account has been locked after repeated PIN failures.",
		event.UserID, event.Role, origin,
	)

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api status %d", resp.StatusCode)
	}
	return nil
}
