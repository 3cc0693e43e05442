package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TelegramNotifier delivers signal alerts to a chat via the Bot API.
type TelegramNotifier struct {
	sendURL string
	chatID  string
	client  *http.Client
}

// NewTelegramNotifier creates a Telegram notifier from a bot token and a
// target chat/channel ID.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		sendURL: "https://api.telegram.org/bot" + botToken + "/sendMessage",
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	marker := "📈"
	switch alert.Level {
	case AlertWarning:
		marker = "📉"
	case AlertCritical:
		marker = "🚨"
	}

	payload, _ := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("%s *%s*\n%s", marker, escapeMarkdownV2(alert.Title), escapeMarkdownV2(alert.Message)),
		"parse_mode": "MarkdownV2",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Telegram returns a JSON description on failure; surface a slice of it.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2 mode treats
// as syntax. Unescaped specials make the API reject the whole message.
func escapeMarkdownV2(s string) string {
	const specials = `_*[]()~` + "`" + `>#+-=|{}.!`
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
