package notification

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TelegramNotifier delivers alerts through the Telegram Bot API.
type TelegramNotifier struct {
	chatID  string
	sendURL string
	client  *http.Client
}

// NewTelegramNotifier builds a notifier for one bot token and target
// chat (a user, group, or channel ID).
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		chatID:  chatID,
		sendURL: "https://api.telegram.org/bot" + botToken + "/sendMessage",
		client:  &http.Client{Timeout: deliveryTimeout},
	}
}

var levelEmoji = map[AlertLevel]string{
	AlertInfo:     "ℹ️",
	AlertWarning:  "⚠️",
	AlertCritical: "🚨",
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	emoji := levelEmoji[alert.Level]
	if emoji == "" {
		emoji = levelEmoji[AlertInfo]
	}

	payload := struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}{
		ChatID:    t.chatID,
		Text:      fmt.Sprintf("%s *%s*\n\n%s", emoji, escapeMarkdownV2(alert.Title), escapeMarkdownV2(alert.Message)),
		ParseMode: "MarkdownV2",
	}
	if err := postJSON(ctx, t.client, t.sendURL, payload); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// escapeMarkdownV2 backslash-escapes every character Telegram's
// MarkdownV2 dialect treats as markup.
func escapeMarkdownV2(s string) string {
	const specials = "_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(specials, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
