// Package notify pushes weather alerts to the household's Telegram
// chat. The dashboard itself stays pull-based; this is a side channel
// for alerts that should not wait for someone to look at the display.
package notify

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"homeview/internal/model"
)

// TelegramNotifier posts new weather alerts to a fixed chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	slog.Info("telegram notifier authorized", "account", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// AlertsChanged sends one message per new alert. Send failures are
// logged and swallowed; notification must never fail the weather path.
func (n *TelegramNotifier) AlertsChanged(alerts []model.Alert) {
	for _, alert := range alerts {
		msg := tgbotapi.NewMessage(n.chatID, formatAlert(alert))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.api.Send(msg); err != nil {
			slog.Warn("alert notification failed", "alert", alert.Title, "err", err)
		}
	}
}

func formatAlert(alert model.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️ <b>%s</b>\n", html.EscapeString(alert.Title)))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", html.EscapeString(alert.Severity)))
	if alert.Expires != "" {
		sb.WriteString(fmt.Sprintf("Expires: %s\n", html.EscapeString(alert.Expires)))
	}
	if alert.Description != "" {
		desc := strings.TrimSpace(alert.Description)
		if len(desc) > 500 {
			desc = desc[:500] + "…"
		}
		sb.WriteString(html.EscapeString(desc))
	}
	return strings.TrimSpace(sb.String())
}
