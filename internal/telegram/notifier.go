// Package telegram pushes moderation alerts to a Telegram chat.
// New reports land in the moderators' chat so they can be reviewed
// with the admin CLI.
package telegram

import (
	"fmt"

	"github.com/fyefbv/common-ground-api/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier sends report notifications through the Telegram Bot API.
// A nil Notifier is valid and drops everything, so the server can run
// without a bot token configured.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zap.SugaredLogger
}

// NewNotifier authorizes the bot. An empty token returns (nil, nil):
// moderation alerts are simply disabled.
func NewNotifier(token string, chatID int64, log *zap.SugaredLogger) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Infow("telegram bot authorized", "account", bot.Self.UserName)

	return &Notifier{bot: bot, chatID: chatID, log: log}, nil
}

// NotifyReport посилає нову скаргу в чат модераторів. Помилка доставки
// лише логуються: скарга вже збережена в базі.
func (n *Notifier) NotifyReport(report models.Report) {
	if n == nil {
		return
	}

	text := fmt.Sprintf(
		"🚨 New report %s\nSession: %s\nReporter: %s\nReported: %s\nReason: %s",
		report.ID, report.SessionID, report.ReporterProfileID, report.ReportedProfileID, report.Reason,
	)
	if report.Details != "" {
		text += "\nDetails: " + report.Details
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Errorw("failed to deliver report notification",
			"report_id", report.ID, "error", err)
	}
}
