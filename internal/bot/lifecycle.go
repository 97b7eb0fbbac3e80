package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Start starts the bot in polling mode
func (b *Bot) Start() error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return errors.New("polling mode requires a live bot API")
	}

	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)

	b.logger.Info("Bot started successfully. Waiting for updates...")

	for update := range updates {
		b.HandleUpdate(update)
	}
	return nil
}

// StartWebhook registers the webhook URL with Telegram. Updates then arrive
// through the HTTP endpoint (see HTTPServer).
func (b *Bot) StartWebhook(webhookURL string) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return errors.New("webhook mode requires a live bot API")
	}

	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + "/telegram-webhook")
	if err != nil {
		return errors.Wrap(err, "invalid webhook URL")
	}
	webhookConfig.MaxConnections = 40

	if _, err := api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return errors.Wrap(err, "could not register webhook")
	}

	info, err := api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}

	return nil
}
