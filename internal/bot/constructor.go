package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pubbot/internal/metrics"
	"pubbot/internal/session"
	"pubbot/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(cfg Config, store storage.Store, sessions *session.Manager, m *metrics.BotMetrics, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, errors.Wrap(err, "could not create telegram bot")
	}
	api.Debug = cfg.Debug

	logger.Info("Bot created",
		zap.String("bot_username", api.Self.UserName),
		zap.Int64("admin_id", cfg.AdminID),
		zap.Int64("channel_id", cfg.ChannelID),
	)

	return &Bot{
		api:       api,
		store:     store,
		sessions:  sessions,
		metrics:   m,
		logger:    logger,
		adminID:   cfg.AdminID,
		channelID: cfg.ChannelID,
		cooldown:  cfg.Cooldown,
	}, nil
}
