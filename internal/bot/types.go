package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pubbot/internal/metrics"
	"pubbot/internal/session"
	"pubbot/internal/storage"
)

// telegramAPI is the slice of *tgbotapi.BotAPI the bot depends on. Tests
// install a recording fake instead of a live client.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Config carries the bot identity and policy knobs.
type Config struct {
	Token     string
	AdminID   int64
	ChannelID int64
	// Cooldown is the minimum interval between publishes per user.
	// Zero disables rate limiting.
	Cooldown time.Duration
	Debug    bool
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api       telegramAPI
	store     storage.Store
	sessions  *session.Manager
	metrics   *metrics.BotMetrics
	logger    *zap.Logger
	adminID   int64
	channelID int64
	cooldown  time.Duration
}
