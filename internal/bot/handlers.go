package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pubbot/lib/translation"
)

// HandleUpdate processes a single update from webhook or polling mode.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	b.metrics.UpdatesReceived.Inc()

	if update.Message != nil {
		b.handleMessage(update.Message)
	}
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, translation.Translate("处理请求时出错，请稍后再试。"))
		}
	}()

	if message.From == nil {
		return
	}
	userID := message.From.ID
	ctx := context.Background()

	// Banned callers are rejected in any state.
	banned, err := b.store.IsBanned(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to check ban status", zap.Error(err), zap.Int64("user_id", userID))
		if message.IsCommand() {
			b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		}
		return
	}
	if banned {
		b.sessions.Destroy(userID)
		if message.IsCommand() {
			if message.Command() == "publish" {
				b.metrics.PublishesRejected.WithLabelValues("banned").Inc()
			}
			b.reply(message.Chat.ID, translation.Translate("你已被封禁，无法使用本功能。"))
		}
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message)
		case "publish":
			b.handlePublish(ctx, message)
		case "cancel":
			b.handleCancel(message)
		case "approve", "ban", "unban", "settemplate", "extend":
			b.handleAdminCommand(ctx, message)
		default:
			b.reply(message.Chat.ID, translation.Translate("未知指令，使用 /start 查看帮助。"))
		}
		return
	}

	// Not a command: route into the active publishing session, if any.
	s, expired := b.sessions.Get(userID)
	if expired {
		b.metrics.SessionsTimedOut.Inc()
		b.reply(message.Chat.ID, translation.Translate("操作超时，请重新开始 /publish。"))
		return
	}
	if s == nil {
		// Stray chatter outside a session is ignored.
		return
	}
	b.handleConversation(ctx, message, s)
}
