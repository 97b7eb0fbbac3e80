package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pubbot/internal/session"
	"pubbot/lib/translation"
)

// handleCallbackQuery processes inline keyboard button presses.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove the loading state
	if b.api != nil {
		b.api.Request(tgbotapi.NewCallback(query.ID, ""))
	}

	if query.Message == nil {
		return
	}
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	ctx := context.Background()

	banned, err := b.store.IsBanned(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to check ban status", zap.Error(err), zap.Int64("user_id", userID))
		return
	}
	if banned {
		b.sessions.Destroy(userID)
		return
	}

	data := query.Data

	// Access-request decisions are admin buttons, not session events.
	if strings.HasPrefix(data, "grant:") || strings.HasPrefix(data, "reject:") {
		b.handleApprovalCallback(ctx, query, chatID)
		return
	}

	s, expired := b.sessions.Get(userID)
	if expired {
		b.metrics.SessionsTimedOut.Inc()
		b.reply(chatID, translation.Translate("操作超时，请重新开始 /publish。"))
		return
	}
	if s == nil {
		// Button press against a destroyed session, e.g. a duplicate
		// confirm after the post went out.
		b.reply(chatID, translation.Translate("会话已过期，请重新开始 /publish。"))
		return
	}

	switch {
	case strings.HasPrefix(data, "limit:"):
		b.handleLimitCallback(ctx, chatID, s.UserID, strings.TrimPrefix(data, "limit:"))
	case data == "publish:confirm":
		b.publishSession(ctx, userID, chatID)
	case data == "publish:cancel":
		b.sessions.Destroy(userID)
		b.reply(chatID, translation.Translate("❌ 已取消发布。"))
	}
}

// handleApprovalCallback resolves a 同意/拒绝 press on an access-request
// notification. The buttons live in the admin chat, but the admin check
// still runs in case the notification was forwarded.
func (b *Bot) handleApprovalCallback(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) {
	if query.From.ID != b.adminID {
		b.reply(chatID, translation.Translate("无权限。"))
		return
	}

	data := query.Data
	approve := strings.HasPrefix(data, "grant:")
	raw := strings.TrimPrefix(strings.TrimPrefix(data, "grant:"), "reject:")
	targetID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		b.logger.Warn("Malformed approval callback", zap.String("data", data))
		return
	}

	if !approve {
		b.logger.Info("Access request rejected", zap.Int64("target_id", targetID))
		b.reply(targetID, translation.Translate("你的发布权限申请被拒绝。"))
		b.reply(chatID, translation.Translate("已拒绝 %d 的申请。", targetID))
		return
	}

	if err := b.store.Grant(ctx, targetID, defaultGrantDays); err != nil {
		b.logger.Error("Failed to grant membership", zap.Error(err), zap.Int64("target_id", targetID))
		b.reply(chatID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	b.logger.Info("Access request approved",
		zap.Int64("target_id", targetID),
		zap.Int("days", defaultGrantDays),
	)
	b.reply(targetID, translation.Translate("你的发布权限已批准，有效期 %d 天。", defaultGrantDays))
	b.reply(chatID, translation.Translate("%d 已添加到白名单，有效期 %d 天。", targetID, defaultGrantDays))
}

// handleLimitCallback applies a limit-type button press. Presses arriving in
// any other step (including duplicates of an already consumed one) are
// ignored to keep button delivery idempotent.
func (b *Bot) handleLimitCallback(ctx context.Context, chatID, userID int64, limit string) {
	s, _ := b.sessions.Get(userID)
	if s == nil || s.Step != session.StepAwaitingLimitType {
		return
	}
	b.setLimitAndPreview(ctx, chatID, userID, limit)
}
