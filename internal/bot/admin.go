package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pubbot/lib/translation"
)

// defaultGrantDays is the membership duration granted through the 同意
// button on an access request. /approve takes an explicit duration instead.
const defaultGrantDays = 30

// handleAdminCommand routes /approve, /ban, /unban, /settemplate and
// /extend. Non-admin callers get an explicit "no permission" reply.
func (b *Bot) handleAdminCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.From.ID != b.adminID {
		b.reply(message.Chat.ID, translation.Translate("无权限。"))
		return
	}

	switch message.Command() {
	case "approve":
		b.handleApprove(ctx, message)
	case "ban":
		b.handleBan(ctx, message)
	case "unban":
		b.handleUnban(ctx, message)
	case "settemplate":
		b.handleSetTemplate(ctx, message)
	case "extend":
		b.handleExtend(ctx, message)
	}
}

// parseTarget extracts the target user ID from the first command argument.
func parseTarget(message *tgbotapi.Message) (int64, []string, bool) {
	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return 0, nil, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, false
	}
	return id, args[1:], true
}

func (b *Bot) handleApprove(ctx context.Context, message *tgbotapi.Message) {
	targetID, rest, ok := parseTarget(message)
	if !ok {
		b.reply(message.Chat.ID, translation.Translate("用法：/approve 用户ID [天数]"))
		return
	}

	days := 0
	if len(rest) > 0 {
		d, err := strconv.Atoi(rest[0])
		if err != nil || d <= 0 {
			b.reply(message.Chat.ID, translation.Translate("用法：/approve 用户ID [天数]"))
			return
		}
		days = d
	}

	if err := b.store.Grant(ctx, targetID, days); err != nil {
		b.logger.Error("Failed to grant membership", zap.Error(err), zap.Int64("target_id", targetID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	b.logger.Info("Membership granted",
		zap.Int64("target_id", targetID),
		zap.Int("days", days),
	)

	if days > 0 {
		expiry := time.Now().AddDate(0, 0, days)
		b.reply(message.Chat.ID, translation.Translate("%d 已添加到白名单，有效期至 %s（%s）。",
			targetID, expiry.Format("2006-01-02"), humanize.Time(expiry)))
	} else {
		b.reply(message.Chat.ID, translation.Translate("%d 已添加到白名单（长期有效）。", targetID))
	}
	b.reply(targetID, translation.Translate("你已获得发布权限，使用 /publish 发布内容。"))
}

func (b *Bot) handleBan(ctx context.Context, message *tgbotapi.Message) {
	targetID, _, ok := parseTarget(message)
	if !ok {
		b.reply(message.Chat.ID, translation.Translate("用法：/ban 用户ID"))
		return
	}

	if err := b.store.Ban(ctx, targetID); err != nil {
		b.logger.Error("Failed to ban member", zap.Error(err), zap.Int64("target_id", targetID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	// A running wizard of a freshly banned user is discarded immediately.
	b.sessions.Destroy(targetID)

	b.logger.Info("Member banned", zap.Int64("target_id", targetID))
	b.reply(message.Chat.ID, translation.Translate("%d 已封禁。", targetID))
	b.reply(targetID, translation.Translate("你已被封禁，无法发布内容。"))
}

func (b *Bot) handleUnban(ctx context.Context, message *tgbotapi.Message) {
	targetID, _, ok := parseTarget(message)
	if !ok {
		b.reply(message.Chat.ID, translation.Translate("用法：/unban 用户ID"))
		return
	}

	if err := b.store.Unban(ctx, targetID); err != nil {
		b.logger.Error("Failed to unban member", zap.Error(err), zap.Int64("target_id", targetID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	b.logger.Info("Member unbanned", zap.Int64("target_id", targetID))
	b.reply(message.Chat.ID, translation.Translate("%d 已解除封禁。", targetID))
}

func (b *Bot) handleSetTemplate(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.reply(message.Chat.ID, translation.Translate("用法：/settemplate 模板内容（可用 {quantity} {price} {limit_type} 占位符）"))
		return
	}

	if err := b.store.SetTemplate(ctx, text); err != nil {
		b.logger.Error("Failed to set template", zap.Error(err))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	b.logger.Info("Template updated", zap.Int("length", len(text)))
	b.reply(message.Chat.ID, translation.Translate("模板已更新。"))
}

func (b *Bot) handleExtend(ctx context.Context, message *tgbotapi.Message) {
	targetID, rest, ok := parseTarget(message)
	if !ok || len(rest) == 0 {
		b.reply(message.Chat.ID, translation.Translate("用法：/extend 用户ID 天数"))
		return
	}
	days, err := strconv.Atoi(rest[0])
	if err != nil || days <= 0 {
		b.reply(message.Chat.ID, translation.Translate("用法：/extend 用户ID 天数"))
		return
	}

	// Same policy as /approve: extends from the current expiry when the
	// grant is still running, from now when it already lapsed.
	if err := b.store.Grant(ctx, targetID, days); err != nil {
		b.logger.Error("Failed to extend membership", zap.Error(err), zap.Int64("target_id", targetID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	b.logger.Info("Membership extended",
		zap.Int64("target_id", targetID),
		zap.Int("days", days),
	)
	b.reply(message.Chat.ID, translation.Translate("%d 的权限已延长 %d 天。", targetID, days))
}
