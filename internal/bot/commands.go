package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"pubbot/lib/translation"
)

// handleStart registers the user lazily and reports their access status.
// Users without publishing rights trigger an access request to the admin.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	displayName := message.From.UserName
	if displayName == "" {
		displayName = message.From.FirstName
	}

	member, created, err := b.store.Member(ctx, userID, displayName)
	if err != nil {
		b.logger.Error("Failed to register member", zap.Error(err), zap.Int64("user_id", userID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	if member.Whitelisted(time.Now()) {
		text := translation.Translate("你已获得发布权限，使用 /publish 发布内容。")
		if member.ExpiresAt != nil {
			text += "\n" + translation.Translate("权限有效期至：%s（%s）",
				member.ExpiresAt.Format("2006-01-02"), humanize.Time(*member.ExpiresAt))
		}
		b.reply(message.Chat.ID, text)
		return
	}

	if created {
		b.logger.Info("New member registered",
			zap.Int64("user_id", userID),
			zap.String("display_name", displayName),
		)
	}

	// Forward the access request to the admin with decision buttons.
	// /approve remains available when a custom duration is wanted.
	target := strconv.FormatInt(userID, 10)
	notice := tgbotapi.NewMessage(b.adminID, translation.Translate("用户 %d（%s）申请发布权限，是否同意？\n也可使用 /approve %d [天数] 指定有效期。",
		userID, displayName, userID))
	notice.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("同意", "grant:"+target),
			tgbotapi.NewInlineKeyboardButtonData("拒绝", "reject:"+target),
		),
	)
	b.sendMessage(notice)
	b.reply(message.Chat.ID, translation.Translate("你的申请已提交，请等待管理员审核。"))
}

// handlePublish starts the publishing wizard. Guards run in a fixed order
// so every rejection has a distinct, testable message: banned (checked by
// the dispatcher), not whitelisted, rate limited.
func (b *Bot) handlePublish(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	whitelisted, err := b.store.IsWhitelisted(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to check whitelist", zap.Error(err), zap.Int64("user_id", userID))
		b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}
	if !whitelisted {
		b.metrics.PublishesRejected.WithLabelValues("not_whitelisted").Inc()
		b.reply(message.Chat.ID, translation.Translate("你没有发布权限，请先使用 /start 申请。"))
		return
	}

	if b.cooldown > 0 {
		last, ok, err := b.store.LastPublish(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to check last publish", zap.Error(err), zap.Int64("user_id", userID))
			b.reply(message.Chat.ID, translation.Translate("系统繁忙，请稍后再试。"))
			return
		}
		if ok && time.Since(last) < b.cooldown {
			b.metrics.PublishesRejected.WithLabelValues("rate_limited").Inc()
			next := last.Add(b.cooldown)
			b.reply(message.Chat.ID, translation.Translate("发布过于频繁，请 %s 后再试。", humanize.Time(next)))
			return
		}
	}

	// Replaces any previous session for this user.
	b.sessions.Create(userID)
	b.reply(message.Chat.ID, translation.Translate("请发送你要发布的图片或视频："))
}

// handleCancel discards the active session, if any.
func (b *Bot) handleCancel(message *tgbotapi.Message) {
	userID := message.From.ID
	if s, _ := b.sessions.Get(userID); s == nil {
		b.reply(message.Chat.ID, translation.Translate("当前没有进行中的发布。"))
		return
	}
	b.sessions.Destroy(userID)
	b.reply(message.Chat.ID, translation.Translate("❌ 已取消发布。"))
}
