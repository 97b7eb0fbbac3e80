package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pubbot/internal/models"
	"pubbot/internal/session"
	"pubbot/internal/storage"
	"pubbot/lib/translation"
)

// renderSessionCaption renders the caption from the template as stored right
// now. The template is deliberately not captured at session start: editing
// it mid-session changes the outcome of in-flight sessions.
func (b *Bot) renderSessionCaption(ctx context.Context, s *session.Session) (string, error) {
	tpl, err := b.store.Template(ctx)
	if err != nil {
		b.logger.Error("Failed to load template", zap.Error(err))
		return "", err
	}
	if tpl == "" {
		tpl = storage.DefaultTemplate
	}
	return RenderCaption(tpl, s.Fields()), nil
}

// publishSession finalizes the session: renders the caption and dispatches
// the media to the configured channel.
//
// The session is marked consumed before the dispatch, so a redelivered
// confirm event (webhook delivery is at-least-once) cannot post twice. On
// dispatch failure the mark is cleared and the session kept, allowing the
// user to confirm again; last-publish is only recorded on success.
func (b *Bot) publishSession(ctx context.Context, userID, chatID int64) {
	if !b.sessions.BeginPublish(userID) {
		b.reply(chatID, translation.Translate("会话已过期，请重新开始 /publish。"))
		return
	}

	s, _ := b.sessions.Get(userID)
	if s == nil || !s.Complete() {
		b.sessions.Destroy(userID)
		b.reply(chatID, translation.Translate("会话已过期，请重新开始 /publish。"))
		return
	}

	caption, err := b.renderSessionCaption(ctx, s)
	if err != nil {
		b.sessions.AbortPublish(userID)
		b.reply(chatID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	var post tgbotapi.Chattable
	switch s.MediaType {
	case models.MediaVideo:
		video := tgbotapi.NewVideo(b.channelID, tgbotapi.FileID(s.MediaFileID))
		video.Caption = caption
		post = video
	default:
		photo := tgbotapi.NewPhoto(b.channelID, tgbotapi.FileID(s.MediaFileID))
		photo.Caption = caption
		post = photo
	}

	if b.api != nil {
		if _, err := b.api.Send(post); err != nil {
			b.sessions.AbortPublish(userID)
			b.logger.Error("Failed to publish to channel",
				zap.Error(errors.Wrap(err, "channel dispatch")),
				zap.Int64("user_id", userID),
				zap.Int64("channel_id", b.channelID),
			)
			b.reply(chatID, translation.Translate("发布失败，请稍后重试或使用 /cancel 放弃。"))
			return
		}
	}

	b.sessions.Destroy(userID)
	b.metrics.Publishes.Inc()

	if err := b.store.RecordPublish(ctx, userID, time.Now()); err != nil {
		// The post is out; a lost cooldown stamp is only logged.
		b.logger.Error("Failed to record publish", zap.Error(err), zap.Int64("user_id", userID))
	}

	b.logger.Info("Post published",
		zap.Int64("user_id", userID),
		zap.String("media_type", string(s.MediaType)),
	)
	b.reply(chatID, translation.Translate("✅ 发布成功！"))
}
