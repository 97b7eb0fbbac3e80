package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pubbot/internal/models"
	"pubbot/internal/session"
	"pubbot/lib/translation"
)

// handleConversation advances the publishing wizard by one step. Invalid
// input keeps the session on the same step and re-prompts; every accepted
// input produces exactly one reply.
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, s *session.Session) {
	switch s.Step {
	case session.StepAwaitingMedia:
		b.stepMedia(message, s)
	case session.StepAwaitingQuantity:
		b.stepQuantity(message, s)
	case session.StepAwaitingPrice:
		b.stepPrice(message, s)
	case session.StepAwaitingLimitType:
		b.stepLimitText(ctx, message, s)
	case session.StepAwaitingConfirmation:
		b.stepConfirmText(ctx, message, s)
	}
}

// stepMedia captures a photo or video. For photos Telegram delivers a
// size-ordered list; the last element is the highest resolution.
func (b *Bot) stepMedia(message *tgbotapi.Message, s *session.Session) {
	var fileID string
	var mediaType models.MediaType

	switch {
	case len(message.Photo) > 0:
		fileID = message.Photo[len(message.Photo)-1].FileID
		mediaType = models.MediaPhoto
	case message.Video != nil:
		fileID = message.Video.FileID
		mediaType = models.MediaVideo
	default:
		b.reply(message.Chat.ID, translation.Translate("请发送图片或视频。"))
		return
	}

	b.sessions.Advance(s.UserID, func(s *session.Session) {
		s.MediaFileID = fileID
		s.MediaType = mediaType
		s.Step = session.StepAwaitingQuantity
	})
	b.reply(message.Chat.ID, translation.Translate("请输入数量："))
}

func (b *Bot) stepQuantity(message *tgbotapi.Message, s *session.Session) {
	text := strings.TrimSpace(message.Text)
	if _, err := strconv.Atoi(text); err != nil {
		b.reply(message.Chat.ID, translation.Translate("请输入有效的数量（整数）。"))
		return
	}

	b.sessions.Advance(s.UserID, func(s *session.Session) {
		s.Quantity = text
		s.Step = session.StepAwaitingPrice
	})
	b.reply(message.Chat.ID, translation.Translate("请输入价格："))
}

func (b *Bot) stepPrice(message *tgbotapi.Message, s *session.Session) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.reply(message.Chat.ID, translation.Translate("请输入有效的价格。"))
		return
	}

	b.sessions.Advance(s.UserID, func(s *session.Session) {
		s.Price = text
		s.Step = session.StepAwaitingLimitType
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, translation.Translate("请选择限制类型："))
	msg.ReplyMarkup = limitKeyboard()
	b.sendMessage(msg)
}

func limitKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("P", "limit:"+string(models.LimitP)),
			tgbotapi.NewInlineKeyboardButtonData("PP", "limit:"+string(models.LimitPP)),
			tgbotapi.NewInlineKeyboardButtonData("通用", "limit:"+string(models.LimitGeneral)),
		),
	)
}

// stepLimitText accepts a free-text limit type; the inline buttons arrive
// through the callback path instead.
func (b *Bot) stepLimitText(ctx context.Context, message *tgbotapi.Message, s *session.Session) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.reply(message.Chat.ID, translation.Translate("请输入限制类型，或点击上方按钮选择。"))
		return
	}
	b.setLimitAndPreview(ctx, message.Chat.ID, s.UserID, text)
}

// stepConfirmText handles the free-text equivalents of the confirm and
// cancel buttons.
func (b *Bot) stepConfirmText(ctx context.Context, message *tgbotapi.Message, s *session.Session) {
	switch strings.ToLower(strings.TrimSpace(message.Text)) {
	case "是", "yes", "y":
		b.publishSession(ctx, s.UserID, message.Chat.ID)
	case "否", "no", "n":
		b.sessions.Destroy(s.UserID)
		b.reply(message.Chat.ID, translation.Translate("❌ 已取消发布。"))
	default:
		b.reply(message.Chat.ID, translation.Translate("请回复“是”确认发布，或“否”取消。"))
	}
}

// setLimitAndPreview stores the limit type and sends the media preview with
// the caption rendered from the current template, plus confirm/cancel
// buttons. The caption is rendered again at publish time, so template edits
// made in between still apply.
func (b *Bot) setLimitAndPreview(ctx context.Context, chatID, userID int64, limit string) {
	b.sessions.Advance(userID, func(s *session.Session) {
		s.Limit = limit
		s.Step = session.StepAwaitingConfirmation
	})

	s, _ := b.sessions.Get(userID)
	if s == nil {
		return
	}

	caption, err := b.renderSessionCaption(ctx, s)
	if err != nil {
		b.reply(chatID, translation.Translate("系统繁忙，请稍后再试。"))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ 确认发布", "publish:confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ 取消", "publish:cancel"),
		),
	)

	switch s.MediaType {
	case models.MediaPhoto:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(s.MediaFileID))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		b.sendMessage(photo)
	case models.MediaVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(s.MediaFileID))
		video.Caption = caption
		video.ReplyMarkup = keyboard
		b.sendMessage(video)
	}
}
