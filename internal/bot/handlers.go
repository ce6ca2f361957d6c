package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/service"
	"giveaway-bot/internal/platform/telegram"
)

const (
	joinCallback       = "join_giveaway"
	listCallbackPrefix = "list_"
)

const adminHelp = `👑 You are the operator!

Commands:
/startgiveaway <title> <duration> — start a giveaway
Example: /startgiveaway Prize 24h

/broadcast <text> — message everyone who ever joined
/list <post_id> — show participants
/winner <post_id> <user_id> — pick the winner`

func joinButton() *telegram.Button {
	return &telegram.Button{Text: "🎁 Join", Data: joinCallback}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.client.Post(chatID, text, nil); err != nil {
		logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if b.isAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, adminHelp)
		return
	}
	if _, err := b.client.Post(msg.Chat.ID, "Tap the button below to join the giveaway 👇", joinButton()); err != nil {
		logger.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send join prompt")
	}
}

func (b *Bot) handleStartGiveaway(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "❌ Operator only")
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "❗ Usage: /startgiveaway <title> <duration>, e.g. /startgiveaway Prize 24h")
		return
	}
	token := args[len(args)-1]
	title := strings.Join(args[:len(args)-1], " ")

	duration, err := models.ParseDuration(token)
	if err != nil {
		b.reply(msg.Chat.ID, "❗ Duration must look like 12h, 3d or 2w")
		return
	}
	endTime := time.Now().Add(duration)

	// The confirmation message id doubles as the giveaway id.
	adminMsgID, err := b.client.Post(msg.Chat.ID,
		fmt.Sprintf("🎉 GIVEAWAY: %s\n⏰ Closes in: %s\n\nTap the button below 👇", title, token),
		joinButton())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to post giveaway confirmation")
		return
	}

	channelMsgID, err := b.client.Post(b.cfg.Telegram.ChannelID, service.AnnouncementText(title, token), joinButton())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to post channel announcement")
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ Could not post to the channel: %v", err))
		return
	}

	g := &models.Giveaway{
		ID:               int64(adminMsgID),
		Title:            title,
		ChatID:           msg.Chat.ID,
		ChannelMessageID: int64(channelMsgID),
		EndTime:          endTime,
	}
	if err := b.scheduler.OnCreate(ctx, g); err != nil {
		logger.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to create giveaway")
		b.reply(msg.Chat.ID, "❌ Could not start the giveaway, try again")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Giveaway started!\nID: %d\nEnds: %s", g.ID, endTime.Format("02.01 15:04")))
}

func (b *Bot) handleJoin(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	msgID := int64(query.Message.MessageID)

	// The join button lives both on the channel post and on the
	// operator's confirmation message, whose id is the giveaway id.
	g, err := b.repo.GetByChannelMessageID(ctx, msgID)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		g, err = b.repo.GetByID(ctx, msgID)
	}
	if err != nil {
		b.client.AnswerCallback(query.ID, "Giveaway not found")
		return
	}

	displayName := strings.TrimSpace(query.From.FirstName + " " + query.From.LastName)
	res, err := b.registration.Join(ctx, g.ID, query.From.ID, displayName, query.From.UserName)
	switch {
	case apperrors.HasCode(err, apperrors.CodeGiveawayNotActive):
		b.client.AnswerCallback(query.ID, "The giveaway is over")
		return
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		b.client.AnswerCallback(query.ID, "Giveaway not found")
		return
	case err != nil:
		logger.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Join failed")
		b.client.AnswerCallback(query.ID, "Something went wrong, try again")
		return
	case res.AlreadyJoined:
		b.client.AnswerCallback(query.ID, "You are already in!")
		return
	}

	b.client.AnswerCallback(query.ID, "✅ You are in!")

	if g.ChannelMessageID != 0 {
		text := service.AnnouncementWithCountText(g.Title, res.Count)
		if err := b.client.EditMessage(b.cfg.Telegram.ChannelID, int(g.ChannelMessageID), text, joinButton()); err != nil {
			logger.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to update participant counter")
		}
	}
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "❗ Usage: /list <post_id>")
		return
	}
	b.sendParticipantList(ctx, msg.Chat.ID, id)
}

func (b *Bot) handleListCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(query.Data, listCallbackPrefix), 10, 64)
	if err != nil {
		b.client.AnswerCallback(query.ID, "")
		return
	}
	b.sendParticipantList(ctx, query.Message.Chat.ID, id)
	b.client.AnswerCallback(query.ID, "")
}

func (b *Bot) sendParticipantList(ctx context.Context, chatID, giveawayID int64) {
	g, err := b.repo.GetByID(ctx, giveawayID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			b.reply(chatID, "❌ Giveaway not found")
		} else {
			logger.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("Failed to load participants")
		}
		return
	}
	if len(g.Participants) == 0 {
		b.reply(chatID, "📭 No participants yet")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Participants of “%s”:\n\n", g.Title)
	for i, p := range g.Participants {
		handle := "no handle"
		if p.Handle != "" {
			handle = "@" + p.Handle
		}
		fmt.Fprintf(&sb, "%d. %s (ID: %d)\n", i+1, handle, p.UserID)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg.Chat.ID, "❗ Usage: /broadcast <text>")
		return
	}

	delivered, err := b.broadcaster.Broadcast(ctx, text)
	if err != nil {
		logger.Error().Err(err).Msg("Broadcast failed")
		b.reply(msg.Chat.ID, "❌ Broadcast failed")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("📬 Broadcast finished!\n✅ Delivered: %d", delivered))
}

func (b *Bot) handleWinner(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.reply(msg.Chat.ID, "❗ Usage: /winner <post_id> <user_id>")
		return
	}
	giveawayID, err1 := strconv.ParseInt(args[0], 10, 64)
	userID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.reply(msg.Chat.ID, "❗ Usage: /winner <post_id> <user_id>")
		return
	}

	status, err := b.finalizer.SelectWinner(ctx, giveawayID, userID)
	if err != nil {
		switch apperrors.CodeOf(err) {
		case apperrors.CodeNotAParticipant:
			b.reply(msg.Chat.ID, "❌ That user is not a participant")
		case apperrors.CodeNotFound:
			b.reply(msg.Chat.ID, "❌ Giveaway not found")
		default:
			logger.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("Winner selection failed")
			b.reply(msg.Chat.ID, "❌ Could not finish the giveaway, try again")
		}
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("%s\n\n✅ Giveaway finished", status))
}
