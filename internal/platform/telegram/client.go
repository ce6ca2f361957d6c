package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/common/logger"
)

// Button is an optional inline action attached to a message: either a
// link (URL set) or a callback action (Data set).
type Button struct {
	Text string
	URL  string
	Data string
}

// CommandHandler handles a bot command message.
type CommandHandler func(ctx context.Context, msg *tgbotapi.Message)

// CallbackHandler handles an inline button press.
type CallbackHandler func(ctx context.Context, query *tgbotapi.CallbackQuery)

type callbackRoute struct {
	prefix  string
	handler CallbackHandler
}

// Client wraps the Bot API: message delivery for the lifecycle services
// and update dispatch for the command surface. Delivery failures are
// reported per call and are never fatal.
type Client struct {
	bot       *tgbotapi.BotAPI
	commands  map[string]CommandHandler
	callbacks []callbackRoute
}

func NewClient(token string, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "connect bot api")
	}
	bot.Debug = debug

	logger.Info().Str("username", bot.Self.UserName).Msg("Connected to Telegram")

	return &Client{
		bot:      bot,
		commands: make(map[string]CommandHandler),
	}, nil
}

// OnCommand registers a handler for /name messages. Registration must
// finish before Run is called.
func (c *Client) OnCommand(name string, h CommandHandler) {
	c.commands[name] = h
}

// OnCallback registers a handler for callback data starting with prefix.
func (c *Client) OnCallback(prefix string, h CallbackHandler) {
	c.callbacks = append(c.callbacks, callbackRoute{prefix: prefix, handler: h})
}

// Run long-polls for updates and dispatches them until ctx is canceled.
// Each update is handled on its own goroutine; handlers synchronize
// through the store, not through the dispatcher.
func (c *Client) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go c.dispatch(ctx, update)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	// Channel posts carry no sender; only user-issued commands are routed.
	case update.Message != nil && update.Message.From != nil && update.Message.IsCommand():
		if h, ok := c.commands[update.Message.Command()]; ok {
			h(ctx, update.Message)
		}
	case update.CallbackQuery != nil:
		for _, route := range c.callbacks {
			if strings.HasPrefix(update.CallbackQuery.Data, route.prefix) {
				route.handler(ctx, update.CallbackQuery)
				return
			}
		}
	}
}

// SendMessage delivers a direct message to a user.
func (c *Client) SendMessage(userID int64, text string, button *Button) error {
	_, err := c.Post(userID, text, button)
	return err
}

// Post sends a message to a chat or channel and returns the new message
// id, used as the announcement reference for channel posts.
func (c *Client) Post(chatID int64, text string, button *Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := inlineMarkup(button); ok {
		msg.ReplyMarkup = markup
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeTransport, "send message")
	}
	return sent.MessageID, nil
}

// EditMessage rewrites a previously posted message.
func (c *Client) EditMessage(chatID int64, messageID int, text string, button *Button) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup, ok := inlineMarkup(button); ok {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := c.bot.Send(edit); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "edit message")
	}
	return nil
}

// AnswerCallback acknowledges a button press with a short notice.
func (c *Client) AnswerCallback(queryID, text string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		logger.Warn().Err(err).Msg("Failed to answer callback query")
	}
}

func inlineMarkup(button *Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if button == nil {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var b tgbotapi.InlineKeyboardButton
	if button.URL != "" {
		b = tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL)
	} else {
		b = tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data)
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(b)), true
}
