package service

import "giveaway-bot/internal/platform/telegram"

// Transport is the messaging surface the lifecycle services depend on.
// Implementations report failure per call; callers treat delivery as
// fire-and-forget and never escalate a failed send into a fatal error.
type Transport interface {
	SendMessage(userID int64, text string, button *telegram.Button) error
	EditMessage(chatID int64, messageID int, text string, button *telegram.Button) error
}
