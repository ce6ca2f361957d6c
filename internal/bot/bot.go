// Package bot binds the Telegram command surface to the lifecycle
// services. All state lives in the store; handlers re-read it on every
// call.
package bot

import (
	"context"

	"giveaway-bot/internal/common/config"
	"giveaway-bot/internal/features/giveaway/repository"
	"giveaway-bot/internal/features/giveaway/service"
	"giveaway-bot/internal/platform/telegram"
)

type Bot struct {
	cfg          *config.Config
	client       *telegram.Client
	scheduler    *service.Scheduler
	registration *service.Registration
	finalizer    *service.Finalizer
	broadcaster  *service.Broadcaster
	repo         repository.GiveawayRepository
}

func New(
	cfg *config.Config,
	client *telegram.Client,
	scheduler *service.Scheduler,
	registration *service.Registration,
	finalizer *service.Finalizer,
	broadcaster *service.Broadcaster,
	repo repository.GiveawayRepository,
) *Bot {
	b := &Bot{
		cfg:          cfg,
		client:       client,
		scheduler:    scheduler,
		registration: registration,
		finalizer:    finalizer,
		broadcaster:  broadcaster,
		repo:         repo,
	}
	b.registerHandlers()
	return b
}

func (b *Bot) registerHandlers() {
	b.client.OnCommand("start", b.handleStart)
	b.client.OnCommand("startgiveaway", b.handleStartGiveaway)
	b.client.OnCommand("broadcast", b.handleBroadcast)
	b.client.OnCommand("list", b.handleList)
	b.client.OnCommand("winner", b.handleWinner)

	b.client.OnCallback(joinCallback, b.handleJoin)
	b.client.OnCallback(listCallbackPrefix, b.handleListCallback)
}

// Run processes updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	return b.client.Run(ctx)
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.cfg.Telegram.AdminID
}
