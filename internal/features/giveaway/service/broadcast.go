package service

import (
	"context"
	"time"

	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/repository"
)

// Broadcaster sends a free-text message to every user who ever joined a
// giveaway.
type Broadcaster struct {
	repo      repository.GiveawayRepository
	transport Transport
	sendPause time.Duration
}

func NewBroadcaster(repo repository.GiveawayRepository, transport Transport) *Broadcaster {
	return &Broadcaster{repo: repo, transport: transport, sendPause: defaultSendPause}
}

// Broadcast fans the text out to all distinct registrants and returns
// the delivered count. Failures to individual recipients are logged and
// skipped.
func (b *Broadcaster) Broadcast(ctx context.Context, text string) (int, error) {
	ids, err := b.repo.ListRecipientIDs(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, userID := range ids {
		if err := b.transport.SendMessage(userID, text, nil); err != nil {
			logger.Warn().Err(err).Int64("user_id", userID).Msg("Broadcast delivery failed")
		} else {
			delivered++
		}
		time.Sleep(b.sendPause)
	}

	logger.Info().Int("delivered", delivered).Int("recipients", len(ids)).Msg("Broadcast finished")
	return delivered, nil
}
