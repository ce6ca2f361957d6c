package service

import (
	"context"

	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
)

// Finalizer performs the operator's winner pick and retires the
// giveaway.
type Finalizer struct {
	repo      repository.GiveawayRepository
	scheduler *Scheduler
	transport Transport
	channelID int64
}

func NewFinalizer(repo repository.GiveawayRepository, scheduler *Scheduler, transport Transport, channelID int64) *Finalizer {
	return &Finalizer{
		repo:      repo,
		scheduler: scheduler,
		transport: transport,
		channelID: channelID,
	}
}

// SelectWinner notifies the chosen participant, updates the public
// announcement, and retires the giveaway. It fails with
// NOT_A_PARTICIPANT when the user never joined. Delivery failures are
// reported in the returned status but never block retirement: an
// operator decision must not be undone by a messaging outage.
//
// Retirement is unconditional on the current state. An operator may pick
// a winner before the natural close; the giveaway is moved to closed
// first so the pending close timer's compare-and-set no-ops and its
// "registration over" edit can never land on top of the winner
// announcement.
func (f *Finalizer) SelectWinner(ctx context.Context, giveawayID, userID int64) (string, error) {
	g, err := f.repo.GetByID(ctx, giveawayID)
	if err != nil {
		return "", err
	}
	p, err := f.repo.GetParticipant(ctx, giveawayID, userID)
	if err != nil {
		return "", err
	}

	// Claim the close transition before touching the transport. Whether
	// it applies is irrelevant: either we closed it or the timer already
	// did, and from here the announcement belongs to the winner.
	if _, err := f.repo.TryTransition(ctx, giveawayID, models.StateActive, models.StateClosed); err != nil {
		return "", err
	}
	f.scheduler.CancelTimers(giveawayID)

	status := "✅ Winner notified"
	if err := f.transport.SendMessage(userID, winnerDirectText(g.Title), nil); err != nil {
		logger.Warn().Err(err).
			Int64("giveaway_id", giveawayID).
			Int64("user_id", userID).
			Msg("Failed to message the winner")
		status = "⚠️ Could not message the winner"
	}

	if g.ChannelMessageID != 0 {
		text := winnerAnnouncementText(g.Title, p.DisplayName, userID)
		if err := f.transport.EditMessage(f.channelID, int(g.ChannelMessageID), text, nil); err != nil {
			logger.Warn().Err(err).
				Int64("giveaway_id", giveawayID).
				Msg("Failed to edit winner announcement")
		}
	}

	if err := f.repo.Retire(ctx, giveawayID); err != nil {
		return "", err
	}

	logger.Info().
		Int64("giveaway_id", giveawayID).
		Int64("winner_id", userID).
		Msg("Giveaway retired")
	return status, nil
}
