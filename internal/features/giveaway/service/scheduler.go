package service

import (
	"context"
	"fmt"
	"time"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
	"giveaway-bot/internal/platform/telegram"
	"giveaway-bot/internal/platform/timer"
)

const (
	// reminderLead is how long before the deadline registrants are
	// reminded. A reminder timer is only ever armed when more than this
	// remains, which doubles as the sent-state: re-arming after a
	// restart inside the final hour skips the reminder instead of
	// risking a duplicate.
	reminderLead = time.Hour

	// defaultSendPause paces per-recipient sends to stay under the Bot
	// API rate limits.
	defaultSendPause = 50 * time.Millisecond
)

func closeKey(id int64) string {
	return fmt.Sprintf("close:%d", id)
}

func reminderKey(id int64) string {
	return fmt.Sprintf("reminder:%d", id)
}

// Scheduler drives the timed lifecycle of giveaways: it arms the
// reminder and close timers on creation, re-arms them from persisted
// deadlines on startup, and performs the close transition when due.
//
// Every timer callback re-reads current state from the store before
// acting; canceled or stale timers therefore no-op instead of repeating
// a transition.
type Scheduler struct {
	repo      repository.GiveawayRepository
	timers    *timer.Engine
	transport Transport

	channelID       int64
	channelUsername string

	sendPause time.Duration
}

func NewScheduler(repo repository.GiveawayRepository, timers *timer.Engine, transport Transport, channelID int64, channelUsername string) *Scheduler {
	return &Scheduler{
		repo:            repo,
		timers:          timers,
		transport:       transport,
		channelID:       channelID,
		channelUsername: channelUsername,
		sendPause:       defaultSendPause,
	}
}

// OnCreate persists a new giveaway and arms its timers. The close timer
// is always armed; the reminder timer only when more than one hour
// remains.
func (s *Scheduler) OnCreate(ctx context.Context, g *models.Giveaway) error {
	g.State = models.StateActive
	if err := s.repo.Create(ctx, g); err != nil {
		return err
	}
	s.armTimers(g)

	logger.Info().
		Int64("giveaway_id", g.ID).
		Time("end_time", g.EndTime).
		Msg("Giveaway created")
	return nil
}

// Recover rebuilds the timer schedule from persisted deadlines. It runs
// once at process start, after store initialization and before any new
// commands are accepted. Already-expired giveaways are closed on the
// spot.
func (s *Scheduler) Recover(ctx context.Context) error {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return err
	}

	recovered, closed := 0, 0
	for _, g := range active {
		if time.Until(g.EndTime) <= 0 {
			s.onCloseDue(g.ID)
			closed++
			continue
		}
		s.armTimers(g)
		recovered++
	}

	logger.Info().
		Int("rearmed", recovered).
		Int("closed_overdue", closed).
		Msg("Recovery scan finished")
	return nil
}

// CancelTimers drops any still-armed timers for a giveaway. Advisory
// cleanup: the callbacks guard themselves, this just avoids wasted work.
func (s *Scheduler) CancelTimers(id int64) {
	s.timers.Cancel(closeKey(id))
	s.timers.Cancel(reminderKey(id))
}

func (s *Scheduler) armTimers(g *models.Giveaway) {
	id := g.ID
	s.timers.Arm(closeKey(id), g.EndTime, func() { s.onCloseDue(id) })
	if time.Until(g.EndTime) > reminderLead {
		s.timers.Arm(reminderKey(id), g.EndTime.Add(-reminderLead), func() { s.onReminderDue(id) })
	}
}

// onReminderDue notifies every registrant that one hour remains.
// Individual delivery failures are logged and do not abort the batch.
func (s *Scheduler) onReminderDue(id int64) {
	ctx := context.Background()

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			logger.Error().Err(err).Int64("giveaway_id", id).Msg("Reminder: failed to load giveaway")
		}
		return
	}
	if g.State != models.StateActive {
		// Stale timer: closed or retired since arming.
		return
	}

	button := s.joinButton(g)
	sent := 0
	for _, p := range g.Participants {
		if err := s.transport.SendMessage(p.UserID, reminderText(g.Title), button); err != nil {
			logger.Warn().Err(err).
				Int64("giveaway_id", id).
				Int64("user_id", p.UserID).
				Msg("Reminder delivery failed")
		} else {
			sent++
		}
		time.Sleep(s.sendPause)
	}

	logger.Info().
		Int64("giveaway_id", id).
		Int("sent", sent).
		Int("participants", len(g.Participants)).
		Msg("Reminder dispatched")
}

// onCloseDue flips the giveaway to closed. The compare-and-set is the
// race-safety seam: when a concurrent finalization already claimed the
// transition, or a previous run already closed it, the transition does
// not apply and everything else is skipped.
func (s *Scheduler) onCloseDue(id int64) {
	ctx := context.Background()

	applied, err := s.repo.TryTransition(ctx, id, models.StateActive, models.StateClosed)
	if err != nil {
		// Leave the giveaway active; the next recovery pass retries.
		logger.Error().Err(err).Int64("giveaway_id", id).Msg("Close transition failed")
		return
	}
	if !applied {
		return
	}

	logger.Info().Int64("giveaway_id", id).Msg("Giveaway closed")

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// Retired between the transition and the read; nothing to edit.
		return
	}
	if g.ChannelMessageID == 0 {
		return
	}

	button := &telegram.Button{Text: "🏆 View participants", Data: fmt.Sprintf("list_%d", id)}
	if err := s.transport.EditMessage(s.channelID, int(g.ChannelMessageID), closedText(g.Title), button); err != nil {
		logger.Warn().Err(err).Int64("giveaway_id", id).Msg("Failed to edit closed announcement")
	}
}

// joinButton links back to the public post when the channel is public.
func (s *Scheduler) joinButton(g *models.Giveaway) *telegram.Button {
	if s.channelUsername == "" || g.ChannelMessageID == 0 {
		return nil
	}
	return &telegram.Button{
		Text: "🎁 Join",
		URL:  fmt.Sprintf("https://t.me/%s/%d", s.channelUsername, g.ChannelMessageID),
	}
}
