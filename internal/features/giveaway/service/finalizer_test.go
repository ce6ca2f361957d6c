package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/features/giveaway/repository"
)

func TestSelectWinnerRetiresGiveaway(t *testing.T) {
	fx := newFixture(t)
	finalizer := NewFinalizer(fx.repo, fx.scheduler, fx.transport, testChannelID)
	g := fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)
	fx.scheduler.armTimers(g)
	ctx := context.Background()

	status, err := finalizer.SelectWinner(ctx, 1, 500)
	require.NoError(t, err)
	assert.Contains(t, status, "Winner notified")

	// Winner got a direct message, the announcement shows the winner.
	sends := fx.transport.sentTo()
	require.Len(t, sends, 1)
	assert.Equal(t, int64(500), sends[0].UserID)
	assert.Contains(t, sends[0].Text, "You won")

	edits := fx.transport.edited()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "Winner")

	// Retirement cascades: record and roster are gone, timers dropped.
	_, err = fx.repo.GetByID(ctx, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	count, err := fx.repo.CountParticipants(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.False(t, fx.timers.Pending(closeKey(1)))
	assert.False(t, fx.timers.Pending(reminderKey(1)))
}

func TestSelectWinnerRequiresParticipant(t *testing.T) {
	fx := newFixture(t)
	finalizer := NewFinalizer(fx.repo, fx.scheduler, fx.transport, testChannelID)
	fx.createGiveaway(t, 1, time.Hour)
	ctx := context.Background()

	_, err := finalizer.SelectWinner(ctx, 1, 999)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAParticipant))

	_, err = finalizer.SelectWinner(ctx, 42, 999)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	// Nothing was retired or sent.
	_, err = fx.repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, fx.transport.sentTo())
}

func TestSelectWinnerProceedsPastDeliveryFailure(t *testing.T) {
	fx := newFixture(t)
	finalizer := NewFinalizer(fx.repo, fx.scheduler, fx.transport, testChannelID)
	fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)
	fx.transport.failSendTo[500] = assert.AnError
	ctx := context.Background()

	status, err := finalizer.SelectWinner(ctx, 1, 500)
	require.NoError(t, err, "a delivery outage must not block retirement")
	assert.Contains(t, status, "Could not message the winner")

	_, err = fx.repo.GetByID(ctx, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSelectWinnerBeforeNaturalClose(t *testing.T) {
	fx := newFixture(t)
	finalizer := NewFinalizer(fx.repo, fx.scheduler, fx.transport, testChannelID)
	g := fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)
	fx.scheduler.armTimers(g)
	ctx := context.Background()

	// Winner picked while still active: finalization claims the close
	// transition, so the timer's CAS no-ops.
	_, err := finalizer.SelectWinner(ctx, 1, 500)
	require.NoError(t, err)

	fx.scheduler.onCloseDue(1)
	edits := fx.transport.edited()
	require.Len(t, edits, 1, "no closed edit after the winner announcement")
	assert.Contains(t, edits[0].Text, "Winner")
}

// retireGate delegates to the real repository but holds Retire until
// released, exposing the window between the winner edit and retirement.
type retireGate struct {
	repository.GiveawayRepository
	entered chan struct{}
	release chan struct{}
}

func (r *retireGate) Retire(ctx context.Context, giveawayID int64) error {
	close(r.entered)
	<-r.release
	return r.GiveawayRepository.Retire(ctx, giveawayID)
}

func TestCloseTimerDuringFinalizationKeepsWinnerAnnouncement(t *testing.T) {
	fx := newFixture(t)
	gate := &retireGate{
		GiveawayRepository: fx.repo,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	finalizer := NewFinalizer(gate, fx.scheduler, fx.transport, testChannelID)
	fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)

	done := make(chan error, 1)
	go func() {
		_, err := finalizer.SelectWinner(context.Background(), 1, 500)
		done <- err
	}()

	// The winner announcement is out but the record still exists. A close
	// timer firing now must not overwrite it.
	<-gate.entered
	fx.scheduler.onCloseDue(1)
	close(gate.release)
	require.NoError(t, <-done)

	edits := fx.transport.edited()
	require.NotEmpty(t, edits)
	assert.Contains(t, edits[len(edits)-1].Text, "Winner",
		"the winner announcement must be the final edit")
	for _, e := range edits {
		assert.NotContains(t, e.Text, "Registration is over")
	}

	_, err := fx.repo.GetByID(context.Background(), 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
