package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/features/giveaway/models"
)

func TestOnCreateArmsBothTimers(t *testing.T) {
	fx := newFixture(t)

	g := &models.Giveaway{ID: 1, Title: "Prize", ChatID: 100, EndTime: time.Now().Add(2 * time.Hour)}
	require.NoError(t, fx.scheduler.OnCreate(context.Background(), g))

	assert.Equal(t, models.StateActive, g.State)
	assert.True(t, fx.timers.Pending(closeKey(1)))
	assert.True(t, fx.timers.Pending(reminderKey(1)))
}

func TestReminderSuppressedNearExpiry(t *testing.T) {
	fx := newFixture(t)

	g := &models.Giveaway{ID: 1, Title: "Prize", ChatID: 100, EndTime: time.Now().Add(30 * time.Minute)}
	require.NoError(t, fx.scheduler.OnCreate(context.Background(), g))

	assert.True(t, fx.timers.Pending(closeKey(1)))
	assert.False(t, fx.timers.Pending(reminderKey(1)), "no reminder timer for giveaways shorter than the lead")
}

func TestReminderDispatchesToAllParticipants(t *testing.T) {
	fx := newFixture(t)
	fx.createGiveaway(t, 1, 2*time.Hour)
	fx.join(t, 1, 500)
	fx.join(t, 1, 501)
	fx.join(t, 1, 502)
	fx.transport.failSendTo[501] = assert.AnError

	fx.scheduler.onReminderDue(1)

	sends := fx.transport.sentTo()
	require.Len(t, sends, 2, "failed recipient is skipped, batch continues")
	assert.Equal(t, int64(500), sends[0].UserID)
	assert.Equal(t, int64(502), sends[1].UserID)
	assert.Contains(t, sends[0].Text, "closes in 1 hour")
	require.NotNil(t, sends[0].Button)
	assert.Contains(t, sends[0].Button.URL, testChannelUsername)
}

func TestReminderNoOpsWhenNotActive(t *testing.T) {
	fx := newFixture(t)
	fx.createGiveaway(t, 1, 2*time.Hour)
	fx.join(t, 1, 500)

	_, err := fx.repo.TryTransition(context.Background(), 1, models.StateActive, models.StateClosed)
	require.NoError(t, err)

	fx.scheduler.onReminderDue(1)
	assert.Empty(t, fx.transport.sentTo())

	// Retired giveaways no-op too.
	fx.scheduler.onReminderDue(42)
	assert.Empty(t, fx.transport.sentTo())
}

func TestCloseDueExactlyOnce(t *testing.T) {
	fx := newFixture(t)
	g := fx.createGiveaway(t, 1, 2*time.Hour)

	fx.scheduler.onCloseDue(1)
	fx.scheduler.onCloseDue(1)

	got, err := fx.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, got.State)

	edits := fx.transport.edited()
	require.Len(t, edits, 1, "second close must not re-edit the announcement")
	assert.Equal(t, testChannelID, edits[0].ChatID)
	assert.Equal(t, int(g.ChannelMessageID), edits[0].MessageID)
	assert.Contains(t, edits[0].Text, "Registration is over")

	applied, err := fx.repo.TryTransition(context.Background(), 1, models.StateActive, models.StateClosed)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRecoverClosesExpiredImmediately(t *testing.T) {
	fx := newFixture(t)
	fx.createGiveaway(t, 1, -time.Hour)

	require.NoError(t, fx.scheduler.Recover(context.Background()))

	got, err := fx.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, got.State)
	assert.Len(t, fx.transport.edited(), 1)
	assert.False(t, fx.timers.Pending(closeKey(1)))
}

func TestRecoverRearmsFromPersistedDeadlines(t *testing.T) {
	fx := newFixture(t)
	fx.createGiveaway(t, 1, -time.Hour)
	fx.createGiveaway(t, 2, 30*time.Minute)
	fx.createGiveaway(t, 3, 2*time.Hour)

	// Simulate a restart: a fresh scheduler and timer engine rebuild the
	// schedule purely from the store.
	require.NoError(t, fx.scheduler.Recover(context.Background()))

	got, err := fx.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, got.State)

	assert.True(t, fx.timers.Pending(closeKey(2)))
	assert.False(t, fx.timers.Pending(reminderKey(2)), "reminder instant already passed")

	assert.True(t, fx.timers.Pending(closeKey(3)))
	assert.True(t, fx.timers.Pending(reminderKey(3)))
}

func TestCloseTimerFires(t *testing.T) {
	fx := newFixture(t)
	g := &models.Giveaway{ID: 1, Title: "Prize", ChatID: 100, ChannelMessageID: 1001, EndTime: time.Now().Add(30 * time.Millisecond)}
	require.NoError(t, fx.scheduler.OnCreate(context.Background(), g))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := fx.repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		if got.State == models.StateClosed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("close timer never fired")
}

func TestFinalizationRacesClosure(t *testing.T) {
	fx := newFixture(t)
	finalizer := NewFinalizer(fx.repo, fx.scheduler, fx.transport, testChannelID)
	fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)

	done := make(chan struct{})
	go func() {
		fx.scheduler.onCloseDue(1)
		close(done)
	}()
	_, err := finalizer.SelectWinner(context.Background(), 1, 500)
	<-done
	require.NoError(t, err)

	// Exactly one terminal outcome: the giveaway is retired.
	_, err = fx.repo.GetByID(context.Background(), 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	closedEdits := 0
	for _, e := range fx.transport.edited() {
		if strings.Contains(e.Text, "Registration is over") {
			closedEdits++
		}
	}
	assert.LessOrEqual(t, closedEdits, 1, "close path may edit at most once")
}
