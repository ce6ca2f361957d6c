package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesDistinctRecipients(t *testing.T) {
	fx := newFixture(t)
	b := NewBroadcaster(fx.repo, fx.transport)
	b.sendPause = 0
	fx.createGiveaway(t, 1, time.Hour)
	fx.createGiveaway(t, 2, time.Hour)
	fx.join(t, 1, 500)
	fx.join(t, 1, 501)
	fx.join(t, 2, 500) // same user on a second roster

	delivered, err := b.Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	assert.Len(t, fx.transport.sentTo(), 2)
}

func TestBroadcastSkipsFailedRecipients(t *testing.T) {
	fx := newFixture(t)
	b := NewBroadcaster(fx.repo, fx.transport)
	b.sendPause = 0
	fx.createGiveaway(t, 1, time.Hour)
	fx.join(t, 1, 500)
	fx.join(t, 1, 501)
	fx.transport.failSendTo[500] = assert.AnError

	delivered, err := b.Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestBroadcastNoRecipients(t *testing.T) {
	fx := newFixture(t)
	b := NewBroadcaster(fx.repo, fx.transport)

	delivered, err := b.Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, delivered)
}
