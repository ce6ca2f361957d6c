package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
	"giveaway-bot/internal/features/giveaway/repository/sqlite"
	"giveaway-bot/internal/platform/db"
	"giveaway-bot/internal/platform/telegram"
	"giveaway-bot/internal/platform/timer"
)

const (
	testChannelID       = int64(-100500)
	testChannelUsername = "testchannel"
)

type sentMessage struct {
	UserID int64
	Text   string
	Button *telegram.Button
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// fakeTransport records deliveries and can be told to fail for specific
// recipients.
type fakeTransport struct {
	mu         sync.Mutex
	sends      []sentMessage
	edits      []editedMessage
	failSendTo map[int64]error
}

func (f *fakeTransport) SendMessage(userID int64, text string, button *telegram.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSendTo[userID]; err != nil {
		return err
	}
	f.sends = append(f.sends, sentMessage{UserID: userID, Text: text, Button: button})
	return nil
}

func (f *fakeTransport) EditMessage(chatID int64, messageID int, text string, button *telegram.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeTransport) sentTo() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sends...)
}

func (f *fakeTransport) edited() []editedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]editedMessage(nil), f.edits...)
}

type fixture struct {
	repo      repository.GiveawayRepository
	timers    *timer.Engine
	transport *fakeTransport
	scheduler *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sqlDB, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := sqlite.NewSQLiteRepository(sqlDB)
	timers := timer.New()
	t.Cleanup(timers.Stop)
	transport := &fakeTransport{failSendTo: make(map[int64]error)}

	scheduler := NewScheduler(repo, timers, transport, testChannelID, testChannelUsername)
	scheduler.sendPause = 0
	return &fixture{repo: repo, timers: timers, transport: transport, scheduler: scheduler}
}

func (fx *fixture) createGiveaway(t *testing.T, id int64, endsIn time.Duration) *models.Giveaway {
	t.Helper()
	g := &models.Giveaway{
		ID:               id,
		Title:            "Prize",
		ChatID:           100,
		ChannelMessageID: id + 1000,
		EndTime:          time.Now().Add(endsIn),
		State:            models.StateActive,
	}
	require.NoError(t, fx.repo.Create(context.Background(), g))
	return g
}

func (fx *fixture) join(t *testing.T, giveawayID, userID int64) {
	t.Helper()
	_, err := fx.repo.AddParticipant(context.Background(), giveawayID, models.Participant{
		GiveawayID:  giveawayID,
		UserID:      userID,
		DisplayName: "User",
	})
	require.NoError(t, err)
}
