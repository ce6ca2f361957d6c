package repository

import (
	"context"

	"giveaway-bot/internal/features/giveaway/models"
)

// GiveawayRepository owns the durable representation of giveaways and
// their participants. Every operation is a single transaction; callers
// never observe a half-applied write.
type GiveawayRepository interface {
	// Create persists a new active giveaway. Fails with DUPLICATE_ID
	// when the id already exists.
	Create(ctx context.Context, g *models.Giveaway) error

	// GetByID returns the giveaway with its participants loaded, or
	// NOT_FOUND.
	GetByID(ctx context.Context, id int64) (*models.Giveaway, error)

	// GetByChannelMessageID resolves a giveaway by its public
	// announcement post, or NOT_FOUND.
	GetByChannelMessageID(ctx context.Context, channelMessageID int64) (*models.Giveaway, error)

	// ListActive returns all active giveaways. Used by the startup
	// recovery scan.
	ListActive(ctx context.Context) ([]*models.Giveaway, error)

	// TryTransition is a compare-and-set on the state column. It reports
	// whether the transition applied; false means the current state did
	// not match from (including when the row no longer exists).
	TryTransition(ctx context.Context, id int64, from, to models.GiveawayState) (bool, error)

	// AddParticipant inserts p iff no row exists for the (giveaway,
	// user) pair and the giveaway is active. It reports whether a new
	// row was inserted; false means the user was already registered.
	// Fails with NOT_FOUND or GIVEAWAY_NOT_ACTIVE otherwise.
	AddParticipant(ctx context.Context, giveawayID int64, p models.Participant) (bool, error)

	CountParticipants(ctx context.Context, giveawayID int64) (int64, error)
	ListParticipants(ctx context.Context, giveawayID int64) ([]models.Participant, error)

	// GetParticipant returns the registration row for the pair, or
	// NOT_A_PARTICIPANT.
	GetParticipant(ctx context.Context, giveawayID, userID int64) (*models.Participant, error)

	// ListRecipientIDs returns the distinct user ids across all rosters,
	// for broadcast fan-out.
	ListRecipientIDs(ctx context.Context) ([]int64, error)

	// Retire deletes the giveaway and cascades participant deletion in
	// the same transaction. No-op when the giveaway is already absent.
	Retire(ctx context.Context, id int64) error
}
