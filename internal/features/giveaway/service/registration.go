package service

import (
	"context"

	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
)

// Registration handles the user-facing join operation.
type Registration struct {
	repo repository.GiveawayRepository
}

func NewRegistration(repo repository.GiveawayRepository) *Registration {
	return &Registration{repo: repo}
}

// JoinResult reports the outcome of a join.
type JoinResult struct {
	// Count is the roster size after the call.
	Count int64

	// AlreadyJoined is set when the user was registered before this
	// call. Joining twice is an idempotent no-op, not an error.
	AlreadyJoined bool
}

// Join registers a user on a giveaway's roster. It fails with NOT_FOUND
// for unknown giveaways and GIVEAWAY_NOT_ACTIVE once registration is
// over. Updating any public counter with the returned count is the
// caller's responsibility.
func (r *Registration) Join(ctx context.Context, giveawayID, userID int64, displayName, handle string) (JoinResult, error) {
	inserted, err := r.repo.AddParticipant(ctx, giveawayID, models.Participant{
		GiveawayID:  giveawayID,
		UserID:      userID,
		DisplayName: displayName,
		Handle:      handle,
	})
	if err != nil {
		return JoinResult{}, err
	}

	count, err := r.repo.CountParticipants(ctx, giveawayID)
	if err != nil {
		return JoinResult{}, err
	}

	return JoinResult{Count: count, AlreadyJoined: !inserted}, nil
}
