package models

import "time"

// GiveawayState represents the lifecycle state of a giveaway.
//
// The state only ever moves forward: active -> closed -> retired.
// Retirement deletes the record together with its participants, so a
// retired giveaway is represented by absence rather than a stored row.
type GiveawayState string

const (
	StateActive GiveawayState = "active"
	StateClosed GiveawayState = "closed"
)

// Giveaway is a time-boxed promotion attached to a single announcement
// post. The ID equals the operator-facing announcement message id and is
// immutable, as is EndTime.
type Giveaway struct {
	ID    int64
	Title string

	// ChatID is the chat the creation command was issued from.
	ChatID int64

	// ChannelMessageID references the public channel post this giveaway
	// is attached to. Creation aborts when the channel post cannot be
	// made, so persisted records always carry a nonzero reference.
	ChannelMessageID int64

	EndTime time.Time
	State   GiveawayState

	// Participants is populated by reads that load the full record.
	Participants []Participant
}

// Participant is a user registered on one giveaway's roster. A user may
// appear at most once per giveaway.
type Participant struct {
	GiveawayID  int64
	UserID      int64
	DisplayName string

	// Handle is the public username, without the @ prefix. Empty when
	// the user has none.
	Handle string
}
