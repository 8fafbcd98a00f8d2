package trade

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Participant identifies a Discord user taking part in a trade or gift.
type Participant struct {
	ID   snowflake.ID
	Name string
	Bot  bool
}

// Mention renders the participant as a Discord mention.
func (p Participant) Mention() string {
	return fmt.Sprintf("<@%s>", p.ID)
}

// DisplayName falls back to the mention when no name is known.
func (p Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Mention()
}

// Session is one negotiation between two users. All fields are guarded by
// the owning Registry's mutex.
type Session struct {
	key pairKey

	Initiator       Participant
	Recipient       Participant
	InitiatorOffer  Offer
	RecipientOffer  Offer
	InitiatorClosed bool
	RecipientClosed bool
	Status          Status
	ChannelID       snowflake.ID
	StartedAt       time.Time
	LastInteraction time.Time

	settling bool
}

func newSession(inv *Invite, now time.Time) *Session {
	return &Session{
		key:             inv.key,
		Initiator:       inv.Initiator,
		Recipient:       inv.Recipient,
		Status:          StatusAccepted,
		ChannelID:       inv.ChannelID,
		StartedAt:       now,
		LastInteraction: now,
	}
}

func (s *Session) involves(id snowflake.ID) bool {
	return s.Initiator.ID == id || s.Recipient.ID == id
}

// side returns the caller's offer and closed flag.
func (s *Session) side(id snowflake.ID) (*Offer, *bool) {
	if id == s.Initiator.ID {
		return &s.InitiatorOffer, &s.InitiatorClosed
	}
	return &s.RecipientOffer, &s.RecipientClosed
}

func (s *Session) transition(to Status) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrTradeNotActive, s.Status, to)
	}
	s.Status = to
	return nil
}

// checkWorkable enforces the precondition shared by every participant action.
func (s *Session) checkWorkable(caller snowflake.ID) error {
	if s.Status != StatusAccepted {
		return ErrTradeNotActive
	}
	if _, closed := s.side(caller); *closed {
		if s.settling {
			return ErrSettlementInProgress
		}
		return ErrAlreadyClosed
	}
	return nil
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Initiator:       s.Initiator,
		Recipient:       s.Recipient,
		InitiatorOffer:  s.InitiatorOffer.clone(),
		RecipientOffer:  s.RecipientOffer.clone(),
		InitiatorClosed: s.InitiatorClosed,
		RecipientClosed: s.RecipientClosed,
		Status:          s.Status,
		ChannelID:       s.ChannelID,
		StartedAt:       s.StartedAt,
		LastInteraction: s.LastInteraction,
	}
}

// Snapshot is an immutable copy of a session handed to callers and notifiers.
type Snapshot struct {
	Initiator       Participant
	Recipient       Participant
	InitiatorOffer  Offer
	RecipientOffer  Offer
	InitiatorClosed bool
	RecipientClosed bool
	Status          Status
	ChannelID       snowflake.ID
	StartedAt       time.Time
	LastInteraction time.Time
}

// Offer returns the offer belonging to id.
func (s Snapshot) Offer(id snowflake.ID) Offer {
	if id == s.Initiator.ID {
		return s.InitiatorOffer
	}
	return s.RecipientOffer
}

// Counterpart returns the other participant.
func (s Snapshot) Counterpart(id snowflake.ID) Participant {
	if id == s.Initiator.ID {
		return s.Recipient
	}
	return s.Initiator
}

// Invite is a trade invitation waiting for the recipient's answer.
type Invite struct {
	key pairKey

	Initiator Participant
	Recipient Participant
	ChannelID snowflake.ID
	CreatedAt time.Time
}
