package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

// PendingGift holds items already taken from the sender until the
// recipient opens it or it expires.
type PendingGift struct {
	ID        string
	Sender    Participant
	Recipient Participant
	Card      *models.Card
	Gold      int64
	Shards    int64
	Message   string
	CreatedAt time.Time

	seq uint64
}

func (g PendingGift) offer() Offer {
	o := Offer{Gold: g.Gold, Shards: g.Shards}
	if g.Card != nil {
		o.Cards = []models.Card{g.Card.Clone()}
	}
	return o
}

// ExpiresAt reports when the sweeper will drop the gift.
func (g PendingGift) ExpiresAt(ttl time.Duration) time.Time {
	return g.CreatedAt.Add(ttl)
}

// GiftRequest describes what a sender wants to give. At least one of
// CardID, Gold or Shards must be set.
type GiftRequest struct {
	CardID  string
	Gold    int64
	Shards  int64
	Message string
}

// SendGift takes the requested items from the sender right away and parks
// them in a pending gift for the recipient.
func (s *Service) SendGift(ctx context.Context, sender, recipient Participant, req GiftRequest) (PendingGift, error) {
	req.CardID = strings.TrimSpace(req.CardID)
	switch {
	case sender.ID == recipient.ID:
		return PendingGift{}, ErrSelfGift
	case recipient.Bot:
		return PendingGift{}, ErrBotRecipient
	case req.Gold < 0 || req.Shards < 0:
		return PendingGift{}, ErrInvalidAmount
	case req.CardID == "" && req.Gold == 0 && req.Shards == 0:
		return PendingGift{}, ErrNothingOffered
	}

	unlock := s.locks.lock(sender.ID)
	defer unlock()

	user, err := s.store.GetUser(ctx, sender.ID)
	if err != nil {
		return PendingGift{}, fmt.Errorf("failed to load inventory: %w", err)
	}

	offer := Offer{Gold: req.Gold, Shards: req.Shards}
	if req.CardID != "" {
		idx := user.FindCard(req.CardID)
		if idx < 0 {
			return PendingGift{}, fmt.Errorf("%w: G-%s", ErrCardNotFound, req.CardID)
		}
		offer.Cards = []models.Card{user.Cards[idx].Clone()}
	}
	if err := ValidateOffer(offer, user); err != nil {
		return PendingGift{}, err
	}

	next := user.Clone()
	taken := takeCards(next, offer)
	next.Gold -= offer.Gold
	next.Shards -= offer.Shards
	if err := s.save(ctx, change{id: sender.ID, before: user, after: next}); err != nil {
		return PendingGift{}, err
	}

	now := s.clock.Now()
	g := &PendingGift{
		ID:        fmt.Sprintf("%d_%d_%d", sender.ID, recipient.ID, now.UnixNano()),
		Sender:    sender,
		Recipient: recipient,
		Gold:      offer.Gold,
		Shards:    offer.Shards,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: now,
	}
	if len(taken) > 0 {
		card := taken[0]
		g.Card = &card
	}
	s.registry.putGift(g)
	sent := *g

	giftsTotal.WithLabelValues("sent").Inc()
	slog.Info("Gift sent",
		slog.String("type", "trade"),
		slog.String("gift_id", sent.ID),
		slog.String("sender_id", sender.ID.String()),
		slog.String("recipient_id", recipient.ID.String()))
	s.notify(ctx, Event{Kind: EventGiftSent, Actor: sender.ID, Gift: &sent})
	return sent, nil
}

// OpenGift credits a pending gift to its recipient and deletes it.
// Opening the same gift twice yields ErrGiftNotFound.
func (s *Service) OpenGift(ctx context.Context, caller snowflake.ID, giftID string) (PendingGift, error) {
	g, err := s.registry.claimGift(strings.TrimSpace(giftID), caller)
	if err != nil {
		return PendingGift{}, err
	}

	if err := s.credit(ctx, caller, g); err != nil {
		// Some writes already landed, so the gift stays consumed.
		if errors.Is(err, ErrSettlementIncomplete) {
			slog.Error("Gift partially credited",
				slog.String("type", "trade"),
				slog.String("gift_id", g.ID),
				slog.String("user_id", caller.String()),
				slog.Any("error", err))
			giftsTotal.WithLabelValues("incomplete").Inc()
			return PendingGift{}, err
		}
		s.registry.restoreGift(g)
		return PendingGift{}, err
	}

	giftsTotal.WithLabelValues("opened").Inc()
	s.notify(ctx, Event{Kind: EventGiftOpened, Actor: caller, Gift: &g})
	return g, nil
}

// ListGifts returns the caller's unopened gifts, oldest first.
func (s *Service) ListGifts(caller snowflake.ID) []PendingGift {
	return s.registry.giftsFor(caller)
}

// OpenGiftNumber opens the n-th (1-based) gift of ListGifts.
func (s *Service) OpenGiftNumber(ctx context.Context, caller snowflake.ID, n int) (PendingGift, error) {
	gifts := s.ListGifts(caller)
	if n < 1 || n > len(gifts) {
		return PendingGift{}, ErrInvalidGiftNumber
	}
	return s.OpenGift(ctx, caller, gifts[n-1].ID)
}

// credit adds the gift's items to the inventory of id.
func (s *Service) credit(ctx context.Context, id snowflake.ID, g PendingGift) error {
	unlock := s.locks.lock(id)
	defer unlock()

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	next := user.Clone()
	if g.Card != nil {
		next.Cards = append(next.Cards, g.Card.Clone())
	}
	next.Gold += g.Gold
	next.Shards += g.Shards
	return s.save(ctx, change{id: id, before: user, after: next})
}
