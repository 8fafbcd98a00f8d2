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

// GiftExpiryPolicy decides what happens to escrowed items of an expired gift.
type GiftExpiryPolicy string

const (
	// GiftForfeit drops the items; the sender is not refunded.
	GiftForfeit GiftExpiryPolicy = "forfeit"
	// GiftRefund returns the items to the sender.
	GiftRefund GiftExpiryPolicy = "refund"
)

func ParseGiftExpiryPolicy(s string) (GiftExpiryPolicy, error) {
	switch GiftExpiryPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GiftForfeit:
		return GiftForfeit, nil
	case GiftRefund:
		return GiftRefund, nil
	}
	return "", fmt.Errorf("unknown gift expiry policy %q", s)
}

type Config struct {
	SweepInterval time.Duration
	SessionTTL    time.Duration
	InviteTTL     time.Duration
	GiftTTL       time.Duration
	MaxOfferCards int
	GiftExpiry    GiftExpiryPolicy
}

func DefaultConfig() Config {
	return Config{
		SweepInterval: 5 * time.Minute,
		SessionTTL:    30 * time.Minute,
		InviteTTL:     10 * time.Minute,
		GiftTTL:       7 * 24 * time.Hour,
		MaxOfferCards: DefaultMaxOfferCards,
		GiftExpiry:    GiftForfeit,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.InviteTTL <= 0 {
		c.InviteTTL = d.InviteTTL
	}
	if c.GiftTTL <= 0 {
		c.GiftTTL = d.GiftTTL
	}
	if c.MaxOfferCards <= 0 {
		c.MaxOfferCards = d.MaxOfferCards
	}
	if c.GiftExpiry == "" {
		c.GiftExpiry = d.GiftExpiry
	}
	return c
}

// Service runs trade negotiations and gifts on top of a Store.
type Service struct {
	cfg      Config
	store    Store
	registry *Registry
	notifier Notifier
	clock    Clock
	locks    *userLocks
}

func NewService(cfg Config, store Store, notifier Notifier, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		cfg:      cfg.WithDefaults(),
		store:    store,
		registry: NewRegistry(clock),
		notifier: notifier,
		clock:    clock,
		locks:    newUserLocks(),
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) Config() Config {
	return s.cfg
}

// SetNotifier swaps the event sink; the Discord client is created after the service.
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// notify delivers e and reports whether it succeeded. Failures are logged only.
func (s *Service) notify(ctx context.Context, e Event) bool {
	if err := s.notifier.Notify(ctx, e); err != nil {
		notificationFailures.WithLabelValues(e.Kind.String()).Inc()
		slog.Warn("Failed to deliver trade notification",
			slog.String("type", "trade"),
			slog.String("event", e.Kind.String()),
			slog.Any("error", err))
		return false
	}
	return true
}

func (s *Service) StartInvite(ctx context.Context, initiator, recipient Participant, channel snowflake.ID) (Invite, error) {
	inv, err := s.registry.startInvite(initiator, recipient, channel)
	if err != nil {
		return Invite{}, err
	}
	invitesTotal.WithLabelValues("sent").Inc()
	s.notify(ctx, Event{Kind: EventInviteSent, Actor: initiator.ID, Invite: &inv})
	return inv, nil
}

func (s *Service) AcceptInvite(ctx context.Context, recipient Participant) (Snapshot, error) {
	snap, err := s.registry.acceptInvite(recipient)
	if err != nil {
		return Snapshot{}, err
	}
	invitesTotal.WithLabelValues("accepted").Inc()
	slog.Info("Trade started",
		slog.String("type", "trade"),
		slog.String("initiator_id", snap.Initiator.ID.String()),
		slog.String("recipient_id", snap.Recipient.ID.String()))
	s.notify(ctx, Event{Kind: EventInviteAccepted, Actor: recipient.ID, Session: &snap})
	return snap, nil
}

func (s *Service) RejectInvite(ctx context.Context, recipient Participant) (Invite, error) {
	inv, err := s.registry.rejectInvite(recipient.ID)
	if err != nil {
		return Invite{}, err
	}
	invitesTotal.WithLabelValues("rejected").Inc()
	s.notify(ctx, Event{Kind: EventInviteRejected, Actor: recipient.ID, Invite: &inv})
	return inv, nil
}

// AddCard puts a card from the caller's live inventory into their offer.
func (s *Service) AddCard(ctx context.Context, caller snowflake.ID, globalID string) (Snapshot, error) {
	globalID = strings.TrimSpace(globalID)
	if _, err := s.registry.inspect(caller, func(sess *Session) error {
		return sess.checkWorkable(caller)
	}); err != nil {
		return Snapshot{}, err
	}

	user, err := s.store.GetUser(ctx, caller)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load inventory: %w", err)
	}
	idx := user.FindCard(globalID)
	if idx < 0 {
		return Snapshot{}, fmt.Errorf("%w: G-%s", ErrCardNotFound, globalID)
	}
	card := user.Cards[idx].Clone()

	// The inventory read above may have interleaved with other commands.
	snap, err := s.registry.update(caller, func(sess *Session) error {
		if err := sess.checkWorkable(caller); err != nil {
			return err
		}
		offer, _ := sess.side(caller)
		if offer.HasCard(globalID) {
			return ErrDuplicateInOffer
		}
		if len(offer.Cards) >= s.cfg.MaxOfferCards {
			return ErrOfferFull
		}
		candidate := offer.clone()
		candidate.Cards = append(candidate.Cards, card)
		if err := ValidateOffer(candidate, user); err != nil {
			// The new card was found above, so the failure is about an earlier item.
			return staleOffer(err)
		}
		offer.Cards = append(offer.Cards, card)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.notify(ctx, Event{Kind: EventOfferChanged, Actor: caller, Session: &snap})
	return snap, nil
}

// RemoveCard takes a card back out of the caller's offer.
func (s *Service) RemoveCard(ctx context.Context, caller snowflake.ID, globalID string) (Snapshot, error) {
	globalID = strings.TrimSpace(globalID)
	snap, err := s.registry.update(caller, func(sess *Session) error {
		if err := sess.checkWorkable(caller); err != nil {
			return err
		}
		offer, _ := sess.side(caller)
		i := offer.indexOf(globalID)
		if i < 0 {
			return ErrNotInOffer
		}
		offer.Cards = append(offer.Cards[:i], offer.Cards[i+1:]...)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.notify(ctx, Event{Kind: EventCardRemoved, Actor: caller, Session: &snap})
	return snap, nil
}

// SetResource sets (not adds to) the amount of gold or shards the caller offers.
func (s *Service) SetResource(ctx context.Context, caller snowflake.ID, kind models.UserField, amount int64) (Snapshot, error) {
	if kind != models.FieldGold && kind != models.FieldShards {
		return Snapshot{}, ErrInvalidResource
	}
	if amount <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}
	if _, err := s.registry.inspect(caller, func(sess *Session) error {
		return sess.checkWorkable(caller)
	}); err != nil {
		return Snapshot{}, err
	}

	user, err := s.store.GetUser(ctx, caller)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load inventory: %w", err)
	}

	snap, err := s.registry.update(caller, func(sess *Session) error {
		if err := sess.checkWorkable(caller); err != nil {
			return err
		}
		offer, _ := sess.side(caller)
		candidate := offer.clone()
		candidate.setResource(kind, amount)
		if err := ValidateOffer(candidate, user); err != nil {
			if errors.Is(err, ErrCardNotFound) {
				return staleOffer(err)
			}
			return err
		}
		offer.setResource(kind, amount)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.notify(ctx, Event{Kind: EventOfferChanged, Actor: caller, Session: &snap})
	return snap, nil
}

// CloseSide locks the caller's offer. When both sides are closed the trade
// settles and the returned snapshot carries the terminal status.
func (s *Service) CloseSide(ctx context.Context, caller snowflake.ID) (Snapshot, error) {
	var bothClosed bool
	snap, err := s.registry.update(caller, func(sess *Session) error {
		if err := sess.checkWorkable(caller); err != nil {
			return err
		}
		_, closed := sess.side(caller)
		*closed = true
		bothClosed = sess.InitiatorClosed && sess.RecipientClosed
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.notify(ctx, Event{Kind: EventSideClosed, Actor: caller, Session: &snap})
	if !bothClosed {
		return snap, nil
	}
	return s.Settle(ctx, caller)
}

// Abandon cancels the caller's trade. Nothing has moved yet, so no
// inventory is touched.
func (s *Service) Abandon(ctx context.Context, caller snowflake.ID) (Snapshot, error) {
	snap, err := s.registry.abandon(caller)
	if err != nil {
		return Snapshot{}, err
	}
	tradesTotal.WithLabelValues("cancelled").Inc()
	s.notify(ctx, Event{Kind: EventTradeCancelled, Actor: caller, Session: &snap})
	return snap, nil
}

// View returns the caller's current trade.
func (s *Service) View(caller snowflake.ID) (Snapshot, error) {
	snap, ok := s.registry.FindActiveSession(caller)
	if !ok {
		return Snapshot{}, ErrNoActiveSession
	}
	return snap, nil
}

// staleOffer reports a validation failure caused by an item offered earlier
// that has since left the caller's inventory.
func staleOffer(err error) error {
	return fmt.Errorf("an item already in your offer is no longer available (%w)", err)
}
