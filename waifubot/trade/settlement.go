package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
	"golang.org/x/sync/errgroup"
)

// Settle swaps both offers of the caller's trade. It is normally reached
// through CloseSide once both sides are closed. A session can only be
// settled once; afterwards it is gone from the registry.
func (s *Service) Settle(ctx context.Context, caller snowflake.ID) (Snapshot, error) {
	key, snap, err := s.registry.beginSettle(caller)
	if err != nil {
		return Snapshot{}, err
	}

	start := time.Now()
	if err := s.settle(ctx, snap); err != nil {
		settlementDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return s.failSettlement(ctx, key, snap, err), err
	}
	settlementDuration.WithLabelValues("completed").Observe(time.Since(start).Seconds())

	done, ok := s.registry.finish(key, StatusCompleted)
	if !ok {
		// The claim keeps the session registered, so this only fires on a bug.
		return snap, fmt.Errorf("%w: session vanished during settlement", ErrTradeNotActive)
	}
	tradesTotal.WithLabelValues("completed").Inc()
	slog.Info("Trade completed",
		slog.String("type", "trade"),
		slog.String("trade", key.String()),
		slog.Int("initiator_cards", len(done.InitiatorOffer.Cards)),
		slog.Int("recipient_cards", len(done.RecipientOffer.Cards)))
	s.notify(ctx, Event{Kind: EventTradeCompleted, Actor: caller, Session: &done})
	return done, nil
}

func (s *Service) settle(ctx context.Context, snap Snapshot) error {
	if snap.InitiatorOffer.Empty() && snap.RecipientOffer.Empty() {
		return ErrEmptyTrade
	}

	unlock := s.locks.lock(snap.Initiator.ID, snap.Recipient.ID)
	defer unlock()

	var initiator, recipient *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.store.GetUser(gctx, snap.Initiator.ID)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", snap.Initiator.ID, err)
		}
		initiator = u
		return nil
	})
	g.Go(func() error {
		u, err := s.store.GetUser(gctx, snap.Recipient.ID)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", snap.Recipient.ID, err)
		}
		recipient = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := ValidateOffer(snap.InitiatorOffer, initiator); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRevalidationFailed, snap.Initiator.DisplayName(), err)
	}
	if err := ValidateOffer(snap.RecipientOffer, recipient); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRevalidationFailed, snap.Recipient.DisplayName(), err)
	}

	nextInitiator, nextRecipient := initiator.Clone(), recipient.Clone()
	applySwap(nextInitiator, nextRecipient, snap.InitiatorOffer, snap.RecipientOffer)

	return s.save(ctx,
		change{id: snap.Initiator.ID, before: initiator, after: nextInitiator},
		change{id: snap.Recipient.ID, before: recipient, after: nextRecipient},
	)
}

// failSettlement cancels the claimed session and tells both parties why.
func (s *Service) failSettlement(ctx context.Context, key pairKey, snap Snapshot, cause error) Snapshot {
	tradesTotal.WithLabelValues("failed").Inc()
	level := slog.LevelWarn
	if ClassOf(cause) == ClassUnknown || errors.Is(cause, ErrSettlementIncomplete) {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Trade settlement failed",
		slog.String("type", "trade"),
		slog.String("trade", key.String()),
		slog.Any("error", cause))

	cancelled, ok := s.registry.finish(key, StatusCancelled)
	if !ok {
		cancelled = snap
		cancelled.Status = StatusCancelled
	}
	s.notify(ctx, Event{Kind: EventTradeFailed, Session: &cancelled, Reason: cause.Error()})
	return cancelled
}

// applySwap moves both offers between a and b. Each side gives before it
// receives: cards are removed then appended, resources debited then credited.
func applySwap(a, b *models.User, aOffer, bOffer Offer) {
	fromA := takeCards(a, aOffer)
	fromB := takeCards(b, bOffer)

	a.Gold -= aOffer.Gold
	a.Shards -= aOffer.Shards
	b.Gold -= bOffer.Gold
	b.Shards -= bOffer.Shards

	a.Cards = append(a.Cards, fromB...)
	b.Cards = append(b.Cards, fromA...)

	a.Gold += bOffer.Gold
	a.Shards += bOffer.Shards
	b.Gold += aOffer.Gold
	b.Shards += aOffer.Shards
}

// change is one user record before and after a mutation.
type change struct {
	id     snowflake.ID
	before *models.User
	after  *models.User
}

// save persists changes. Stores implementing Committer get a single atomic
// commit; otherwise each changed field is replaced in turn, and a failure
// after the first write leaves the records inconsistent.
func (s *Service) save(ctx context.Context, changes ...change) error {
	if c, ok := s.store.(Committer); ok {
		users := make([]*models.User, 0, len(changes))
		for _, ch := range changes {
			users = append(users, ch.after)
		}
		if err := c.CommitUsers(ctx, users...); err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				return fmt.Errorf("%w: %v", ErrRevalidationFailed, err)
			}
			return fmt.Errorf("failed to commit users: %w", err)
		}
		return nil
	}

	written := 0
	for _, ch := range changes {
		for _, w := range fieldWrites(ch.before, ch.after) {
			if err := s.store.UpdateUser(ctx, ch.id, w.field, w.value); err != nil {
				if written == 0 {
					return fmt.Errorf("failed to update %s of %s: %w", w.field, ch.id, err)
				}
				slog.Error("Partial inventory write",
					slog.String("type", "trade"),
					slog.String("user_id", ch.id.String()),
					slog.String("field", string(w.field)),
					slog.Int("writes_applied", written),
					slog.Any("error", err))
				return fmt.Errorf("%w: %s of %s: %v", ErrSettlementIncomplete, w.field, ch.id, err)
			}
			written++
		}
	}
	return nil
}

type fieldWrite struct {
	field models.UserField
	value any
}

// fieldWrites lists the whole-field replacements turning before into after.
// Resources are written before cards.
func fieldWrites(before, after *models.User) []fieldWrite {
	var writes []fieldWrite
	if before.Gold != after.Gold {
		writes = append(writes, fieldWrite{models.FieldGold, after.Gold})
	}
	if before.Shards != after.Shards {
		writes = append(writes, fieldWrite{models.FieldShards, after.Shards})
	}
	if !sameCards(before.Cards, after.Cards) {
		writes = append(writes, fieldWrite{models.FieldCards, after.Cards})
	}
	return writes
}

func sameCards(a, b []models.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].GlobalID != b[i].GlobalID {
			return false
		}
	}
	return true
}
