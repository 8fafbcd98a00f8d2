package trade

import (
	"context"
	"log/slog"
	"time"
)

// SweepReport summarizes one expiry pass.
type SweepReport struct {
	ExpiredTrades  int
	ExpiredInvites int
	ExpiredGifts   int
	RefundedGifts  int
	FailedRefunds  int
	FailedNotices  int
}

// Sweeper periodically evicts idle trades, stale invites and old gifts.
type Sweeper struct {
	svc      *Service
	interval time.Duration
}

func NewSweeper(svc *Service) *Sweeper {
	return &Sweeper{svc: svc, interval: svc.cfg.SweepInterval}
}

// Run sweeps every interval until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := w.Sweep(ctx)
			if report != (SweepReport{}) {
				slog.Info("Expiry sweep finished",
					slog.String("type", "trade"),
					slog.Int("trades", report.ExpiredTrades),
					slog.Int("invites", report.ExpiredInvites),
					slog.Int("gifts", report.ExpiredGifts),
					slog.Int("refunded", report.RefundedGifts),
					slog.Int("failed_notices", report.FailedNotices))
			}
		}
	}
}

// Sweep performs a single pass against the service clock. A failed notice or
// refund is logged and the pass moves on to the next entry.
func (w *Sweeper) Sweep(ctx context.Context) SweepReport {
	cfg := w.svc.cfg
	sessions, invites, gifts := w.svc.registry.expire(w.svc.clock.Now(), cfg.SessionTTL, cfg.InviteTTL, cfg.GiftTTL)

	var report SweepReport
	for i := range sessions {
		report.ExpiredTrades++
		tradesTotal.WithLabelValues("expired").Inc()
		if !w.svc.notify(ctx, Event{Kind: EventTradeExpired, Session: &sessions[i]}) {
			report.FailedNotices++
		}
	}

	for i := range invites {
		report.ExpiredInvites++
		invitesTotal.WithLabelValues("expired").Inc()
		if !w.svc.notify(ctx, Event{Kind: EventInviteExpired, Invite: &invites[i]}) {
			report.FailedNotices++
		}
	}

	for i := range gifts {
		g := &gifts[i]
		report.ExpiredGifts++
		giftsTotal.WithLabelValues("expired").Inc()

		kind := EventGiftExpired
		if cfg.GiftExpiry == GiftRefund {
			if err := w.svc.credit(ctx, g.Sender.ID, *g); err != nil {
				report.FailedRefunds++
				slog.Error("Failed to refund expired gift",
					slog.String("type", "trade"),
					slog.String("gift_id", g.ID),
					slog.Any("error", err))
			} else {
				report.RefundedGifts++
				giftsTotal.WithLabelValues("refunded").Inc()
				kind = EventGiftRefunded
			}
		}
		if !w.svc.notify(ctx, Event{Kind: kind, Gift: g}) {
			report.FailedNotices++
		}
	}

	return report
}
