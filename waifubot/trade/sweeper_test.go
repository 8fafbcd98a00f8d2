package trade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade/mock"
	"go.uber.org/mock/gomock"
)

func TestSweeper_Sweep_Sessions(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	events := &eventLog{}
	svc := newService(t, newMemStore(), events, clock)

	openTrade(t, svc, alice, bob)
	clock.Advance(2 * time.Minute)
	openTrade(t, svc, carol, dave)
	clock.Advance(29 * time.Minute)

	report := trade.NewSweeper(svc).Sweep(ctx)
	if report.ExpiredTrades != 1 {
		t.Fatalf("ExpiredTrades = %d, want 1", report.ExpiredTrades)
	}
	if _, ok := svc.Registry().FindActiveSession(alice.ID); ok {
		t.Error("31 minute old session survived")
	}
	if _, ok := svc.Registry().FindActiveSession(carol.ID); !ok {
		t.Error("29 minute old session was evicted")
	}
	if !events.has(trade.EventTradeExpired) {
		t.Error("no expiry notice")
	}
}

func TestSweeper_Sweep_InteractionResetsIdleTime(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemStore(newUser(alice, 10, 0), newUser(bob, 0, 0))
	svc := newService(t, store, nil, clock)
	openTrade(t, svc, alice, bob)

	clock.Advance(20 * time.Minute)
	if _, err := svc.SetResource(ctx, alice.ID, "gold", 5); err != nil {
		t.Fatal(err)
	}
	clock.Advance(20 * time.Minute)

	if report := trade.NewSweeper(svc).Sweep(ctx); report.ExpiredTrades != 0 {
		t.Errorf("ExpiredTrades = %d, want 0", report.ExpiredTrades)
	}
}

func TestSweeper_Sweep_Invites(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newService(t, newMemStore(), nil, clock)

	_, _ = svc.StartInvite(ctx, alice, bob, channel)
	clock.Advance(5 * time.Minute)
	_, _ = svc.StartInvite(ctx, carol, dave, channel)
	clock.Advance(6 * time.Minute)

	report := trade.NewSweeper(svc).Sweep(ctx)
	if report.ExpiredInvites != 1 {
		t.Fatalf("ExpiredInvites = %d, want 1", report.ExpiredInvites)
	}
	if _, err := svc.AcceptInvite(ctx, bob); !errors.Is(err, trade.ErrNoPendingInvite) {
		t.Errorf("AcceptInvite(bob) error = %v", err)
	}
	if _, err := svc.AcceptInvite(ctx, dave); err != nil {
		t.Errorf("AcceptInvite(dave) error = %v", err)
	}
}

func TestSweeper_Sweep_Gifts(t *testing.T) {
	tests := []struct {
		name       string
		policy     trade.GiftExpiryPolicy
		wantGold   int64
		wantRefund int
		wantEvent  trade.EventKind
	}{
		{name: "Forfeit", policy: trade.GiftForfeit, wantGold: 30, wantRefund: 0, wantEvent: trade.EventGiftExpired},
		{name: "Refund", policy: trade.GiftRefund, wantGold: 50, wantRefund: 1, wantEvent: trade.EventGiftRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			store := newMemStore(newUser(alice, 50, 0), newUser(bob, 0, 0))
			events := &eventLog{}
			cfg := trade.DefaultConfig()
			cfg.GiftExpiry = tt.policy
			svc := trade.NewService(cfg, store, events, clock)

			if _, err := svc.SendGift(ctx, alice, bob, trade.GiftRequest{Gold: 20}); err != nil {
				t.Fatal(err)
			}
			sweeper := trade.NewSweeper(svc)

			clock.Advance(6 * 24 * time.Hour)
			if report := sweeper.Sweep(ctx); report.ExpiredGifts != 0 {
				t.Fatalf("gift expired after 6 days")
			}

			clock.Advance(25 * time.Hour)
			report := sweeper.Sweep(ctx)
			if report.ExpiredGifts != 1 || report.RefundedGifts != tt.wantRefund {
				t.Fatalf("report = %+v", report)
			}
			if got := store.user(alice.ID).Gold; got != tt.wantGold {
				t.Errorf("sender gold = %d, want %d", got, tt.wantGold)
			}
			if got := store.user(bob.ID).Gold; got != 0 {
				t.Errorf("recipient gold = %d, want 0", got)
			}
			if n := len(svc.ListGifts(bob.ID)); n != 0 {
				t.Errorf("pending gifts = %d", n)
			}
			if !events.has(tt.wantEvent) {
				t.Errorf("missing %s event", tt.wantEvent)
			}
		})
	}
}

func TestSweeper_Sweep_NotificationFailures(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	notifier := mock.NewMockNotifier(gomock.NewController(t))
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := newService(t, newMemStore(), notifier, clock)
	openTrade(t, svc, alice, bob)
	openTrade(t, svc, carol, dave)
	clock.Advance(time.Hour)

	failing := mock.NewMockNotifier(gomock.NewController(t))
	failing.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Return(errors.New("missing access")).
		Times(2)
	svc.SetNotifier(failing)

	report := trade.NewSweeper(svc).Sweep(ctx)
	if report.ExpiredTrades != 2 || report.FailedNotices != 2 {
		t.Fatalf("report = %+v", report)
	}
	if stats := svc.Registry().Stats(); stats.ActiveTrades != 0 {
		t.Errorf("ActiveTrades = %d, want 0", stats.ActiveTrades)
	}
}

func TestSweeper_Run_StopsOnCancel(t *testing.T) {
	cfg := trade.DefaultConfig()
	cfg.SweepInterval = time.Millisecond
	svc := trade.NewService(cfg, newMemStore(), nil, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		trade.NewSweeper(svc).Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
