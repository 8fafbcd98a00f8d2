package trade

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

type EventKind int

const (
	EventInviteSent EventKind = iota
	EventInviteAccepted
	EventInviteRejected
	EventInviteExpired
	EventOfferChanged
	EventCardRemoved
	EventSideClosed
	EventTradeCompleted
	EventTradeCancelled
	EventTradeFailed
	EventTradeExpired
	EventGiftSent
	EventGiftOpened
	EventGiftExpired
	EventGiftRefunded
)

func (k EventKind) String() string {
	switch k {
	case EventInviteSent:
		return "invite_sent"
	case EventInviteAccepted:
		return "invite_accepted"
	case EventInviteRejected:
		return "invite_rejected"
	case EventInviteExpired:
		return "invite_expired"
	case EventOfferChanged:
		return "offer_changed"
	case EventCardRemoved:
		return "card_removed"
	case EventSideClosed:
		return "side_closed"
	case EventTradeCompleted:
		return "trade_completed"
	case EventTradeCancelled:
		return "trade_cancelled"
	case EventTradeFailed:
		return "trade_failed"
	case EventTradeExpired:
		return "trade_expired"
	case EventGiftSent:
		return "gift_sent"
	case EventGiftOpened:
		return "gift_opened"
	case EventGiftExpired:
		return "gift_expired"
	case EventGiftRefunded:
		return "gift_refunded"
	}
	return "unknown"
}

// Event is a state change pushed to the presentation layer. Exactly one of
// Session, Invite or Gift is set depending on Kind.
type Event struct {
	Kind    EventKind
	Actor   snowflake.ID
	Session *Snapshot
	Invite  *Invite
	Gift    *PendingGift
	// Reason carries the failure text for EventTradeFailed.
	Reason string
}

// Audience lists the users an event concerns.
func (e Event) Audience() []snowflake.ID {
	switch {
	case e.Session != nil:
		return []snowflake.ID{e.Session.Initiator.ID, e.Session.Recipient.ID}
	case e.Invite != nil:
		return []snowflake.ID{e.Invite.Initiator.ID, e.Invite.Recipient.ID}
	case e.Gift != nil:
		return []snowflake.ID{e.Gift.Sender.ID, e.Gift.Recipient.ID}
	}
	return nil
}

// Notifier delivers events to users. Delivery failures never undo a transition.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
