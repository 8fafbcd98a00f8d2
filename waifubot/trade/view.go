package trade

import (
	"fmt"

	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

// View is a rendering-neutral description of a trade.
type View struct {
	Status     Status
	StatusText string
	Host       SideView
	Invited    SideView
	// Fairness is empty when there is nothing to say.
	Fairness string
	Footer   string
}

// SideView describes one side of a trade.
type SideView struct {
	Participant Participant
	Cards       []models.Card
	Gold        int64
	Shards      int64
	Wishlist    int
	// ShowLock is set while the trade is open for negotiation.
	ShowLock bool
	Closed   bool
}

func (v SideView) Empty() bool {
	return len(v.Cards) == 0 && v.Gold == 0 && v.Shards == 0
}

// Describe builds the view of a session snapshot.
func Describe(s Snapshot) View {
	v := View{
		Status:  s.Status,
		Host:    sideView(s.Initiator, s.InitiatorOffer, s.InitiatorClosed, s.Status),
		Invited: sideView(s.Recipient, s.RecipientOffer, s.RecipientClosed, s.Status),
	}
	v.StatusText = statusText(s)
	v.Footer = footer(s)
	if s.Status == StatusAccepted && (len(s.InitiatorOffer.Cards) > 0 || len(s.RecipientOffer.Cards) > 0) {
		v.Fairness = FairnessHint(v.Host.Wishlist, v.Invited.Wishlist)
	}
	return v
}

// DescribeInvite builds the view of a trade that has not been accepted yet.
func DescribeInvite(inv Invite) View {
	return Describe(Snapshot{
		Initiator: inv.Initiator,
		Recipient: inv.Recipient,
		Status:    StatusPending,
		ChannelID: inv.ChannelID,
		StartedAt: inv.CreatedAt,
	})
}

func sideView(p Participant, o Offer, closed bool, status Status) SideView {
	return SideView{
		Participant: p,
		Cards:       o.Cards,
		Gold:        o.Gold,
		Shards:      o.Shards,
		Wishlist:    o.WishlistCount(),
		ShowLock:    status == StatusAccepted,
		Closed:      closed,
	}
}

func statusText(s Snapshot) string {
	switch s.Status {
	case StatusPending:
		return fmt.Sprintf("⏳ **PENDING:** Waiting for %s to accept the trade invitation.", s.Recipient.Mention())
	case StatusAccepted:
		switch {
		case s.InitiatorClosed && s.RecipientClosed:
			return "🔄 **FINALIZING TRADE:** Both sides closed, completing trade..."
		case s.InitiatorClosed:
			return fmt.Sprintf("⏳ **WAITING:** %s closed their side, waiting for %s.", s.Initiator.DisplayName(), s.Recipient.DisplayName())
		case s.RecipientClosed:
			return fmt.Sprintf("⏳ **WAITING:** %s closed their side, waiting for %s.", s.Recipient.DisplayName(), s.Initiator.DisplayName())
		}
		return "✅ **ACTIVE TRADE:** Add items and close when ready."
	case StatusRejected:
		return "❌ **REJECTED:** Trade invitation was declined."
	case StatusCompleted:
		return "🎉 **TRADE COMPLETED!** Items have been exchanged successfully."
	case StatusCancelled:
		return "🚫 **TRADE CANCELLED:** This trade was abandoned."
	}
	return ""
}

func footer(s Snapshot) string {
	switch s.Status {
	case StatusPending:
		return "Use /trade accept to accept or /trade reject to decline this invitation."
	case StatusAccepted:
		switch {
		case s.InitiatorClosed && !s.RecipientClosed:
			return fmt.Sprintf("Waiting for %s to close their side of the trade with /trade close.", s.Recipient.DisplayName())
		case s.RecipientClosed && !s.InitiatorClosed:
			return fmt.Sprintf("Waiting for %s to close their side of the trade with /trade close.", s.Initiator.DisplayName())
		}
		return "Add items with /trade add or /trade resource. Close with /trade close when ready."
	}
	return ""
}

// FairnessHint compares how many wishlisted cards each side offers.
// Ratios between 0.8 and 1.2 count as balanced.
func FairnessHint(host, invited int) string {
	switch {
	case host > 0 && invited > 0:
		ratio := float64(host) / float64(invited)
		switch {
		case ratio >= 0.8 && ratio <= 1.2:
			return "✅ **Fair Trade:** Wishlist values are balanced."
		case ratio > 1.2:
			return "⚠️ **Caution:** Host is offering more wishlist value."
		}
		return "⚠️ **Caution:** Invited user is offering more wishlist value."
	case host > 0:
		return "⚠️ **Caution:** Only the host is offering wishlist cards."
	case invited > 0:
		return "⚠️ **Caution:** Only the invited user is offering wishlist cards."
	}
	return ""
}

// GiftContents lists the items escrowed in a gift, one per line.
func GiftContents(g PendingGift) []string {
	o := g.offer()
	lines := make([]string, 0, 3)
	for _, c := range o.Cards {
		lines = append(lines, fmt.Sprintf("`%s %s` (G-%s)", c.Rarity, c.Name, c.GlobalID))
	}
	if o.Gold > 0 {
		lines = append(lines, fmt.Sprintf("💰 Gold: `%d`", o.Gold))
	}
	if o.Shards > 0 {
		lines = append(lines, fmt.Sprintf("💎 Shards: `%d`", o.Shards))
	}
	return lines
}
