package trade

import (
	"strings"
	"testing"

	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

func TestFairnessHint(t *testing.T) {
	tests := []struct {
		host, invited int
		want          string
	}{
		{0, 0, ""},
		{4, 5, "Fair Trade"},
		{6, 5, "Fair Trade"},
		{7, 5, "Host is offering more"},
		{3, 5, "Invited user is offering more"},
		{2, 0, "Only the host"},
		{0, 1, "Only the invited user"},
	}

	for _, tt := range tests {
		got := FairnessHint(tt.host, tt.invited)
		if tt.want == "" && got != "" || !strings.Contains(got, tt.want) {
			t.Errorf("FairnessHint(%d, %d) = %q, want %q", tt.host, tt.invited, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	host := Participant{ID: 1, Name: "alice"}
	guest := Participant{ID: 2, Name: "bob"}
	wish := models.Card{GlobalID: "w", Wishlist: true}

	tests := []struct {
		name         string
		snap         Snapshot
		wantStatus   string
		wantFooter   string
		wantFairness bool
	}{
		{
			name:       "Open",
			snap:       Snapshot{Initiator: host, Recipient: guest, Status: StatusAccepted},
			wantStatus: "ACTIVE TRADE",
			wantFooter: "Add items",
		},
		{
			name:       "Host closed",
			snap:       Snapshot{Initiator: host, Recipient: guest, Status: StatusAccepted, InitiatorClosed: true},
			wantStatus: "alice closed their side",
			wantFooter: "Waiting for bob",
		},
		{
			name:       "Both closed",
			snap:       Snapshot{Initiator: host, Recipient: guest, Status: StatusAccepted, InitiatorClosed: true, RecipientClosed: true},
			wantStatus: "FINALIZING",
			wantFooter: "Add items",
		},
		{
			name:         "Wishlist one side",
			snap:         Snapshot{Initiator: host, Recipient: guest, Status: StatusAccepted, InitiatorOffer: Offer{Cards: []models.Card{wish}}},
			wantStatus:   "ACTIVE TRADE",
			wantFooter:   "Add items",
			wantFairness: true,
		},
		{
			name:       "Completed",
			snap:       Snapshot{Initiator: host, Recipient: guest, Status: StatusCompleted, InitiatorOffer: Offer{Cards: []models.Card{wish}}},
			wantStatus: "TRADE COMPLETED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Describe(tt.snap)
			if !strings.Contains(v.StatusText, tt.wantStatus) {
				t.Errorf("StatusText = %q, want %q", v.StatusText, tt.wantStatus)
			}
			if tt.wantFooter == "" && v.Footer != "" || !strings.Contains(v.Footer, tt.wantFooter) {
				t.Errorf("Footer = %q, want %q", v.Footer, tt.wantFooter)
			}
			if (v.Fairness != "") != tt.wantFairness {
				t.Errorf("Fairness = %q", v.Fairness)
			}
		})
	}

	inv := DescribeInvite(Invite{Initiator: host, Recipient: guest})
	if inv.Status != StatusPending || !strings.Contains(inv.StatusText, guest.Mention()) {
		t.Errorf("DescribeInvite() = %+v", inv)
	}
}
