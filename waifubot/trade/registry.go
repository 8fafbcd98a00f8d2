package trade

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// pairKey is the canonical key of an unordered pair of users.
type pairKey struct {
	lo, hi snowflake.ID
}

func keyOf(a, b snowflake.ID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

func (k pairKey) String() string {
	return fmt.Sprintf("%s_%s", k.lo, k.hi)
}

// Registry is the single source of truth for in-flight trades, invitations
// and gifts. It never performs I/O while holding its lock.
type Registry struct {
	clock Clock

	mu       sync.Mutex
	sessions map[pairKey]*Session
	invites  map[pairKey]*Invite
	gifts    map[string]*PendingGift
	giftSeq  uint64
}

func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	return &Registry{
		clock:    clock,
		sessions: make(map[pairKey]*Session),
		invites:  make(map[pairKey]*Invite),
		gifts:    make(map[string]*PendingGift),
	}
}

// RegistryStats is a point-in-time count of registry contents.
type RegistryStats struct {
	ActiveTrades   int `json:"active_trades"`
	PendingInvites int `json:"pending_invites"`
	PendingGifts   int `json:"pending_gifts"`
}

func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{
		ActiveTrades:   len(r.sessions),
		PendingInvites: len(r.invites),
		PendingGifts:   len(r.gifts),
	}
}

// sessionForLocked scans active sessions for one involving id.
func (r *Registry) sessionForLocked(id snowflake.ID) *Session {
	for _, s := range r.sessions {
		if s.involves(id) {
			return s
		}
	}
	return nil
}

// FindActiveSession returns a snapshot of the session id takes part in.
func (r *Registry) FindActiveSession(id snowflake.ID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.sessionForLocked(id); s != nil {
		return s.snapshot(), true
	}
	return Snapshot{}, false
}

// PendingInviteFor returns the oldest invite addressed to id.
func (r *Registry) PendingInviteFor(id snowflake.ID) (Invite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv := r.inviteForLocked(id); inv != nil {
		return *inv, true
	}
	return Invite{}, false
}

func (r *Registry) inviteForLocked(recipient snowflake.ID) *Invite {
	var found *Invite
	for _, inv := range r.invites {
		if inv.Recipient.ID != recipient {
			continue
		}
		if found == nil || inv.CreatedAt.Before(found.CreatedAt) {
			found = inv
		}
	}
	return found
}

func (r *Registry) startInvite(initiator, recipient Participant, channel snowflake.ID) (Invite, error) {
	if initiator.ID == recipient.ID {
		return Invite{}, ErrSelfTrade
	}
	if recipient.Bot {
		return Invite{}, ErrBotRecipient
	}

	key := keyOf(initiator.ID, recipient.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[key]; ok {
		return Invite{}, ErrAlreadyTrading
	}
	if r.sessionForLocked(initiator.ID) != nil || r.sessionForLocked(recipient.ID) != nil {
		return Invite{}, ErrAlreadyTrading
	}
	if _, ok := r.invites[key]; ok {
		return Invite{}, ErrAlreadyInvited
	}

	inv := &Invite{
		key:       key,
		Initiator: initiator,
		Recipient: recipient,
		ChannelID: channel,
		CreatedAt: r.clock.Now(),
	}
	r.invites[key] = inv
	return *inv, nil
}

func (r *Registry) acceptInvite(recipient Participant) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inviteForLocked(recipient.ID)
	if inv == nil {
		return Snapshot{}, ErrNoPendingInvite
	}
	if r.sessionForLocked(inv.Initiator.ID) != nil || r.sessionForLocked(inv.Recipient.ID) != nil {
		return Snapshot{}, ErrAlreadyTrading
	}

	delete(r.invites, inv.key)
	if recipient.Name != "" {
		inv.Recipient.Name = recipient.Name
	}
	s := newSession(inv, r.clock.Now())
	r.sessions[s.key] = s
	return s.snapshot(), nil
}

func (r *Registry) rejectInvite(recipient snowflake.ID) (Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inviteForLocked(recipient)
	if inv == nil {
		return Invite{}, ErrNoPendingInvite
	}
	delete(r.invites, inv.key)
	return *inv, nil
}

// inspect runs a read-only check against the caller's session.
func (r *Registry) inspect(caller snowflake.ID, fn func(*Session) error) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessionForLocked(caller)
	if s == nil {
		return Snapshot{}, ErrNoActiveSession
	}
	if err := fn(s); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// update re-resolves the caller's session and applies fn under the lock.
// A successful update counts as an interaction.
func (r *Registry) update(caller snowflake.ID, fn func(*Session) error) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessionForLocked(caller)
	if s == nil {
		return Snapshot{}, ErrNoActiveSession
	}
	if err := fn(s); err != nil {
		return Snapshot{}, err
	}
	s.LastInteraction = r.clock.Now()
	return s.snapshot(), nil
}

// finish moves a settling session into a terminal state and drops it.
func (r *Registry) finish(key pairKey, to Status) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return Snapshot{}, false
	}
	if err := s.transition(to); err != nil {
		return Snapshot{}, false
	}
	s.settling = false
	s.LastInteraction = r.clock.Now()
	delete(r.sessions, key)
	return s.snapshot(), true
}

// expire removes idle sessions, stale invites and old gifts in one pass.
func (r *Registry) expire(now time.Time, sessionTTL, inviteTTL, giftTTL time.Duration) ([]Snapshot, []Invite, []PendingGift) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []Snapshot
	for key, s := range r.sessions {
		if s.settling || now.Sub(s.LastInteraction) <= sessionTTL {
			continue
		}
		if err := s.transition(StatusCancelled); err != nil {
			continue
		}
		delete(r.sessions, key)
		sessions = append(sessions, s.snapshot())
	}

	var invites []Invite
	for key, inv := range r.invites {
		if now.Sub(inv.CreatedAt) > inviteTTL {
			delete(r.invites, key)
			invites = append(invites, *inv)
		}
	}

	var gifts []PendingGift
	for id, g := range r.gifts {
		if now.Sub(g.CreatedAt) > giftTTL {
			delete(r.gifts, id)
			gifts = append(gifts, *g)
		}
	}
	sort.Slice(gifts, func(i, j int) bool { return gifts[i].seq < gifts[j].seq })

	return sessions, invites, gifts
}

func (r *Registry) putGift(g *PendingGift) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := g.ID
	for n := 1; ; n++ {
		if _, taken := r.gifts[g.ID]; !taken {
			break
		}
		g.ID = fmt.Sprintf("%s-%d", base, n)
	}
	r.giftSeq++
	g.seq = r.giftSeq
	r.gifts[g.ID] = g
	return g.ID
}

// claimGift removes a gift addressed to caller so it can only be opened once.
func (r *Registry) claimGift(id string, caller snowflake.ID) (PendingGift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gifts[id]
	if !ok {
		return PendingGift{}, ErrGiftNotFound
	}
	if g.Recipient.ID != caller {
		return PendingGift{}, ErrNotRecipient
	}
	delete(r.gifts, id)
	return *g, nil
}

// restoreGift puts back a claimed gift whose delivery failed.
func (r *Registry) restoreGift(g PendingGift) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gifts[g.ID] = &g
}

// giftsFor lists pending gifts addressed to id in insertion order.
func (r *Registry) giftsFor(id snowflake.ID) []PendingGift {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []PendingGift
	for _, g := range r.gifts {
		if g.Recipient.ID == id {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// abandon cancels the caller's session regardless of closed flags.
func (r *Registry) abandon(caller snowflake.ID) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessionForLocked(caller)
	if s == nil {
		return Snapshot{}, ErrNoActiveSession
	}
	if s.settling {
		return Snapshot{}, ErrSettlementInProgress
	}
	if err := s.transition(StatusCancelled); err != nil {
		return Snapshot{}, err
	}
	s.LastInteraction = r.clock.Now()
	delete(r.sessions, s.key)
	return s.snapshot(), nil
}

// beginSettle claims the caller's session for settlement. Only one caller can
// win the claim; the session stays registered until finish.
func (r *Registry) beginSettle(caller snowflake.ID) (pairKey, Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessionForLocked(caller)
	if s == nil {
		return pairKey{}, Snapshot{}, ErrNoActiveSession
	}
	if s.Status != StatusAccepted || !s.InitiatorClosed || !s.RecipientClosed {
		return pairKey{}, Snapshot{}, ErrTradeNotActive
	}
	if s.settling {
		return pairKey{}, Snapshot{}, ErrSettlementInProgress
	}
	s.settling = true
	return s.key, s.snapshot(), nil
}
