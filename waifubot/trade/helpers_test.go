package trade_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
)

var (
	alice = trade.Participant{ID: 1001, Name: "alice"}
	bob   = trade.Participant{ID: 1002, Name: "bob"}
	carol = trade.Participant{ID: 1003, Name: "carol"}
	dave  = trade.Participant{ID: 1004, Name: "dave"}
	robot = trade.Participant{ID: 1999, Name: "waifubot", Bot: true}
)

const channel snowflake.ID = 42

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory trade.Store with whole-field replacement.
type memStore struct {
	mu    sync.Mutex
	users map[snowflake.ID]*models.User

	// failUpdate, when set, is consulted before every UpdateUser.
	failUpdate func(id snowflake.ID, field models.UserField) error
	updates    int
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{users: make(map[snowflake.ID]*models.User)}
	for _, u := range users {
		id, err := snowflake.Parse(u.DiscordID)
		if err != nil {
			panic(err)
		}
		s.users[id] = u
	}
	return s
}

func (s *memStore) GetUser(_ context.Context, id snowflake.ID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &models.User{DiscordID: id.String()}
		s.users[id] = u
	}
	return u.Clone(), nil
}

func (s *memStore) UpdateUser(_ context.Context, id snowflake.ID, field models.UserField, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		if err := s.failUpdate(id, field); err != nil {
			return err
		}
	}
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	switch field {
	case models.FieldCards:
		u.Cards = value.([]models.Card)
	case models.FieldGold:
		u.Gold = value.(int64)
	case models.FieldShards:
		u.Shards = value.(int64)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	u.Version++
	s.updates++
	return nil
}

// user returns a copy of the stored record.
func (s *memStore) user(id snowflake.ID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Clone()
}

// mutate edits a stored record directly, as a concurrent command would.
func (s *memStore) mutate(id snowflake.ID, fn func(u *models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.users[id])
	s.users[id].Version++
}

// commitStore adds an all-or-nothing CommitUsers with version checks.
type commitStore struct {
	*memStore
	commits int

	// beforeCommit runs ahead of the version check.
	beforeCommit func()
}

func (s *commitStore) CommitUsers(_ context.Context, users ...*models.User) error {
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		id, _ := snowflake.Parse(u.DiscordID)
		if cur, ok := s.users[id]; !ok || cur.Version != u.Version {
			return models.ErrVersionConflict
		}
	}
	for _, u := range users {
		id, _ := snowflake.Parse(u.DiscordID)
		next := u.Clone()
		next.Version++
		s.users[id] = next
	}
	s.commits++
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventLog records delivered events.
type eventLog struct {
	mu     sync.Mutex
	events []trade.Event
}

func (l *eventLog) Notify(_ context.Context, e trade.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) kinds() []trade.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]trade.EventKind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func (l *eventLog) has(kind trade.EventKind) bool {
	for _, k := range l.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func newUser(p trade.Participant, gold, shards int64, cards ...models.Card) *models.User {
	return &models.User{
		DiscordID: p.ID.String(),
		Username:  p.Name,
		Cards:     cards,
		Gold:      gold,
		Shards:    shards,
	}
}

func card(id string) models.Card {
	return models.Card{GlobalID: id, Name: "Card " + id, Rarity: "C", Series: "Test"}
}

func newService(t *testing.T, store trade.Store, notifier trade.Notifier, clock trade.Clock) *trade.Service {
	t.Helper()
	if clock == nil {
		clock = newFakeClock()
	}
	return trade.NewService(trade.DefaultConfig(), store, notifier, clock)
}

// openTrade runs the invite handshake between initiator and recipient.
func openTrade(t *testing.T, svc *trade.Service, initiator, recipient trade.Participant) trade.Snapshot {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.StartInvite(ctx, initiator, recipient, channel); err != nil {
		t.Fatalf("StartInvite() error = %v", err)
	}
	snap, err := svc.AcceptInvite(ctx, recipient)
	if err != nil {
		t.Fatalf("AcceptInvite() error = %v", err)
	}
	return snap
}

func cardIDs(cards []models.Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.GlobalID)
	}
	return ids
}
