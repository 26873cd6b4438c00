package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flamematch_server/models"
	"flamematch_server/pubsub"
	"flamematch_server/storage/memory"
)

// fakeClock advances one millisecond on every reading so that consecutive
// writes get distinct, ordered timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testQuota = QuotaPolicy{DailyLikes: 3, DailySuperLikes: 1, GoldSuperLikes: 5, PlatinumSuperLikes: 10}

type testEnv struct {
	store  *memory.Storage
	broker *pubsub.Memory
	clock  *fakeClock

	profiles     *UserProfileService
	discovery    *DiscoveryService
	interactions *InteractionService
	matches      *MatchService
	chat         *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.New()
	broker := pubsub.NewMemory()
	clock := newFakeClock()
	metrics := NewMetrics(nil)
	t.Cleanup(func() { _ = broker.Close() })

	matches := &MatchService{Profiles: st, Matches: st, Broker: broker, Metrics: metrics, Clock: clock.Now}
	return &testEnv{
		store:     st,
		broker:    broker,
		clock:     clock,
		profiles:  &UserProfileService{Profiles: st, Quota: testQuota, Clock: clock.Now},
		discovery: &DiscoveryService{Profiles: st, Interactions: st, MaxLimit: 50},
		interactions: &InteractionService{
			Profiles: st, Interactions: st, Matches: matches,
			Quota: testQuota, Metrics: metrics, Clock: clock.Now,
		},
		matches: matches,
		chat: &ChatService{
			Matches: st, Messages: st, Broker: broker,
			Metrics: metrics, Clock: clock.Now, PageSize: 50,
		},
	}
}

func person(id, gender, lookingFor string, age, minAge, maxAge int) models.UserProfile {
	return models.UserProfile{
		UserID:     id,
		Name:       "name-" + id,
		Age:        age,
		Gender:     gender,
		LookingFor: lookingFor,
		MinAge:     minAge,
		MaxAge:     maxAge,
		Photos:     []string{"profile-pics/" + id + "/1.jpg"},
	}
}

// seed stores p with today's counters and returns a session for it.
func (e *testEnv) seed(t *testing.T, p models.UserProfile) *Session {
	t.Helper()
	if p.CountersDay == "" {
		p.CountersDay = e.clock.Now().Format(models.DayLayout)
		p.DailyLikesRemaining = testQuota.DailyLikes
		p.DailySuperLikesRemaining = testQuota.DailySuperLikes
	}
	require.NoError(t, e.store.CreateProfile(context.Background(), p))
	return NewSession(p.UserID)
}

func (e *testEnv) mutualMatch(t *testing.T, a, b *Session) *models.Match {
	t.Helper()
	ctx := context.Background()
	_, err := e.interactions.RecordLike(ctx, a, b.UserID, false, nil)
	require.NoError(t, err)
	res, err := e.interactions.RecordLike(ctx, b, a.UserID, false, nil)
	require.NoError(t, err)
	require.True(t, res.Matched)
	return res.Match
}
