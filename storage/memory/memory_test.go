package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flamematch_server/models"
	"flamematch_server/storage"
)

func seedProfile(t *testing.T, s *Storage, id string, likes int, day string) {
	t.Helper()
	require.NoError(t, s.CreateProfile(context.Background(), models.UserProfile{
		UserID:                   id,
		Name:                     id,
		DailyLikesRemaining:      likes,
		DailySuperLikesRemaining: 1,
		CountersDay:              day,
	}))
}

func TestCreateProfileConflict(t *testing.T) {
	s := New()
	seedProfile(t, s, "u1", 5, "2025-01-01")

	err := s.CreateProfile(context.Background(), models.UserProfile{UserID: "u1"})
	require.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateProfileAppendPhoto(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProfile(t, s, "a", 1, "2025-01-01")

	for _, photo := range []string{"p/1.jpg", "p/2.jpg"} {
		photo := photo
		_, err := s.UpdateProfile(ctx, "a", storage.ProfileUpdate{AppendPhoto: &photo})
		require.NoError(t, err)
	}
	p, err := s.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []string{"p/1.jpg", "p/2.jpg"}, p.Photos)
	require.Equal(t, "p/1.jpg", p.ProfilePhoto)
}

func TestListProfilesKeepsInsertionOrder(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		seedProfile(t, s, id, 1, "2025-01-01")
	}

	got, err := s.ListProfiles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c", got[0].UserID)
	require.Equal(t, "a", got[1].UserID)
}

func TestConsumeQuota(t *testing.T) {
	ctx := context.Background()
	allowance := storage.Allowance{Likes: 3, SuperLikes: 1}

	t.Run("decrements until exhausted", func(t *testing.T) {
		s := New()
		seedProfile(t, s, "u1", 1, "2025-01-01")

		left, err := s.ConsumeQuota(ctx, "u1", storage.QuotaLikes, "2025-01-01", allowance)
		require.NoError(t, err)
		require.Equal(t, 0, left)

		_, err = s.ConsumeQuota(ctx, "u1", storage.QuotaLikes, "2025-01-01", allowance)
		require.ErrorIs(t, err, storage.ErrQuotaExhausted)
	})

	t.Run("rolls over on a new day", func(t *testing.T) {
		s := New()
		seedProfile(t, s, "u1", 0, "2025-01-01")

		left, err := s.ConsumeQuota(ctx, "u1", storage.QuotaLikes, "2025-01-02", allowance)
		require.NoError(t, err)
		require.Equal(t, 2, left)

		p, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "2025-01-02", p.CountersDay)
		require.Equal(t, 1, p.DailySuperLikesRemaining)
	})

	t.Run("refund only applies to the same day", func(t *testing.T) {
		s := New()
		seedProfile(t, s, "u1", 1, "2025-01-01")

		_, err := s.ConsumeQuota(ctx, "u1", storage.QuotaSuperLikes, "2025-01-01", allowance)
		require.NoError(t, err)
		require.NoError(t, s.RefundQuota(ctx, "u1", storage.QuotaSuperLikes, "2025-01-01"))
		require.NoError(t, s.RefundQuota(ctx, "u1", storage.QuotaSuperLikes, "2024-12-31"))

		p, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, 1, p.DailySuperLikesRemaining)
	})

	t.Run("concurrent consumers never overdraw", func(t *testing.T) {
		s := New()
		seedProfile(t, s, "u1", 5, "2025-01-01")

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.ConsumeQuota(ctx, "u1", storage.QuotaLikes, "2025-01-01", allowance); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 5, ok)
	})
}

func TestInteractionsLastActionWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.PutInteraction(ctx, models.InteractionRecord{ActorID: "a", TargetID: "b", Kind: models.InteractionKindLike, CreatedAt: now}))
	require.NoError(t, s.PutInteraction(ctx, models.InteractionRecord{ActorID: "a", TargetID: "b", Kind: models.InteractionKindPass, CreatedAt: now.Add(time.Second)}))
	require.NoError(t, s.PutInteraction(ctx, models.InteractionRecord{ActorID: "c", TargetID: "b", Kind: models.InteractionKindSuperLike, CreatedAt: now.Add(2 * time.Second)}))

	rec, err := s.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, models.InteractionKindPass, rec.Kind)

	byActor, err := s.ListByActor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, byActor, 1)

	byTarget, err := s.ListByTarget(ctx, "b")
	require.NoError(t, err)
	require.Len(t, byTarget, 2)
	require.Equal(t, "c", byTarget[0].ActorID)

	require.NoError(t, s.MarkMatched(ctx, "c", "b"))
	rec, err = s.GetInteraction(ctx, "c", "b")
	require.NoError(t, err)
	require.True(t, rec.Matched)

	require.ErrorIs(t, s.MarkMatched(ctx, "x", "y"), storage.ErrNotFound)
}

func TestCreateMatchIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := models.MatchID("b", "a")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, isNew, err := s.CreateMatchIfAbsent(ctx, models.Match{
				MatchID: id, User1ID: "a", User2ID: "b", Users: []string{"a", "b"},
				CreatedAt: time.Unix(int64(i), 0), UnreadCount: map[string]int{"a": 0, "b": 0},
			})
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, id, m.MatchID)
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, created)

	list, err := s.ListMatchesForUser(ctx, "b")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.GetMatch(ctx, "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppendListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := models.MatchID("a", "b")
	_, _, err := s.CreateMatchIfAbsent(ctx, models.Match{MatchID: id, User1ID: "a", User2ID: "b", UnreadCount: map[string]int{}})
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)} {
		_, err := s.AppendMessage(ctx, models.Message{
			MatchID: id, MessageID: string(rune('x' + i)), SenderID: "a",
			Text: at.Format(time.RFC3339), Type: models.MessageTypeText, CreatedAt: at,
		}, "b")
		require.NoError(t, err)
	}

	// a message that does not sort after the newest one is refused
	for _, at := range []time.Time{base.Add(time.Second), base.Add(2 * time.Second)} {
		_, err := s.AppendMessage(ctx, models.Message{
			MatchID: id, MessageID: "w", SenderID: "b", Text: "late", Type: models.MessageTypeText, CreatedAt: at,
		}, "a")
		require.ErrorIs(t, err, storage.ErrConflict)
	}

	msgs, err := s.ListMessages(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		require.True(t, msgs[i-1].CreatedAt.Before(msgs[i].CreatedAt))
	}

	tail, err := s.ListMessages(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, msgs[2].MessageID, tail[1].MessageID)

	m, err := s.GetMatch(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, m.UnreadCount["b"])
	require.Equal(t, "a", m.LastMessageSenderID)

	// sender marking read changes nothing of their own messages
	n, err := s.MarkRead(ctx, id, "a", base)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.MarkRead(ctx, id, "b", base)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	m, err = s.GetMatch(ctx, id)
	require.NoError(t, err)
	require.Zero(t, m.UnreadCount["b"])

	_, err = s.AppendMessage(ctx, models.Message{MatchID: "missing", CreatedAt: base}, "b")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
