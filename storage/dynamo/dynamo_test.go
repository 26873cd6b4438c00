package dynamo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"flamematch_server/models"
	"flamematch_server/storage"
)

// Integration tests against amazon/dynamodb-local.
//
//   GO_TEST_INTEGRATION=1 go test ./storage/dynamo -v -race -count=1

func startDynamo(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "amazon/dynamodb-local:latest",
		Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory", "-sharedDb"},
		ExposedPorts: []string{"8000/tcp"},
		WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "8000/tcp")
	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())

	client, err := NewClient(ctx, "eu-west-1", endpoint)
	require.NoError(t, err)

	st := New(client, Tables{})
	require.NoError(t, st.CreateTables(ctx))

	cleanup := func() {
		_ = st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newProfile(id, day string, likes int) models.UserProfile {
	now := time.Now().UTC()
	return models.UserProfile{
		UserID:                   id,
		Name:                     "user " + id,
		Age:                      30,
		Gender:                   models.GenderFemale,
		LookingFor:               models.LookingForEveryone,
		MinAge:                   18,
		MaxAge:                   99,
		DailyLikesRemaining:      likes,
		DailySuperLikesRemaining: 1,
		CountersDay:              day,
		LastActive:               now,
		CreatedAt:                now,
	}
}

func TestIntegration_Profiles(t *testing.T) {
	st, cleanup := startDynamo(t)
	defer cleanup()
	ctx := context.Background()

	p := newProfile("alice", "2025-01-01", 2)
	require.NoError(t, st.CreateProfile(ctx, p))
	require.ErrorIs(t, st.CreateProfile(ctx, p), storage.ErrConflict)

	got, err := st.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)

	_, err = st.GetProfile(ctx, "nobody")
	require.ErrorIs(t, err, storage.ErrNotFound)

	bio := "hello"
	loc := models.Location{Latitude: 48.85, Longitude: 2.35, City: "Paris"}
	updated, err := st.UpdateProfile(ctx, "alice", storage.ProfileUpdate{Bio: &bio, Location: &loc})
	require.NoError(t, err)
	require.Equal(t, bio, updated.Bio)
	require.Equal(t, "Paris", updated.Location.City)

	_, err = st.UpdateProfile(ctx, "nobody", storage.ProfileUpdate{Bio: &bio})
	require.ErrorIs(t, err, storage.ErrNotFound)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			photo := fmt.Sprintf("profile-pictures/alice/%d.jpg", i)
			_, err := st.UpdateProfile(ctx, "alice", storage.ProfileUpdate{AppendPhoto: &photo})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	got, err = st.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got.Photos, 5)
	require.Contains(t, got.Photos, got.ProfilePhoto)

	require.NoError(t, st.CreateProfile(ctx, newProfile("bob", "2025-01-01", 2)))
	list, err := st.ListProfiles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestIntegration_ConsumeQuota(t *testing.T) {
	st, cleanup := startDynamo(t)
	defer cleanup()
	ctx := context.Background()
	allowance := storage.Allowance{Likes: 4, SuperLikes: 1}

	require.NoError(t, st.CreateProfile(ctx, newProfile("alice", "2025-01-01", 1)))

	left, err := st.ConsumeQuota(ctx, "alice", storage.QuotaLikes, "2025-01-01", allowance)
	require.NoError(t, err)
	require.Equal(t, 0, left)

	_, err = st.ConsumeQuota(ctx, "alice", storage.QuotaLikes, "2025-01-01", allowance)
	require.ErrorIs(t, err, storage.ErrQuotaExhausted)

	// the next day starts from the allowance
	left, err = st.ConsumeQuota(ctx, "alice", storage.QuotaLikes, "2025-01-02", allowance)
	require.NoError(t, err)
	require.Equal(t, 3, left)

	require.NoError(t, st.RefundQuota(ctx, "alice", storage.QuotaLikes, "2025-01-02"))
	p, err := st.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 4, p.DailyLikesRemaining)

	_, err = st.ConsumeQuota(ctx, "nobody", storage.QuotaLikes, "2025-01-02", allowance)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_InteractionsAndMatches(t *testing.T) {
	st, cleanup := startDynamo(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.PutInteraction(ctx, models.InteractionRecord{ActorID: "a", TargetID: "b", Kind: models.InteractionKindLike, CreatedAt: now}))
	require.NoError(t, st.PutInteraction(ctx, models.InteractionRecord{ActorID: "a", TargetID: "b", Kind: models.InteractionKindPass, CreatedAt: now.Add(time.Second)}))

	rec, err := st.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, models.InteractionKindPass, rec.Kind)

	byActor, err := st.ListByActor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, byActor, 1)

	require.NoError(t, st.MarkMatched(ctx, "a", "b"))
	require.ErrorIs(t, st.MarkMatched(ctx, "x", "y"), storage.ErrNotFound)

	id := models.MatchID("a", "b")
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, isNew, err := st.CreateMatchIfAbsent(ctx, models.Match{
				MatchID: id, Users: []string{"a", "b"}, User1ID: "a", User2ID: "b",
				CreatedAt: now, UnreadCount: map[string]int{"a": 0, "b": 0}, IsActive: true,
			})
			if assert.NoError(t, err) && isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, created)

	for _, user := range []string{"a", "b"} {
		list, err := st.ListMatchesForUser(ctx, user)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
}

func TestIntegration_Messages(t *testing.T) {
	st, cleanup := startDynamo(t)
	defer cleanup()
	ctx := context.Background()

	id := models.MatchID("a", "b")
	_, _, err := st.CreateMatchIfAbsent(ctx, models.Match{
		MatchID: id, Users: []string{"a", "b"}, User1ID: "a", User2ID: "b",
		CreatedAt: time.Now().UTC(), UnreadCount: map[string]int{"a": 0, "b": 0}, IsActive: true,
	})
	require.NoError(t, err)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		m, err := st.AppendMessage(ctx, models.Message{
			MatchID: id, MessageID: uuid.NewString(), SenderID: "a", SenderName: "A",
			Text: fmt.Sprintf("msg %d", i), Type: models.MessageTypeText, CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}, "b")
		require.NoError(t, err)
		require.Equal(t, i+1, m.UnreadCount["b"])
	}

	msgs, err := st.ListMessages(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "msg 0", msgs[0].Text)

	tail, err := st.ListMessages(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, "msg 2", tail[1].Text)

	n, err := st.MarkRead(ctx, id, "b", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	m, err := st.GetMatch(ctx, id)
	require.NoError(t, err)
	require.Zero(t, m.UnreadCount["b"])
	require.Equal(t, "msg 2", m.LastMessage)

	_, err = st.AppendMessage(ctx, models.Message{
		MatchID: id, MessageID: uuid.NewString(), SenderID: "b", Text: "late", Type: models.MessageTypeText, CreatedAt: base,
	}, "a")
	require.ErrorIs(t, err, storage.ErrConflict)
	m, err = st.GetMatch(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "msg 2", m.LastMessage)
	require.Zero(t, m.UnreadCount["a"])

	_, err = st.AppendMessage(ctx, models.Message{MatchID: "missing", MessageID: uuid.NewString(), CreatedAt: base}, "b")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
