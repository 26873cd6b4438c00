package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flamematch_server/models"
)

// recv waits briefly for the next value on ch.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	var zero T
	return zero
}

func TestCreateMatchIfAbsent_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	first, err := e.matches.CreateMatchIfAbsent(ctx, "b", "a")
	require.NoError(t, err)
	require.Equal(t, "a_b", first.MatchID)
	require.Equal(t, []string{"a", "b"}, first.Users)
	require.Equal(t, "name-a", first.User1Name)
	require.Equal(t, "profile-pics/a/1.jpg", first.User1Photo)

	// later profile edits do not touch the snapshot
	newName := "renamed"
	_, err = e.profiles.UpdateProfile(ctx, a, ProfileChanges{Name: &newName})
	require.NoError(t, err)

	second, err := e.matches.CreateMatchIfAbsent(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, first.MatchID, second.MatchID)
	require.Equal(t, "name-a", second.User1Name)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = e.matches.CreateMatchIfAbsent(ctx, "a", "a")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.matches.CreateMatchIfAbsent(ctx, "a", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetMatch_Access(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	c := e.seed(t, person("c", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	m := e.mutualMatch(t, a, b)

	got, err := e.matches.GetMatch(ctx, b, m.MatchID)
	require.NoError(t, err)
	require.Equal(t, m.MatchID, got.MatchID)

	_, err = e.matches.GetMatch(ctx, c, m.MatchID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = e.matches.GetMatch(ctx, a, "a_zzz")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.matches.GetMatch(ctx, nil, m.MatchID)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestListMatches_OrderedByActivity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	c := e.seed(t, person("c", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	ab := e.mutualMatch(t, a, b)
	ac := e.mutualMatch(t, a, c)

	got, err := e.matches.ListMatches(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, ac.MatchID, got[0].MatchID)

	// a message bumps the older match to the top
	_, err = e.chat.AppendMessage(ctx, b, ab.MatchID, OutgoingMessage{Text: "hi"})
	require.NoError(t, err)

	got, err = e.matches.ListMatches(ctx, a)
	require.NoError(t, err)
	require.Equal(t, ab.MatchID, got[0].MatchID)
	require.Equal(t, "hi", got[0].LastMessage)
}

func TestSubscribeToMatches(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	c := e.seed(t, person("c", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	ab := e.mutualMatch(t, a, b)

	feed, err := e.matches.SubscribeToMatches(ctx, a)
	require.NoError(t, err)
	defer feed.Cancel()
	require.Len(t, feed.Snapshot, 1)
	require.Equal(t, ab.MatchID, feed.Snapshot[0].MatchID)

	e.mutualMatch(t, a, c)
	got := recv(t, feed.Updates())
	require.Equal(t, models.MatchID("a", "c"), got.MatchID)

	feed.Cancel()
	_, open := <-feed.Updates()
	require.False(t, open)

	_, err = e.matches.SubscribeToMatches(ctx, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
