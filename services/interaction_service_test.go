package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"flamematch_server/mocks"
	"flamematch_server/models"
	"flamematch_server/storage"
)

func TestRecordLike_NoReciprocity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	msg := "hey"
	res, err := e.interactions.RecordLike(ctx, a, "b", false, &msg)
	require.NoError(t, err)
	require.False(t, res.Matched)
	require.Nil(t, res.Match)

	rec, err := e.store.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, "a_b", rec.ID)
	require.Equal(t, models.InteractionKindLike, rec.Kind)
	require.Equal(t, "hey", *rec.Message)
	require.Equal(t, "name-a", rec.ActorName)
	require.False(t, rec.Matched)

	p, err := e.store.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, testQuota.DailyLikes-1, p.DailyLikesRemaining)
}

func TestRecordLike_RepeatedLikeIsFree(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	for i := 0; i < 2; i++ {
		res, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
		require.NoError(t, err)
		require.False(t, res.Matched)
	}

	p, err := e.store.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 2, p.DailyLikesRemaining)
	recs, err := e.store.ListByTarget(ctx, "b")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// upgrading to a super-like is a different action and is charged
	_, err = e.interactions.RecordLike(ctx, a, "b", true, nil)
	require.NoError(t, err)
	p, err = e.store.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, testQuota.DailySuperLikes-1, p.DailySuperLikesRemaining)

	// a retry after the match still reports it
	_, err = e.interactions.RecordLike(ctx, b, "a", false, nil)
	require.NoError(t, err)
	res, err := e.interactions.RecordLike(ctx, b, "a", false, nil)
	require.NoError(t, err)
	require.True(t, res.Matched)
	require.Equal(t, "a_b", res.Match.MatchID)
	p, err = e.store.GetProfile(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 2, p.DailyLikesRemaining)
}

func TestRecordLike_MutualCreatesMatch(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	_, err := e.interactions.RecordLike(ctx, b, "a", true, nil)
	require.NoError(t, err)
	res, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)
	require.True(t, res.Matched)
	require.Equal(t, "a_b", res.Match.MatchID)
	require.Equal(t, "name-a", res.Match.User1Name)
	require.Equal(t, "name-b", res.Match.User2Name)

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		rec, err := e.store.GetInteraction(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.True(t, rec.Matched, "%s -> %s", pair[0], pair[1])
	}
}

func TestRecordLike_ConcurrentMutualLikesYieldOneMatch(t *testing.T) {
	for round := 0; round < 20; round++ {
		e := newTestEnv(t)
		a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
		b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

		var wg sync.WaitGroup
		results := make([]*LikeResult, 2)
		errs := make([]error, 2)
		for i, pair := range []struct {
			sess   *Session
			target string
		}{{a, "b"}, {b, "a"}} {
			wg.Add(1)
			go func(i int, sess *Session, target string) {
				defer wg.Done()
				results[i], errs[i] = e.interactions.RecordLike(context.Background(), sess, target, false, nil)
			}(i, pair.sess, pair.target)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		// at least the later of the two likes sees the other
		require.True(t, results[0].Matched || results[1].Matched)

		matches, err := e.store.ListMatchesForUser(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		require.Equal(t, models.MatchID("b", "a"), matches[0].MatchID)
	}
}

func TestRecordLike_QuotaExceeded(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	p := person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99)
	p.CountersDay = e.clock.Now().Format(models.DayLayout)
	p.DailyLikesRemaining = 0
	p.DailySuperLikesRemaining = 0
	a := e.seed(t, p)
	e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	_, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = e.interactions.RecordLike(ctx, a, "b", true, nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = e.store.GetInteraction(ctx, "a", "b")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// the next day the allowance is back
	e.clock.Advance(24 * time.Hour)
	_, err = e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)
}

func TestRecordLike_PremiumMetering(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	p := person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99)
	p.IsPremium = true
	p.PremiumPlan = models.PlanGold
	p.CountersDay = e.clock.Now().Format(models.DayLayout)
	p.DailyLikesRemaining = 0
	p.DailySuperLikesRemaining = 1
	a := e.seed(t, p)
	e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	e.seed(t, person("c", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	// ordinary likes are free for premium users
	_, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)

	// super-likes are always metered
	_, err = e.interactions.RecordLike(ctx, a, "c", true, nil)
	require.NoError(t, err)
	_, err = e.interactions.RecordLike(ctx, a, "b", true, nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	got, err := e.store.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 0, got.DailySuperLikesRemaining)
	require.Equal(t, 0, got.DailyLikesRemaining)
}

func TestRecordPass_LastActionWins(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	require.NoError(t, e.interactions.RecordPass(ctx, a, "b"))
	_, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)

	recs, err := e.store.ListByActor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, models.InteractionKindLike, recs[0].Kind)

	require.NoError(t, e.interactions.RecordPass(ctx, a, "b"))
	rec, err := e.store.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, models.InteractionKindPass, rec.Kind)
}

func TestRecordLike_AfterCounterpartPassedOnMatch(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	m := e.mutualMatch(t, a, b)

	require.NoError(t, e.interactions.RecordPass(ctx, b, "a"))

	res, err := e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)
	require.False(t, res.Matched)
	rec, err := e.store.GetInteraction(ctx, "a", "b")
	require.NoError(t, err)
	require.True(t, rec.Matched)

	res, err = e.interactions.RecordLike(ctx, a, "b", true, nil)
	require.NoError(t, err)
	require.False(t, res.Matched)
	got, err := e.interactions.LikesReceived(ctx, b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, models.InteractionKindSuperLike, got[0].Kind)

	// the match itself is untouched
	matches, err := e.store.ListMatchesForUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, m.MatchID, matches[0].MatchID)
}

func TestRecordInteraction_Errors(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))

	_, err := e.interactions.RecordLike(ctx, nil, "b", false, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.ErrorIs(t, e.interactions.RecordPass(ctx, nil, "b"), ErrUnauthenticated)

	_, err = e.interactions.RecordLike(ctx, a, "missing", false, nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, e.interactions.RecordPass(ctx, a, "missing"), ErrNotFound)

	_, err = e.interactions.RecordLike(ctx, a, "a", false, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLikesReceived(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.seed(t, person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99))
	b := e.seed(t, person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	c := e.seed(t, person("c", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))
	d := e.seed(t, person("d", models.GenderFemale, models.LookingForEveryone, 30, 18, 99))

	_, err := e.interactions.RecordLike(ctx, b, "a", false, nil)
	require.NoError(t, err)
	_, err = e.interactions.RecordLike(ctx, c, "a", true, nil)
	require.NoError(t, err)
	require.NoError(t, e.interactions.RecordPass(ctx, d, "a"))

	// a likes b back: that like is now matched and no longer pending
	_, err = e.interactions.RecordLike(ctx, a, "b", false, nil)
	require.NoError(t, err)

	got, err := e.interactions.LikesReceived(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "c", got[0].ActorID)
	require.Equal(t, models.InteractionKindSuperLike, got[0].Kind)
}

func TestRecordLike_RefundsQuotaWhenWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)

	clock := newFakeClock()
	svc := &InteractionService{Profiles: st, Interactions: st, Quota: testQuota, Clock: clock.Now}
	actor := person("a", models.GenderMale, models.LookingForEveryone, 30, 18, 99)
	target := person("b", models.GenderFemale, models.LookingForEveryone, 30, 18, 99)

	st.EXPECT().GetProfile(gomock.Any(), "a").Return(&actor, nil)
	st.EXPECT().GetProfile(gomock.Any(), "b").Return(&target, nil)
	st.EXPECT().GetInteraction(gomock.Any(), "a", "b").Return(nil, storage.ErrNotFound)
	st.EXPECT().ConsumeQuota(gomock.Any(), "a", storage.QuotaLikes, gomock.Any(), gomock.Any()).Return(2, nil)
	st.EXPECT().PutInteraction(gomock.Any(), gomock.Any()).Return(errors.New("throttled"))
	st.EXPECT().RefundQuota(gomock.Any(), "a", storage.QuotaLikes, gomock.Any()).Return(nil)

	_, err := svc.RecordLike(context.Background(), NewSession("a"), "b", false, nil)
	require.ErrorIs(t, err, ErrTransient)
}

func TestRecordLike_StoreFailureIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)

	svc := &InteractionService{Profiles: st, Interactions: st, Quota: testQuota}
	st.EXPECT().GetProfile(gomock.Any(), "a").Return(nil, errors.New("connection reset"))

	_, err := svc.RecordLike(context.Background(), NewSession("a"), "b", false, nil)
	require.ErrorIs(t, err, ErrTransient)
}
