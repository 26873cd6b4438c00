package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"flamematch_server/models"
	"flamematch_server/pubsub"
	"flamematch_server/storage"
)

// MatchService creates and lists matches.
type MatchService struct {
	Profiles storage.ProfileStore
	Matches  storage.MatchStore
	Broker   pubsub.Broker
	Metrics  *Metrics
	Clock    Clock
}

// CreateMatchIfAbsent returns the match for the pair, creating it on first
// call. The canonical id makes both call orders resolve to the same record,
// and the conditional store write keeps concurrent callers from creating two.
// An existing match is returned unchanged.
func (s *MatchService) CreateMatchIfAbsent(ctx context.Context, userA, userB string) (*models.Match, error) {
	const op = "services.match.CreateMatchIfAbsent"

	if userA == "" || userB == "" || userA == userB {
		return nil, invalidArg(op, "a match needs two distinct users")
	}
	matchID := models.MatchID(userA, userB)

	existing, err := s.Matches.GetMatch(ctx, matchID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, storeErr(op, err)
	}

	user1, user2 := userA, userB
	if user2 < user1 {
		user1, user2 = user2, user1
	}
	p1, err := s.Profiles.GetProfile(ctx, user1)
	if err != nil {
		return nil, storeErr(op, err)
	}
	p2, err := s.Profiles.GetProfile(ctx, user2)
	if err != nil {
		return nil, storeErr(op, err)
	}

	match := models.Match{
		MatchID:     matchID,
		Users:       []string{user1, user2},
		User1ID:     user1,
		User2ID:     user2,
		User1Name:   p1.Name,
		User2Name:   p2.Name,
		User1Photo:  displayPhoto(p1),
		User2Photo:  displayPhoto(p2),
		CreatedAt:   s.Clock.now(),
		UnreadCount: map[string]int{user1: 0, user2: 0},
		IsActive:    true,
	}

	stored, created, err := s.Matches.CreateMatchIfAbsent(ctx, match)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if created {
		s.Metrics.match()
		log.Printf("💘 New match %s", matchID)
		s.publishMatch(ctx, stored)
	}
	return stored, nil
}

// ListMatches returns the viewer's matches, most recent activity first.
func (s *MatchService) ListMatches(ctx context.Context, sess *Session) ([]models.Match, error) {
	const op = "services.match.ListMatches"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	return s.listFor(ctx, op, userID)
}

func (s *MatchService) listFor(ctx context.Context, op, userID string) ([]models.Match, error) {
	matches, err := s.Matches.ListMatchesForUser(ctx, userID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ActivityTime().After(matches[j].ActivityTime())
	})
	return matches, nil
}

// GetMatch returns a match the viewer participates in.
func (s *MatchService) GetMatch(ctx context.Context, sess *Session, matchID string) (*models.Match, error) {
	const op = "services.match.GetMatch"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	return participantMatch(ctx, op, s.Matches, matchID, userID)
}

// SubscribeToMatches opens a live feed of the viewer's matches: the current
// list first, then every created or updated match. The caller must Cancel it.
func (s *MatchService) SubscribeToMatches(ctx context.Context, sess *Session) (*Feed[models.Match], error) {
	const op = "services.match.SubscribeToMatches"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}

	// register before reading the snapshot so nothing falls in between
	sub, err := s.Broker.Subscribe(ctx, pubsub.MatchesTopic(userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
	snapshot, err := s.listFor(ctx, op, userID)
	if err != nil {
		sub.Cancel()
		return nil, err
	}

	return startFeed(sess, s.Metrics, sub, snapshot, func(ev pubsub.Event) (models.Match, bool) {
		if ev.Kind != pubsub.KindMatch || !ev.Match.HasParticipant(userID) {
			return models.Match{}, false
		}
		return *ev.Match, true
	}), nil
}

// publishMatch notifies both participants' match feeds. The match is already
// stored, so a broker failure is only logged.
func (s *MatchService) publishMatch(ctx context.Context, m *models.Match) {
	publishMatch(ctx, s.Broker, m)
}

func publishMatch(ctx context.Context, broker pubsub.Broker, m *models.Match) {
	if broker == nil || m == nil {
		return
	}
	for _, userID := range []string{m.User1ID, m.User2ID} {
		if err := broker.Publish(ctx, pubsub.MatchesTopic(userID), pubsub.Event{Kind: pubsub.KindMatch, Match: m}); err != nil {
			log.Printf("⚠️ Failed to publish match %s to %s: %v", m.MatchID, userID, err)
		}
	}
}

// participantMatch loads a match and checks that userID belongs to it.
func participantMatch(ctx context.Context, op string, matches storage.MatchStore, matchID, userID string) (*models.Match, error) {
	m, err := matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if !m.HasParticipant(userID) {
		return nil, fmt.Errorf("%s: %w: %s is not a participant of %s", op, ErrForbidden, userID, matchID)
	}
	return m, nil
}

func displayPhoto(p *models.UserProfile) string {
	if p.ProfilePhoto != "" {
		return p.ProfilePhoto
	}
	if len(p.Photos) > 0 {
		return p.Photos[0]
	}
	return ""
}
