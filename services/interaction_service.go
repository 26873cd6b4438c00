package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"flamematch_server/models"
	"flamematch_server/storage"
)

// InteractionService records likes and passes and detects mutual likes.
type InteractionService struct {
	Profiles     storage.ProfileStore
	Interactions storage.InteractionStore
	Matches      *MatchService
	Quota        QuotaPolicy
	Metrics      *Metrics
	Clock        Clock
}

// LikeResult reports whether the like completed a match.
type LikeResult struct {
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

// RecordLike spends one unit of the actor's daily quota, writes the like
// (replacing any earlier action on the same target) and creates the match when
// the target already liked the actor. Repeating the same like is free and
// leaves the stored record untouched.
//
// Ordinary likes are only metered for non-premium actors; super-likes are
// always metered.
func (s *InteractionService) RecordLike(ctx context.Context, sess *Session, targetID string, superLike bool, message *string) (*LikeResult, error) {
	const op = "services.interaction.RecordLike"

	actor, target, err := s.resolvePair(ctx, op, sess, targetID)
	if err != nil {
		return nil, err
	}

	kind := models.InteractionKindLike
	quota := storage.QuotaLikes
	metered := !actor.IsPremium
	if superLike {
		kind = models.InteractionKindSuperLike
		quota = storage.QuotaSuperLikes
		metered = true
	}

	// a retried like costs nothing and only re-checks reciprocity
	existing, err := s.Interactions.GetInteraction(ctx, actor.UserID, target.UserID)
	switch {
	case err == nil && existing.Kind == kind:
		log.Printf("🔁 %s %s -> %s already recorded", kind, actor.UserID, target.UserID)
		return s.reciprocate(ctx, op, actor, target)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, storeErr(op, err)
	}

	now := s.Clock.now()
	day := now.Format(models.DayLayout)
	if metered {
		if _, err := s.Profiles.ConsumeQuota(ctx, actor.UserID, quota, day, s.Quota.Allowance(actor)); err != nil {
			if errors.Is(err, storage.ErrQuotaExhausted) {
				s.Metrics.quotaRejected(kind)
				log.Printf("⚠️ %s quota exhausted for %s", kind, actor.UserID)
			}
			return nil, storeErr(op, err)
		}
	}

	record := models.InteractionRecord{
		ActorID:    actor.UserID,
		TargetID:   target.UserID,
		Kind:       kind,
		Message:    message,
		ActorName:  actor.Name,
		ActorPhoto: displayPhoto(actor),
		ActorAge:   actor.Age,
		CreatedAt:  now,
	}
	if err := s.Interactions.PutInteraction(ctx, record); err != nil {
		if metered {
			if rerr := s.Profiles.RefundQuota(ctx, actor.UserID, quota, day); rerr != nil {
				log.Printf("❌ Failed to refund %s quota for %s: %v", kind, actor.UserID, rerr)
			}
		}
		return nil, storeErr(op, err)
	}
	s.Metrics.like(kind)
	log.Printf("✅ %s %s -> %s recorded", kind, actor.UserID, target.UserID)
	return s.reciprocate(ctx, op, actor, target)
}

// reciprocate creates the match when target's current action on actor is a like.
func (s *InteractionService) reciprocate(ctx context.Context, op string, actor, target *models.UserProfile) (*LikeResult, error) {
	reverse, err := s.Interactions.GetInteraction(ctx, target.UserID, actor.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &LikeResult{}, nil
		}
		return nil, storeErr(op, err)
	}
	if !reverse.IsLike() {
		return &LikeResult{}, nil
	}

	match, err := s.Matches.CreateMatchIfAbsent(ctx, actor.UserID, target.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Interactions.MarkMatched(ctx, actor.UserID, target.UserID); err != nil {
		return nil, storeErr(op, err)
	}
	if err := s.Interactions.MarkMatched(ctx, target.UserID, actor.UserID); err != nil {
		return nil, storeErr(op, err)
	}
	return &LikeResult{Matched: true, Match: match}, nil
}

// RecordPass writes a pass, replacing any earlier action on the same target.
func (s *InteractionService) RecordPass(ctx context.Context, sess *Session, targetID string) error {
	const op = "services.interaction.RecordPass"

	actor, target, err := s.resolvePair(ctx, op, sess, targetID)
	if err != nil {
		return err
	}

	record := models.InteractionRecord{
		ActorID:    actor.UserID,
		TargetID:   target.UserID,
		Kind:       models.InteractionKindPass,
		ActorName:  actor.Name,
		ActorPhoto: displayPhoto(actor),
		ActorAge:   actor.Age,
		CreatedAt:  s.Clock.now(),
	}
	if err := s.Interactions.PutInteraction(ctx, record); err != nil {
		return storeErr(op, err)
	}
	s.Metrics.pass()
	log.Printf("✅ pass %s -> %s recorded", actor.UserID, target.UserID)
	return nil
}

// LikesReceived lists likes targeting the viewer that have not turned into a
// match yet, newest first.
func (s *InteractionService) LikesReceived(ctx context.Context, sess *Session) ([]models.InteractionRecord, error) {
	const op = "services.interaction.LikesReceived"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	recs, err := s.Interactions.ListByTarget(ctx, userID)
	if err != nil {
		return nil, storeErr(op, err)
	}

	out := make([]models.InteractionRecord, 0, len(recs))
	for i := range recs {
		if recs[i].IsLike() && !recs[i].Matched {
			out = append(out, recs[i])
		}
	}
	return out, nil
}

func (s *InteractionService) resolvePair(ctx context.Context, op string, sess *Session, targetID string) (*models.UserProfile, *models.UserProfile, error) {
	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, nil, err
	}
	if targetID == "" {
		return nil, nil, invalidArg(op, "target id is required")
	}
	if targetID == userID {
		return nil, nil, invalidArg(op, "cannot act on your own profile")
	}

	actor, err := loadViewer(ctx, op, s.Profiles, userID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.Profiles.GetProfile(ctx, targetID)
	if err != nil {
		return nil, nil, storeErr(op, err)
	}
	return actor, target, nil
}
