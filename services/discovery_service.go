package services

import (
	"context"
	"log"

	"flamematch_server/models"
	"flamematch_server/storage"
	"flamematch_server/utils"
)

// DiscoveryService builds the candidate feed.
type DiscoveryService struct {
	Profiles     storage.ProfileStore
	Interactions storage.InteractionStore
	// MaxLimit caps the requested feed size; zero means uncapped.
	MaxLimit int
}

// GetCandidates returns up to limit profiles the viewer has neither liked nor
// passed and with whom mutual eligibility holds. Order is the store's fetch
// order; fewer than limit results is not an error.
func (s *DiscoveryService) GetCandidates(ctx context.Context, sess *Session, limit int) ([]models.UserProfile, error) {
	const op = "services.discovery.GetCandidates"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, invalidArg(op, "limit must be positive")
	}
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		limit = s.MaxLimit
	}

	viewer, err := loadViewer(ctx, op, s.Profiles, userID)
	if err != nil {
		return nil, err
	}

	swiped, err := s.Interactions.ListByActor(ctx, userID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	excluded := make(map[string]struct{}, len(swiped)+1)
	excluded[userID] = struct{}{}
	for _, rec := range swiped {
		excluded[rec.TargetID] = struct{}{}
	}

	// over-fetch so that filtering still leaves limit candidates when possible
	batch, err := s.Profiles.ListProfiles(ctx, limit+len(excluded))
	if err != nil {
		return nil, storeErr(op, err)
	}

	out := make([]models.UserProfile, 0, limit)
	for i := range batch {
		if len(out) == limit {
			break
		}
		candidate := batch[i]
		if _, skip := excluded[candidate.UserID]; skip {
			continue
		}
		if !Compatible(viewer, &candidate) {
			continue
		}
		attachDistance(viewer, &candidate)
		out = append(out, candidate)
	}

	log.Printf("🔍 Feed for %s: %d of %d fetched profiles eligible", userID, len(out), len(batch))
	return out, nil
}

// Compatible reports mutual eligibility: each side's gender preference and
// age range must accept the other.
func Compatible(viewer, candidate *models.UserProfile) bool {
	return accepts(viewer, candidate) && accepts(candidate, viewer)
}

func accepts(who, other *models.UserProfile) bool {
	if who.LookingFor != models.LookingForEveryone && who.LookingFor != other.Gender {
		return false
	}
	return other.Age >= who.MinAge && other.Age <= who.MaxAge
}

func attachDistance(viewer, p *models.UserProfile) {
	if !viewer.Location.IsSet() || !p.Location.IsSet() {
		return
	}
	p.DistanceKm = utils.RoundKm(utils.CalculateDistance(
		viewer.Location.Latitude, viewer.Location.Longitude,
		p.Location.Latitude, p.Location.Longitude,
	))
}
