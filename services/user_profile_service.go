package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"flamematch_server/models"
	"flamematch_server/storage"
)

// Age bounds accepted for profiles and preferences.
const (
	MinAllowedAge = 18
	MaxAllowedAge = 100
)

// QuotaPolicy decides the daily allowance counters roll over to.
type QuotaPolicy struct {
	DailyLikes         int
	DailySuperLikes    int
	GoldSuperLikes     int
	PlatinumSuperLikes int
}

// Allowance returns the daily counters for a profile's plan.
func (q QuotaPolicy) Allowance(p *models.UserProfile) storage.Allowance {
	a := storage.Allowance{Likes: q.DailyLikes, SuperLikes: q.DailySuperLikes}
	if p == nil || !p.IsPremium {
		return a
	}
	switch p.PremiumPlan {
	case models.PlanGold:
		a.SuperLikes = q.GoldSuperLikes
	case models.PlanPlatinum:
		a.SuperLikes = q.PlatinumSuperLikes
	}
	return a
}

type UserProfileService struct {
	Profiles storage.ProfileStore
	Quota    QuotaPolicy
	Clock    Clock
}

// NewProfile carries the signup fields.
type NewProfile struct {
	Name       string
	Email      string
	Age        int
	Gender     string
	LookingFor string
	MinAge     int
	MaxAge     int
	Bio        string
	Location   *models.Location
}

// CreateProfile registers the session user's profile with fresh daily counters.
func (s *UserProfileService) CreateProfile(ctx context.Context, sess *Session, in NewProfile) (*models.UserProfile, error) {
	const op = "services.profile.CreateProfile"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidArg(op, "name is required")
	}
	if in.Age < MinAllowedAge || in.Age > MaxAllowedAge {
		return nil, invalidArg(op, "age must be within [%d, %d]", MinAllowedAge, MaxAllowedAge)
	}
	if in.MinAge == 0 && in.MaxAge == 0 {
		in.MinAge, in.MaxAge = MinAllowedAge, MaxAllowedAge
	}
	if err := validateAgeRange(op, in.MinAge, in.MaxAge); err != nil {
		return nil, err
	}
	if in.LookingFor == "" {
		in.LookingFor = models.LookingForEveryone
	}

	now := s.Clock.now()
	profile := models.UserProfile{
		UserID:     userID,
		Name:       strings.TrimSpace(in.Name),
		Email:      in.Email,
		Age:        in.Age,
		Gender:     in.Gender,
		LookingFor: in.LookingFor,
		MinAge:     in.MinAge,
		MaxAge:     in.MaxAge,
		Bio:        in.Bio,
		Location:   in.Location,
		Photos:     []string{},
		LastActive: now,
		CreatedAt:  now,
	}
	allowance := s.Quota.Allowance(&profile)
	profile.DailyLikesRemaining = allowance.Likes
	profile.DailySuperLikesRemaining = allowance.SuperLikes
	profile.CountersDay = now.Format(models.DayLayout)

	if err := s.Profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, invalidArg(op, "profile already exists")
		}
		return nil, storeErr(op, err)
	}
	log.Printf("✅ Profile created for %s", userID)
	return &profile, nil
}

// Me returns the session user's profile. A session without a profile is
// treated as unauthenticated.
func (s *UserProfileService) Me(ctx context.Context, sess *Session) (*models.UserProfile, error) {
	const op = "services.profile.Me"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	return loadViewer(ctx, op, s.Profiles, userID)
}

// GetProfile returns another user's public profile, with the distance to the
// viewer when both have a location.
func (s *UserProfileService) GetProfile(ctx context.Context, sess *Session, userID string) (*models.UserProfile, error) {
	const op = "services.profile.GetProfile"

	viewer, err := s.Me(ctx, sess)
	if err != nil {
		return nil, err
	}
	p, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	attachDistance(viewer, p)
	return p, nil
}

// ProfileChanges lists the user-editable fields; nil leaves a field unchanged.
type ProfileChanges struct {
	Name       *string
	Age        *int
	Gender     *string
	LookingFor *string
	MinAge     *int
	MaxAge     *int
	Bio        *string
}

// UpdateProfile applies whitelisted changes and bumps LastActive.
func (s *UserProfileService) UpdateProfile(ctx context.Context, sess *Session, ch ProfileChanges) (*models.UserProfile, error) {
	const op = "services.profile.UpdateProfile"

	current, err := s.Me(ctx, sess)
	if err != nil {
		return nil, err
	}

	if ch.Name != nil && strings.TrimSpace(*ch.Name) == "" {
		return nil, invalidArg(op, "name must not be empty")
	}
	if ch.Age != nil && (*ch.Age < MinAllowedAge || *ch.Age > MaxAllowedAge) {
		return nil, invalidArg(op, "age must be within [%d, %d]", MinAllowedAge, MaxAllowedAge)
	}
	minAge, maxAge := current.MinAge, current.MaxAge
	if ch.MinAge != nil {
		minAge = *ch.MinAge
	}
	if ch.MaxAge != nil {
		maxAge = *ch.MaxAge
	}
	if err := validateAgeRange(op, minAge, maxAge); err != nil {
		return nil, err
	}

	now := s.Clock.now()
	return s.update(ctx, op, current.UserID, storage.ProfileUpdate{
		Name:       ch.Name,
		Age:        ch.Age,
		Gender:     ch.Gender,
		LookingFor: ch.LookingFor,
		MinAge:     ch.MinAge,
		MaxAge:     ch.MaxAge,
		Bio:        ch.Bio,
		LastActive: &now,
	})
}

// UpdateLocation stores the resolved location supplied by the client.
func (s *UserProfileService) UpdateLocation(ctx context.Context, sess *Session, loc models.Location) (*models.UserProfile, error) {
	const op = "services.profile.UpdateLocation"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, invalidArg(op, "coordinates out of range")
	}
	now := s.Clock.now()
	return s.update(ctx, op, userID, storage.ProfileUpdate{Location: &loc, LastActive: &now})
}

// UpdateDeviceToken stores the push provider token for the session user.
func (s *UserProfileService) UpdateDeviceToken(ctx context.Context, sess *Session, token string) error {
	const op = "services.profile.UpdateDeviceToken"

	userID, err := requireSession(op, sess)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return invalidArg(op, "empty device token")
	}
	_, err = s.update(ctx, op, userID, storage.ProfileUpdate{FCMToken: &token})
	return err
}

// AddPhoto appends a photo key; the first photo also becomes the profile photo.
func (s *UserProfileService) AddPhoto(ctx context.Context, sess *Session, photo string) (*models.UserProfile, error) {
	const op = "services.profile.AddPhoto"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(photo) == "" {
		return nil, invalidArg(op, "empty photo")
	}
	return s.update(ctx, op, userID, storage.ProfileUpdate{AppendPhoto: &photo})
}

// SetVoiceVibe stores the key of the user's voice clip.
func (s *UserProfileService) SetVoiceVibe(ctx context.Context, sess *Session, key string) (*models.UserProfile, error) {
	const op = "services.profile.SetVoiceVibe"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, op, userID, storage.ProfileUpdate{VoiceVibe: &key})
}

// SetPremiumPlan switches the user's plan; an empty plan cancels premium.
func (s *UserProfileService) SetPremiumPlan(ctx context.Context, sess *Session, plan string) (*models.UserProfile, error) {
	const op = "services.profile.SetPremiumPlan"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if !models.IsValidPlan(plan) {
		return nil, invalidArg(op, "unknown plan %q", plan)
	}
	premium := plan != models.PlanNone
	return s.update(ctx, op, userID, storage.ProfileUpdate{IsPremium: &premium, PremiumPlan: &plan})
}

// MarkVerified flags the user's profile as verified.
func (s *UserProfileService) MarkVerified(ctx context.Context, userID string) (*models.UserProfile, error) {
	const op = "services.profile.MarkVerified"

	verified := true
	return s.update(ctx, op, userID, storage.ProfileUpdate{Verified: &verified})
}

func (s *UserProfileService) update(ctx context.Context, op, userID string, u storage.ProfileUpdate) (*models.UserProfile, error) {
	p, err := s.Profiles.UpdateProfile(ctx, userID, u)
	if err != nil {
		return nil, storeErr(op, err)
	}
	log.Printf("🔄 Profile %s updated", userID)
	return p, nil
}

func validateAgeRange(op string, minAge, maxAge int) error {
	if minAge < MinAllowedAge || maxAge > MaxAllowedAge || minAge > maxAge {
		return invalidArg(op, "age range must satisfy %d <= min <= max <= %d", MinAllowedAge, MaxAllowedAge)
	}
	return nil
}

// loadViewer resolves the acting user's profile; a missing profile means the
// caller has no resolvable identity.
func loadViewer(ctx context.Context, op string, profiles storage.ProfileStore, userID string) (*models.UserProfile, error) {
	p, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: no profile for %s", op, ErrUnauthenticated, userID)
		}
		return nil, storeErr(op, err)
	}
	return p, nil
}
