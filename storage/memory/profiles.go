package memory

import (
	"context"
	"fmt"

	"flamematch_server/models"
	"flamematch_server/storage"
)

func (s *Storage) CreateProfile(ctx context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.UserID]; ok {
		return fmt.Errorf("profile %s: %w", profile.UserID, storage.ErrConflict)
	}
	s.profiles[profile.UserID] = cloneProfile(profile)
	s.profileOrder = append(s.profileOrder, profile.UserID)
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	out := cloneProfile(p)
	return &out, nil
}

func (s *Storage) ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserProfile, 0, min(limit, len(s.profileOrder)))
	for _, id := range s.profileOrder {
		if len(out) >= limit {
			break
		}
		out = append(out, cloneProfile(s.profiles[id]))
	}
	return out, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, userID string, u storage.ProfileUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.LookingFor != nil {
		p.LookingFor = *u.LookingFor
	}
	if u.MinAge != nil {
		p.MinAge = *u.MinAge
	}
	if u.MaxAge != nil {
		p.MaxAge = *u.MaxAge
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Location != nil {
		loc := *u.Location
		p.Location = &loc
	}
	if u.Photos != nil {
		p.Photos = append([]string(nil), (*u.Photos)...)
	}
	if u.ProfilePhoto != nil {
		p.ProfilePhoto = *u.ProfilePhoto
	}
	if u.AppendPhoto != nil {
		p.Photos = append(append([]string(nil), p.Photos...), *u.AppendPhoto)
		if p.ProfilePhoto == "" {
			p.ProfilePhoto = *u.AppendPhoto
		}
	}
	if u.VoiceVibe != nil {
		p.VoiceVibe = *u.VoiceVibe
	}
	if u.IsPremium != nil {
		p.IsPremium = *u.IsPremium
	}
	if u.PremiumPlan != nil {
		p.PremiumPlan = *u.PremiumPlan
	}
	if u.Verified != nil {
		p.Verified = *u.Verified
	}
	if u.FCMToken != nil {
		p.FCMToken = *u.FCMToken
	}
	if u.LastActive != nil {
		p.LastActive = *u.LastActive
	}

	s.profiles[userID] = p
	out := cloneProfile(p)
	return &out, nil
}

func (s *Storage) ConsumeQuota(ctx context.Context, userID string, kind storage.QuotaKind, day string, allowance storage.Allowance) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return 0, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}

	if p.CountersDay < day {
		p.CountersDay = day
		p.DailyLikesRemaining = allowance.Likes
		p.DailySuperLikesRemaining = allowance.SuperLikes
	}

	counter := &p.DailyLikesRemaining
	if kind == storage.QuotaSuperLikes {
		counter = &p.DailySuperLikesRemaining
	}
	if *counter < 1 {
		// the rollover above is still persisted
		s.profiles[userID] = p
		return 0, fmt.Errorf("%s for %s: %w", kind, userID, storage.ErrQuotaExhausted)
	}
	*counter--

	s.profiles[userID] = p
	return *counter, nil
}

func (s *Storage) RefundQuota(ctx context.Context, userID string, kind storage.QuotaKind, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	if p.CountersDay != day {
		return nil
	}
	if kind == storage.QuotaSuperLikes {
		p.DailySuperLikesRemaining++
	} else {
		p.DailyLikesRemaining++
	}
	s.profiles[userID] = p
	return nil
}
