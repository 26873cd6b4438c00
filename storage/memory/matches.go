package memory

import (
	"context"
	"fmt"
	"sort"

	"flamematch_server/models"
	"flamematch_server/storage"
)

func (s *Storage) CreateMatchIfAbsent(ctx context.Context, match models.Match) (*models.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.matches[match.MatchID]; ok {
		out := cloneMatch(existing)
		return &out, false, nil
	}
	s.matches[match.MatchID] = cloneMatch(match)
	out := cloneMatch(match)
	return &out, true, nil
}

func (s *Storage) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, storage.ErrNotFound)
	}
	out := cloneMatch(m)
	return &out, nil
}

func (s *Storage) ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Match
	for _, m := range s.matches {
		if m.HasParticipant(userID) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}
