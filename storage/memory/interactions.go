package memory

import (
	"context"
	"fmt"
	"sort"

	"flamematch_server/models"
	"flamematch_server/storage"
)

func (s *Storage) PutInteraction(ctx context.Context, record models.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = models.InteractionID(record.ActorID, record.TargetID)
	s.interactions[record.ID] = record
	return nil
}

func (s *Storage) GetInteraction(ctx context.Context, actorID, targetID string) (*models.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.interactions[models.InteractionID(actorID, targetID)]
	if !ok {
		return nil, fmt.Errorf("interaction %s -> %s: %w", actorID, targetID, storage.ErrNotFound)
	}
	return &rec, nil
}

func (s *Storage) ListByActor(ctx context.Context, actorID string) ([]models.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.InteractionRecord
	for _, rec := range s.interactions {
		if rec.ActorID == actorID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) ListByTarget(ctx context.Context, targetID string) ([]models.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.InteractionRecord
	for _, rec := range s.interactions {
		if rec.TargetID == targetID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) MarkMatched(ctx context.Context, actorID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.InteractionID(actorID, targetID)
	rec, ok := s.interactions[id]
	if !ok {
		return fmt.Errorf("interaction %s: %w", id, storage.ErrNotFound)
	}
	rec.Matched = true
	s.interactions[id] = rec
	return nil
}
