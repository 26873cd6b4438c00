package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"flamematch_server/models"
	"flamematch_server/storage"
)

func (s *Storage) AppendMessage(ctx context.Context, msg models.Message, recipientID string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[msg.MatchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", msg.MatchID, storage.ErrNotFound)
	}

	if msg.SortKey == "" {
		msg.SortKey = models.MessageSortKey(msg.CreatedAt, msg.MessageID)
	}
	if m.LastSortKey != "" && msg.SortKey <= m.LastSortKey {
		return nil, fmt.Errorf("message %s is older than the last message of %s: %w", msg.MessageID, msg.MatchID, storage.ErrConflict)
	}
	log := s.messages[msg.MatchID]
	idx := sort.Search(len(log), func(i int) bool { return log[i].SortKey > msg.SortKey })
	log = append(log, models.Message{})
	copy(log[idx+1:], log[idx:])
	log[idx] = cloneMessage(msg)
	s.messages[msg.MatchID] = log

	m = cloneMatch(m)
	createdAt := msg.CreatedAt
	m.LastMessage = msg.Summary()
	m.LastMessageTime = &createdAt
	m.LastMessageSenderID = msg.SenderID
	m.LastSortKey = msg.SortKey
	if recipientID != "" {
		m.UnreadCount[recipientID]++
	}
	s.matches[msg.MatchID] = m

	out := cloneMatch(m)
	return &out, nil
}

func (s *Storage) ListMessages(ctx context.Context, matchID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[matchID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]models.Message, len(log))
	for i, msg := range log {
		out[i] = cloneMessage(msg)
	}
	return out, nil
}

func (s *Storage) MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return 0, fmt.Errorf("match %s: %w", matchID, storage.ErrNotFound)
	}

	changed := 0
	log := s.messages[matchID]
	for i := range log {
		if log[i].SenderID == readerID || log[i].IsRead {
			continue
		}
		readAt := at
		log[i].IsRead = true
		log[i].ReadAt = &readAt
		changed++
	}

	m = cloneMatch(m)
	m.UnreadCount[readerID] = 0
	s.matches[matchID] = m
	return changed, nil
}
