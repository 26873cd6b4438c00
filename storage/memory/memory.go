// Package memory is an in-process implementation of storage.Storage used for
// local runs (storage.driver=memory) and tests.
package memory

import (
	"sync"

	"flamematch_server/models"
	"flamematch_server/storage"
)

var _ storage.Storage = (*Storage)(nil)

// Storage keeps every table in maps guarded by one mutex, which gives the
// conditional writes the same all-or-nothing behaviour as DynamoDB.
type Storage struct {
	mu sync.RWMutex

	profiles     map[string]models.UserProfile
	profileOrder []string

	interactions map[string]models.InteractionRecord

	matches  map[string]models.Match
	messages map[string][]models.Message
}

// New creates an empty store.
func New() *Storage {
	return &Storage{
		profiles:     make(map[string]models.UserProfile),
		interactions: make(map[string]models.InteractionRecord),
		matches:      make(map[string]models.Match),
		messages:     make(map[string][]models.Message),
	}
}

// Close is a no-op.
func (s *Storage) Close() error { return nil }

func cloneProfile(p models.UserProfile) models.UserProfile {
	if p.Photos != nil {
		p.Photos = append([]string(nil), p.Photos...)
	}
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	return p
}

func cloneMatch(m models.Match) models.Match {
	m.Users = append([]string(nil), m.Users...)
	unread := make(map[string]int, len(m.UnreadCount))
	for k, v := range m.UnreadCount {
		unread[k] = v
	}
	m.UnreadCount = unread
	if m.LastMessageTime != nil {
		t := *m.LastMessageTime
		m.LastMessageTime = &t
	}
	return m
}

func cloneMessage(m models.Message) models.Message {
	if m.ReadAt != nil {
		t := *m.ReadAt
		m.ReadAt = &t
	}
	return m
}
