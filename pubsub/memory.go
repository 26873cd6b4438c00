package pubsub

import (
	"context"
	"log"
	"sync"
)

// Memory is an in-process broker.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{topics: make(map[string]map[*Subscription]struct{})}
}

func (m *Memory) Publish(ctx context.Context, topic string, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for sub := range m.topics[topic] {
		if !sub.deliver(ev) {
			log.Printf("⚠️ Dropped %s event for slow subscriber on %s", ev.Kind, topic)
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	var sub *Subscription
	sub = newSubscription(topic, func() { m.remove(topic, sub) })
	if m.topics[topic] == nil {
		m.topics[topic] = make(map[*Subscription]struct{})
	}
	m.topics[topic][sub] = struct{}{}
	return sub, nil
}

func (m *Memory) remove(topic string, sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(m.topics, topic)
	}
	close(sub.events)
}

// Close cancels every outstanding subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	var subs []*Subscription
	for _, set := range m.topics {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	m.closed = true
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	return nil
}

// Subscribers reports how many subscriptions are registered on topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics[topic])
}
