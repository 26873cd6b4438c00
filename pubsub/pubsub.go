// Package pubsub fans out new messages and match updates to live subscribers.
// The memory broker serves a single instance; the redis broker lets several
// instances share one feed.
package pubsub

import (
	"context"
	"errors"
	"sync"

	"flamematch_server/models"
)

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("broker closed")

// Event kinds.
const (
	KindMessage = "message"
	KindMatch   = "match"
)

// subscriptionBuffer bounds how far a slow subscriber may fall behind before
// events for it are dropped.
const subscriptionBuffer = 128

// Event is one published change.
type Event struct {
	Kind    string          `json:"kind"`
	Message *models.Message `json:"message,omitempty"`
	Match   *models.Match   `json:"match,omitempty"`
}

// Broker publishes events to topics and hands out subscriptions.
type Broker interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// MessagesTopic carries new messages of one match.
func MessagesTopic(matchID string) string { return "match:" + matchID + ":messages" }

// MatchesTopic carries match changes relevant to one user.
func MatchesTopic(userID string) string { return "user:" + userID + ":matches" }

// Subscription is a live registration on a topic. Events arrive on Events()
// in publish order until Cancel is called.
type Subscription struct {
	Topic string

	events chan Event
	done   chan struct{}
	once   sync.Once
	stop   func()
}

func newSubscription(topic string, stop func()) *Subscription {
	return &Subscription{
		Topic:  topic,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
		stop:   stop,
	}
}

// Events returns the delivery channel. It is closed after Cancel.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed once the subscription has been cancelled.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Cancel releases the registration. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
	})
}

// deliver hands ev to the subscriber without blocking the publisher.
func (s *Subscription) deliver(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
