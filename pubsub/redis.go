package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Redis is a broker backed by Redis PUBLISH/SUBSCRIBE.
type Redis struct {
	client *redis.Client

	mu     sync.Mutex
	subs   map[*Subscription]*redis.PubSub
	closed bool
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	log.Println("🔧 Redis broker initialized with address:", addr)
	return &Redis{client: client, subs: make(map[*Subscription]*redis.PubSub)}, nil
}

func (r *Redis) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Kind, err)
	}
	if err := r.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning,
// so nothing published afterwards is missed.
func (r *Redis) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	var sub *Subscription
	sub = newSubscription(topic, func() {
		r.mu.Lock()
		delete(r.subs, sub)
		r.mu.Unlock()
		_ = ps.Close()
	})

	r.mu.Lock()
	r.subs[sub] = ps
	r.mu.Unlock()

	go r.forward(sub, ps)
	return sub, nil
}

func (r *Redis) forward(sub *Subscription, ps *redis.PubSub) {
	defer close(sub.events)

	ch := ps.Channel()
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("❌ Failed to decode event on %s: %v", sub.Topic, err)
				continue
			}
			select {
			case sub.events <- ev:
			case <-sub.done:
				return
			default:
				log.Printf("⚠️ Dropped %s event for slow subscriber on %s", ev.Kind, sub.Topic)
			}
		}
	}
}

// Close cancels outstanding subscriptions and closes the client.
func (r *Redis) Close() error {
	r.mu.Lock()
	r.closed = true
	subs := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	return r.client.Close()
}
