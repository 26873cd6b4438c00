package services

import (
	"hash/fnv"
	"sync"
	"time"

	"flamematch_server/pubsub"
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Feed is a live subscription handle. Snapshot holds the state at subscribe
// time; Updates delivers later changes until Cancel. Callers must Cancel the
// feed when done, whatever the outcome.
type Feed[T any] struct {
	Snapshot []T

	updates chan T
	sub     *pubsub.Subscription
	once    sync.Once
	release func()
}

// Updates is closed after Cancel or when the broker shuts down.
func (f *Feed[T]) Updates() <-chan T { return f.updates }

// Cancel releases the broker registration. Safe to call more than once.
func (f *Feed[T]) Cancel() {
	f.once.Do(func() {
		f.sub.Cancel()
		if f.release != nil {
			f.release()
		}
	})
}

// startFeed forwards broker events through extract into the feed. Events for
// which extract reports false are skipped.
func startFeed[T any](sess *Session, metrics *Metrics, sub *pubsub.Subscription, snapshot []T, extract func(pubsub.Event) (T, bool)) *Feed[T] {
	f := &Feed[T]{
		Snapshot: snapshot,
		updates:  make(chan T, 16),
		sub:      sub,
	}
	metrics.feedOpened()
	f.release = func() {
		sess.untrack(f)
		metrics.feedClosed()
	}
	if !sess.track(f) {
		f.Cancel()
	}

	go func() {
		defer close(f.updates)
		for {
			select {
			case <-sub.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				v, keep := extract(ev)
				if !keep {
					continue
				}
				select {
				case f.updates <- v:
				case <-sub.Done():
					return
				}
			}
		}
	}()
	return f
}

// stripedLock serializes work per key with a fixed set of mutexes.
type stripedLock struct {
	stripes [64]sync.Mutex
}

func (l *stripedLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
