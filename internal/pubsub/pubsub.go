// Package pubsub provides state topics that replay their latest value to new
// subscribers and never block publishers.
package pubsub

import (
	"context"
	"sync"
	"time"
)

// Subscription receives values published on a Topic.
type Subscription[T any] struct {
	ch    chan T
	topic *Topic[T] // nil when subscribed to a closed topic
	done  bool      // guarded by topic.mu
}

// C returns the delivery channel. It is closed on Unsubscribe or Topic.Close.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe detaches the subscription and closes its channel. Safe to call twice.
func (s *Subscription[T]) Unsubscribe() {
	if s.topic != nil {
		s.topic.remove(s)
	}
}

// Topic is a multi-subscriber broadcast of one state entity.
// Slow subscribers lose intermediate values but always see the newest one.
type Topic[T any] struct {
	mu        sync.Mutex
	subs      []*Subscription[T]
	latest    T
	hasLatest bool
	closed    bool
}

// NewTopic creates a topic with no value yet.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{}
}

// NewTopicWith creates a topic whose latest value is initial.
func NewTopicWith[T any](initial T) *Topic[T] {
	return &Topic[T]{latest: initial, hasLatest: true}
}

// Publish stores v as the latest value and delivers it to every subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.latest = v
	t.hasLatest = true

	for _, s := range t.subs {
		deliver(s.ch, v)
	}
}

// Latest returns the last published value.
func (t *Topic[T]) Latest() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.hasLatest
}

// Subscribe registers a subscriber with the given buffer (minimum 1).
// The latest value, if any, is delivered immediately.
func (t *Topic[T]) Subscribe(capacity int) *Subscription[T] {
	if capacity < 1 {
		capacity = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Subscription[T]{ch: make(chan T, capacity)}
	if t.closed {
		close(s.ch)
		return s
	}

	s.topic = t
	if t.hasLatest {
		s.ch <- t.latest
	}
	t.subs = append(t.subs, s)
	return s
}

// Close closes every subscription. Later publishes are ignored.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for _, s := range t.subs {
		s.done = true
		close(s.ch)
	}
	t.subs = nil
}

func (t *Topic[T]) remove(sub *Subscription[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sub.done {
		return
	}

	count := len(t.subs)
	for i, s := range t.subs {
		if s == sub {
			t.subs[i] = t.subs[count-1]
			t.subs = t.subs[:count-1]
			sub.done = true
			close(sub.ch)
			return
		}
	}
}

// deliver sends v, evicting the oldest buffered value when the buffer is full.
// Callers hold the topic lock so there is a single sender per channel.
func deliver[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Debounce republishes src on a new topic once src has been quiet for window.
// The goroutine exits when ctx is done or src is closed.
func Debounce[T any](ctx context.Context, src *Topic[T], window time.Duration) *Topic[T] {
	out := NewTopic[T]()
	sub := src.Subscribe(1)

	go func() {
		defer sub.Unsubscribe()
		defer out.Close()

		var (
			timer   *time.Timer
			fire    <-chan time.Time
			pending T
		)
		stop := func() {
			if timer != nil {
				timer.Stop()
			}
		}
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-sub.C():
				if !ok {
					return
				}
				pending = v
				if timer == nil {
					timer = time.NewTimer(window)
				} else {
					timer.Reset(window)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				out.Publish(pending)
			}
		}
	}()

	return out
}
