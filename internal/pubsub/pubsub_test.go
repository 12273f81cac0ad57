package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTopic_ReplaysLatestOnSubscribe(t *testing.T) {
	topic := NewTopic[int]()
	topic.Publish(1)
	topic.Publish(2)

	sub := topic.Subscribe(4)
	defer sub.Unsubscribe()

	select {
	case v := <-sub.C():
		if v != 2 {
			t.Errorf("expected replay of 2, got %d", v)
		}
	default:
		t.Fatal("expected a replayed value")
	}

	topic.Publish(3)
	if v := <-sub.C(); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestTopic_NoReplayWithoutValue(t *testing.T) {
	topic := NewTopic[string]()
	sub := topic.Subscribe(1)
	defer sub.Unsubscribe()

	select {
	case v := <-sub.C():
		t.Fatalf("unexpected value %q", v)
	default:
	}

	if _, ok := topic.Latest(); ok {
		t.Error("expected no latest value")
	}
}

func TestTopic_SlowSubscriberSeesNewest(t *testing.T) {
	topic := NewTopicWith(0)
	sub := topic.Subscribe(1)
	defer sub.Unsubscribe()

	for i := 1; i <= 10; i++ {
		topic.Publish(i)
	}

	if v := <-sub.C(); v != 10 {
		t.Errorf("expected newest value 10, got %d", v)
	}
}

func TestTopic_UnsubscribeAndClose(t *testing.T) {
	topic := NewTopic[int]()
	a := topic.Subscribe(1)
	b := topic.Subscribe(1)

	a.Unsubscribe()
	a.Unsubscribe()
	if _, ok := <-a.C(); ok {
		t.Error("expected closed channel after unsubscribe")
	}

	topic.Close()
	if _, ok := <-b.C(); ok {
		t.Error("expected closed channel after topic close")
	}

	topic.Publish(1)
	late := topic.Subscribe(1)
	if _, ok := <-late.C(); ok {
		t.Error("subscribing to a closed topic should yield a closed channel")
	}
}

func TestTopic_UnsubscribeConcurrentWithClose(t *testing.T) {
	for range 50 {
		topic := NewTopicWith(1)
		subs := make([]*Subscription[int], 4)
		for i := range subs {
			subs[i] = topic.Subscribe(1)
		}

		var wg sync.WaitGroup
		for _, s := range subs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Unsubscribe()
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			topic.Close()
		}()
		wg.Wait()

		for i, s := range subs {
			for range s.C() {
			}
			s.Unsubscribe()
			if n := len(topic.subs); n != 0 {
				t.Fatalf("subscriber %d: %d subscriptions left", i, n)
			}
		}
	}
}

func TestDebounce_EmitsOnlyAfterQuiet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewTopic[int]()
	out := Debounce(ctx, src, 30*time.Millisecond)
	sub := out.Subscribe(8)
	defer sub.Unsubscribe()

	for i := 1; i <= 5; i++ {
		src.Publish(i)
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case v := <-sub.C():
		if v != 5 {
			t.Errorf("expected last value 5, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced value never arrived")
	}

	select {
	case v := <-sub.C():
		t.Errorf("expected a single emission, got extra %d", v)
	case <-time.After(80 * time.Millisecond):
	}
}
