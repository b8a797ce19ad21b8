package health

import (
	"testing"
	"time"
)

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	b := NewBus[int](4)

	// Must be a cheap no-op, not a buffer for later subscribers.
	b.Publish(1)
	b.Publish(2)

	sub := b.Subscribe()
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		t.Errorf("subscriber received replayed event %v, want none", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := NewBus[string](4)

	first := b.Subscribe()
	second := b.Subscribe()
	defer first.Close()
	defer second.Close()

	b.Publish("hello")

	for name, sub := range map[string]*Subscription[string]{"first": first, "second": second} {
		select {
		case got := <-sub.Events():
			if got != "hello" {
				t.Errorf("%s subscriber got %q, want %q", name, got, "hello")
			}
		case <-time.After(time.Second):
			t.Fatalf("%s subscriber received nothing", name)
		}
	}
}

func TestBus_SlowSubscriberDropsOldest(t *testing.T) {
	b := NewBus[int](2)

	sub := b.Subscribe()
	defer sub.Close()

	// Three events into a buffer of two: the oldest must be discarded.
	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	var got []int
	for len(got) < 2 {
		select {
		case ev := <-sub.Events():
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatal("timed out draining subscriber")
		}
	}

	if got[0] != 2 || got[1] != 3 {
		t.Errorf("drained %v, want [2 3] (oldest dropped)", got)
	}
}

func TestBus_SubscriberSeesOnlyFutureEvents(t *testing.T) {
	b := NewBus[int](4)

	early := b.Subscribe()
	defer early.Close()

	b.Publish(1)

	late := b.Subscribe()
	defer late.Close()

	b.Publish(2)

	select {
	case got := <-late.Events():
		if got != 2 {
			t.Errorf("late subscriber got %v, want 2", got)
		}
	case <-time.After(time.Second):
		t.Fatal("late subscriber received nothing")
	}
}

func TestSubscription_Close(t *testing.T) {
	b := NewBus[int](4)

	sub := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}

	sub.Close()
	sub.Close() // second close must be safe

	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after Close = %d, want 0", b.SubscriberCount())
	}

	// Publishing after close must not panic.
	b.Publish(1)

	if _, open := <-sub.Events(); open {
		t.Error("Events() channel still open after Close")
	}
}
