package session

import (
	"testing"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel1()
	defer cancel2()

	b.Publish(Event{Kind: EventAudioLevel, SessionID: "s", Level: 42})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != EventAudioLevel || ev.Level != 42 {
				t.Fatalf("subscriber %d got unexpected event: %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBroadcaster_PublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe(1)
	defer cancel()

	// Fill the buffer, then keep publishing; a slow subscriber loses events
	// instead of stalling the publisher.
	for i := 0; i < 10; i++ {
		b.Publish(Event{Kind: EventAudioLevel, Level: float64(i)})
	}
}

func TestBroadcaster_CancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(1)
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic and must not reach the
	// removed subscriber.
	b.Publish(Event{Kind: EventSessionError})
	cancel()
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Event{Kind: EventSessionComplete})
}
