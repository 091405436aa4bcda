package session

import (
	"sync"

	"github.com/minutier/minutier/internal/repository"
)

type EventKind string

const (
	EventTranscriptionSegment EventKind = "transcription-segment"
	EventTranscriptionDelta   EventKind = "transcription-delta"
	EventAudioLevel           EventKind = "audio-level"
	EventSessionComplete      EventKind = "session-complete"
	EventSessionError         EventKind = "session-error"
)

// Event is one outward notification to the UI layer.
type Event struct {
	Kind      EventKind
	SessionID string
	Segment   *repository.Segment
	Delta     string
	Level     float64
	Message   string
}

// Broadcaster fans events out to any number of subscribers. Publishing
// never blocks: a subscriber that cannot keep up misses events rather than
// stalling the recording pipeline. Zero subscribers is fine.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered listener. The returned cancel func removes
// the subscription and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
