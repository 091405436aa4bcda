package audio

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPermissionDenied means the platform refused access to the device.
	ErrPermissionDenied = errors.New("audio: capture permission denied")
	// ErrDeviceUnavailable means no usable capture device was found.
	ErrDeviceUnavailable = errors.New("audio: capture device unavailable")
)

// Origin identifies which producer a frame came from.
type Origin string

const (
	OriginMic    Origin = "mic"
	OriginSystem Origin = "system"
)

// Frame is one fixed-format PCM buffer delivered by a capture source.
type Frame struct {
	Samples []int16
	Origin  Origin
}

// Source is a single PCM producer (microphone or system loopback).
// Implementations push frames from the platform callback and must never
// block on a slow consumer.
type Source interface {
	Start(ctx context.Context) error
	Frames() *FrameQueue
	Stop()
}

// SourceFactory opens the sources for a recording. systemAudio selects
// whether a loopback source is wanted in addition to the microphone.
type SourceFactory func(systemAudio bool) ([]Source, error)

// FrameQueue is a bounded frame buffer with drop-oldest overflow. The
// producer side never blocks: when full, the oldest unconsumed frame is
// discarded and counted, so a lagging consumer loses stale audio instead of
// stalling the hardware callback.
type FrameQueue struct {
	mu      sync.Mutex
	frames  []Frame
	cap     int
	dropped uint64
}

func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &FrameQueue{cap: capacity}
}

// Push enqueues a frame, evicting the oldest one when at capacity.
func (q *FrameQueue) Push(f Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) >= q.cap {
		q.frames = q.frames[1:]
		q.dropped++
	}
	q.frames = append(q.frames, f)
}

// Pop dequeues the oldest frame, reporting false when empty.
func (q *FrameQueue) Pop() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return Frame{}, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// Len returns the number of buffered frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns how many frames were evicted since creation.
func (q *FrameQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
