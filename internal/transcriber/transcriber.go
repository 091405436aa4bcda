// Package transcriber defines the contracts to the remote speech-to-text
// service: a long-lived streaming session for the live transcript and a
// one-shot batch call for the diarized rework of the whole recording.
package transcriber

import (
	"context"
	"errors"
)

var (
	ErrConnectFailed  = errors.New("transcriber: connect failed")
	ErrDisconnected   = errors.New("transcriber: stream disconnected")
	ErrMalformedEvent = errors.New("transcriber: malformed server event")

	ErrUploadFailed      = errors.New("transcriber: batch upload failed")
	ErrBatchTimeout      = errors.New("transcriber: batch request timed out")
	ErrDiarizationFailed = errors.New("transcriber: diarization failed")
)

// EventKind discriminates the server-pushed streaming events.
type EventKind string

const (
	EventLanguageDetected EventKind = "language-detected"
	EventTextDelta        EventKind = "text-delta"
	EventSegmentFinal     EventKind = "segment-final"
	EventStreamDone       EventKind = "stream-done"
	EventStreamError      EventKind = "stream-error"
)

// StreamEvent is one typed event from the streaming service. Deltas are
// incremental and uncommitted; finals carry start/end seconds and arrive
// non-decreasing in Start.
type StreamEvent struct {
	Kind     EventKind
	Text     string
	Language string
	Start    float64
	End      float64
	Err      error
}

// StreamWriter is the upload side of an open streaming session. Chunks must
// be sent in temporal order.
type StreamWriter interface {
	Send(pcm []int16) error
	// End signals that no more audio follows; the service then flushes its
	// remaining finals and emits stream-done.
	End() error
	Close() error
}

// StreamingTranscriber opens a realtime session. Events arrive on the
// returned channel until stream-done or a fatal stream error, after which
// the channel is closed.
type StreamingTranscriber interface {
	StartStream(ctx context.Context, language string) (StreamWriter, <-chan StreamEvent, error)
}

// BatchSegment is one diarized span of the whole-file transcription.
type BatchSegment struct {
	Text    string
	Start   float64
	End     float64
	Speaker string
}

// BatchResult is the complete response of a batch transcription.
type BatchResult struct {
	Text     string
	Language string
	Segments []BatchSegment
}

// BatchTranscriber transcribes a whole audio artifact with diarization.
// Exhausting the retry budget returns an error, never an empty result.
type BatchTranscriber interface {
	Transcribe(ctx context.Context, audioPath string, diarize bool, language string) (*BatchResult, error)
}
