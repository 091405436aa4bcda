// Package session owns the recording lifecycle: it wires capture, mixing,
// chunking, and the streaming transcription client together while a meeting
// runs, then drives the diarization and summary pipeline after it stops,
// keeping the segment store consistent across the two generations.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/audio"
	"github.com/minutier/minutier/internal/config"
	"github.com/minutier/minutier/internal/export"
	"github.com/minutier/minutier/internal/repository"
	"github.com/minutier/minutier/internal/transcriber"
)

var (
	// ErrSessionActive is returned by Start while a recording is running;
	// at most one session records process-wide.
	ErrSessionActive = errors.New("session: a session is already recording")
	// ErrNoActiveSession is returned by Stop when nothing is recording.
	ErrNoActiveSession = errors.New("session: no active session")
	// ErrSessionMismatch is returned by Stop for the wrong session id.
	ErrSessionMismatch = errors.New("session: active session does not match")
	// ErrNoTranscript is returned by SearchAssistant for an empty session.
	ErrNoTranscript = errors.New("session: no transcript available")
)

const mixInterval = 20 * time.Millisecond

// Orchestrator is the state machine at the root of the core. The stored
// session status carries the durable states (recording, processing, ready,
// failed); the single active slot under mu carries the in-memory ones.
type Orchestrator struct {
	cfg        *config.Config
	repo       repository.Repository
	streaming  transcriber.StreamingTranscriber
	batch      transcriber.BatchTranscriber
	assistant  assistant.Client
	exporter   export.SessionExporter
	newSources audio.SourceFactory
	events     *Broadcaster

	mu     sync.Mutex
	active *activeSession
}

type activeSession struct {
	id        string
	startedAt time.Time
	sources   []audio.Source
	writer    transcriber.StreamWriter
	chunker   *audio.Chunker
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
}

func NewOrchestrator(
	cfg *config.Config,
	repo repository.Repository,
	streaming transcriber.StreamingTranscriber,
	batch transcriber.BatchTranscriber,
	ac assistant.Client,
	exporter export.SessionExporter,
	newSources audio.SourceFactory,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		repo:       repo,
		streaming:  streaming,
		batch:      batch,
		assistant:  ac,
		exporter:   exporter,
		newSources: newSources,
		events:     NewBroadcaster(),
	}
}

// Events exposes the outward event stream.
func (o *Orchestrator) Events() *Broadcaster { return o.events }

// Start begins a new recording session and returns its id. Rejected while
// another session is recording.
func (o *Orchestrator) Start(ctx context.Context, mode repository.SessionMode) (string, error) {
	o.mu.Lock()
	if o.active != nil {
		o.mu.Unlock()
		return "", ErrSessionActive
	}
	// Reserve the slot before any slow work so a concurrent Start is
	// rejected instead of racing.
	placeholder := &activeSession{}
	o.active = placeholder
	o.mu.Unlock()

	as, err := o.openSession(ctx, mode)
	o.mu.Lock()
	if err != nil {
		if o.active == placeholder {
			o.active = nil
		}
		o.mu.Unlock()
		return "", err
	}
	o.active = as
	o.mu.Unlock()
	return as.id, nil
}

func (o *Orchestrator) openSession(ctx context.Context, mode repository.SessionMode) (*activeSession, error) {
	id := uuid.NewString()
	title := fmt.Sprintf("Meeting %s", time.Now().Format("02/01 15:04"))
	if _, err := o.repo.CreateSession(ctx, repository.CreateSessionInput{ID: id, Title: title, Mode: mode}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sources, err := o.newSources(mode == repository.ModeVisio)
	if err != nil {
		o.failSession(id, fmt.Errorf("open capture sources: %w", err))
		return nil, err
	}

	pipeCtx, cancel := context.WithCancel(context.Background())
	writer, streamEvents, err := o.streaming.StartStream(pipeCtx, o.cfg.DefaultLanguage)
	if err != nil {
		cancel()
		stopSources(sources)
		o.failSession(id, fmt.Errorf("start streaming transcription: %w", err))
		return nil, err
	}

	for _, src := range sources {
		if err := src.Start(pipeCtx); err != nil {
			cancel()
			stopSources(sources)
			_ = writer.Close()
			o.failSession(id, fmt.Errorf("start capture: %w", err))
			return nil, err
		}
	}

	as := &activeSession{
		id:        id,
		startedAt: time.Now(),
		sources:   sources,
		writer:    writer,
		chunker:   audio.NewChunker(o.cfg.SampleRate, o.cfg.ChunkMillis),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go o.receiveStreamEvents(as, streamEvents)
	go o.runPipeline(pipeCtx, as)

	slog.Info("session started", "session_id", id, "mode", mode, "sources", len(sources))
	return as, nil
}

// Stop halts capture, drains buffered audio to the streaming client bounded
// by the drain timeout, persists the audio artifact, and spawns the batch
// pipeline in the background. It returns without waiting on diarization.
func (o *Orchestrator) Stop(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	as := o.active
	if as == nil || as.id == "" {
		o.mu.Unlock()
		return ErrNoActiveSession
	}
	if as.id != sessionID {
		o.mu.Unlock()
		return fmt.Errorf("%w: active %s, requested %s", ErrSessionMismatch, as.id, sessionID)
	}
	o.active = nil
	o.mu.Unlock()

	o.finishRecording(ctx, as, nil)
	return nil
}

// finishRecording is the Recording -> Stopping -> PostProcessing leg,
// shared by Stop and by the graceful teardown on a mid-recording failure.
func (o *Orchestrator) finishRecording(ctx context.Context, as *activeSession, cause error) {
	as.stopOnce.Do(func() {
		stopSources(as.sources)
		as.cancel()

		select {
		case <-as.done:
		case <-time.After(o.cfg.StopDrainTimeout()):
			slog.Warn("drain timeout exceeded; closing stream with audio possibly unsent", "session_id", as.id)
		}
		_ = as.writer.Close()

		samples := as.chunker.SessionSamples()
		duration := float64(len(samples)) / float64(o.cfg.SampleRate)

		if err := os.MkdirAll(o.cfg.AudioDir, 0o755); err != nil {
			o.failSession(as.id, fmt.Errorf("create audio dir: %w", err))
			return
		}
		audioPath := filepath.Join(o.cfg.AudioDir, as.id+".wav")
		if err := audio.WriteWAV(audioPath, samples, o.cfg.SampleRate); err != nil {
			o.failSession(as.id, err)
			return
		}
		if err := o.repo.SetSessionAudio(ctx, as.id, audioPath, duration); err != nil {
			o.failSession(as.id, err)
			return
		}
		if err := o.repo.UpdateSessionStatus(ctx, as.id, repository.SessionStatusProcessing); err != nil {
			o.failSession(as.id, err)
			return
		}

		slog.Info("session stopped", "session_id", as.id, "duration_secs", duration, "cause", causeText(cause))
		go o.postProcess(as.id, audioPath)
	})
}

func causeText(err error) string {
	if err == nil {
		return "requested"
	}
	return err.Error()
}

func stopSources(sources []audio.Source) {
	for _, src := range sources {
		src.Stop()
	}
}

// runPipeline is the live leg: mic and system frames are popped from their
// bounded queues on a fixed tick, mixed, chunked, and uploaded in order.
func (o *Orchestrator) runPipeline(ctx context.Context, as *activeSession) {
	defer close(as.done)
	ticker := time.NewTicker(mixInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Stop requested: drain whatever the sources already produced
			// before the connection goes away.
			if err := o.mixTick(as); err != nil {
				slog.Warn("drain upload failed", "session_id", as.id, "error", err)
				return
			}
			if tail := as.chunker.Flush(); len(tail) > 0 {
				if err := as.writer.Send(tail); err != nil {
					slog.Warn("tail upload failed", "session_id", as.id, "error", err)
					return
				}
			}
			if err := as.writer.End(); err != nil {
				slog.Warn("stream end failed", "session_id", as.id, "error", err)
			}
			return
		case <-ticker.C:
			if err := o.mixTick(as); err != nil {
				o.events.Publish(Event{Kind: EventSessionError, SessionID: as.id, Message: err.Error()})
				slog.Error("recording pipeline failed; ending session", "session_id", as.id, "error", err)
				go o.abortActive(as, err)
				return
			}
		}
	}
}

func (o *Orchestrator) mixTick(as *activeSession) error {
	var mic, system []int16
	for _, src := range as.sources {
		q := src.Frames()
		for {
			frame, ok := q.Pop()
			if !ok {
				break
			}
			if frame.Origin == audio.OriginSystem {
				system = append(system, frame.Samples...)
			} else {
				mic = append(mic, frame.Samples...)
			}
		}
	}
	if len(mic) == 0 && len(system) == 0 {
		return nil
	}

	mixed := audio.Mix(mic, system)
	o.events.Publish(Event{Kind: EventAudioLevel, SessionID: as.id, Level: audio.Level(mixed)})

	for _, chunk := range as.chunker.Append(mixed) {
		if err := as.writer.Send(chunk); err != nil {
			return fmt.Errorf("upload chunk: %w", err)
		}
	}
	return nil
}

// abortActive tears the session down after a mid-recording failure, keeping
// whatever audio and segments already exist.
func (o *Orchestrator) abortActive(as *activeSession, cause error) {
	o.mu.Lock()
	if o.active == as {
		o.active = nil
	}
	o.mu.Unlock()
	o.finishRecording(context.Background(), as, cause)
}

// receiveStreamEvents consumes the server-pushed transcription events.
// Deltas are forwarded as uncommitted text and reset whenever a final
// covers them; finals are stored and re-emitted in arrival order, which the
// service guarantees to be non-decreasing in start time.
func (o *Orchestrator) receiveStreamEvents(as *activeSession, events <-chan transcriber.StreamEvent) {
	sequence := 0
	for ev := range events {
		switch ev.Kind {
		case transcriber.EventLanguageDetected:
			slog.Info("language detected", "session_id", as.id, "language", ev.Language)
		case transcriber.EventTextDelta:
			o.events.Publish(Event{Kind: EventTranscriptionDelta, SessionID: as.id, Delta: ev.Text})
		case transcriber.EventSegmentFinal:
			seg := repository.Segment{
				SessionID:  as.id,
				Text:       ev.Text,
				StartTime:  ev.Start,
				EndTime:    ev.End,
				IsDiarized: false,
				Sequence:   sequence,
			}
			id, err := o.repo.InsertSegment(context.Background(), repository.InsertSegmentInput{
				SessionID: as.id,
				Text:      ev.Text,
				StartTime: ev.Start,
				EndTime:   ev.End,
				Sequence:  sequence,
			})
			if err != nil {
				slog.Error("failed to store live segment", "session_id", as.id, "error", err)
			} else {
				seg.ID = id
			}
			sequence++
			// A final supersedes any delta text for its span; subscribers
			// reset their pending delta on this event.
			o.events.Publish(Event{Kind: EventTranscriptionSegment, SessionID: as.id, Segment: &seg})
		case transcriber.EventStreamDone:
			slog.Info("stream done", "session_id", as.id, "finals", sequence)
			return
		case transcriber.EventStreamError:
			o.events.Publish(Event{Kind: EventSessionError, SessionID: as.id, Message: ev.Err.Error()})
			slog.Error("stream error", "session_id", as.id, "error", ev.Err)
			go o.abortActive(as, ev.Err)
			return
		}
	}
}

// failSession marks a session failed and surfaces the error as an event.
// Earlier-stage data (live segments, audio artifact) is left in place.
func (o *Orchestrator) failSession(id string, cause error) {
	if err := o.repo.UpdateSessionStatus(context.Background(), id, repository.SessionStatusFailed); err != nil {
		slog.Error("failed to mark session failed", "session_id", id, "error", err)
	}
	o.events.Publish(Event{Kind: EventSessionError, SessionID: id, Message: cause.Error()})
	slog.Error("session failed", "session_id", id, "error", cause)
}
