// Package transcriber implements the remote speech-to-text clients: a
// realtime WebSocket stream for the live transcript and a multipart HTTP
// upload for the diarized batch rework.
package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minutier/minutier/internal/resilience"
	"github.com/minutier/minutier/internal/transcriber"
)

type streamState int

const (
	stateIdle streamState = iota
	stateConnecting
	stateStreaming
	stateReconnecting
	stateClosed
)

const handshakeTimeout = 15 * time.Second

// wsIncoming covers every server-pushed message on the realtime socket.
type wsIncoming struct {
	Type          string          `json:"type"`
	Text          string          `json:"text"`
	AudioLanguage string          `json:"audio_language"`
	Start         float64         `json:"start"`
	End           float64         `json:"end"`
	Error         json.RawMessage `json:"error"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	AudioFormat audioFormat `json:"audio_format"`
	Language    string      `json:"language,omitempty"`
}

type audioFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type RealtimeConfig struct {
	URL           string
	APIKey        string
	Model         string
	SampleRate    int
	MaxReconnects int
}

// RealtimeTranscriber opens realtime transcription sessions over WebSocket.
type RealtimeTranscriber struct {
	cfg RealtimeConfig
}

func NewRealtimeTranscriber(cfg RealtimeConfig) transcriber.StreamingTranscriber {
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = 3
	}
	return &RealtimeTranscriber{cfg: cfg}
}

func (t *RealtimeTranscriber) StartStream(ctx context.Context, language string) (transcriber.StreamWriter, <-chan transcriber.StreamEvent, error) {
	w := &realtimeStream{
		cfg:      t.cfg,
		language: language,
		ctx:      ctx,
		events:   make(chan transcriber.StreamEvent, 64),
		state:    stateConnecting,
	}
	conn, err := w.connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", transcriber.ErrConnectFailed, err)
	}
	w.conn = conn
	w.state = stateStreaming
	go w.receiveLoop(conn)
	return w, w.events, nil
}

type realtimeStream struct {
	cfg      RealtimeConfig
	language string
	ctx      context.Context
	events   chan transcriber.StreamEvent

	mu     sync.Mutex
	conn   *websocket.Conn
	state  streamState
	closed bool
}

// connect dials the socket and runs the session handshake: wait for
// session.created, push the audio format, wait for session.updated.
func (w *realtimeStream) connect(ctx context.Context) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s?model=%s", w.cfg.URL, w.cfg.Model)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+w.cfg.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	if err := waitForType(conn, "session.created"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			AudioFormat: audioFormat{Encoding: "pcm_s16le", SampleRate: w.cfg.SampleRate},
			Language:    w.language,
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := waitForType(conn, "session.updated"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	slog.Info("realtime stream established", "sample_rate", w.cfg.SampleRate, "model", w.cfg.Model)
	return conn, nil
}

func waitForType(conn *websocket.Conn, want string) error {
	deadline := time.Now().Add(handshakeTimeout)
	_ = conn.SetReadDeadline(deadline)
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()
	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("socket closed before %s: %w", want, err)
		}
		switch msg.Type {
		case want:
			return nil
		case "error":
			return fmt.Errorf("server rejected session: %s", string(msg.Error))
		}
	}
}

// Send uploads one chunk of PCM in temporal order. A failed write triggers
// a bounded reconnect with backoff before the chunk is retried once.
func (w *realtimeStream) Send(pcm []int16) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return transcriber.ErrDisconnected
	}
	msg := audioAppend{Type: "input_audio.append", Audio: encodePCM(pcm)}
	if err := w.conn.WriteJSON(msg); err != nil {
		if err := w.reconnectLocked(); err != nil {
			return fmt.Errorf("%w: %v", transcriber.ErrDisconnected, err)
		}
		return w.conn.WriteJSON(msg)
	}
	return nil
}

// End signals end-of-audio; the service flushes remaining finals and then
// emits transcription.done.
func (w *realtimeStream) End() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return transcriber.ErrDisconnected
	}
	return w.conn.WriteJSON(map[string]string{"type": "input_audio.end"})
}

func (w *realtimeStream) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.state = stateClosed
	return w.conn.Close()
}

func (w *realtimeStream) reconnectLocked() error {
	w.state = stateReconnecting
	slog.Warn("realtime stream write failed; reconnecting")
	_ = w.conn.Close()

	var conn *websocket.Conn
	err := resilience.Retry(w.ctx, resilience.Config{
		MaxRetries:  w.cfg.MaxReconnects,
		IsRetryable: func(error) bool { return true },
	}, func() error {
		var dialErr error
		conn, dialErr = w.connect(w.ctx)
		return dialErr
	})
	if err != nil {
		w.state = stateClosed
		return err
	}
	w.conn = conn
	w.state = stateStreaming
	go w.receiveLoop(conn)
	slog.Info("realtime stream reconnected")
	return nil
}

// receiveLoop decodes server events until done, a fatal error, or Close.
// One loop runs per live connection; a reconnect starts a fresh one.
func (w *realtimeStream) receiveLoop(conn *websocket.Conn) {
	defer func() {
		// Only the loop for the current connection owns the events channel.
		w.mu.Lock()
		current := w.conn == conn
		if current {
			w.closed = true
			w.state = stateClosed
		}
		w.mu.Unlock()
		if current {
			close(w.events)
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			closed, current := w.closed, w.conn == conn
			w.mu.Unlock()
			if closed || !current {
				return
			}
			w.events <- transcriber.StreamEvent{
				Kind: transcriber.EventStreamError,
				Err:  fmt.Errorf("%w: %v", transcriber.ErrDisconnected, err),
			}
			return
		}

		ev, fatal, err := decodeStreamEvent(raw)
		if err != nil {
			w.events <- transcriber.StreamEvent{Kind: transcriber.EventStreamError, Err: err}
			return
		}
		if ev != nil {
			w.events <- *ev
		}
		if fatal {
			return
		}
	}
}

// decodeStreamEvent maps one wire message to a typed event. The second
// return is true when the stream is over (done). Unknown session.* types
// are skipped; undecodable payloads are malformed-event errors.
func decodeStreamEvent(raw []byte) (*transcriber.StreamEvent, bool, error) {
	var msg wsIncoming
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false, fmt.Errorf("%w: %v", transcriber.ErrMalformedEvent, err)
	}
	switch msg.Type {
	case "transcription.language":
		return &transcriber.StreamEvent{Kind: transcriber.EventLanguageDetected, Language: msg.AudioLanguage}, false, nil
	case "transcription.text.delta":
		return &transcriber.StreamEvent{Kind: transcriber.EventTextDelta, Text: msg.Text}, false, nil
	case "transcription.segment":
		return &transcriber.StreamEvent{
			Kind:  transcriber.EventSegmentFinal,
			Text:  msg.Text,
			Start: msg.Start,
			End:   msg.End,
		}, false, nil
	case "transcription.done":
		return &transcriber.StreamEvent{Kind: transcriber.EventStreamDone, Text: msg.Text}, true, nil
	case "error":
		return nil, false, fmt.Errorf("%w: server error: %s", transcriber.ErrDisconnected, string(msg.Error))
	case "":
		return nil, false, fmt.Errorf("%w: missing type in %q", transcriber.ErrMalformedEvent, raw)
	default:
		// session.created / session.updated replays and future event types.
		return nil, false, nil
	}
}

func encodePCM(pcm []int16) string {
	buf := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(buf)
}
