package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/minutier/minutier/internal/resilience"
	"github.com/minutier/minutier/internal/transcriber"
)

type BatchConfig struct {
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// BatchHTTPTranscriber uploads a finished recording for whole-file
// transcription with speaker diarization.
type BatchHTTPTranscriber struct {
	cfg    BatchConfig
	client *http.Client
}

func NewBatchHTTPTranscriber(cfg BatchConfig) transcriber.BatchTranscriber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &BatchHTTPTranscriber{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// batchResponse is the transcription endpoint's JSON body. Older API
// revisions label the diarized speaker "speaker" instead of "speaker_id";
// both are accepted.
type batchResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Segments []struct {
		Text      string  `json:"text"`
		Start     float64 `json:"start"`
		End       float64 `json:"end"`
		SpeakerID string  `json:"speaker_id"`
		Speaker   string  `json:"speaker"`
	} `json:"segments"`
}

func (t *BatchHTTPTranscriber) Transcribe(ctx context.Context, audioPath string, diarize bool, language string) (*transcriber.BatchResult, error) {
	payload, contentType, err := t.buildRequestBody(audioPath, diarize, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transcriber.ErrUploadFailed, err)
	}

	var result *transcriber.BatchResult
	err = resilience.Retry(ctx, resilience.Config{MaxRetries: t.cfg.MaxRetries}, func() error {
		var attemptErr error
		result, attemptErr = t.doRequest(ctx, payload, contentType)
		return attemptErr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, fmt.Errorf("%w: %v", transcriber.ErrBatchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", transcriber.ErrUploadFailed, err)
	}

	if len(result.Segments) == 0 && result.Text == "" {
		return nil, fmt.Errorf("%w: empty transcription for %s", transcriber.ErrDiarizationFailed, filepath.Base(audioPath))
	}
	if diarize && !hasSpeakers(result.Segments) {
		slog.Warn("diarization requested but response carries no speakers", "path", audioPath)
	}
	return result, nil
}

// buildRequestBody assembles the multipart form. The body is buffered in
// memory so a retried attempt can resend the same bytes.
func (t *BatchHTTPTranscriber) buildRequestBody(audioPath string, diarize bool, language string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	fields := map[string]string{
		"model":                   t.cfg.Model,
		"timestamp_granularities": "segment",
	}
	if diarize {
		fields["diarize"] = "true"
	}
	if language != "" {
		fields["language"] = language
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (t *BatchHTTPTranscriber) doRequest(ctx context.Context, payload []byte, contentType string) (*transcriber.BatchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, resilience.MarkTransient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, resilience.MarkTransient(err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("transcription endpoint returned %d: %s", resp.StatusCode, truncate(body, 256))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.MarkTransient(err)
		}
		return nil, err
	}

	var decoded batchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return toBatchResult(decoded), nil
}

func toBatchResult(decoded batchResponse) *transcriber.BatchResult {
	result := &transcriber.BatchResult{
		Text:     decoded.Text,
		Language: decoded.Language,
		Segments: make([]transcriber.BatchSegment, 0, len(decoded.Segments)),
	}
	for _, seg := range decoded.Segments {
		speaker := seg.SpeakerID
		if speaker == "" {
			speaker = seg.Speaker
		}
		result.Segments = append(result.Segments, transcriber.BatchSegment{
			Text:    seg.Text,
			Start:   seg.Start,
			End:     seg.End,
			Speaker: speaker,
		})
	}
	return result
}

func hasSpeakers(segments []transcriber.BatchSegment) bool {
	for _, seg := range segments {
		if seg.Speaker != "" {
			return true
		}
	}
	return false
}

func isClientTimeout(err error) bool {
	var ue interface{ Timeout() bool }
	return errors.As(err, &ue) && ue.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
