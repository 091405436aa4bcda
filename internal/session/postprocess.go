package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/minutier/minutier/internal/repository"
	"github.com/minutier/minutier/internal/transcriber"
)

// postProcess runs the batch leg for one stopped session: whole-file
// diarized transcription, atomic generation swap, summary, title. It runs
// in its own goroutine; several sessions may post-process concurrently
// alongside a new recording. A failure at any step degrades the session to
// failed without touching data produced by earlier steps.
func (o *Orchestrator) postProcess(sessionID, audioPath string) {
	ctx := context.Background()

	result, err := o.batch.Transcribe(ctx, audioPath, true, o.cfg.DefaultLanguage)
	if err != nil {
		o.failSession(sessionID, err)
		return
	}

	inputs := o.diarizedInputs(sessionID, result)
	if err := o.repo.ReplaceSegments(ctx, sessionID, inputs); err != nil {
		o.failSession(sessionID, err)
		return
	}
	slog.Info("diarized generation stored", "session_id", sessionID, "segments", len(inputs))

	transcript := transcriptText(segmentsFromInputs(sessionID, inputs))
	if transcript != "" {
		summary, err := o.assistant.Summarize(ctx, transcript)
		if err != nil {
			o.failSession(sessionID, err)
			return
		}
		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			o.failSession(sessionID, err)
			return
		}
		if err := o.repo.SaveSummary(ctx, sessionID, summaryJSON); err != nil {
			o.failSession(sessionID, err)
			return
		}

		// Title is cosmetic; a failure here never fails the session.
		if title, err := o.assistant.GenerateTitle(ctx, transcript); err != nil {
			slog.Warn("title generation failed", "session_id", sessionID, "error", err)
		} else if title != "" {
			if err := o.repo.UpdateSessionTitle(ctx, sessionID, title); err != nil {
				slog.Warn("title update failed", "session_id", sessionID, "error", err)
			}
		}
	}

	if err := o.repo.UpdateSessionStatus(ctx, sessionID, repository.SessionStatusReady); err != nil {
		o.failSession(sessionID, err)
		return
	}
	o.events.Publish(Event{Kind: EventSessionComplete, SessionID: sessionID})
	slog.Info("session ready", "session_id", sessionID)
}

// ResumeProcessing re-drives sessions a previous run left in processing,
// which happens when the process exits between stop and batch completion.
// A stranded session without an audio artifact cannot be reprocessed and is
// marked failed. Returns the number of sessions resumed.
func (o *Orchestrator) ResumeProcessing(ctx context.Context) (int, error) {
	sessions, err := o.repo.ListSessions(ctx)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, s := range sessions {
		if s.Status != repository.SessionStatusProcessing {
			continue
		}
		if s.AudioPath == "" {
			o.failSession(s.ID, errors.New("no audio artifact to reprocess"))
			continue
		}
		slog.Info("resuming post-processing", "session_id", s.ID)
		go o.postProcess(s.ID, s.AudioPath)
		resumed++
	}
	return resumed, nil
}

// diarizedInputs converts the batch response into the new generation. When
// LOCAL_SPEAKER_LABEL is configured, the first speaker encountered is
// relabeled with it; a display default the user can still override through
// RenameSpeaker.
func (o *Orchestrator) diarizedInputs(sessionID string, result *transcriber.BatchResult) []repository.InsertSegmentInput {
	firstSpeaker := ""
	inputs := make([]repository.InsertSegmentInput, 0, len(result.Segments))
	for i, seg := range result.Segments {
		speaker := seg.Speaker
		if speaker != "" && firstSpeaker == "" {
			firstSpeaker = speaker
		}
		if o.cfg.LocalSpeakerLabel != "" && speaker == firstSpeaker && speaker != "" {
			speaker = o.cfg.LocalSpeakerLabel
		}
		inputs = append(inputs, repository.InsertSegmentInput{
			SessionID:  sessionID,
			Text:       seg.Text,
			StartTime:  seg.Start,
			EndTime:    seg.End,
			Speaker:    speaker,
			IsDiarized: true,
			Sequence:   i,
		})
	}
	return inputs
}

func segmentsFromInputs(sessionID string, inputs []repository.InsertSegmentInput) []repository.Segment {
	segs := make([]repository.Segment, 0, len(inputs))
	for _, in := range inputs {
		segs = append(segs, repository.Segment{
			SessionID:  sessionID,
			Text:       in.Text,
			StartTime:  in.StartTime,
			EndTime:    in.EndTime,
			Speaker:    in.Speaker,
			IsDiarized: in.IsDiarized,
			Sequence:   in.Sequence,
		})
	}
	return segs
}

// transcriptText renders segments as "speaker: text" lines, the layout both
// the assistant prompts and the exporter consume.
func transcriptText(segments []repository.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Speaker != "" {
			lines = append(lines, seg.Speaker+": "+seg.Text)
		} else {
			lines = append(lines, seg.Text)
		}
	}
	return strings.Join(lines, "\n")
}
