package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/export"
	"github.com/minutier/minutier/internal/repository"
)

// The methods below are the command surface the UI shell consumes.

func (o *Orchestrator) GetSessions(ctx context.Context) ([]repository.Session, error) {
	return o.repo.ListSessions(ctx)
}

func (o *Orchestrator) GetSessionDetail(ctx context.Context, sessionID string) (*export.SessionDetail, error) {
	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	segments, err := o.repo.ListSegments(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var summary *assistant.Summary
	if len(sess.SummaryJSON) > 0 {
		var s assistant.Summary
		if err := json.Unmarshal(sess.SummaryJSON, &s); err == nil {
			summary = &s
		}
	}
	return &export.SessionDetail{Session: *sess, Segments: segments, Summary: summary}, nil
}

// SearchText runs ranked full-text search over stored segments, optionally
// scoped to one session.
func (o *Orchestrator) SearchText(ctx context.Context, query, sessionID string) ([]repository.SearchMatch, error) {
	return o.repo.SearchSegments(ctx, query, sessionID)
}

// SearchAssistant answers a natural-language question against the session's
// current segment generation, live or diarized.
func (o *Orchestrator) SearchAssistant(ctx context.Context, sessionID, query string) (string, error) {
	segments, err := o.repo.ListSegments(ctx, sessionID)
	if err != nil {
		return "", err
	}
	transcript := transcriptText(segments)
	if transcript == "" {
		return "", ErrNoTranscript
	}
	return o.assistant.Search(ctx, transcript, query)
}

func (o *Orchestrator) RenameSpeaker(ctx context.Context, sessionID, oldName, newName string) (int64, error) {
	return o.repo.RenameSpeaker(ctx, sessionID, oldName, newName)
}

func (o *Orchestrator) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	return o.repo.UpdateSessionTitle(ctx, sessionID, title)
}

func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	if o.active != nil && o.active.id == sessionID {
		o.mu.Unlock()
		return fmt.Errorf("session: cannot delete the recording session %s", sessionID)
	}
	o.mu.Unlock()
	return o.repo.DeleteSession(ctx, sessionID)
}

// ExportSession renders a session through the exporter collaborator and
// returns the written file path.
func (o *Orchestrator) ExportSession(ctx context.Context, sessionID, format string) (string, error) {
	detail, err := o.GetSessionDetail(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return o.exporter.Export(*detail, format)
}
