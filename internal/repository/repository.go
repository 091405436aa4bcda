// Package repository defines the durable transcript store: session and
// segment CRUD, the atomic generation swap, and full-text search.
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("repository: not found")

type CreateSessionInput struct {
	ID    string
	Title string
	Mode  SessionMode
}

type InsertSegmentInput struct {
	SessionID  string
	Text       string
	StartTime  float64
	EndTime    float64
	Speaker    string
	IsDiarized bool
	Sequence   int
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status SessionStatus) error
	// SetSessionAudio records the artifact path and final duration when the
	// session leaves recording.
	SetSessionAudio(ctx context.Context, id, audioPath string, durationSecs float64) error
	UpdateSessionTitle(ctx context.Context, id, title string) error
	SaveSummary(ctx context.Context, id string, summaryJSON []byte) error
	DeleteSession(ctx context.Context, id string) error
}

type SegmentRepository interface {
	InsertSegment(ctx context.Context, input InsertSegmentInput) (int64, error)
	// ListSegments returns the session's current generation in storage
	// order, which equals ascending start time.
	ListSegments(ctx context.Context, sessionID string) ([]Segment, error)
	// ReplaceSegments swaps the session's entire segment set for a new
	// generation in one transaction; concurrent readers see either all-old
	// or all-new, never a mix.
	ReplaceSegments(ctx context.Context, sessionID string, segments []InsertSegmentInput) error
	RenameSpeaker(ctx context.Context, sessionID, oldName, newName string) (int64, error)
	// SearchSegments runs ranked full-text search, optionally scoped to one
	// session. sessionID empty means all sessions.
	SearchSegments(ctx context.Context, query, sessionID string) ([]SearchMatch, error)
}

type Repository interface {
	SessionRepository
	SegmentRepository
}
