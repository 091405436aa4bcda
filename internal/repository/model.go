package repository

import "time"

type SessionStatus string

const (
	SessionStatusRecording  SessionStatus = "recording"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusReady      SessionStatus = "ready"
	SessionStatusFailed     SessionStatus = "failed"
)

type SessionMode string

const (
	ModeVisio    SessionMode = "visio"
	ModeInPerson SessionMode = "in_person"
)

type Session struct {
	ID           string
	Title        string
	Mode         SessionMode
	CreatedAt    time.Time
	DurationSecs float64
	Status       SessionStatus
	AudioPath    string
	SummaryJSON  []byte
}

// Segment is one timestamped unit of transcribed speech. A session's
// segments all belong to one generation at a time: live (IsDiarized false)
// or diarized.
type Segment struct {
	ID         int64
	SessionID  string
	Text       string
	StartTime  float64
	EndTime    float64
	Speaker    string
	IsDiarized bool
	Sequence   int
}

// HighlightSpan is a [Start, End) byte range of a query match inside a
// segment's text.
type HighlightSpan struct {
	Start int
	End   int
}

// SearchMatch is one ranked full-text search hit.
type SearchMatch struct {
	Segment    Segment
	Rank       float64
	Highlights []HighlightSpan
}
