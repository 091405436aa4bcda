// Package assistant defines the natural-language Q&A and structured-summary
// contract against the remote completion service, plus the deterministic
// prompt construction it uses.
package assistant

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTimeout = errors.New("assistant: request timed out")
	// ErrParseFailure means the model returned output that does not decode
	// into the constrained structure. Never silently degraded to a partial
	// summary.
	ErrParseFailure = errors.New("assistant: malformed structured output")
)

// ActionItem is a follow-up extracted from the meeting.
type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
}

// Summary is the structured post-meeting digest.
type Summary struct {
	KeyPoints   []string     `json:"key_points"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`
}

// Client answers questions against a transcript and produces summaries.
type Client interface {
	Search(ctx context.Context, transcript, query string) (string, error)
	Summarize(ctx context.Context, transcript string) (*Summary, error)
	// GenerateTitle proposes a short session title from the transcript.
	GenerateTitle(ctx context.Context, transcript string) (string, error)
}

const (
	searchSystemPrompt = "You are an assistant answering questions about a meeting transcript. " +
		"Answer concisely and precisely using only the transcript provided. " +
		"If the information is not in the transcript, say so."

	summarySystemPrompt = "You are an assistant specialized in meeting synthesis. " +
		"From the transcript provided, produce a structured summary as JSON with these fields:\n" +
		"- key_points: list of the key points discussed\n" +
		"- decisions: list of the decisions taken\n" +
		"- action_items: list of follow-ups, each with 'description' and 'assignee' (null when unknown)\n" +
		"Respond ONLY with the JSON, no text before or after."

	titleSystemPrompt = "Propose a short title (at most eight words) for the meeting transcript " +
		"provided. Respond with the title only."
)

// SearchSystemPrompt returns the fixed system prompt for transcript Q&A.
func SearchSystemPrompt() string { return searchSystemPrompt }

// SummarySystemPrompt returns the fixed constrained-extraction prompt.
func SummarySystemPrompt() string { return summarySystemPrompt }

// TitleSystemPrompt returns the fixed title-generation prompt.
func TitleSystemPrompt() string { return titleSystemPrompt }

// BuildSearchPrompt concatenates transcript and query with fixed delimiters.
// Pure string assembly so it is testable without the network.
func BuildSearchPrompt(transcript, query string) string {
	var b strings.Builder
	b.WriteString("Meeting transcript:\n\n")
	b.WriteString(transcript)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// BuildSummaryPrompt wraps the transcript for the summary request.
func BuildSummaryPrompt(transcript string) string {
	return "Meeting transcript:\n\n" + transcript
}
