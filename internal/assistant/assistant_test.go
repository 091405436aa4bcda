package assistant

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildSearchPrompt_Deterministic(t *testing.T) {
	a := BuildSearchPrompt("Alice: hello\nBob: hi", "who spoke first?")
	b := BuildSearchPrompt("Alice: hello\nBob: hi", "who spoke first?")
	if a != b {
		t.Fatal("prompt must be deterministic")
	}
	if !strings.HasPrefix(a, "Meeting transcript:\n\n") {
		t.Fatalf("unexpected prefix: %q", a[:30])
	}
	if !strings.Contains(a, "\n\nQuestion: who spoke first?") {
		t.Fatalf("query delimiter missing in %q", a)
	}
}

func TestBuildSearchPrompt_KeepsTranscriptVerbatim(t *testing.T) {
	transcript := "line1\nline2"
	p := BuildSearchPrompt(transcript, "q")
	if !strings.Contains(p, transcript) {
		t.Fatal("transcript must appear verbatim")
	}
}

func TestSummary_JSONShape(t *testing.T) {
	raw := `{
		"key_points": ["budget Q3", "sprint review"],
		"decisions": ["ship one week later"],
		"action_items": [
			{"description": "update the plan", "assignee": "Sasha"},
			{"description": "send revised budget"}
		]
	}`
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.KeyPoints) != 2 || len(s.Decisions) != 1 || len(s.ActionItems) != 2 {
		t.Fatalf("unexpected shape: %+v", s)
	}
	if s.ActionItems[0].Assignee != "Sasha" {
		t.Fatalf("expected assignee, got %q", s.ActionItems[0].Assignee)
	}
	if s.ActionItems[1].Assignee != "" {
		t.Fatal("missing assignee must stay empty")
	}
}
