package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/export"
	"github.com/minutier/minutier/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetail() export.SessionDetail {
	return export.SessionDetail{
		Session: repository.Session{
			ID:           "abc-123",
			Title:        "Q3 Planning",
			Mode:         repository.ModeVisio,
			CreatedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
			DurationSecs: 754,
			Status:       repository.SessionStatusReady,
		},
		Segments: []repository.Segment{
			{Text: "welcome everyone", StartTime: 0, EndTime: 2.5, Speaker: "Me", IsDiarized: true, Sequence: 0},
			{Text: "thanks for joining", StartTime: 2.5, EndTime: 4, Speaker: "speaker_1", IsDiarized: true, Sequence: 1},
			{Text: "unattributed aside", StartTime: 4, EndTime: 5, Sequence: 2},
		},
		Summary: &assistant.Summary{
			KeyPoints: []string{"budget locked"},
			Decisions: []string{"ship in April"},
			ActionItems: []assistant.ActionItem{
				{Description: "draft announcement", Assignee: "speaker_1"},
				{Description: "book venue"},
			},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc := RenderMarkdown(testDetail())

	assert.True(t, strings.HasPrefix(doc, "# Q3 Planning\n"))
	assert.Contains(t, doc, "- Date: 2026-03-14 10:30")
	assert.Contains(t, doc, "- Duration: 12m34s")
	assert.Contains(t, doc, "### Key points\n\n- budget locked")
	assert.Contains(t, doc, "### Decisions\n\n- ship in April")
	assert.Contains(t, doc, "- draft announcement (speaker_1)")
	assert.Contains(t, doc, "- book venue\n")
	assert.Contains(t, doc, "**[00:00] Me:** welcome everyone")
	assert.Contains(t, doc, "**[00:02] speaker_1:** thanks for joining")
	assert.Contains(t, doc, "**[00:04]** unattributed aside")
}

func TestRenderMarkdown_NoSummary(t *testing.T) {
	detail := testDetail()
	detail.Summary = nil
	doc := RenderMarkdown(detail)
	assert.NotContains(t, doc, "## Summary")
	assert.Contains(t, doc, "## Transcript")
}

func TestExport_WritesFile(t *testing.T) {
	dir := t.TempDir()
	e := NewMarkdownExporter(filepath.Join(dir, "exports"))

	path, err := e.Export(testDetail(), FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "abc-123.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Q3 Planning")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e := NewMarkdownExporter(t.TempDir())
	_, err := e.Export(testDetail(), "pdf")
	assert.True(t, errors.Is(err, export.ErrUnsupportedFormat))
}

func TestFormatTimestamp_Hours(t *testing.T) {
	if got := formatTimestamp(3725); got != "1:02:05" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
	if got := formatTimestamp(65); got != "01:05" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
}
