// Package export renders sessions to files. Markdown is the only bundled
// format.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minutier/minutier/internal/export"
)

const FormatMarkdown = "markdown"

type MarkdownExporter struct {
	dir string
}

func NewMarkdownExporter(dir string) export.SessionExporter {
	return &MarkdownExporter{dir: dir}
}

func (e *MarkdownExporter) Export(detail export.SessionDetail, format string) (string, error) {
	if format != FormatMarkdown && format != "md" {
		return "", fmt.Errorf("%w: %s", export.ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, detail.Session.ID+".md")
	if err := os.WriteFile(path, []byte(RenderMarkdown(detail)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// RenderMarkdown produces the document: title, metadata, the structured
// summary when present, then the timestamped transcript.
func RenderMarkdown(detail export.SessionDetail) string {
	var b strings.Builder

	title := detail.Session.Title
	if title == "" {
		title = "Meeting " + detail.Session.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Date: %s\n", detail.Session.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Duration: %s\n", formatDuration(detail.Session.DurationSecs))
	fmt.Fprintf(&b, "- Mode: %s\n\n", detail.Session.Mode)

	if s := detail.Summary; s != nil {
		b.WriteString("## Summary\n\n")
		if len(s.KeyPoints) > 0 {
			b.WriteString("### Key points\n\n")
			for _, p := range s.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", p)
			}
			b.WriteString("\n")
		}
		if len(s.Decisions) > 0 {
			b.WriteString("### Decisions\n\n")
			for _, d := range s.Decisions {
				fmt.Fprintf(&b, "- %s\n", d)
			}
			b.WriteString("\n")
		}
		if len(s.ActionItems) > 0 {
			b.WriteString("### Action items\n\n")
			for _, a := range s.ActionItems {
				if a.Assignee != "" {
					fmt.Fprintf(&b, "- %s (%s)\n", a.Description, a.Assignee)
				} else {
					fmt.Fprintf(&b, "- %s\n", a.Description)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Transcript\n\n")
	for _, seg := range detail.Segments {
		stamp := formatTimestamp(seg.StartTime)
		if seg.Speaker != "" {
			fmt.Fprintf(&b, "**[%s] %s:** %s\n\n", stamp, seg.Speaker, seg.Text)
		} else {
			fmt.Fprintf(&b, "**[%s]** %s\n\n", stamp, seg.Text)
		}
	}
	return b.String()
}

func formatTimestamp(secs float64) string {
	total := int(secs)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatDuration(secs float64) string {
	total := int(secs)
	m, s := total/60, total%60
	return fmt.Sprintf("%dm%02ds", m, s)
}
