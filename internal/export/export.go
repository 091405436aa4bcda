// Package export defines the collaborator contract for writing a session
// out of the system. Formatting beyond the bundled markdown writer lives
// with the consumer.
package export

import (
	"errors"

	"github.com/minutier/minutier/internal/assistant"
	"github.com/minutier/minutier/internal/repository"
)

// ErrUnsupportedFormat is returned for formats no exporter handles.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// SessionDetail is everything an exporter needs to render a session.
type SessionDetail struct {
	Session  repository.Session
	Segments []repository.Segment
	Summary  *assistant.Summary
}

// SessionExporter renders a session to a file and returns its path.
type SessionExporter interface {
	Export(detail SessionDetail, format string) (string, error)
}
