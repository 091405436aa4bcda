// Package repository implements the transcript store on PostgreSQL. Search
// is backed by a generated tsvector column with a GIN index; match ranking
// comes from ts_rank and highlight offsets are computed in Go over the
// matched rows.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minutier/minutier/internal/repository"
)

const searchResultLimit = 100

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, title, mode, status)
		 VALUES ($1, $2, $3, 'recording')
		 RETURNING id, title, mode, created_at, duration_secs, status, audio_path, COALESCE(summary_json, 'null'::jsonb)`,
		input.ID, input.Title, input.Mode)
	return scanSession(row)
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, mode, created_at, duration_secs, status, audio_path, COALESCE(summary_json, 'null'::jsonb)
		 FROM sessions WHERE id = $1`,
		id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) ListSessions(ctx context.Context) ([]repository.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, mode, created_at, duration_secs, status, audio_path, COALESCE(summary_json, 'null'::jsonb)
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) UpdateSessionStatus(ctx context.Context, id string, status repository.SessionStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetSessionAudio(ctx context.Context, id, audioPath string, durationSecs float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET audio_path = $2, duration_secs = $3 WHERE id = $1`,
		id, audioPath, durationSecs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateSessionTitle(ctx context.Context, id, title string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, id string, summaryJSON []byte) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET summary_json = $2 WHERE id = $1`, id, summaryJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) InsertSegment(ctx context.Context, input repository.InsertSegmentInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO segments (session_id, text, start_time, end_time, speaker, is_diarized, sequence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		input.SessionID, input.Text, input.StartTime, input.EndTime,
		input.Speaker, input.IsDiarized, input.Sequence).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) ListSegments(ctx context.Context, sessionID string) ([]repository.Segment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, text, start_time, end_time, speaker, is_diarized, sequence
		 FROM segments WHERE session_id = $1 ORDER BY start_time ASC, sequence ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Segment
	for rows.Next() {
		var seg repository.Segment
		if err := rows.Scan(&seg.ID, &seg.SessionID, &seg.Text, &seg.StartTime,
			&seg.EndTime, &seg.Speaker, &seg.IsDiarized, &seg.Sequence); err != nil {
			return nil, err
		}
		list = append(list, seg)
	}
	return list, rows.Err()
}

// ReplaceSegments swaps the session's whole segment set in one transaction.
// An advisory lock keyed on the session serializes concurrent swaps; readers
// outside the transaction see either the old or the new generation.
func (r *PostgresRepository) ReplaceSegments(ctx context.Context, sessionID string, segments []repository.InsertSegmentInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM segments WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.SessionID != sessionID {
			return fmt.Errorf("segment targets session %s, want %s", seg.SessionID, sessionID)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO segments (session_id, text, start_time, end_time, speaker, is_diarized, sequence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			seg.SessionID, seg.Text, seg.StartTime, seg.EndTime,
			seg.Speaker, seg.IsDiarized, seg.Sequence); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) RenameSpeaker(ctx context.Context, sessionID, oldName, newName string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE segments SET speaker = $3 WHERE session_id = $1 AND speaker = $2`,
		sessionID, oldName, newName)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) SearchSegments(ctx context.Context, query, sessionID string) ([]repository.SearchMatch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, text, start_time, end_time, speaker, is_diarized, sequence,
		        ts_rank(text_tsv, websearch_to_tsquery('simple', $1)) AS rank
		 FROM segments
		 WHERE text_tsv @@ websearch_to_tsquery('simple', $1)
		   AND ($2 = '' OR session_id::text = $2)
		 ORDER BY rank DESC, session_id, sequence
		 LIMIT $3`,
		query, sessionID, searchResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []repository.SearchMatch
	for rows.Next() {
		var m repository.SearchMatch
		if err := rows.Scan(&m.Segment.ID, &m.Segment.SessionID, &m.Segment.Text,
			&m.Segment.StartTime, &m.Segment.EndTime, &m.Segment.Speaker,
			&m.Segment.IsDiarized, &m.Segment.Sequence, &m.Rank); err != nil {
			return nil, err
		}
		m.Highlights = highlightSpans(m.Segment.Text, query)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

type sessionScanner interface {
	Scan(dest ...any) error
}

func scanSession(row sessionScanner) (*repository.Session, error) {
	var s repository.Session
	err := row.Scan(&s.ID, &s.Title, &s.Mode, &s.CreatedAt, &s.DurationSecs,
		&s.Status, &s.AudioPath, &s.SummaryJSON)
	if err != nil {
		return nil, err
	}
	if string(s.SummaryJSON) == "null" {
		s.SummaryJSON = nil
	}
	return &s, nil
}
