package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('recording', 'processing', 'ready', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE session_mode AS ENUM ('visio', 'in_person'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		mode session_mode NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_secs DOUBLE PRECISION NOT NULL DEFAULT 0,
		status session_status NOT NULL DEFAULT 'recording',
		audio_path TEXT NOT NULL DEFAULT '',
		summary_json JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS segments (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		start_time DOUBLE PRECISION NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		speaker TEXT NOT NULL DEFAULT '',
		is_diarized BOOLEAN NOT NULL DEFAULT FALSE,
		sequence INTEGER NOT NULL,
		text_tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', text)) STORED
	)`,
	`CREATE INDEX IF NOT EXISTS idx_segments_session ON segments (session_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_segments_tsv ON segments USING GIN (text_tsv)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
