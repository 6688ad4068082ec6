package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS render_resources (
    id          TEXT PRIMARY KEY,
    pipeline_id TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    kind        TEXT NOT NULL,
    external    BOOLEAN NOT NULL DEFAULT FALSE,
    data        JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS render_passes (
    id          TEXT PRIMARY KEY,
    pipeline_id TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    enabled     BOOLEAN NOT NULL DEFAULT TRUE,
    reads       TEXT[] NOT NULL DEFAULT '{}',
    writes      TEXT[] NOT NULL DEFAULT '{}',
    read_writes TEXT[] NOT NULL DEFAULT '{}',
    depends_on  TEXT[] NOT NULL DEFAULT '{}',
    data        JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_render_resources_pipeline ON render_resources(pipeline_id);
CREATE INDEX IF NOT EXISTS idx_render_passes_pipeline    ON render_passes(pipeline_id);
`

// CreateSchema creates the render_resources and render_passes tables if they
// don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the render_passes and render_resources tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS render_passes, render_resources CASCADE;`)
	return err
}
