package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/itsakeyfut/rendergraph"
)

// AddResourceRecord inserts a single resource into a pipeline.
// If rec.ID is empty, a UUID is auto-generated. The kind must be one of the
// known resource kinds.
// Returns the resource id (generated or provided).
func (s *PGStore) AddResourceRecord(ctx context.Context, pipelineID string, rec *rendergraph.ResourceRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err := rendergraph.ParseKind(rec.Kind); err != nil {
		return "", err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO render_resources (id, pipeline_id, name, kind, external, data) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, pipelineID, rec.Name, rec.Kind, rec.External, normalizeData(rec.Data),
	)
	if err != nil {
		return "", fmt.Errorf("rendergraph: insert resource: %w", err)
	}

	return rec.ID, nil
}

// GetResourceRecord fetches a single resource by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetResourceRecord(ctx context.Context, recID string) (*rendergraph.ResourceRecord, error) {
	var rec rendergraph.ResourceRecord
	err := s.db.QueryRow(ctx,
		`SELECT id, name, kind, external, data FROM render_resources WHERE id = $1`, recID,
	).Scan(&rec.ID, &rec.Name, &rec.Kind, &rec.External, &rec.Data)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rendergraph: get resource: %w", err)
	}

	return &rec, nil
}

// UpdateResourceRecord updates the name, kind, external flag, and data of an
// existing resource.
// Returns ErrResourceRecordNotFound if the resource doesn't exist.
func (s *PGStore) UpdateResourceRecord(ctx context.Context, rec *rendergraph.ResourceRecord) error {
	if _, err := rendergraph.ParseKind(rec.Kind); err != nil {
		return err
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE render_resources SET name = $1, kind = $2, external = $3, data = $4 WHERE id = $5`,
		rec.Name, rec.Kind, rec.External, normalizeData(rec.Data), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("rendergraph: update resource: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return rendergraph.ErrResourceRecordNotFound
	}
	return nil
}

// DeleteResourceRecord deletes a resource by its ID and scrubs it from every
// pass's usage lists, so stored pipelines never reference a missing resource.
// No error if the resource doesn't exist.
func (s *PGStore) DeleteResourceRecord(ctx context.Context, recID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rendergraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM render_resources WHERE id = $1`, recID); err != nil {
		return fmt.Errorf("rendergraph: delete resource: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE render_passes
		 SET reads = array_remove(reads, $1), writes = array_remove(writes, $1), read_writes = array_remove(read_writes, $1)
		 WHERE $1 = ANY(reads) OR $1 = ANY(writes) OR $1 = ANY(read_writes)`, recID,
	); err != nil {
		return fmt.Errorf("rendergraph: scrub usages: %w", err)
	}

	return tx.Commit(ctx)
}

// ListResourceRecords returns all resources for a pipelineID, ordered by
// created_at. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListResourceRecords(ctx context.Context, pipelineID string) ([]rendergraph.ResourceRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, kind, external, data FROM render_resources WHERE pipeline_id = $1 ORDER BY created_at`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("rendergraph: list resources: %w", err)
	}
	defer rows.Close()

	resources := []rendergraph.ResourceRecord{}
	for rows.Next() {
		var rec rendergraph.ResourceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Kind, &rec.External, &rec.Data); err != nil {
			return nil, fmt.Errorf("rendergraph: scan resource: %w", err)
		}
		resources = append(resources, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rendergraph: rows resources: %w", err)
	}

	return resources, nil
}
