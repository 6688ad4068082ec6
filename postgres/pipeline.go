package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/itsakeyfut/rendergraph"
)

// CreatePipeline saves a full pipeline (resources + passes) in one
// transaction with replace semantics. Records without ids get auto-generated
// UUIDs, refs in usage and depends_on lists are resolved to real record ids,
// and the explicit dependency edges are validated acyclic before anything is
// written. Returns the pipeline with all ids filled in and refs cleared.
func (s *PGStore) CreatePipeline(ctx context.Context, p *rendergraph.Pipeline) (*rendergraph.Pipeline, error) {
	if err := p.Resolve(uuid.NewString); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendergraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing pipeline data if any (replace semantics).
	if _, err := tx.Exec(ctx, `DELETE FROM render_passes WHERE pipeline_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("rendergraph: delete passes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM render_resources WHERE pipeline_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("rendergraph: delete resources: %w", err)
	}

	for _, r := range p.Resources {
		if _, err := tx.Exec(ctx,
			`INSERT INTO render_resources (id, pipeline_id, name, kind, external, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, p.ID, r.Name, r.Kind, r.External, normalizeData(r.Data),
		); err != nil {
			return nil, fmt.Errorf("rendergraph: insert resource %s: %w", r.ID, err)
		}
	}

	for _, rec := range p.Passes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO render_passes (id, pipeline_id, name, enabled, reads, writes, read_writes, depends_on, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.ID, p.ID, rec.Name, rec.IsEnabled(),
			emptyIfNil(rec.Reads), emptyIfNil(rec.Writes), emptyIfNil(rec.ReadWrites), emptyIfNil(rec.DependsOn),
			normalizeData(rec.Data),
		); err != nil {
			return nil, fmt.Errorf("rendergraph: insert pass %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("rendergraph: commit: %w", err)
	}

	// Refs are build-time keys only and are not persisted.
	p.ClearRefs()

	return p, nil
}

// GetPipeline retrieves a full pipeline (resources + passes) by its ID.
// Returns nil, nil if nothing exists for the pipelineID.
func (s *PGStore) GetPipeline(ctx context.Context, pipelineID string) (*rendergraph.Pipeline, error) {
	resources, err := s.ListResourceRecords(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	passes, err := s.ListPassRecords(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	if len(resources) == 0 && len(passes) == 0 {
		return nil, nil
	}

	return &rendergraph.Pipeline{ID: pipelineID, Resources: resources, Passes: passes}, nil
}

// DeletePipeline removes all resources and passes for a pipelineID.
// No error if the pipelineID doesn't exist.
func (s *PGStore) DeletePipeline(ctx context.Context, pipelineID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rendergraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM render_passes WHERE pipeline_id = $1`, pipelineID); err != nil {
		return fmt.Errorf("rendergraph: delete passes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM render_resources WHERE pipeline_id = $1`, pipelineID); err != nil {
		return fmt.Errorf("rendergraph: delete resources: %w", err)
	}

	return tx.Commit(ctx)
}

// normalizeData keeps the JSONB column non-null for records without payloads.
func normalizeData(data []byte) []byte {
	if len(data) == 0 {
		return []byte(`{}`)
	}
	return data
}

// emptyIfNil keeps the TEXT[] columns non-null for records without entries.
func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
