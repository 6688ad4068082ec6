package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/itsakeyfut/rendergraph"
)

// AddPassRecord inserts a single pass into a pipeline.
// If rec.ID is empty, a UUID is auto-generated. The referenced resource ids
// must already exist in the pipeline, and the new depends_on edges must not
// create a cycle among the pipeline's explicit dependencies.
// Returns the pass id (generated or provided).
func (s *PGStore) AddPassRecord(ctx context.Context, pipelineID string, rec *rendergraph.PassRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	resources, err := s.ListResourceRecords(ctx, pipelineID)
	if err != nil {
		return "", err
	}
	passes, err := s.ListPassRecords(ctx, pipelineID)
	if err != nil {
		return "", err
	}

	passes = append(passes, *rec)
	if err := validatePassRefs(rec, resources, passes); err != nil {
		return "", err
	}
	if err := (&rendergraph.Pipeline{ID: pipelineID, Passes: passes}).Validate(); err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO render_passes (id, pipeline_id, name, enabled, reads, writes, read_writes, depends_on, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, pipelineID, rec.Name, rec.IsEnabled(),
		emptyIfNil(rec.Reads), emptyIfNil(rec.Writes), emptyIfNil(rec.ReadWrites), emptyIfNil(rec.DependsOn),
		normalizeData(rec.Data),
	)
	if err != nil {
		return "", fmt.Errorf("rendergraph: insert pass: %w", err)
	}

	return rec.ID, nil
}

// GetPassRecord fetches a single pass by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetPassRecord(ctx context.Context, recID string) (*rendergraph.PassRecord, error) {
	var rec rendergraph.PassRecord
	var enabled bool
	err := s.db.QueryRow(ctx,
		`SELECT id, name, enabled, reads, writes, read_writes, depends_on, data FROM render_passes WHERE id = $1`, recID,
	).Scan(&rec.ID, &rec.Name, &enabled, &rec.Reads, &rec.Writes, &rec.ReadWrites, &rec.DependsOn, &rec.Data)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rendergraph: get pass: %w", err)
	}

	rec.Enabled = &enabled
	return &rec, nil
}

// UpdatePassRecord updates an existing pass's name, enabled flag, usage
// lists, depends_on, and data. The updated depends_on edges are validated
// against the rest of the pipeline.
// Returns ErrPassRecordNotFound if the pass doesn't exist.
func (s *PGStore) UpdatePassRecord(ctx context.Context, rec *rendergraph.PassRecord) error {
	// First find the pass's pipeline_id.
	var pipelineID string
	err := s.db.QueryRow(ctx,
		`SELECT pipeline_id FROM render_passes WHERE id = $1`, rec.ID,
	).Scan(&pipelineID)
	if err != nil {
		if isNoRows(err) {
			return rendergraph.ErrPassRecordNotFound
		}
		return fmt.Errorf("rendergraph: find pass: %w", err)
	}

	resources, err := s.ListResourceRecords(ctx, pipelineID)
	if err != nil {
		return err
	}
	passes, err := s.ListPassRecords(ctx, pipelineID)
	if err != nil {
		return err
	}

	// Replace the updated pass in the list before validating.
	for i := range passes {
		if passes[i].ID == rec.ID {
			passes[i] = *rec
			break
		}
	}
	if err := validatePassRefs(rec, resources, passes); err != nil {
		return err
	}
	if err := (&rendergraph.Pipeline{ID: pipelineID, Passes: passes}).Validate(); err != nil {
		return err
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE render_passes SET name = $1, enabled = $2, reads = $3, writes = $4, read_writes = $5, depends_on = $6, data = $7 WHERE id = $8`,
		rec.Name, rec.IsEnabled(),
		emptyIfNil(rec.Reads), emptyIfNil(rec.Writes), emptyIfNil(rec.ReadWrites), emptyIfNil(rec.DependsOn),
		normalizeData(rec.Data), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("rendergraph: update pass: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return rendergraph.ErrPassRecordNotFound
	}
	return nil
}

// DeletePassRecord deletes a pass by its ID and scrubs it from other passes'
// depends_on lists, so stored pipelines never hold dangling explicit edges.
// No error if the pass doesn't exist.
func (s *PGStore) DeletePassRecord(ctx context.Context, recID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rendergraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM render_passes WHERE id = $1`, recID); err != nil {
		return fmt.Errorf("rendergraph: delete pass: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE render_passes SET depends_on = array_remove(depends_on, $1) WHERE $1 = ANY(depends_on)`, recID,
	); err != nil {
		return fmt.Errorf("rendergraph: scrub depends_on: %w", err)
	}

	return tx.Commit(ctx)
}

// ListPassRecords returns all passes for a pipelineID, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListPassRecords(ctx context.Context, pipelineID string) ([]rendergraph.PassRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, enabled, reads, writes, read_writes, depends_on, data FROM render_passes WHERE pipeline_id = $1 ORDER BY created_at`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("rendergraph: list passes: %w", err)
	}
	defer rows.Close()

	passes := []rendergraph.PassRecord{}
	for rows.Next() {
		var rec rendergraph.PassRecord
		var enabled bool
		if err := rows.Scan(&rec.ID, &rec.Name, &enabled, &rec.Reads, &rec.Writes, &rec.ReadWrites, &rec.DependsOn, &rec.Data); err != nil {
			return nil, fmt.Errorf("rendergraph: scan pass: %w", err)
		}
		rec.Enabled = &enabled
		passes = append(passes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rendergraph: rows passes: %w", err)
	}

	return passes, nil
}

// validatePassRefs checks that every resource id a pass touches and every
// pass id it depends on exists in the pipeline.
func validatePassRefs(rec *rendergraph.PassRecord, resources []rendergraph.ResourceRecord, passes []rendergraph.PassRecord) error {
	resourceIDs := make(map[string]struct{}, len(resources))
	for i := range resources {
		resourceIDs[resources[i].ID] = struct{}{}
	}
	passIDs := make(map[string]struct{}, len(passes))
	for i := range passes {
		passIDs[passes[i].ID] = struct{}{}
	}

	for _, list := range [][]string{rec.Reads, rec.Writes, rec.ReadWrites} {
		for _, id := range list {
			if _, ok := resourceIDs[id]; !ok {
				return fmt.Errorf("%w: pass %q references resource %q", rendergraph.ErrUnknownRef, rec.ID, id)
			}
		}
	}
	for _, id := range rec.DependsOn {
		if _, ok := passIDs[id]; !ok {
			return fmt.Errorf("%w: pass %q depends on %q", rendergraph.ErrUnknownRef, rec.ID, id)
		}
	}
	return nil
}
