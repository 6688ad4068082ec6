// Package memstore provides a thread-safe, in-memory implementation of the
// rendergraph.Store interface. It is suitable for tests, the example, or any
// caller that does not need pipelines to outlive the process.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/itsakeyfut/rendergraph"
)

// Store is an in-memory rendergraph.Store. The zero value is not usable;
// call New.
type Store struct {
	mu        sync.RWMutex
	pipelines map[string]*pipelineState
}

// pipelineState keeps records in insertion order, mirroring the created_at
// ordering of the postgres store.
type pipelineState struct {
	resources []rendergraph.ResourceRecord
	passes    []rendergraph.PassRecord
}

var _ rendergraph.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{pipelines: make(map[string]*pipelineState)}
}

// CreateSchema is a no-op; the in-memory store needs no schema.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards every stored pipeline.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines = make(map[string]*pipelineState)
	return nil
}

// CreatePipeline stores a full pipeline with replace semantics, resolving
// refs and validating explicit dependencies exactly like the postgres store.
func (s *Store) CreatePipeline(ctx context.Context, p *rendergraph.Pipeline) (*rendergraph.Pipeline, error) {
	if err := p.Resolve(uuid.NewString); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ClearRefs()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines[p.ID] = &pipelineState{
		resources: append([]rendergraph.ResourceRecord(nil), p.Resources...),
		passes:    append([]rendergraph.PassRecord(nil), p.Passes...),
	}
	return p, nil
}

// GetPipeline returns a copy of the stored pipeline, or nil, nil if absent.
func (s *Store) GetPipeline(ctx context.Context, pipelineID string) (*rendergraph.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.pipelines[pipelineID]
	if !ok {
		return nil, nil
	}
	return &rendergraph.Pipeline{
		ID:        pipelineID,
		Resources: append([]rendergraph.ResourceRecord(nil), st.resources...),
		Passes:    append([]rendergraph.PassRecord(nil), st.passes...),
	}, nil
}

// DeletePipeline removes a pipeline. No error if it doesn't exist.
func (s *Store) DeletePipeline(ctx context.Context, pipelineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pipelines, pipelineID)
	return nil
}

// AddPassRecord appends a pass to a pipeline, creating the pipeline if
// needed. References and explicit-dependency acyclicity are validated first.
func (s *Store) AddPassRecord(ctx context.Context, pipelineID string, rec *rendergraph.PassRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.pipelines[pipelineID]
	if st == nil {
		st = &pipelineState{}
		s.pipelines[pipelineID] = st
	}

	passes := append(append([]rendergraph.PassRecord(nil), st.passes...), *rec)
	if err := validatePassRefs(rec, st.resources, passes); err != nil {
		return "", err
	}
	if err := (&rendergraph.Pipeline{ID: pipelineID, Passes: passes}).Validate(); err != nil {
		return "", err
	}

	st.passes = passes
	return rec.ID, nil
}

// GetPassRecord fetches a pass by id across all pipelines.
// Returns nil, nil if not found.
func (s *Store) GetPassRecord(ctx context.Context, recID string) (*rendergraph.PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.pipelines {
		for i := range st.passes {
			if st.passes[i].ID == recID {
				rec := st.passes[i]
				return &rec, nil
			}
		}
	}
	return nil, nil
}

// UpdatePassRecord replaces an existing pass after revalidating the
// pipeline's explicit dependencies.
// Returns ErrPassRecordNotFound if the pass doesn't exist.
func (s *Store) UpdatePassRecord(ctx context.Context, rec *rendergraph.PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pipelineID, st := range s.pipelines {
		for i := range st.passes {
			if st.passes[i].ID != rec.ID {
				continue
			}
			passes := append([]rendergraph.PassRecord(nil), st.passes...)
			passes[i] = *rec
			if err := validatePassRefs(rec, st.resources, passes); err != nil {
				return err
			}
			if err := (&rendergraph.Pipeline{ID: pipelineID, Passes: passes}).Validate(); err != nil {
				return err
			}
			st.passes = passes
			return nil
		}
	}
	return rendergraph.ErrPassRecordNotFound
}

// DeletePassRecord removes a pass and scrubs it from other passes'
// depends_on lists. No error if the pass doesn't exist.
func (s *Store) DeletePassRecord(ctx context.Context, recID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.pipelines {
		for i := range st.passes {
			if st.passes[i].ID != recID {
				continue
			}
			st.passes = append(st.passes[:i], st.passes[i+1:]...)
			for j := range st.passes {
				st.passes[j].DependsOn = removeString(st.passes[j].DependsOn, recID)
			}
			return nil
		}
	}
	return nil
}

// ListPassRecords returns the pipeline's passes in insertion order.
// Returns an empty slice (not nil) if none found.
func (s *Store) ListPassRecords(ctx context.Context, pipelineID string) ([]rendergraph.PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passes := []rendergraph.PassRecord{}
	if st, ok := s.pipelines[pipelineID]; ok {
		passes = append(passes, st.passes...)
	}
	return passes, nil
}

// AddResourceRecord appends a resource to a pipeline, creating the pipeline
// if needed. The kind must be one of the known resource kinds.
func (s *Store) AddResourceRecord(ctx context.Context, pipelineID string, rec *rendergraph.ResourceRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err := rendergraph.ParseKind(rec.Kind); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.pipelines[pipelineID]
	if st == nil {
		st = &pipelineState{}
		s.pipelines[pipelineID] = st
	}
	st.resources = append(st.resources, *rec)
	return rec.ID, nil
}

// GetResourceRecord fetches a resource by id across all pipelines.
// Returns nil, nil if not found.
func (s *Store) GetResourceRecord(ctx context.Context, recID string) (*rendergraph.ResourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.pipelines {
		for i := range st.resources {
			if st.resources[i].ID == recID {
				rec := st.resources[i]
				return &rec, nil
			}
		}
	}
	return nil, nil
}

// UpdateResourceRecord replaces an existing resource.
// Returns ErrResourceRecordNotFound if the resource doesn't exist.
func (s *Store) UpdateResourceRecord(ctx context.Context, rec *rendergraph.ResourceRecord) error {
	if _, err := rendergraph.ParseKind(rec.Kind); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.pipelines {
		for i := range st.resources {
			if st.resources[i].ID == rec.ID {
				st.resources[i] = *rec
				return nil
			}
		}
	}
	return rendergraph.ErrResourceRecordNotFound
}

// DeleteResourceRecord removes a resource and scrubs it from every pass's
// usage lists. No error if the resource doesn't exist.
func (s *Store) DeleteResourceRecord(ctx context.Context, recID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.pipelines {
		for i := range st.resources {
			if st.resources[i].ID != recID {
				continue
			}
			st.resources = append(st.resources[:i], st.resources[i+1:]...)
			for j := range st.passes {
				p := &st.passes[j]
				p.Reads = removeString(p.Reads, recID)
				p.Writes = removeString(p.Writes, recID)
				p.ReadWrites = removeString(p.ReadWrites, recID)
			}
			return nil
		}
	}
	return nil
}

// ListResourceRecords returns the pipeline's resources in insertion order.
// Returns an empty slice (not nil) if none found.
func (s *Store) ListResourceRecords(ctx context.Context, pipelineID string) ([]rendergraph.ResourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := []rendergraph.ResourceRecord{}
	if st, ok := s.pipelines[pipelineID]; ok {
		resources = append(resources, st.resources...)
	}
	return resources, nil
}

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

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
