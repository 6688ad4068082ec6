package rendergraph

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrPipelineNotFound       = errors.New("rendergraph: pipeline not found")
	ErrPassRecordNotFound     = errors.New("rendergraph: pass record not found")
	ErrResourceRecordNotFound = errors.New("rendergraph: resource record not found")
	ErrUnknownRef             = errors.New("rendergraph: unknown ref")
)

// Pipeline is the serializable definition of a render graph. It references
// records by string id rather than live PassID/ResourceID values so a
// definition can round-trip through a Store and be built into any number of
// independent Graph instances.
type Pipeline struct {
	ID        string           `json:"id"`
	Resources []ResourceRecord `json:"resources"`
	Passes    []PassRecord     `json:"passes"`
}

// ResourceRecord describes one resource of a stored pipeline.
// Ref is a temporary key used only while creating a pipeline, so passes can
// reference resources that do not have ids yet — it is never persisted.
type ResourceRecord struct {
	ID       string          `json:"id,omitempty"`
	Ref      string          `json:"ref,omitempty"`
	Name     string          `json:"name,omitempty"`
	Kind     string          `json:"kind"`
	External bool            `json:"external,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// PassRecord describes one pass of a stored pipeline. Reads, Writes,
// ReadWrites, and DependsOn hold resource/pass refs or ids; creation resolves
// them all to ids. Enabled defaults to true when omitted.
type PassRecord struct {
	ID         string          `json:"id,omitempty"`
	Ref        string          `json:"ref,omitempty"`
	Name       string          `json:"name,omitempty"`
	Enabled    *bool           `json:"enabled,omitempty"`
	Reads      []string        `json:"reads,omitempty"`
	Writes     []string        `json:"writes,omitempty"`
	ReadWrites []string        `json:"read_writes,omitempty"`
	DependsOn  []string        `json:"depends_on,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// IsEnabled reports the effective enabled flag.
func (r *PassRecord) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Store defines the contract for persisting and retrieving pipelines.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Pipelines (bulk operations)
	CreatePipeline(ctx context.Context, p *Pipeline) (*Pipeline, error)
	GetPipeline(ctx context.Context, pipelineID string) (*Pipeline, error)
	DeletePipeline(ctx context.Context, pipelineID string) error

	// Passes
	AddPassRecord(ctx context.Context, pipelineID string, rec *PassRecord) (string, error)
	GetPassRecord(ctx context.Context, recID string) (*PassRecord, error)
	UpdatePassRecord(ctx context.Context, rec *PassRecord) error
	DeletePassRecord(ctx context.Context, recID string) error
	ListPassRecords(ctx context.Context, pipelineID string) ([]PassRecord, error)

	// Resources
	AddResourceRecord(ctx context.Context, pipelineID string, rec *ResourceRecord) (string, error)
	GetResourceRecord(ctx context.Context, recID string) (*ResourceRecord, error)
	UpdateResourceRecord(ctx context.Context, rec *ResourceRecord) error
	DeleteResourceRecord(ctx context.Context, recID string) error
	ListResourceRecords(ctx context.Context, pipelineID string) ([]ResourceRecord, error)
}
