package rendergraph

import (
	"errors"
	"fmt"
)

var (
	// ErrCyclicDependency reports that the declared and inferred ordering
	// edges form a cycle, so no execution order exists.
	ErrCyclicDependency = errors.New("rendergraph: cyclic dependency")
	// ErrPassNotFound reports a stale or foreign pass id.
	ErrPassNotFound = errors.New("rendergraph: pass not found")
	// ErrResourceNotFound reports a stale or foreign resource id.
	ErrResourceNotFound = errors.New("rendergraph: resource not found")
	// ErrNotCompiled reports use of an execution order that was never
	// produced. Compile establishes the order internally, so callers should
	// not observe this error.
	ErrNotCompiled = errors.New("rendergraph: graph not compiled")
	// ErrUnknownKind reports a resource kind name outside texture, buffer,
	// and render_target.
	ErrUnknownKind = errors.New("rendergraph: unknown resource kind")
	// ErrResourceConflict is reserved for a strict write-write conflict
	// check. The current resolver orders undeclared concurrent writers by
	// insertion ("last write wins") and never returns it.
	ErrResourceConflict = errors.New("rendergraph: resource conflict")
)

// CyclicDependencyError carries the passes that could not be scheduled.
// Remaining holds every pass left undequeued by the sort, in insertion
// order; it is a superset of the cycle itself, not the minimal loop.
type CyclicDependencyError struct {
	Remaining []PassID
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%v involving %v", ErrCyclicDependency, e.Remaining)
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// ResourceConflictError identifies two passes writing one resource with no
// ordering between them. Reserved: unused until a strict conflict check is
// added (see ErrResourceConflict).
type ResourceConflictError struct {
	ResourceID ResourceID
	PassA      PassID
	PassB      PassID
}

func (e *ResourceConflictError) Error() string {
	return fmt.Sprintf("%v on %v between %v and %v", ErrResourceConflict, e.ResourceID, e.PassA, e.PassB)
}

func (e *ResourceConflictError) Unwrap() error { return ErrResourceConflict }
