// Package rendergraph implements a render-pass dependency graph and scheduler.
//
// Passes declare the resources they read or write plus optional explicit
// dependencies; the graph infers the remaining ordering edges from
// read-after-write relationships, produces a deterministic topological
// execution order, and partitions it into levels of mutually independent
// passes that a caller may dispatch in parallel.
//
// The graph orders declared accesses; it does not allocate GPU resources,
// dispatch work concurrently, or verify what a pass callback actually touches.
package rendergraph

import "fmt"

// PassID uniquely identifies a render pass within a Graph.
// The zero value is never a valid id.
type PassID uint64

func (id PassID) String() string {
	return fmt.Sprintf("pass(%d)", uint64(id))
}

// ResourceID uniquely identifies a resource within a Graph.
// The zero value is never a valid id.
type ResourceID uint64

func (id ResourceID) String() string {
	return fmt.Sprintf("resource(%d)", uint64(id))
}

// idAllocator issues monotonically increasing ids, owned by a single Graph so
// independent graphs never share id space and tests start from a clean count.
type idAllocator struct {
	lastPass     uint64
	lastResource uint64
}

func (a *idAllocator) nextPass() PassID {
	a.lastPass++
	return PassID(a.lastPass)
}

func (a *idAllocator) nextResource() ResourceID {
	a.lastResource++
	return ResourceID(a.lastResource)
}

// Kind classifies a resource.
type Kind int

const (
	KindTexture Kind = iota
	KindBuffer
	KindRenderTarget
)

const (
	kindTextureName      = "texture"
	kindBufferName       = "buffer"
	kindRenderTargetName = "render_target"
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return kindTextureName
	case KindBuffer:
		return kindBufferName
	case KindRenderTarget:
		return kindRenderTargetName
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts the wire name of a resource kind ("texture", "buffer",
// "render_target") back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindTextureName:
		return KindTexture, nil
	case kindBufferName:
		return KindBuffer, nil
	case kindRenderTargetName:
		return KindRenderTarget, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Access describes how a pass touches a resource.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

// Reads reports whether the access observes the resource's prior contents.
func (a Access) Reads() bool { return a == AccessRead || a == AccessReadWrite }

// Writes reports whether the access produces new resource contents.
func (a Access) Writes() bool { return a == AccessWrite || a == AccessReadWrite }

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// Resource is a graph-tracked handle. The graph manages access ordering only;
// lifetime and contents belong to the caller.
type Resource struct {
	ID   ResourceID
	Name string
	Kind Kind
	// External marks resources owned outside the graph (a swapchain image,
	// for example). External resources still participate in dependency
	// tracking exactly like graph-owned ones.
	External bool
}

// ResourceUsage is a single declared access attached to a pass.
type ResourceUsage struct {
	ResourceID ResourceID
	Access     Access
}

// PassContext is handed to a pass callback during Execute. It carries only
// positional information; resource bindings must be captured by the callback
// itself at registration time.
type PassContext struct {
	PassID      PassID
	Index       int
	TotalPasses int
}

// ExecutionOrder is the compiled schedule for a graph.
type ExecutionOrder struct {
	// Passes is a valid topological order over every enabled pass.
	Passes []PassID
	// ParallelGroups partitions Passes by dependency depth. Group 0 holds
	// passes with no dependencies; passes sharing a group have no direct or
	// transitive ordering relationship. A caller dispatching groups
	// concurrently must finish group N before starting group N+1.
	ParallelGroups [][]PassID
}

// GraphStats is a point-in-time summary of a graph.
type GraphStats struct {
	TotalPasses   int
	EnabledPasses int
	Resources     int
	IsCompiled    bool
}
