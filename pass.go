package rendergraph

import "sort"

// Pass is a declared unit of render work. Build one with NewPass and the
// chained declaration methods, then register it with Graph.AddPass, which
// assigns its id.
type Pass struct {
	id       PassID
	name     string
	usages   []ResourceUsage
	deps     map[PassID]struct{}
	enabled  bool
	callback func(PassContext)
}

// NewPass creates an enabled pass with no usages, dependencies, or callback.
func NewPass(name string) *Pass {
	return &Pass{
		name:    name,
		deps:    make(map[PassID]struct{}),
		enabled: true,
	}
}

// Read declares that the pass reads the resource.
func (p *Pass) Read(id ResourceID) *Pass {
	p.usages = append(p.usages, ResourceUsage{ResourceID: id, Access: AccessRead})
	return p
}

// Write declares that the pass writes the resource, replacing its contents.
func (p *Pass) Write(id ResourceID) *Pass {
	p.usages = append(p.usages, ResourceUsage{ResourceID: id, Access: AccessWrite})
	return p
}

// ReadWrite declares that the pass both reads and writes the resource.
func (p *Pass) ReadWrite(id ResourceID) *Pass {
	p.usages = append(p.usages, ResourceUsage{ResourceID: id, Access: AccessReadWrite})
	return p
}

// DependsOn adds an explicit ordering edge: this pass runs after the given
// pass. Edges to ids that are removed or disabled by compile time are
// silently ignored by the resolver.
func (p *Pass) DependsOn(id PassID) *Pass {
	p.deps[id] = struct{}{}
	return p
}

// OnExecute attaches the work to run when the pass executes. Passes without
// a callback (pure ordering barriers) are skipped during Execute.
func (p *Pass) OnExecute(fn func(PassContext)) *Pass {
	p.callback = fn
	return p
}

// SetEnabled toggles the pass. Disabled passes are excluded from compiled
// orders entirely, including as dependency sources for other passes.
// Mutating a registered pass must go through Graph.PassMut so the graph
// recompiles.
func (p *Pass) SetEnabled(enabled bool) {
	p.enabled = enabled
}

// ID returns the id assigned by AddPass, or zero for an unregistered pass.
func (p *Pass) ID() PassID { return p.id }

// Name returns the debug name given at construction.
func (p *Pass) Name() string { return p.name }

// Enabled reports whether the pass participates in compilation.
func (p *Pass) Enabled() bool { return p.enabled }

// Usages returns a copy of the declared resource accesses in declaration order.
func (p *Pass) Usages() []ResourceUsage {
	out := make([]ResourceUsage, len(p.usages))
	copy(out, p.usages)
	return out
}

// Dependencies returns the explicit dependency ids in ascending order.
func (p *Pass) Dependencies() []PassID {
	out := make([]PassID, 0, len(p.deps))
	for id := range p.deps {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
