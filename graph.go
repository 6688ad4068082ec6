package rendergraph

// Graph holds registered resources and passes and compiles them into an
// ExecutionOrder. A Graph is not safe for concurrent use: all methods assume
// exclusive access, matching the single-threaded frame-building model.
type Graph struct {
	alloc     idAllocator
	passes    map[PassID]*Pass
	passOrder []PassID
	resources map[ResourceID]*Resource
	cached    *ExecutionOrder
	dirty     bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		passes:    make(map[PassID]*Pass),
		resources: make(map[ResourceID]*Resource),
		dirty:     true,
	}
}

// CreateResource registers a graph-owned resource and returns its id.
func (g *Graph) CreateResource(name string, kind Kind) ResourceID {
	return g.addResource(name, kind, false)
}

// ImportResource registers an externally owned resource (such as a swapchain
// image) under the same id space and dependency rules as graph-owned ones.
func (g *Graph) ImportResource(name string, kind Kind) ResourceID {
	return g.addResource(name, kind, true)
}

func (g *Graph) addResource(name string, kind Kind, external bool) ResourceID {
	id := g.alloc.nextResource()
	g.resources[id] = &Resource{
		ID:       id,
		Name:     name,
		Kind:     kind,
		External: external,
	}
	g.dirty = true
	return id
}

// Resource looks up a resource by id.
func (g *Graph) Resource(id ResourceID) (Resource, bool) {
	r, ok := g.resources[id]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// AddPass registers a pass, assigns its id, and records its insertion
// position for deterministic dependency resolution.
func (g *Graph) AddPass(p *Pass) PassID {
	id := g.alloc.nextPass()
	p.id = id
	g.passes[id] = p
	g.passOrder = append(g.passOrder, id)
	g.dirty = true
	return id
}

// RemovePass deletes a pass. Explicit dependencies other passes hold on the
// removed id are left in place; the resolver skips them on the next compile.
func (g *Graph) RemovePass(id PassID) *Pass {
	g.dirty = true
	for i, pid := range g.passOrder {
		if pid == id {
			g.passOrder = append(g.passOrder[:i], g.passOrder[i+1:]...)
			break
		}
	}
	p := g.passes[id]
	delete(g.passes, id)
	return p
}

// Pass looks up a pass for inspection. The returned pass must not be
// mutated; use PassMut for that.
func (g *Graph) Pass(id PassID) (*Pass, bool) {
	p, ok := g.passes[id]
	return p, ok
}

// PassMut looks up a pass for mutation and marks the graph dirty, since any
// field of the pass may change before the next compile.
func (g *Graph) PassMut(id PassID) (*Pass, bool) {
	p, ok := g.passes[id]
	if ok {
		g.dirty = true
	}
	return p, ok
}

// Execute compiles the graph if needed and runs every scheduled pass's
// callback in order. Passes without a callback are skipped. If compilation
// fails no callback runs.
//
// Callback panics are not recovered; the callback contract carries no error
// return, so pass authors handle failures internally.
func (g *Graph) Execute() error {
	order, err := g.Compile()
	if err != nil {
		return err
	}
	total := len(order.Passes)
	for i, id := range order.Passes {
		p, ok := g.passes[id]
		if !ok || p.callback == nil {
			continue
		}
		p.callback(PassContext{PassID: id, Index: i, TotalPasses: total})
	}
	return nil
}

// Stats summarizes the graph.
func (g *Graph) Stats() GraphStats {
	enabled := 0
	for _, p := range g.passes {
		if p.enabled {
			enabled++
		}
	}
	return GraphStats{
		TotalPasses:   len(g.passes),
		EnabledPasses: enabled,
		Resources:     len(g.resources),
		IsCompiled:    g.cached != nil,
	}
}
