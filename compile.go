package rendergraph

// depSet is the set of passes a pass must run after.
type depSet map[PassID]struct{}

// Compile resolves dependencies, sorts, and groups the enabled passes.
// The result is cached: repeated calls without an intervening mutation
// return the same ExecutionOrder. The returned order is owned by the graph
// and valid until the next mutation.
func (g *Graph) Compile() (*ExecutionOrder, error) {
	if !g.dirty && g.cached != nil {
		return g.cached, nil
	}

	deps := g.resolveDependencies()
	order, err := g.topoSort(deps)
	if err != nil {
		return nil, err
	}

	g.cached = &ExecutionOrder{
		Passes:         order,
		ParallelGroups: g.parallelGroups(order, deps),
	}
	g.dirty = false
	return g.cached, nil
}

// resolveDependencies combines each enabled pass's explicit dependencies with
// implicit ones inferred from resource usage: a pass that reads a resource
// runs after the pass that last wrote it.
//
// Passes are scanned in insertion order, so "last writer" means the most
// recently added writer, not the writer with the highest id. Disabled passes
// contribute nothing: they are neither dependents nor dependency sources, and
// explicit edges pointing at disabled or removed passes are dropped.
func (g *Graph) resolveDependencies() map[PassID]depSet {
	deps := make(map[PassID]depSet, len(g.passOrder))

	// Seed with explicit dependencies, keeping only edges to passes that are
	// currently registered and enabled.
	for _, id := range g.passOrder {
		p := g.passes[id]
		if !p.enabled {
			continue
		}
		ds := make(depSet)
		for dep := range p.deps {
			if dep == id {
				// Self-edges stay: they surface as a 1-node cycle.
				ds[dep] = struct{}{}
				continue
			}
			if target, ok := g.passes[dep]; ok && target.enabled {
				ds[dep] = struct{}{}
			}
		}
		deps[id] = ds
	}

	// Infer read-after-write edges with a last-writer scan.
	lastWriter := make(map[ResourceID]PassID)
	for _, id := range g.passOrder {
		p := g.passes[id]
		if !p.enabled {
			continue
		}
		for _, usage := range p.usages {
			if usage.Access.Reads() {
				if writer, ok := lastWriter[usage.ResourceID]; ok && writer != id {
					deps[id][writer] = struct{}{}
				}
			}
			if usage.Access.Writes() {
				// Last write wins; two unordered writers raise no conflict.
				lastWriter[usage.ResourceID] = id
			}
		}
	}

	return deps
}

// topoSort linearizes the dependency map with Kahn's algorithm. When several
// passes are ready at once the earliest-inserted pass goes first, so compiling
// an unchanged graph always yields the same order regardless of map iteration.
func (g *Graph) topoSort(deps map[PassID]depSet) ([]PassID, error) {
	pos := make(map[PassID]int, len(g.passOrder))
	for i, id := range g.passOrder {
		pos[id] = i
	}

	// In-degree and reverse edges, built over insertion order so dependent
	// lists are deterministic too.
	indegree := make(map[PassID]int, len(deps))
	dependents := make(map[PassID][]PassID, len(deps))
	for _, id := range g.passOrder {
		ds, ok := deps[id]
		if !ok {
			continue
		}
		indegree[id] = 0
		for dep := range ds {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := make([]PassID, 0, len(deps))
	for _, id := range g.passOrder {
		if deg, ok := indegree[id]; ok && deg == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]PassID, 0, len(deps))
	for len(ready) > 0 {
		// Take the ready pass with the smallest insertion index. Linear scan:
		// render graphs hold tens of passes, not thousands.
		next := 0
		for i := 1; i < len(ready); i++ {
			if pos[ready[i]] < pos[ready[next]] {
				next = i
			}
		}
		id := ready[next]
		ready = append(ready[:next], ready[next+1:]...)

		order = append(order, id)
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(deps) {
		scheduled := make(map[PassID]struct{}, len(order))
		for _, id := range order {
			scheduled[id] = struct{}{}
		}
		var remaining []PassID
		for _, id := range g.passOrder {
			if _, ok := deps[id]; !ok {
				continue
			}
			if _, ok := scheduled[id]; !ok {
				remaining = append(remaining, id)
			}
		}
		return nil, &CyclicDependencyError{Remaining: remaining}
	}

	return order, nil
}

// parallelGroups assigns each pass its dependency depth: 0 with no
// dependencies, otherwise one past the deepest dependency. The topological
// order guarantees every dependency's level is known before its dependents,
// so one forward walk suffices.
func (g *Graph) parallelGroups(order []PassID, deps map[PassID]depSet) [][]PassID {
	levels := make(map[PassID]int, len(order))
	var groups [][]PassID

	for _, id := range order {
		level := 0
		for dep := range deps[id] {
			if l, ok := levels[dep]; ok && l+1 > level {
				level = l + 1
			}
		}
		levels[id] = level

		for len(groups) <= level {
			groups = append(groups, nil)
		}
		groups[level] = append(groups[level], id)
	}

	return groups
}
