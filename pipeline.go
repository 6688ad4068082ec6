package rendergraph

import "fmt"

// Resolve assigns ids to records that lack them and rewrites every ref-based
// reference (pass usages and explicit dependencies) to the referenced
// record's id. newID supplies fresh ids; stores pass their id generator.
// After Resolve all reference lists hold ids only; Ref fields are kept so
// callers can clear them once persistence succeeds.
func (p *Pipeline) Resolve(newID func() string) error {
	resourceIDs := make(map[string]string)
	for i := range p.Resources {
		r := &p.Resources[i]
		if r.ID == "" {
			r.ID = newID()
		}
		resourceIDs[r.ID] = r.ID
		if r.Ref != "" {
			resourceIDs[r.Ref] = r.ID
		}
	}

	passIDs := make(map[string]string)
	for i := range p.Passes {
		rec := &p.Passes[i]
		if rec.ID == "" {
			rec.ID = newID()
		}
		passIDs[rec.ID] = rec.ID
		if rec.Ref != "" {
			passIDs[rec.Ref] = rec.ID
		}
	}

	for i := range p.Passes {
		rec := &p.Passes[i]
		for _, list := range []*[]string{&rec.Reads, &rec.Writes, &rec.ReadWrites} {
			for j, key := range *list {
				id, ok := resourceIDs[key]
				if !ok {
					return fmt.Errorf("%w: pass %q references resource %q", ErrUnknownRef, rec.key(), key)
				}
				(*list)[j] = id
			}
		}
		for j, key := range rec.DependsOn {
			id, ok := passIDs[key]
			if !ok {
				return fmt.Errorf("%w: pass %q depends on %q", ErrUnknownRef, rec.key(), key)
			}
			rec.DependsOn[j] = id
		}
	}

	return nil
}

// ClearRefs drops the build-time ref keys after a successful create, since
// refs are never persisted.
func (p *Pipeline) ClearRefs() {
	for i := range p.Resources {
		p.Resources[i].Ref = ""
	}
	for i := range p.Passes {
		p.Passes[i].Ref = ""
	}
}

// Validate checks a resolved pipeline: ids must be unique, resource kinds
// known, and the explicit dependency edges acyclic. Implicit read-after-write
// edges are a compile-time concern and are not validated here.
func (p *Pipeline) Validate() error {
	seen := make(map[string]struct{})
	for i := range p.Resources {
		r := &p.Resources[i]
		if _, err := ParseKind(r.Kind); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("rendergraph: duplicate resource id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	seen = make(map[string]struct{})
	for i := range p.Passes {
		if _, dup := seen[p.Passes[i].ID]; dup {
			return fmt.Errorf("rendergraph: duplicate pass id %q", p.Passes[i].ID)
		}
		seen[p.Passes[i].ID] = struct{}{}
	}

	return validateAcyclic(p.Passes)
}

// validateAcyclic rejects explicit dependency cycles using DFS with
// unvisited/visiting/visited coloring.
func validateAcyclic(passes []PassRecord) error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	adj := make(map[string][]string)
	state := make(map[string]int)
	for i := range passes {
		state[passes[i].ID] = unvisited
		adj[passes[i].ID] = passes[i].DependsOn
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for i := range passes {
		if state[passes[i].ID] == unvisited {
			if dfs(passes[i].ID) {
				return ErrCyclicDependency
			}
		}
	}

	return nil
}

// Build materializes a live Graph from the pipeline. Resources are created
// first, then passes in listed order, so the insertion order a compile sees
// matches the definition order. It returns the graph plus key→id mappings
// for both record kinds; records are addressable by ref when set, and always
// by id.
//
// Build does not attach callbacks: a definition is pure structure, and the
// caller wires work onto the returned pass ids via Graph.PassMut.
func (p *Pipeline) Build() (*Graph, map[string]PassID, map[string]ResourceID, error) {
	g := New()

	resourceIDs := make(map[string]ResourceID)
	for i := range p.Resources {
		rec := &p.Resources[i]
		kind, err := ParseKind(rec.Kind)
		if err != nil {
			return nil, nil, nil, err
		}
		name := rec.Name
		if name == "" {
			name = rec.key()
		}
		var id ResourceID
		if rec.External {
			id = g.ImportResource(name, kind)
		} else {
			id = g.CreateResource(name, kind)
		}
		if rec.ID != "" {
			resourceIDs[rec.ID] = id
		}
		if rec.Ref != "" {
			resourceIDs[rec.Ref] = id
		}
	}

	lookupResource := func(rec *PassRecord, key string) (ResourceID, error) {
		id, ok := resourceIDs[key]
		if !ok {
			return 0, fmt.Errorf("%w: pass %q references resource %q", ErrUnknownRef, rec.key(), key)
		}
		return id, nil
	}

	passIDs := make(map[string]PassID)
	built := make([]PassID, len(p.Passes))
	for i := range p.Passes {
		rec := &p.Passes[i]
		name := rec.Name
		if name == "" {
			name = rec.key()
		}
		pass := NewPass(name)
		for _, key := range rec.Reads {
			id, err := lookupResource(rec, key)
			if err != nil {
				return nil, nil, nil, err
			}
			pass.Read(id)
		}
		for _, key := range rec.Writes {
			id, err := lookupResource(rec, key)
			if err != nil {
				return nil, nil, nil, err
			}
			pass.Write(id)
		}
		for _, key := range rec.ReadWrites {
			id, err := lookupResource(rec, key)
			if err != nil {
				return nil, nil, nil, err
			}
			pass.ReadWrite(id)
		}
		pass.SetEnabled(rec.IsEnabled())

		id := g.AddPass(pass)
		built[i] = id
		if rec.ID != "" {
			passIDs[rec.ID] = id
		}
		if rec.Ref != "" {
			passIDs[rec.Ref] = id
		}
	}

	// Explicit dependencies in a second phase so a pass may depend on one
	// listed after it.
	for i := range p.Passes {
		rec := &p.Passes[i]
		if len(rec.DependsOn) == 0 {
			continue
		}
		pass, _ := g.PassMut(built[i])
		for _, key := range rec.DependsOn {
			dep, ok := passIDs[key]
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: pass %q depends on %q", ErrUnknownRef, rec.key(), key)
			}
			pass.DependsOn(dep)
		}
	}

	return g, passIDs, resourceIDs, nil
}

func (r *ResourceRecord) key() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.ID
}

func (r *PassRecord) key() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.ID
}
