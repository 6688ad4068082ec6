package rendergraph

import (
	"errors"
	"testing"
)

func indexOf(t *testing.T, order *ExecutionOrder, id PassID) int {
	t.Helper()
	for i, pid := range order.Passes {
		if pid == id {
			return i
		}
	}
	t.Fatalf("%v not in order %v", id, order.Passes)
	return -1
}

func TestSimpleResourceDependency(t *testing.T) {
	g := New()
	b1 := g.CreateResource("B1", KindBuffer)

	clear := g.AddPass(NewPass("Clear").Write(b1))
	render := g.AddPass(NewPass("Render").ReadWrite(b1))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(order.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %v", order.Passes)
	}
	if indexOf(t, order, clear) >= indexOf(t, order, render) {
		t.Fatalf("writer must precede reader: %v", order.Passes)
	}
}

func TestExplicitDependency(t *testing.T) {
	g := New()
	a := g.AddPass(NewPass("A"))
	b := g.AddPass(NewPass("B").DependsOn(a))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if indexOf(t, order, a) >= indexOf(t, order, b) {
		t.Fatalf("dependency must precede dependent: %v", order.Passes)
	}
}

func TestLastWriterWins(t *testing.T) {
	g := New()
	tex := g.CreateResource("tex", KindTexture)

	first := g.AddPass(NewPass("first").Write(tex))
	second := g.AddPass(NewPass("second").Write(tex))
	reader := g.AddPass(NewPass("reader").Read(tex))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// The reader depends on the most recently added writer only; the two
	// writers have no edge between them and no conflict is raised.
	if indexOf(t, order, second) >= indexOf(t, order, reader) {
		t.Fatalf("last writer must precede reader: %v", order.Passes)
	}
	firstPass, _ := g.Pass(first)
	if len(firstPass.Dependencies()) != 0 {
		t.Fatalf("writers should stay unordered: %v", firstPass.Dependencies())
	}
	levels := passLevels(order)
	if levels[reader] != levels[second]+1 {
		t.Fatalf("reader should sit one level past the last writer: %v", order.ParallelGroups)
	}
	if levels[first] != 0 {
		t.Fatalf("unrelated writer should stay at level 0: %v", order.ParallelGroups)
	}
}

func TestWriterReadingOwnResource(t *testing.T) {
	g := New()
	buf := g.CreateResource("buf", KindBuffer)

	// ReadWrite of a resource this pass itself last wrote must not create a
	// self edge.
	id := g.AddPass(NewPass("accumulate").ReadWrite(buf).ReadWrite(buf))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(order.Passes) != 1 || order.Passes[0] != id {
		t.Fatalf("unexpected order: %v", order.Passes)
	}
}

func TestDisabledPassExcluded(t *testing.T) {
	g := New()

	p := NewPass("disabled")
	p.SetEnabled(false)
	g.AddPass(p)

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(order.Passes) != 0 {
		t.Fatalf("disabled pass must not be scheduled: %v", order.Passes)
	}
}

func TestDisabledPassNotADependencySource(t *testing.T) {
	g := New()
	tex := g.CreateResource("tex", KindTexture)

	writer := g.AddPass(NewPass("writer").Write(tex))
	reader := g.AddPass(NewPass("reader").Read(tex).DependsOn(writer))

	wp, _ := g.PassMut(writer)
	wp.SetEnabled(false)

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(order.Passes) != 1 || order.Passes[0] != reader {
		t.Fatalf("expected only the reader, got %v", order.Passes)
	}
	if len(order.ParallelGroups) != 1 || len(order.ParallelGroups[0]) != 1 {
		t.Fatalf("reader should sit at level 0: %v", order.ParallelGroups)
	}
}

func TestDirectCycle(t *testing.T) {
	g := New()
	a := g.AddPass(NewPass("A"))
	b := g.AddPass(NewPass("B").DependsOn(a))

	pa, _ := g.PassMut(a)
	pa.DependsOn(b)

	_, err := g.Compile()
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected cyclic dependency, got %v", err)
	}

	var cycleErr *CyclicDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CyclicDependencyError, got %T", err)
	}
	if len(cycleErr.Remaining) != 2 {
		t.Fatalf("both passes should remain unscheduled: %v", cycleErr.Remaining)
	}
}

func TestSelfDependency(t *testing.T) {
	g := New()
	id := g.AddPass(NewPass("self"))

	p, _ := g.PassMut(id)
	p.DependsOn(id)

	_, err := g.Compile()
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("self dependency must be a 1-node cycle, got %v", err)
	}
	var cycleErr *CyclicDependencyError
	if !errors.As(err, &cycleErr) || len(cycleErr.Remaining) != 1 || cycleErr.Remaining[0] != id {
		t.Fatalf("unexpected remaining set: %v", err)
	}
}

func TestParallelGroups(t *testing.T) {
	g := New()
	a := g.AddPass(NewPass("A"))
	b := g.AddPass(NewPass("B"))
	c := g.AddPass(NewPass("C").DependsOn(a).DependsOn(b))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	levels := passLevels(order)
	if levels[a] != 0 || levels[b] != 0 {
		t.Fatalf("A and B should share level 0: %v", order.ParallelGroups)
	}
	if levels[c] != 1 {
		t.Fatalf("C should sit at level 1: %v", order.ParallelGroups)
	}
	if ci := indexOf(t, order, c); ci <= indexOf(t, order, a) || ci <= indexOf(t, order, b) {
		t.Fatalf("C must follow both A and B: %v", order.Passes)
	}
}

func TestGroupsPartitionOrder(t *testing.T) {
	g := New()
	tex := g.CreateResource("tex", KindTexture)
	depth := g.CreateResource("depth", KindTexture)

	g.AddPass(NewPass("shadow").Write(depth))
	g.AddPass(NewPass("scene").Write(tex).Read(depth))
	g.AddPass(NewPass("post").ReadWrite(tex))
	g.AddPass(NewPass("debug"))

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	seen := make(map[PassID]int)
	total := 0
	for _, group := range order.ParallelGroups {
		total += len(group)
		for _, id := range group {
			seen[id]++
		}
	}
	if total != len(order.Passes) {
		t.Fatalf("groups hold %d passes, order holds %d", total, len(order.Passes))
	}
	for _, id := range order.Passes {
		if seen[id] != 1 {
			t.Fatalf("%v appears %d times across groups", id, seen[id])
		}
	}
}

func TestDeterministicOrder(t *testing.T) {
	build := func() *Graph {
		g := New()
		tex := g.CreateResource("tex", KindTexture)
		g.AddPass(NewPass("e"))
		g.AddPass(NewPass("d"))
		g.AddPass(NewPass("writer").Write(tex))
		g.AddPass(NewPass("c").Read(tex))
		g.AddPass(NewPass("b"))
		g.AddPass(NewPass("a"))
		return g
	}

	first, err := build().Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := build().Compile()
		if err != nil {
			t.Fatalf("compile %d: %v", i, err)
		}
		if len(next.Passes) != len(first.Passes) {
			t.Fatalf("order length changed: %v vs %v", next.Passes, first.Passes)
		}
		for j := range first.Passes {
			if next.Passes[j] != first.Passes[j] {
				t.Fatalf("order not deterministic: %v vs %v", next.Passes, first.Passes)
			}
		}
	}

	// Ties break by insertion order, not id juggling: the independent passes
	// appear exactly as added.
	names := make([]string, 0, len(first.Passes))
	g := build()
	order, _ := g.Compile()
	for _, id := range order.Passes {
		p, _ := g.Pass(id)
		names = append(names, p.Name())
	}
	want := []string{"e", "d", "writer", "c", "b", "a"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected insertion-order tie-breaking, got %v", names)
		}
	}
}

func TestCompileCaches(t *testing.T) {
	g := New()
	g.AddPass(NewPass("a"))

	first, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !g.Stats().IsCompiled {
		t.Fatalf("stats should report compiled")
	}

	second, err := g.Compile()
	if err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if first != second {
		t.Fatalf("unchanged graph must return the cached order")
	}
	if !g.Stats().IsCompiled {
		t.Fatalf("stats should still report compiled")
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	g := New()
	g.AddPass(NewPass("a"))

	first, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	g.AddPass(NewPass("b"))
	second, err := g.Compile()
	if err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if first == second {
		t.Fatalf("mutation must invalidate the cached order")
	}
	if len(second.Passes) != 2 {
		t.Fatalf("expected 2 passes after mutation, got %v", second.Passes)
	}
}

func TestPassMutInvalidatesCache(t *testing.T) {
	g := New()
	id := g.AddPass(NewPass("a"))
	other := g.AddPass(NewPass("b"))

	if _, err := g.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	p, ok := g.PassMut(id)
	if !ok {
		t.Fatalf("PassMut miss")
	}
	p.SetEnabled(false)

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if len(order.Passes) != 1 || order.Passes[0] != other {
		t.Fatalf("disabled pass still scheduled: %v", order.Passes)
	}
}

func TestRemovedDependencyIsDropped(t *testing.T) {
	g := New()
	a := g.AddPass(NewPass("a"))
	b := g.AddPass(NewPass("b").DependsOn(a))

	g.RemovePass(a)

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile after remove: %v", err)
	}
	if len(order.Passes) != 1 || order.Passes[0] != b {
		t.Fatalf("expected only b, got %v", order.Passes)
	}
	if len(order.ParallelGroups) != 1 {
		t.Fatalf("b should fall back to level 0: %v", order.ParallelGroups)
	}

	// The dangling edge survives on the pass itself; only the resolver
	// ignores it.
	pb, _ := g.Pass(b)
	if len(pb.Dependencies()) != 1 {
		t.Fatalf("explicit deps should not be cleaned up: %v", pb.Dependencies())
	}
}

func TestEveryEnabledPassScheduledOnce(t *testing.T) {
	g := New()
	tex := g.CreateResource("tex", KindTexture)
	buf := g.CreateResource("buf", KindBuffer)

	ids := []PassID{
		g.AddPass(NewPass("p0").Write(tex)),
		g.AddPass(NewPass("p1").Read(tex).Write(buf)),
		g.AddPass(NewPass("p2").Read(buf)),
		g.AddPass(NewPass("p3")),
		g.AddPass(NewPass("p4").ReadWrite(tex)),
	}

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(order.Passes) != len(ids) {
		t.Fatalf("expected %d passes, got %v", len(ids), order.Passes)
	}
	seen := make(map[PassID]int)
	for _, id := range order.Passes {
		seen[id]++
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Fatalf("%v scheduled %d times", id, seen[id])
		}
	}
}

func passLevels(order *ExecutionOrder) map[PassID]int {
	levels := make(map[PassID]int)
	for level, group := range order.ParallelGroups {
		for _, id := range group {
			levels[id] = level
		}
	}
	return levels
}
