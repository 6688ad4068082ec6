package rendergraph

import (
	"errors"
	"testing"
)

func TestEmptyGraph(t *testing.T) {
	g := New()
	stats := g.Stats()
	if stats.TotalPasses != 0 || stats.Resources != 0 {
		t.Fatalf("unexpected stats for empty graph: %+v", stats)
	}
	if stats.IsCompiled {
		t.Fatalf("empty graph should not report compiled")
	}

	order, err := g.Compile()
	if err != nil {
		t.Fatalf("compile empty graph: %v", err)
	}
	if len(order.Passes) != 0 {
		t.Fatalf("expected empty order, got %v", order.Passes)
	}
}

func TestCreateResource(t *testing.T) {
	g := New()
	id := g.CreateResource("backbuffer", KindRenderTarget)

	r, ok := g.Resource(id)
	if !ok {
		t.Fatalf("resource not found after create")
	}
	if r.Name != "backbuffer" || r.Kind != KindRenderTarget || r.External {
		t.Fatalf("unexpected resource: %+v", r)
	}
	if g.Stats().Resources != 1 {
		t.Fatalf("expected 1 resource, got %d", g.Stats().Resources)
	}
}

func TestImportResourceIsExternal(t *testing.T) {
	g := New()
	id := g.ImportResource("swapchain", KindRenderTarget)

	r, ok := g.Resource(id)
	if !ok {
		t.Fatalf("imported resource not found")
	}
	if !r.External {
		t.Fatalf("imported resource should be external")
	}
}

func TestResourceLookupMiss(t *testing.T) {
	g := New()
	if _, ok := g.Resource(ResourceID(42)); ok {
		t.Fatalf("lookup of unknown resource should fail quietly")
	}
}

func TestAddPass(t *testing.T) {
	g := New()
	id := g.AddPass(NewPass("clear"))

	p, ok := g.Pass(id)
	if !ok {
		t.Fatalf("pass not found after add")
	}
	if p.ID() != id || p.Name() != "clear" || !p.Enabled() {
		t.Fatalf("unexpected pass: id=%v name=%q enabled=%v", p.ID(), p.Name(), p.Enabled())
	}
	if g.Stats().TotalPasses != 1 {
		t.Fatalf("expected 1 pass, got %d", g.Stats().TotalPasses)
	}
}

func TestRemovePass(t *testing.T) {
	g := New()
	id := g.AddPass(NewPass("test"))

	if removed := g.RemovePass(id); removed == nil || removed.Name() != "test" {
		t.Fatalf("RemovePass did not return the pass")
	}
	if _, ok := g.Pass(id); ok {
		t.Fatalf("pass still present after remove")
	}
	if g.Stats().TotalPasses != 0 {
		t.Fatalf("expected 0 passes, got %d", g.Stats().TotalPasses)
	}
}

func TestIndependentGraphsDoNotShareIDs(t *testing.T) {
	a := New()
	b := New()

	idA := a.AddPass(NewPass("a"))
	idB := b.AddPass(NewPass("b"))
	if idA != idB {
		t.Fatalf("fresh graphs should allocate from a clean counter: %v vs %v", idA, idB)
	}

	resA := a.CreateResource("r", KindBuffer)
	resB := b.CreateResource("r", KindBuffer)
	if resA != resB {
		t.Fatalf("fresh graphs should allocate resource ids from a clean counter: %v vs %v", resA, resB)
	}
}

func TestExecution(t *testing.T) {
	g := New()

	var got []PassContext
	g.AddPass(NewPass("first").OnExecute(func(ctx PassContext) {
		got = append(got, ctx)
	}))
	g.AddPass(NewPass("second").OnExecute(func(ctx PassContext) {
		got = append(got, ctx)
	}))

	if err := g.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(got))
	}
	for i, ctx := range got {
		if ctx.Index != i || ctx.TotalPasses != 2 {
			t.Fatalf("callback %d got context %+v", i, ctx)
		}
	}
}

func TestExecuteSkipsPassesWithoutCallback(t *testing.T) {
	g := New()

	executed := false
	barrier := g.AddPass(NewPass("barrier"))
	g.AddPass(NewPass("work").DependsOn(barrier).OnExecute(func(PassContext) {
		executed = true
	}))

	if err := g.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !executed {
		t.Fatalf("pass with callback did not run")
	}
}

func TestExecuteRunsNothingOnCompileFailure(t *testing.T) {
	g := New()

	ran := false
	a := g.AddPass(NewPass("a").OnExecute(func(PassContext) { ran = true }))
	b := g.AddPass(NewPass("b").OnExecute(func(PassContext) { ran = true }))

	pa, _ := g.PassMut(a)
	pa.DependsOn(b)
	pb, _ := g.PassMut(b)
	pb.DependsOn(a)

	if err := g.Execute(); !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected cyclic dependency error, got %v", err)
	}
	if ran {
		t.Fatalf("no callback may run when compile fails")
	}
}

func TestStatsCountsEnabledPasses(t *testing.T) {
	g := New()
	g.AddPass(NewPass("a"))
	id := g.AddPass(NewPass("b"))

	p, _ := g.PassMut(id)
	p.SetEnabled(false)

	stats := g.Stats()
	if stats.TotalPasses != 2 || stats.EnabledPasses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPassBuilderDeclarations(t *testing.T) {
	g := New()
	tex := g.CreateResource("tex", KindTexture)
	buf := g.CreateResource("buf", KindBuffer)

	dep := g.AddPass(NewPass("dep"))
	id := g.AddPass(NewPass("p").Read(tex).Write(buf).ReadWrite(tex).DependsOn(dep))

	p, _ := g.Pass(id)
	usages := p.Usages()
	if len(usages) != 3 {
		t.Fatalf("expected 3 usages, got %d", len(usages))
	}
	want := []ResourceUsage{
		{ResourceID: tex, Access: AccessRead},
		{ResourceID: buf, Access: AccessWrite},
		{ResourceID: tex, Access: AccessReadWrite},
	}
	for i, u := range usages {
		if u != want[i] {
			t.Fatalf("usage %d = %+v, want %+v", i, u, want[i])
		}
	}

	deps := p.Dependencies()
	if len(deps) != 1 || deps[0] != dep {
		t.Fatalf("unexpected dependencies: %v", deps)
	}
}
