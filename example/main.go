package main

import (
	"context"
	"fmt"
	"log"

	"github.com/itsakeyfut/rendergraph"
	"github.com/itsakeyfut/rendergraph/graphdef"
	"github.com/itsakeyfut/rendergraph/memstore"
)

const frameYAML = `id: frame
resources:
  - ref: backbuffer
    kind: render_target
    external: true
  - ref: scene_color
    kind: texture
passes:
  - ref: clear
    writes: [backbuffer]
  - ref: scene
    writes: [scene_color]
  - ref: bloom
    reads: [scene_color]
    read_writes: [backbuffer]
  - ref: ui
    read_writes: [backbuffer]
    depends_on: [bloom]
`

func main() {
	ctx := context.Background()

	// ── Build a frame graph in code ───────────────────────────────────
	g := rendergraph.New()

	backbuffer := g.ImportResource("backbuffer", rendergraph.KindRenderTarget)
	sceneColor := g.CreateResource("scene_color", rendergraph.KindTexture)

	g.AddPass(rendergraph.NewPass("clear").
		Write(backbuffer).
		OnExecute(func(ctx rendergraph.PassContext) {
			fmt.Printf("  [%d/%d] clear backbuffer\n", ctx.Index+1, ctx.TotalPasses)
		}))
	g.AddPass(rendergraph.NewPass("scene").
		Write(sceneColor).
		OnExecute(func(ctx rendergraph.PassContext) {
			fmt.Printf("  [%d/%d] draw scene\n", ctx.Index+1, ctx.TotalPasses)
		}))
	bloom := g.AddPass(rendergraph.NewPass("bloom").
		Read(sceneColor).
		ReadWrite(backbuffer).
		OnExecute(func(ctx rendergraph.PassContext) {
			fmt.Printf("  [%d/%d] apply bloom\n", ctx.Index+1, ctx.TotalPasses)
		}))
	g.AddPass(rendergraph.NewPass("ui").
		ReadWrite(backbuffer).
		DependsOn(bloom).
		OnExecute(func(ctx rendergraph.PassContext) {
			fmt.Printf("  [%d/%d] draw ui\n", ctx.Index+1, ctx.TotalPasses)
		}))

	order, err := g.Compile()
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	fmt.Println("execution order:")
	for i, id := range order.Passes {
		pass, _ := g.Pass(id)
		fmt.Printf("  %d. %s\n", i+1, pass.Name())
	}
	fmt.Println("parallel groups:")
	for level, group := range order.ParallelGroups {
		names := make([]string, 0, len(group))
		for _, id := range group {
			pass, _ := g.Pass(id)
			names = append(names, pass.Name())
		}
		fmt.Printf("  level %d: %v\n", level, names)
	}

	fmt.Println("executing:")
	if err := g.Execute(); err != nil {
		log.Fatalf("execute: %v", err)
	}

	// ── The same pipeline, declaratively through a store ──────────────
	pipeline, err := graphdef.Parse([]byte(frameYAML))
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	store := memstore.New()
	if _, err := store.CreatePipeline(ctx, &pipeline); err != nil {
		log.Fatalf("store pipeline: %v", err)
	}

	stored, err := store.GetPipeline(ctx, "frame")
	if err != nil {
		log.Fatalf("get pipeline: %v", err)
	}

	g2, _, _, err := stored.Build()
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	order2, err := g2.Compile()
	if err != nil {
		log.Fatalf("compile stored: %v", err)
	}

	fmt.Println("\nstored pipeline order:")
	for i, id := range order2.Passes {
		pass, _ := g2.Pass(id)
		fmt.Printf("  %d. %s\n", i+1, pass.Name())
	}

	stats := g2.Stats()
	fmt.Printf("\nstats: %d passes (%d enabled), %d resources, compiled=%v\n",
		stats.TotalPasses, stats.EnabledPasses, stats.Resources, stats.IsCompiled)
}
