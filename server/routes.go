package main

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/itsakeyfut/rendergraph"
)

// planResponse is the wire form of a compiled pipeline. Passes are reported
// by name, in execution order; parallel_groups index equals dependency depth.
type planResponse struct {
	PipelineID     string     `json:"pipeline_id"`
	Passes         []string   `json:"passes"`
	ParallelGroups [][]string `json:"parallel_groups"`
}

// registerRoutes wires the pipeline CRUD and planning API onto the app.
func registerRoutes(app *fiber.App, store rendergraph.Store) {
	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Pipelines (bulk) ──────────────────────────────────────────────
	app.Post("/pipelines", func(c fiber.Ctx) error {
		var p rendergraph.Pipeline
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		result, err := store.CreatePipeline(c.Context(), &p)
		if errors.Is(err, rendergraph.ErrCyclicDependency) {
			return c.Status(422).JSON(fiber.Map{"error": "cyclic dependency"})
		}
		if errors.Is(err, rendergraph.ErrUnknownRef) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(result)
	})

	app.Get("/pipelines/:id", func(c fiber.Ctx) error {
		p, err := store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if p == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}
		return c.JSON(p)
	})

	app.Delete("/pipelines/:id", func(c fiber.Ctx) error {
		if err := store.DeletePipeline(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Plan ──────────────────────────────────────────────────────────
	app.Get("/pipelines/:id/plan", func(c fiber.Ctx) error {
		p, err := store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if p == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}

		graph, _, _, err := p.Build()
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		order, err := graph.Compile()
		if errors.Is(err, rendergraph.ErrCyclicDependency) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		resp := planResponse{
			PipelineID:     p.ID,
			Passes:         make([]string, 0, len(order.Passes)),
			ParallelGroups: make([][]string, 0, len(order.ParallelGroups)),
		}
		name := func(id rendergraph.PassID) string {
			pass, _ := graph.Pass(id)
			return pass.Name()
		}
		for _, id := range order.Passes {
			resp.Passes = append(resp.Passes, name(id))
		}
		for _, group := range order.ParallelGroups {
			names := make([]string, 0, len(group))
			for _, id := range group {
				names = append(names, name(id))
			}
			resp.ParallelGroups = append(resp.ParallelGroups, names)
		}
		return c.JSON(resp)
	})

	// ── Passes ────────────────────────────────────────────────────────
	app.Post("/pipelines/:id/passes", func(c fiber.Ctx) error {
		var rec rendergraph.PassRecord
		if err := c.Bind().JSON(&rec); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddPassRecord(c.Context(), c.Params("id"), &rec)
		if errors.Is(err, rendergraph.ErrCyclicDependency) {
			return c.Status(422).JSON(fiber.Map{"error": "cyclic dependency"})
		}
		if errors.Is(err, rendergraph.ErrUnknownRef) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/pipelines/:id/passes", func(c fiber.Ctx) error {
		passes, err := store.ListPassRecords(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(passes)
	})

	app.Get("/passes/:id", func(c fiber.Ctx) error {
		rec, err := store.GetPassRecord(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if rec == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pass not found"})
		}
		return c.JSON(rec)
	})

	app.Put("/passes/:id", func(c fiber.Ctx) error {
		var rec rendergraph.PassRecord
		if err := c.Bind().JSON(&rec); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		rec.ID = c.Params("id")
		err := store.UpdatePassRecord(c.Context(), &rec)
		if errors.Is(err, rendergraph.ErrPassRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "pass not found"})
		}
		if errors.Is(err, rendergraph.ErrCyclicDependency) {
			return c.Status(422).JSON(fiber.Map{"error": "cyclic dependency"})
		}
		if errors.Is(err, rendergraph.ErrUnknownRef) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/passes/:id", func(c fiber.Ctx) error {
		if err := store.DeletePassRecord(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Resources ─────────────────────────────────────────────────────
	app.Post("/pipelines/:id/resources", func(c fiber.Ctx) error {
		var rec rendergraph.ResourceRecord
		if err := c.Bind().JSON(&rec); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddResourceRecord(c.Context(), c.Params("id"), &rec)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/pipelines/:id/resources", func(c fiber.Ctx) error {
		resources, err := store.ListResourceRecords(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(resources)
	})

	app.Get("/resources/:id", func(c fiber.Ctx) error {
		rec, err := store.GetResourceRecord(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if rec == nil {
			return c.Status(404).JSON(fiber.Map{"error": "resource not found"})
		}
		return c.JSON(rec)
	})

	app.Put("/resources/:id", func(c fiber.Ctx) error {
		var rec rendergraph.ResourceRecord
		if err := c.Bind().JSON(&rec); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		rec.ID = c.Params("id")
		err := store.UpdateResourceRecord(c.Context(), &rec)
		if errors.Is(err, rendergraph.ErrResourceRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "resource not found"})
		}
		if errors.Is(err, rendergraph.ErrUnknownKind) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/resources/:id", func(c fiber.Ctx) error {
		if err := store.DeleteResourceRecord(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}
