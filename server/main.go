package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsakeyfut/rendergraph"
	"github.com/itsakeyfut/rendergraph/graphdef"
	"github.com/itsakeyfut/rendergraph/postgres"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store rendergraph.Store = postgres.New(pool)

	// Preload pipeline definitions from PIPELINE_DIR, if set.
	if dir := os.Getenv("PIPELINE_DIR"); dir != "" {
		defs, err := graphdef.LoadDir(dir)
		if err != nil {
			log.Fatalf("load pipelines: %v", err)
		}
		for _, def := range defs {
			p := def.Pipeline
			if _, err := store.CreatePipeline(context.Background(), &p); err != nil {
				log.Fatalf("store pipeline %s: %v", p.ID, err)
			}
			slog.Info("pipeline loaded", "id", p.ID, "path", def.Path)
		}
	}

	app := fiber.New()
	registerRoutes(app, store)

	log.Fatal(app.Listen(":3000"))
}
