package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"motiontracker/internal/config"
	"motiontracker/internal/repository/jsonfile"
	"motiontracker/internal/repository/sqlite"
	"motiontracker/internal/service/render"
)

// migrate imports a coordinates.json snapshot into the sqlite store as a new
// run and can render it to an image on the way.
func main() {
	cfg := config.Load()
	jsonPath := flag.String("json", cfg.SnapshotPath, "Snapshot file to import")
	dbPath := flag.String("db", cfg.DBPath, "Database path")
	plotPath := flag.String("plot", "", "Optional image path (png, svg, pdf) to render the imported trajectory to")
	flag.Parse()

	ctx := context.Background()
	fmt.Printf("Importing trajectory from %s to database %s\n", *jsonPath, *dbPath)

	store, err := jsonfile.New(*jsonPath)
	if err != nil {
		log.Fatalf("Failed to open snapshot: %v", err)
	}
	coords, err := store.Latest(ctx)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repo := sqlite.NewPointRepository(db)
	defer repo.Close()

	version, _, err := db.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}

	if err := repo.Save(ctx, coords); err != nil {
		log.Fatalf("Failed to import trajectory: %v", err)
	}
	fmt.Printf("Imported %d points as run %s (schema version %d)\n", coords.Len(), repo.RunID(), version)

	if *plotPath != "" {
		if err := render.New(cfg.FrameWidth, cfg.FrameHeight).Save(*plotPath, coords); err != nil {
			log.Fatalf("Failed to render trajectory: %v", err)
		}
		fmt.Printf("Trajectory plot written to %s\n", *plotPath)
	}
}
