package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"motiontracker/internal/app"
	"motiontracker/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(config.Load())
	if err != nil {
		log.Fatalf("Failed to start tracker: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger().Error("Tracker stopped: %v", err)
		stop()
		log.Fatalf("Tracker stopped: %v", err)
	}
}
