package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"mutua/internal/app/bootstrap"
)

// Worker process entrypoint: loads config, wires the relay against
// postgres, then drains the ledger outbox until the process is signalled.
func main() {
	log.Println("mutua worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("mutua worker stopped with error: %v", err)
	}
}
