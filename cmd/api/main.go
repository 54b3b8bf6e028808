package main

import (
	"context"
	"log"

	"profile-service/cmd/api/app"
	"profile-service/pkg/lifecycle"
)

func main() {
	ctx, stop := lifecycle.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("failed to start profile API: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("profile API exited with error: %v", err)
	}
}
