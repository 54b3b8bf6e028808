package main

import (
	"context"
	"log"

	"profile-service/cmd/web/app"
	"profile-service/pkg/lifecycle"
)

func main() {
	ctx, stop := lifecycle.WithSignal(context.Background())
	defer stop()

	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to start profile web application: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("profile web application exited with error: %v", err)
	}
}
