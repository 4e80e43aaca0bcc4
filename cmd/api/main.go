package main

import (
	"context"
	"log"

	"github.com/medisupply/restock/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("restock API exited: %v", err)
	}
}
