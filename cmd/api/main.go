package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/parceltrack/parcel-api-server/internal/app/api"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("parcel API failed: %v", err)
	}
}
