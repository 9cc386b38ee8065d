package main

import (
	"context"
	"flag"
	"log"

	"taskhub/internal/client"
	"taskhub/internal/tui"
)

func main() {
	serverURL := flag.String("server", "http://localhost:4000/api/v1", "task service API base URL")
	flag.Parse()

	api := client.New(*serverURL)
	if err := tui.Run(context.Background(), api); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
