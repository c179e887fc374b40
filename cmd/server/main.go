package main

import (
	"log"
	"time"

	"github.com/Merka34/pocket-scrum-bk/config"
	"github.com/Merka34/pocket-scrum-bk/db"
	"github.com/Merka34/pocket-scrum-bk/handlers"
	"github.com/Merka34/pocket-scrum-bk/hub"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create a new Gin router
	router := gin.Default()

	// Create the room registry
	store := db.NewRegistry()

	// Create the event and status handlers
	sessions := handlers.NewSessionHandler(store)
	status := handlers.NewStatusHandler(store)

	// Set up the periodic sweep for idle empty rooms
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			count := store.Sweep(time.Now(), cfg.RoomRetention)
			if count > 0 {
				log.Printf("Swept %d idle rooms", count)
			}
		}
	}()

	// Realtime session socket
	router.GET("/ws", hub.Serve(sessions))

	// Informational surface
	router.GET("/healthz", status.Health)
	router.GET("/api/status", status.Status)
	router.GET("/api/rooms/:code", status.GetRoom)

	log.Printf("Listening on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
