package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"library-app/pkg/database"
	"library-app/pkg/seed"
	"library-app/pkg/sessions"
)

func main() {
	log.Println("Starting library service...")

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Run(db); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	ttl := sessions.DefaultTTL
	if hours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "")); err == nil && hours > 0 {
		ttl = time.Duration(hours) * time.Hour
	}

	srv := newServer(db, ttl)
	addr := getEnv("HTTP_ADDR", ":8080")
	log.Printf("Library service starting on %s", addr)
	if err := srv.router().Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
