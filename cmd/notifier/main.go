package main // Notification worker entry point

import (
    "log"
    "os"

    "github.com/joho/godotenv"

    "github.com/matchpoint/court-reservation/internal/queue"
)

// The notifier drains the booking and waitlist event queues and writes
// notification lines.  It runs as its own process so a slow or
// unavailable broker never affects the API server.
func main() {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("warning: could not load .env: %v", err)
    }
    log.Println("notification consumer starting")
    if err := queue.StartNotificationConsumer(); err != nil {
        log.Fatalf("notification consumer stopped: %v", err)
    }
}
