package main

import (
	"log"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
)

// Web UI for inspecting the event queues.
func main() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/queues",
		RedisConnOpt: asynq.RedisClientOpt{Addr: redisAddr},
	})

	addr := os.Getenv("ASYNQMON_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	log.Printf("Starting queue monitor on %s with Redis at %s", addr, redisAddr)
	log.Fatal(http.ListenAndServe(addr, h))
}
