package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/utxoracle/price-engine/internal/api"
	"github.com/utxoracle/price-engine/internal/bitcoin"
	"github.com/utxoracle/price-engine/internal/db"
	"github.com/utxoracle/price-engine/internal/oracle"
	"github.com/utxoracle/price-engine/internal/scheduler"
)

func main() {
	log.Println("Starting UTXOracle price engine...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Use a .env file for local
	// development: cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────

	dbUrl := requireEnv("DATABASE_URL")

	dbConn, err := db.Connect(dbUrl)
	if err != nil {
		log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persistence. Error: %v", err)
	} else {
		defer dbConn.Close()
		if err := dbConn.InitSchema(); err != nil {
			log.Printf("Warning: DB schema init failed: %v", err)
		}
	}

	btcHost := getEnvOrDefault("BTC_RPC_HOST", "localhost:8332")
	btcUser := requireEnv("BTC_RPC_USER")
	btcPass := requireEnv("BTC_RPC_PASS")

	cfg := bitcoin.Config{
		Host: btcHost,
		User: btcUser,
		Pass: btcPass,
	}
	btcClient, err := bitcoin.NewClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Bitcoin RPC: %v", err)
	} else {
		defer btcClient.Shutdown()
	}

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	// Setup and start the daily price scheduler.
	// GUARD: Only start if btcClient is non-nil to avoid runtime panic.
	var sched *scheduler.Scheduler
	if btcClient != nil {
		sched = scheduler.New(btcClient, dbConn, broadcastDailyPrice(wsHub))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pollInterval := pollIntervalFromEnv()
		go sched.Run(ctx, pollInterval)
	} else {
		log.Println("WARNING: Bitcoin RPC unavailable — engine running in API-only mode (no scheduler)")
	}

	r := api.SetupRouter(dbConn, btcClient, wsHub, sched)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("Engine running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// broadcastDailyPrice returns the scheduler callback that pushes a freshly
// computed day's price to every subscribed dashboard.
func broadcastDailyPrice(wsHub *api.Hub) func(string, oracle.Result) {
	return func(date string, result oracle.Result) {
		payload, err := json.Marshal(map[string]interface{}{
			"type":   "daily_price",
			"date":   date,
			"result": result,
		})
		if err != nil {
			log.Printf("Failed to marshal daily price broadcast: %v", err)
			return
		}
		wsHub.Broadcast(payload)
	}
}

// pollIntervalFromEnv reads SCHEDULER_POLL_INTERVAL_MINUTES, defaulting to a
// 15-minute cadence — frequent enough to catch a newly closed UTC day
// promptly without hammering the node with block-range lookups.
func pollIntervalFromEnv() time.Duration {
	const defaultMinutes = 15
	val := os.Getenv("SCHEDULER_POLL_INTERVAL_MINUTES")
	if val == "" {
		return defaultMinutes * time.Minute
	}
	minutes, err := time.ParseDuration(val + "m")
	if err != nil {
		log.Printf("Warning: invalid SCHEDULER_POLL_INTERVAL_MINUTES=%q, using default of %d minutes", val, defaultMinutes)
		return defaultMinutes * time.Minute
	}
	return minutes
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
