package api

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/utxoracle/price-engine/internal/bitcoin"
	"github.com/utxoracle/price-engine/internal/db"
	"github.com/utxoracle/price-engine/internal/heuristics"
	"github.com/utxoracle/price-engine/internal/scheduler"
)

// maxBackfillDays caps an on-demand range recompute to prevent an
// unbounded request from hammering the Bitcoin node.
const maxBackfillDays = 90

type APIHandler struct {
	dbStore   *db.PostgresStore
	btcClient *bitcoin.Client
	wsHub     *Hub
	scheduler *scheduler.Scheduler
}

func SetupRouter(dbStore *db.PostgresStore, btcClient *bitcoin.Client, wsHub *Hub, sched *scheduler.Scheduler) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore:   dbStore,
		btcClient: btcClient,
		wsHub:     wsHub,
		scheduler: sched,
	}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/price/stream", wsHub.Subscribe)
		pub.GET("/price/:date", handler.handleGetPrice)
		pub.POST("/price/range", handler.handleListPrices)
		pub.GET("/scan/progress", handler.handleScanProgress)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/price/backfill", handler.handleBackfill)
		auth.POST("/price/:date/divergence", handler.handleDivergence)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "operational",
		"engine":       "utxoracle-price-engine",
		"dbConnected":  h.dbStore != nil,
		"btcConnected": h.btcClient != nil,
	})
}

// handleGetPrice returns the persisted oracle result for a single UTC day.
// GET /api/v1/price/:date  (date as YYYY-MM-DD)
func (h *APIHandler) handleGetPrice(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	row, err := h.dbStore.GetDailyPrice(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price computed for this date"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// handleListPrices returns persisted results over an inclusive date range.
// POST /api/v1/price/range { "from": "2026-07-01", "to": "2026-07-31" }
func (h *APIHandler) handleListPrices(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {from, to}"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.From); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.To); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}

	rows, err := h.dbStore.ListDailyPrices(c.Request.Context(), req.From, req.To)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list prices", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows, "from": req.From, "to": req.To})
}

// handleBackfill recomputes the price for an explicit list of UTC days,
// bypassing the scheduler's usual "yesterday only" cadence — for filling
// gaps after downtime or re-running with corrected calibration constants.
// The recompute runs synchronously to completion; for a large batch, poll
// GET /api/v1/scan/progress from another request to watch it advance.
// POST /api/v1/price/backfill { "dates": ["2026-07-01", "2026-07-02"] }
func (h *APIHandler) handleBackfill(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not initialized"})
		return
	}

	var req struct {
		Dates []string `json:"dates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {dates: [...]}"})
		return
	}
	if len(req.Dates) == 0 || len(req.Dates) > maxBackfillDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must contain between 1 and 90 entries"})
		return
	}

	days := make([]time.Time, 0, len(req.Dates))
	for _, dateStr := range req.Dates {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + dateStr})
			return
		}
		days = append(days, day)
	}

	results, err := h.scheduler.BackfillRange(context.Background(), days)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleScanProgress reports the live status of an in-flight backfill, for
// operators recomputing a wide historical range to poll instead of blocking
// on the backfill request itself.
// GET /api/v1/scan/progress
func (h *APIHandler) handleScanProgress(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not initialized"})
		return
	}
	c.JSON(http.StatusOK, h.scheduler.Progress())
}

// handleDivergence compares a persisted day's oracle price against an
// operator-supplied reference price, flagging it for review when they drift
// apart or confidence is too low to trust — a downstream audit step, never
// consulted by the core itself.
// POST /api/v1/price/:date/divergence { "referencePriceUsd": 91500 }
func (h *APIHandler) handleDivergence(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	date := c.Param("date")
	var req struct {
		ReferencePriceUSD float64 `json:"referencePriceUsd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ReferencePriceUSD <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {referencePriceUsd: <positive number>}"})
		return
	}

	row, err := h.dbStore.GetDailyPrice(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price computed for this date"})
		return
	}

	verdict := heuristics.CheckDivergence(row.PriceUSD, req.ReferencePriceUSD, row.Confidence)
	c.JSON(http.StatusOK, verdict)
}
