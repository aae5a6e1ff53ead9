// Package scheduler watches for newly closed UTC days and drives the
// ingest → core → persist → broadcast pipeline for each one.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/utxoracle/price-engine/internal/bitcoin"
	"github.com/utxoracle/price-engine/internal/db"
	"github.com/utxoracle/price-engine/internal/ingest"
	"github.com/utxoracle/price-engine/internal/oracle"
)

const secondsPerDay = int64(24 * time.Hour / time.Second)

// Scheduler polls for the most recently closed UTC day, ingests its
// confirmed transactions, runs the oracle core, and persists the result.
type Scheduler struct {
	btcClient *bitcoin.Client
	dbStore   *db.PostgresStore
	onResult  func(date string, result oracle.Result)

	lastClosedDay atomic.Int64
	isRunning     atomic.Bool

	backfillRunning   atomic.Bool
	backfillTotal     atomic.Int64
	backfillCompleted atomic.Int64
	backfillFailed    atomic.Int64
}

// BackfillProgress reports how an in-flight (or most recently finished)
// BackfillRange call is progressing, for operators polling a long-running
// historical recompute spanning many days.
type BackfillProgress struct {
	IsRunning bool  `json:"isRunning"`
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Progress returns the current BackfillProgress snapshot.
func (s *Scheduler) Progress() BackfillProgress {
	return BackfillProgress{
		IsRunning: s.backfillRunning.Load(),
		Total:     s.backfillTotal.Load(),
		Completed: s.backfillCompleted.Load(),
		Failed:    s.backfillFailed.Load(),
	}
}

// BackfillResult is the per-day outcome of a BackfillRange call.
type BackfillResult struct {
	Date  string `json:"date"`
	Error string `json:"error,omitempty"`
}

// BackfillRange recomputes the price for each of days in order, tracking
// progress so a caller can poll Progress() while it runs. A backfill already
// in progress is rejected rather than interleaved with a second one, since
// both would contend for the same Bitcoin RPC connection.
func (s *Scheduler) BackfillRange(ctx context.Context, days []time.Time) ([]BackfillResult, error) {
	if !s.backfillRunning.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("a backfill is already in progress")
	}
	defer s.backfillRunning.Store(false)

	s.backfillTotal.Store(int64(len(days)))
	s.backfillCompleted.Store(0)
	s.backfillFailed.Store(0)

	results := make([]BackfillResult, 0, len(days))
	for _, day := range days {
		dateStr := day.Format("2006-01-02")
		if _, err := s.ProcessDay(ctx, day); err != nil {
			s.backfillFailed.Add(1)
			results = append(results, BackfillResult{Date: dateStr, Error: err.Error()})
			continue
		}
		s.backfillCompleted.Add(1)
		results = append(results, BackfillResult{Date: dateStr})
	}
	return results, nil
}

// New returns a Scheduler. onResult, if non-nil, is called after each
// successfully computed day (used to broadcast over the WebSocket hub).
func New(btcClient *bitcoin.Client, dbStore *db.PostgresStore, onResult func(string, oracle.Result)) *Scheduler {
	s := &Scheduler{btcClient: btcClient, dbStore: dbStore, onResult: onResult}
	s.lastClosedDay.Store(-1)
	return s
}

// Run polls every pollInterval for an unprocessed, fully closed UTC day.
func (s *Scheduler) Run(ctx context.Context, pollInterval time.Duration) {
	if s.btcClient == nil {
		log.Println("[Scheduler] Bitcoin client is nil; scheduler will not start")
		return
	}

	log.Println("Starting daily price scheduler...")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping daily price scheduler...")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isRunning.Load() {
		log.Println("[Scheduler] previous tick still running, skipping")
		return
	}
	s.isRunning.Store(true)
	defer s.isRunning.Store(false)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	dayNum := yesterday.Unix() / secondsPerDay
	if dayNum <= s.lastClosedDay.Load() {
		return
	}

	dateStr := yesterday.Format("2006-01-02")
	result, err := s.ProcessDay(ctx, yesterday)
	if err != nil {
		log.Printf("[Scheduler] failed to process %s: %v", dateStr, err)
		return
	}

	s.lastClosedDay.Store(dayNum)
	log.Printf("[Scheduler] %s: hasPrice=%v price=%.2f confidence=%.3f txCount=%d",
		dateStr, result.HasPrice, result.PriceUSD, result.Confidence, result.TxCount)

	if s.onResult != nil {
		s.onResult(dateStr, result)
	}
}

// ProcessDay ingests day's confirmed blocks, runs the core, and persists the
// result if a database is configured. Exported so callers can backfill a
// specific historical day outside the regular polling cadence.
func (s *Scheduler) ProcessDay(ctx context.Context, day time.Time) (oracle.Result, error) {
	startHeight, endHeight, err := ingest.BlockRangeForDay(ctx, s.btcClient, day)
	if err != nil {
		return oracle.Result{}, fmt.Errorf("resolve block range: %w", err)
	}

	window, err := ingest.FetchWindow(ctx, s.btcClient, startHeight, endHeight)
	if err != nil {
		return oracle.Result{}, fmt.Errorf("fetch window: %w", err)
	}

	result := oracle.Calculate(window)

	if s.dbStore != nil {
		runID := uuid.New()
		if err := s.dbStore.SaveDailyPrice(ctx, day.Format("2006-01-02"), result, runID); err != nil {
			return result, fmt.Errorf("persist result: %w", err)
		}
	}

	return result, nil
}
