package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utxoracle/price-engine/internal/oracle"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL for the price engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}

	log.Println("daily_price schema initialized")
	return nil
}

// DailyPriceRow is the persisted shape of one UTC day's oracle.Result.
type DailyPriceRow struct {
	Date          string             `json:"date"`
	HasPrice      bool               `json:"hasPrice"`
	PriceUSD      float64            `json:"priceUsd"`
	Confidence    float64            `json:"confidence"`
	PriceLo       float64            `json:"priceLo"`
	PriceHi       float64            `json:"priceHi"`
	DeviationPct  float64            `json:"deviationPct"`
	TxCount       int                `json:"txCount"`
	OutputCount   int                `json:"outputCount"`
	Diagnostics   oracle.Diagnostics `json:"diagnostics"`
	IntradayCloud []oracle.Candidate `json:"intradayCloud"`
	RunID         uuid.UUID          `json:"runId"`
	ComputedAt    time.Time          `json:"computedAt"`
}

// SaveDailyPrice upserts the oracle result computed for date (YYYY-MM-DD).
// runID identifies the scheduler invocation that produced the result.
func (s *PostgresStore) SaveDailyPrice(ctx context.Context, date string, result oracle.Result, runID uuid.UUID) error {
	diagJSON, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	cloudJSON, err := json.Marshal(result.IntradayCloud)
	if err != nil {
		return fmt.Errorf("marshal intraday cloud: %w", err)
	}

	sql := `
		INSERT INTO daily_price
			(date, has_price, price_usd, confidence, price_lo, price_hi, deviation_pct,
			 tx_count, output_count, diagnostics, intraday_cloud, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (date) DO UPDATE SET
			has_price = EXCLUDED.has_price,
			price_usd = EXCLUDED.price_usd,
			confidence = EXCLUDED.confidence,
			price_lo = EXCLUDED.price_lo,
			price_hi = EXCLUDED.price_hi,
			deviation_pct = EXCLUDED.deviation_pct,
			tx_count = EXCLUDED.tx_count,
			output_count = EXCLUDED.output_count,
			diagnostics = EXCLUDED.diagnostics,
			intraday_cloud = EXCLUDED.intraday_cloud,
			run_id = EXCLUDED.run_id,
			computed_at = NOW();
	`
	_, err = s.pool.Exec(ctx, sql, date, result.HasPrice, result.PriceUSD, result.Confidence,
		result.PriceLo, result.PriceHi, result.DeviationPct, result.TxCount, result.OutputCount,
		diagJSON, cloudJSON, runID)
	if err != nil {
		return fmt.Errorf("upsert daily_price: %w", err)
	}
	return nil
}

// GetDailyPrice loads the persisted result for a single UTC day.
func (s *PostgresStore) GetDailyPrice(ctx context.Context, date string) (*DailyPriceRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT date, has_price, price_usd, confidence, price_lo, price_hi, deviation_pct,
		       tx_count, output_count, diagnostics, intraday_cloud, run_id, computed_at
		FROM daily_price WHERE date = $1`, date)

	var r DailyPriceRow
	var d time.Time
	var diagJSON, cloudJSON []byte
	err := row.Scan(&d, &r.HasPrice, &r.PriceUSD, &r.Confidence, &r.PriceLo, &r.PriceHi,
		&r.DeviationPct, &r.TxCount, &r.OutputCount, &diagJSON, &cloudJSON, &r.RunID, &r.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("query daily_price: %w", err)
	}
	r.Date = d.Format("2006-01-02")
	if err := json.Unmarshal(diagJSON, &r.Diagnostics); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	if err := json.Unmarshal(cloudJSON, &r.IntradayCloud); err != nil {
		return nil, fmt.Errorf("unmarshal intraday cloud: %w", err)
	}
	return &r, nil
}

// ListDailyPrices loads persisted results for [from, to], inclusive, ordered
// by date ascending. The intraday candidate cloud is omitted — callers that
// need it should fetch the specific day via GetDailyPrice.
func (s *PostgresStore) ListDailyPrices(ctx context.Context, from, to string) ([]DailyPriceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, has_price, price_usd, confidence, price_lo, price_hi, deviation_pct,
		       tx_count, output_count, run_id, computed_at
		FROM daily_price WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily_price range: %w", err)
	}
	defer rows.Close()

	var results []DailyPriceRow
	for rows.Next() {
		var r DailyPriceRow
		var d time.Time
		if err := rows.Scan(&d, &r.HasPrice, &r.PriceUSD, &r.Confidence, &r.PriceLo, &r.PriceHi,
			&r.DeviationPct, &r.TxCount, &r.OutputCount, &r.RunID, &r.ComputedAt); err != nil {
			return nil, err
		}
		r.Date = d.Format("2006-01-02")
		results = append(results, r)
	}
	if results == nil {
		results = []DailyPriceRow{}
	}
	return results, nil
}

// GetPool exposes the connection pool to collaborators that need raw access.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
