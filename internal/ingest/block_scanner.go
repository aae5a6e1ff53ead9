// Package ingest maps a UTC calendar day onto a confirmed block-height
// range and fetches the decoded transactions the oracle core needs.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/utxoracle/price-engine/internal/bitcoin"
	"github.com/utxoracle/price-engine/internal/oracle"
)

// BlockRangeForDay binary-searches the chain for the first and last block
// heights whose timestamps fall within day's UTC calendar date.
func BlockRangeForDay(ctx context.Context, client *bitcoin.Client, day time.Time) (start, end int64, err error) {
	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	default:
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Unix()
	dayEnd := dayStart + 86400

	tip, err := client.GetBlockCount()
	if err != nil {
		return 0, 0, fmt.Errorf("get block count: %w", err)
	}

	start, err = firstHeightAtOrAfter(client, dayStart, 0, tip)
	if err != nil {
		return 0, 0, err
	}
	endExclusive, err := firstHeightAtOrAfter(client, dayEnd, start, tip)
	if err != nil {
		return 0, 0, err
	}

	end = endExclusive - 1
	if end < start {
		return 0, 0, fmt.Errorf("no confirmed blocks for %s", day.Format("2006-01-02"))
	}
	return start, end, nil
}

// firstHeightAtOrAfter binary-searches [lo, hi] for the smallest height whose
// block time is >= target. Block timestamps are not strictly monotonic
// (a miner can post a timestamp up to two hours behind its predecessor) but
// median-time-past enforcement keeps them monotonic enough in practice for
// this search to land within a block or two of the true boundary.
func firstHeightAtOrAfter(client *bitcoin.Client, target, lo, hi int64) (int64, error) {
	for lo < hi {
		mid := lo + (hi-lo)/2
		t, err := client.GetBlockTime(mid)
		if err != nil {
			return 0, fmt.Errorf("get block time at height %d: %w", mid, err)
		}
		if t < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// FetchWindow fetches and decodes every confirmed transaction in
// [startHeight, endHeight] into an oracle.Window ready for Calculate.
func FetchWindow(ctx context.Context, client *bitcoin.Client, startHeight, endHeight int64) (oracle.Window, error) {
	txs, err := client.GetBlockTxsForRange(ctx, startHeight, endHeight)
	if err != nil {
		return oracle.Window{}, fmt.Errorf("fetch block range %d-%d: %w", startHeight, endHeight, err)
	}
	return oracle.BuildWindow(txs), nil
}
