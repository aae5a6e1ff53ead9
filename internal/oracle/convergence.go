package oracle

import (
	"math"
	"sort"
)

// ConvergenceResult is the fine-convergence stage's output: the final price
// plus the data needed to compute confidence and the visualization range.
type ConvergenceResult struct {
	PriceUSD     float64
	DeviationPct float64
	CandidateN   int
	Converged    bool
}

// Converge runs the two-stage geometric-median refinement described in the
// pipeline: a tight ±5% pass around rough, then a wide ±10% pass around the
// tight pass's result. Exactly one pass of each — no iteration to a fixed
// point, by design (matches the one reference implementation's actual,
// non-iterating behavior).
func Converge(candidates []Candidate, rough float64) ConvergenceResult {
	prices := make([]float64, len(candidates))
	for i, c := range candidates {
		prices[i] = c.PriceUSD
	}

	central, _, ok := medianInWindow(prices, rough*0.95, rough*1.05)
	if !ok {
		return ConvergenceResult{}
	}

	centralWide, wideSet, ok := medianInWindow(prices, central*0.90, central*1.10)
	if !ok {
		return ConvergenceResult{}
	}

	mad := medianAbsoluteDeviation(wideSet, centralWide)
	devPct := mad / centralWide

	return ConvergenceResult{
		PriceUSD:     centralWide,
		DeviationPct: devPct,
		CandidateN:   len(wideSet),
		Converged:    true,
	}
}

// medianInWindow selects the candidates strictly inside (lo, hi), sorts
// them, and returns the univariate geometric median: the point minimizing
// total L1 distance, found in O(n log n) via sort + prefix sums. Ties are
// broken toward the smaller index, i.e. the smaller price.
func medianInWindow(prices []float64, lo, hi float64) (float64, []float64, bool) {
	var filtered []float64
	for _, p := range prices {
		if p > lo && p < hi {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return 0, nil, false
	}
	sort.Float64s(filtered)

	n := len(filtered)
	prefix := make([]float64, n+1)
	for i, p := range filtered {
		prefix[i+1] = prefix[i] + p
	}
	total := prefix[n]

	bestIdx := 0
	bestDist := math.MaxFloat64
	for i, p := range filtered {
		leftSum := prefix[i]
		rightSum := total - prefix[i+1]
		leftCount := float64(i)
		rightCount := float64(n - i - 1)
		dist := p*leftCount - leftSum + rightSum - p*rightCount
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}
	return filtered[bestIdx], filtered, true
}

func medianAbsoluteDeviation(prices []float64, center float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	deviations := make([]float64, len(prices))
	for i, p := range prices {
		deviations[i] = math.Abs(p - center)
	}
	sort.Float64s(deviations)
	mid := len(deviations) / 2
	if len(deviations)%2 == 1 {
		return deviations[mid]
	}
	return (deviations[mid-1] + deviations[mid]) / 2
}
