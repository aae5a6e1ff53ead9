// Package heuristics holds downstream, optional checks that consume the
// oracle's computed price but never feed back into it.
package heuristics

import "math"

// DivergenceThreshold is how far, as a fraction of the reference price, the
// oracle price may drift before a day is flagged for manual review.
const DivergenceThreshold = 0.05

// MinTrustedConfidence is the confidence floor below which a result is
// flagged regardless of how close it sits to the reference price.
const MinTrustedConfidence = 0.3

// DivergenceVerdict reports how an oracle price compares against an
// operator-supplied reference (an exchange-median quote, a prior day's
// price, or any other independent signal). It never consults the reference
// from inside the core; this is strictly a downstream audit step.
type DivergenceVerdict struct {
	OraclePriceUSD    float64 `json:"oraclePriceUsd"`
	ReferencePriceUSD float64 `json:"referencePriceUsd"`
	DeviationPct      float64 `json:"deviationPct"`
	LowConfidence     bool    `json:"lowConfidence"`
	Flagged           bool    `json:"flagged"`
	Reason            string  `json:"reason"`
}

// CheckDivergence compares the oracle's result against a reference price and
// returns a verdict. A flagged result should still be persisted — per the
// audit trail requirement, a suspect price is kept for review, not dropped.
func CheckDivergence(oraclePriceUSD, referencePriceUSD, confidence float64) DivergenceVerdict {
	v := DivergenceVerdict{
		OraclePriceUSD:    oraclePriceUSD,
		ReferencePriceUSD: referencePriceUSD,
	}

	if referencePriceUSD > 0 {
		v.DeviationPct = math.Abs(oraclePriceUSD-referencePriceUSD) / referencePriceUSD
	}
	v.LowConfidence = confidence < MinTrustedConfidence

	switch {
	case v.LowConfidence:
		v.Flagged = true
		v.Reason = "confidence below trust floor"
	case v.DeviationPct > DivergenceThreshold:
		v.Flagged = true
		v.Reason = "price diverges from reference beyond threshold"
	}

	return v
}
