package oracle

import "math"

// IntradayBandWidth is the tolerance around the expected BTC amount for a
// round-USD target to be accepted as a candidate (§4.6 step 2).
const IntradayBandWidth = 0.25

// intradayUSDTargets are the round-dollar amounts the intraday extractor
// tests every output against. Distinct from, and smaller than, the full
// spike-stencil target list: this stage runs per-output and is tuned to the
// handful of amounts common enough to carry per-transaction signal.
var intradayUSDTargets = []float64{
	5, 10, 15, 20, 25, 30, 40, 50, 100, 150, 200, 300, 500, 1000,
}

// FilteredOutput is one surviving output carried forward from §4.1, paired
// with the block metadata the intraday cloud needs to attach to candidates.
type FilteredOutput struct {
	AmountBTC   float64
	BlockHeight int
	Timestamp   int64
}

// ExtractIntraday builds the candidate price cloud: for every surviving
// output and every round-USD target, it tests whether the output's amount is
// consistent with that target at the coarse rough price, within ±25%, and
// excludes amounts that look like round-BTC artifacts rather than
// round-fiat payments.
func ExtractIntraday(outputs []FilteredOutput, rough float64) []Candidate {
	candidates := make([]Candidate, 0, len(outputs))
	for _, out := range outputs {
		if isMicroRoundSatoshi(out.AmountBTC) {
			continue
		}
		for _, u := range intradayUSDTargets {
			expected := u / rough
			lo := 0.75 * expected
			hi := 1.25 * expected
			if out.AmountBTC <= lo || out.AmountBTC >= hi {
				continue
			}
			candidates = append(candidates, Candidate{
				PriceUSD:    u / out.AmountBTC,
				BlockHeight: out.BlockHeight,
				Timestamp:   out.Timestamp,
			})
		}
	}
	return candidates
}

// isMicroRoundSatoshi reports whether a BTC amount is a round number of
// satoshis at a scale-dependent granularity, the signature of a round-BTC
// payment rather than a round-fiat one.
func isMicroRoundSatoshi(amountBTC float64) bool {
	sats := math.Round(amountBTC * 1e8)
	if sats <= 0 {
		return false
	}

	var increment float64
	switch {
	case sats >= 50 && sats < 1_000:
		increment = 10
	case sats >= 1_000 && sats < 10_000:
		increment = 100
	case sats >= 10_000 && sats < 100_000:
		increment = 1_000
	case sats >= 100_000 && sats < 1_000_000:
		increment = 10_000
	default:
		return false
	}

	return math.Mod(sats, increment) == 0
}
