package oracle

import "math"

// The bin grid partitions output amounts, in BTC, on a log10 scale running
// from 1e-6 BTC to 1e6 BTC: 200 bins per decade across 12 decades. It is a
// process-wide constant with no lifecycle — every pipeline invocation reads
// it, none mutate it.
const (
	NumBins           = 2400
	BinsPerDecade     = 200
	MinDecadeExponent = -6 // lower bound of the grid: 10^-6 BTC
	MaxDecadeExponent = 6  // upper bound of the grid: 10^6 BTC (exclusive)
)

// BinIndex returns the bin index for a positive BTC amount, and false if the
// amount falls outside the grid's (10^-6, 10^6) open range.
func BinIndex(amountBTC float64) (int, bool) {
	if amountBTC <= 1e-6 || math.IsNaN(amountBTC) || math.IsInf(amountBTC, 0) {
		return 0, false
	}
	k := int(math.Floor(BinsPerDecade*math.Log10(amountBTC) + float64(-MinDecadeExponent*BinsPerDecade)))
	if k < 0 || k >= NumBins {
		return 0, false
	}
	return k, true
}

// BinLowerEdge returns the lower edge, in BTC, of bin k: 10^(-6 + k/200).
func BinLowerEdge(k int) float64 {
	return math.Pow(10, float64(MinDecadeExponent)+float64(k)/BinsPerDecade)
}

// BinUpperEdge returns the upper edge, in BTC, of bin k: 10^(-6 + (k+1)/200).
func BinUpperEdge(k int) float64 {
	return math.Pow(10, float64(MinDecadeExponent)+float64(k+1)/BinsPerDecade)
}

// BinCenter returns the log-scale midpoint of bin k, in BTC.
func BinCenter(k int) float64 {
	return math.Pow(10, float64(MinDecadeExponent)+(float64(k)+0.5)/BinsPerDecade)
}
