package oracle

import (
	"math"
	"sync"
)

// StencilLength is the width, in bins, of both stencils in the bank.
const StencilLength = 803

// SmoothCenter is the stencil-array index the smooth stencil's Gaussian
// peaks at, and the index every other stencil position (including the spike
// anchor) is measured relative to when mapping into histogram bins.
const SmoothCenter = 411

// SpikeAnchorOffset is the stencil-array index that corresponds to a
// reference output of 0.001 BTC landing on a round $100 target — the anchor
// every other round-USD spike is positioned relative to.
const SpikeAnchorOffset = 402

// Search range for the coarse shift scan (§4.5), in bin units, inclusive.
const (
	ShiftSearchMin = -141
	ShiftSearchMax = 201
)

// Convolution weights (§4.5): the spike stencil counts for roughly half again
// as much as the smooth stencil when the two scores are blended.
const (
	WeightSpike  = 1.0
	WeightSmooth = 0.65
)

// roundUSDTargets lists the round-dollar amounts retail payments cluster
// around, from most to least common. Every entry gets its own spike in the
// spike stencil.
var roundUSDTargets = []float64{
	1, 2, 3, 5, 10, 15, 20, 25, 30, 40,
	50, 60, 75, 100, 150, 200, 250, 300, 400, 500,
	750, 1000, 1500, 2000, 2500, 3000, 5000, 7500, 10000,
}

// spikeW100 and spikeAlpha parameterize a symmetric log-normal bump
// w(u) = spikeW100 * exp(-spikeAlpha * ln(u/100)^2), u in USD, fitted so that
// the $100 spike is the tallest and the $10/$50/$1000 spikes fall off at the
// rate retail-payment clustering shows empirically.
const (
	spikeW100  = 0.00617
	spikeAlpha = 0.0970
)

// Bank holds the two fixed convolution kernels used by the coarse estimator:
// a broad smooth stencil modeling the background distribution of payment
// sizes, and a narrow spike stencil modeling the extra mass round-USD
// amounts pick up. Both are centered on the same reference bin and share
// StencilLength, so a single shift value applies to both during the search.
type Bank struct {
	Smooth [StencilLength]float64
	Spike  [StencilLength]float64
}

var (
	bankOnce sync.Once
	bank     Bank
)

// Stencils returns the process-wide stencil bank, building it on first call.
// The bank never changes after construction; callers may use the returned
// pointer freely across goroutines.
func Stencils() *Bank {
	bankOnce.Do(buildBank)
	return &bank
}

func buildBank() {
	const sigma = 201.0
	const linear = 5e-7
	for x := 0; x < StencilLength; x++ {
		fx := float64(x)
		dx := fx - SmoothCenter
		bank.Smooth[x] = 0.00150*math.Exp(-(dx*dx)/(2*sigma*sigma)) + linear*fx
	}

	refIndex, ok := BinIndex(0.001)
	if !ok {
		panic("oracle: reference amount 0.001 BTC fell outside the bin grid")
	}
	for _, u := range roundUSDTargets {
		amountBTC := u / 100000.0 // u dollars at the $100-per-0.001-BTC reference rate
		k, ok := BinIndex(amountBTC)
		if !ok {
			continue
		}
		idx := SpikeAnchorOffset + (k - refIndex)
		if idx < 0 || idx >= StencilLength {
			continue
		}
		w := spikeW100 * math.Exp(-spikeAlpha*logRatio(u)*logRatio(u))
		bank.Spike[idx] += w
	}
}

func logRatio(u float64) float64 {
	return math.Log(u / 100.0)
}
