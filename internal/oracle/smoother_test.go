package oracle

import "testing"

func TestSuppressRoundBTC_ReplacesWithNeighborMean(t *testing.T) {
	var h Histogram
	k, ok := BinIndex(0.01)
	if !ok {
		t.Fatal("0.01 BTC should fall inside the grid")
	}
	h[k-1] = 10
	h[k] = 1000 // spike
	h[k+1] = 20

	suppressRoundBTC(&h)

	want := (h[k-1] + h[k+1]) / 2
	if h[k] != want {
		t.Errorf("suppressed cell = %v, want %v", h[k], want)
	}
	if h[k-1] != 10 || h[k+1] != 20 {
		t.Errorf("neighbors must not be mutated, got h[k-1]=%v h[k+1]=%v", h[k-1], h[k+1])
	}
}

func TestNormalizeAndCap_SumsToOneWithinActiveRange(t *testing.T) {
	var h Histogram
	for k := ActiveBinMin; k < ActiveBinMax; k++ {
		h[k] = 1
	}

	normalizeAndCap(&h)

	var sum float64
	for k := ActiveBinMin; k < ActiveBinMax; k++ {
		sum += h[k]
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("active-range sum after normalization = %v, want ~1.0", sum)
	}
}

func TestNormalizeAndCap_ClampsOutliersAndZeroesOuterTrim(t *testing.T) {
	var h Histogram
	h[0] = 5          // outside active range, must be zeroed
	h[NumBins-1] = 5  // outside active range, must be zeroed
	h[ActiveBinMin] = 1000
	h[ActiveBinMin+1] = 1

	normalizeAndCap(&h)

	if h[0] != 0 || h[NumBins-1] != 0 {
		t.Errorf("expected outer-trim bins zeroed, got h[0]=%v h[last]=%v", h[0], h[NumBins-1])
	}
	if h[ActiveBinMin] > NormalizedCellCap {
		t.Errorf("expected cap enforced, got %v > %v", h[ActiveBinMin], NormalizedCellCap)
	}
}

func TestNormalizeAndCap_AllZeroHistogramStaysZero(t *testing.T) {
	var h Histogram
	normalizeAndCap(&h)
	for k, v := range h {
		if v != 0 {
			t.Fatalf("bin %d = %v, want 0 for an all-zero input histogram", k, v)
		}
	}
}
