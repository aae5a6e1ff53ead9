package oracle

// Histogram is a fixed-length count array over the bin grid: Histogram[k]
// counts how many filtered output amounts fell into bin k.
type Histogram [NumBins]float64

// BuildHistogram assigns every amount to its bin via BinIndex and counts
// occupancy per bin. Amounts outside the grid do not occur here — the filter
// stage has already excluded them — but BuildHistogram drops them
// defensively rather than indexing out of bounds.
func BuildHistogram(amounts []float64) Histogram {
	var h Histogram
	for _, a := range amounts {
		k, ok := BinIndex(a)
		if !ok {
			continue
		}
		h[k]++
	}
	return h
}
