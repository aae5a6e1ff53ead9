package oracle

import "testing"

func candidatesAround(center float64, n int, stepPct float64) []Candidate {
	half := n / 2
	candidates := make([]Candidate, 0, n)
	for i := -half; i <= half; i++ {
		candidates = append(candidates, Candidate{PriceUSD: center * (1 + float64(i)*stepPct)})
	}
	return candidates
}

func TestConverge_SymmetricClusterConvergesToCenter(t *testing.T) {
	rough := 50000.0
	candidates := candidatesAround(rough, 100, 0.0005) // spans +-2.5% around rough

	result := Converge(candidates, rough)

	if !result.Converged {
		t.Fatal("expected convergence with a dense symmetric cluster")
	}
	if diff := result.PriceUSD - rough; diff > 1 || diff < -1 {
		t.Errorf("PriceUSD = %v, want close to %v", result.PriceUSD, rough)
	}
	if result.DeviationPct <= 0 {
		t.Errorf("expected a positive deviation percentage, got %v", result.DeviationPct)
	}
}

func TestConverge_NoCandidatesInWindow(t *testing.T) {
	rough := 50000.0
	candidates := []Candidate{{PriceUSD: 1000}, {PriceUSD: 2000}} // far outside +-5%

	result := Converge(candidates, rough)

	if result.Converged {
		t.Fatal("expected no convergence when no candidate falls in the tight window")
	}
}

func TestConverge_EmptyCandidateList(t *testing.T) {
	result := Converge(nil, 50000.0)
	if result.Converged {
		t.Fatal("expected no convergence for an empty candidate cloud")
	}
}

func TestMedianInWindow_TieBreaksTowardSmallerPrice(t *testing.T) {
	// Evenly spaced: the two central points (30, 40) tie for minimum total
	// L1 distance; the rule breaks toward the smaller index, hence 30.
	prices := []float64{10, 20, 30, 40, 50, 60}
	median, filtered, ok := medianInWindow(prices, 0, 1000)
	if !ok {
		t.Fatal("expected a median")
	}
	if len(filtered) != len(prices) {
		t.Fatalf("expected all prices in window, got %d", len(filtered))
	}
	if median != 30 {
		t.Errorf("median = %v, want 30", median)
	}
}

func TestMedianAbsoluteDeviation_ZeroForIdenticalValues(t *testing.T) {
	prices := []float64{50, 50, 50, 50}
	if mad := medianAbsoluteDeviation(prices, 50); mad != 0 {
		t.Errorf("MAD = %v, want 0", mad)
	}
}
