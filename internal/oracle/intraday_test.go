package oracle

import "testing"

func TestExtractIntraday_AcceptsAmountNearRoundTarget(t *testing.T) {
	// A deliberately non-round rough price so the implied BTC amount for
	// $100 is not itself a round-satoshi quantity and survives the
	// micro-round-satoshi exclusion.
	rough := 47000.0
	amount := 100.0 / rough
	out := FilteredOutput{AmountBTC: amount, BlockHeight: 100, Timestamp: 1000}

	candidates := ExtractIntraday([]FilteredOutput{out}, rough)

	found := false
	for _, c := range candidates {
		if c.PriceUSD == 100.0/amount {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a $100 candidate from amount %v BTC, got %+v", amount, candidates)
	}
}

func TestExtractIntraday_RejectsOutsideBand(t *testing.T) {
	rough := 50000.0
	// $100 implies 0.002 BTC; 0.5 BTC is nowhere near any of the 14 targets at this rough price.
	out := FilteredOutput{AmountBTC: 0.5}

	candidates := ExtractIntraday([]FilteredOutput{out}, rough)

	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestExtractIntraday_RejectsMicroRoundSatoshi(t *testing.T) {
	rough := 50000.0
	// 2000 sats = 0.00002 BTC, divisible by the 1k-10k-sat increment of 100.
	out := FilteredOutput{AmountBTC: 0.00002}

	candidates := ExtractIntraday([]FilteredOutput{out}, rough)

	if len(candidates) != 0 {
		t.Errorf("expected micro-round-satoshi amount to be excluded, got %+v", candidates)
	}
}

func TestIsMicroRoundSatoshi(t *testing.T) {
	tests := []struct {
		sats float64
		want bool
	}{
		{60, true},             // 50-1000 range, increment 10
		{63, false},
		{2000, true},           // 1k-10k, increment 100
		{2050, false},
		{25000, true},          // 10k-100k, increment 1k
		{25500, false},
		{400000, true},         // 100k-1M, increment 10k
		{405000, false},
		{1500000, false},       // outside defined ranges
	}

	for _, tt := range tests {
		amountBTC := tt.sats / 1e8
		got := isMicroRoundSatoshi(amountBTC)
		if got != tt.want {
			t.Errorf("isMicroRoundSatoshi(%v sats) = %v, want %v", tt.sats, got, tt.want)
		}
	}
}

func TestExtractIntraday_SingleOutputCanYieldMultipleCandidates(t *testing.T) {
	// Every output is tested against all 14 targets independently. An amount
	// 10% above the $25 expectation is also within 25% of the $30
	// expectation (ratio 27.5/30), so it yields a candidate for both.
	rough := 19000.0
	out := FilteredOutput{AmountBTC: 1.1 * 25.0 / rough} // ~$27.50, not a round-satoshi amount
	candidates := ExtractIntraday([]FilteredOutput{out}, rough)
	if len(candidates) < 2 {
		t.Fatalf("expected candidates for both $25 and $30, got %+v", candidates)
	}
}
