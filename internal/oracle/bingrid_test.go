package oracle

import "testing"

func TestBinIndex(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		wantOK  bool
		wantBin int
	}{
		{"reference 0.001 BTC", 0.001, true, 600},
		{"lower bound exclusive", 1e-6, false, 0},
		{"just above lower bound", 1.000001e-6, true, 0},
		{"upper bound exclusive", 1e6, false, 0},
		{"negative amount", -1, false, 0},
		{"zero amount", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := BinIndex(tt.amount)
			if ok != tt.wantOK {
				t.Fatalf("BinIndex(%v) ok = %v, want %v", tt.amount, ok, tt.wantOK)
			}
			if ok && k != tt.wantBin {
				t.Errorf("BinIndex(%v) = %d, want %d", tt.amount, k, tt.wantBin)
			}
		})
	}
}

func TestBinEdgesMonotonic(t *testing.T) {
	for k := 0; k < NumBins; k++ {
		lo := BinLowerEdge(k)
		hi := BinUpperEdge(k)
		if !(lo < hi) {
			t.Fatalf("bin %d: lower edge %v not below upper edge %v", k, lo, hi)
		}
		center := BinCenter(k)
		if center <= lo || center >= hi {
			t.Fatalf("bin %d: center %v not strictly between edges [%v,%v]", k, center, lo, hi)
		}
	}
}

func TestBinIndexRoundTrip(t *testing.T) {
	for k := 0; k < NumBins; k++ {
		center := BinCenter(k)
		got, ok := BinIndex(center)
		if !ok || got != k {
			t.Errorf("bin %d: BinIndex(BinCenter(%d)) = (%d, %v), want (%d, true)", k, k, got, ok, k)
		}
	}
}
