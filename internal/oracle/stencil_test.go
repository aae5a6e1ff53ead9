package oracle

import "testing"

func TestStencils_SmoothPeaksAtCenter(t *testing.T) {
	bank := Stencils()

	// The linear term pushes the overall maximum a few bins right of the
	// centre, so the Gaussian component is isolated by removing it.
	peakIdx := 0
	peak := bank.Smooth[0]
	for i, v := range bank.Smooth {
		v -= 5e-7 * float64(i)
		if v > peak {
			peak = v
			peakIdx = i
		}
	}
	if peakIdx != 411 {
		t.Errorf("smooth stencil peak at index %d, want 411", peakIdx)
	}
}

func TestStencils_SpikeNonNegativeAndBounded(t *testing.T) {
	bank := Stencils()
	nonZero := 0
	for _, v := range bank.Spike {
		if v < 0 {
			t.Fatalf("spike stencil must never be negative, got %v", v)
		}
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("spike stencil has no non-zero cells")
	}
	if nonZero > 30 {
		t.Errorf("spike stencil has %d non-zero cells, want roughly 20-30", nonZero)
	}
}

func TestStencils_SpikeTallestNear100Dollars(t *testing.T) {
	bank := Stencils()
	if bank.Spike[SpikeAnchorOffset] <= 0 {
		t.Fatalf("expected a spike at the $100 anchor offset %d", SpikeAnchorOffset)
	}
	for i, v := range bank.Spike {
		if i == SpikeAnchorOffset {
			continue
		}
		if v > bank.Spike[SpikeAnchorOffset] {
			t.Errorf("cell %d (%v) taller than the $100 anchor cell (%v)", i, v, bank.Spike[SpikeAnchorOffset])
		}
	}
}

func TestStencils_Idempotent(t *testing.T) {
	a := Stencils()
	b := Stencils()
	if a != b {
		t.Error("Stencils() should return the same process-wide instance")
	}
}
