package oracle

import "math"

// MaxInputCount is the input-count ceiling a candidate payment transaction
// must not exceed (R1).
const MaxInputCount = 5

// RequiredOutputCount is the exact output count a candidate payment
// transaction must have: one payment output and one change output (R2).
const RequiredOutputCount = 2

// MaxWitnessByteSize is the per-input witness size ceiling (R5).
const MaxWitnessByteSize = 500

// FilterWindow applies rules R1-R6 transaction by transaction and returns
// every output that survives — amount plus the block metadata the intraday
// extractor needs later — the count of transactions that survived R1-R6, and
// the filter's rejection diagnostics. A transaction is rejected as a whole
// by R1-R6; an individual output within a surviving transaction can still be
// dropped by the malformed/out-of-range checks that follow, which is why the
// surviving-transaction count and the surviving-output count are tracked
// separately.
func FilterWindow(w Window) ([]FilteredOutput, int, Diagnostics) {
	var diag Diagnostics
	var survivedTx int
	outputs := make([]FilteredOutput, 0, len(w.Transactions)*2)

	for _, tx := range w.Transactions {
		if tx.IsCoinbase {
			diag.RejectedCoinbase++
			continue
		}
		if len(tx.Inputs) > MaxInputCount {
			diag.RejectedTooManyInputs++
			continue
		}
		if len(tx.Outputs) != RequiredOutputCount {
			diag.RejectedOutputShape++
			continue
		}
		if hasOpReturn(tx) {
			diag.RejectedOpReturn++
			continue
		}
		if hasOversizedWitness(tx) {
			diag.RejectedWitnessSize++
			continue
		}
		if isSelfSpend(tx, w.TxIDs) {
			diag.RejectedSelfSpend++
			continue
		}

		survivedTx++
		for _, out := range tx.Outputs {
			if out.IsOpReturn {
				// Already excluded by hasOpReturn above; defensive only.
				continue
			}
			if math.IsNaN(out.AmountBTC) || math.IsInf(out.AmountBTC, 0) || out.AmountBTC < 0 {
				diag.RejectedMalformed++
				continue
			}
			if _, ok := BinIndex(out.AmountBTC); !ok {
				diag.RejectedOutOfRangeAmt++
				continue
			}
			outputs = append(outputs, FilteredOutput{
				AmountBTC:   out.AmountBTC,
				BlockHeight: tx.BlockHeight,
				Timestamp:   tx.Timestamp,
			})
		}
	}

	return outputs, survivedTx, diag
}

func hasOpReturn(tx Transaction) bool {
	for _, out := range tx.Outputs {
		if out.IsOpReturn {
			return true
		}
	}
	return false
}

func hasOversizedWitness(tx Transaction) bool {
	for _, in := range tx.Inputs {
		if in.WitnessByteSize > MaxWitnessByteSize {
			return true
		}
	}
	return false
}

func isSelfSpend(tx Transaction, windowTxIDs map[string]struct{}) bool {
	for _, in := range tx.Inputs {
		if _, ok := windowTxIDs[in.PrevTxid]; ok {
			return true
		}
	}
	return false
}
