package oracle

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/utxoracle/price-engine/pkg/models"
)

// FromModel converts a satoshi-denominated models.Transaction, as produced
// by the ingest layer, into the float64-BTC Transaction the core consumes.
// This is the only place in the service satoshis become a float: everywhere
// else amounts stay integral and exact.
func FromModel(tx models.Transaction) Transaction {
	inputs := make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = Input{
			PrevTxid:        in.Txid,
			PrevVout:        in.Vout,
			Sequence:        in.Sequence,
			WitnessByteSize: in.WitnessSize,
		}
	}

	outputs := make([]Output, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = Output{
			AmountBTC:  satoshisToBTC(out.Value),
			IsOpReturn: out.IsOpReturn,
		}
	}

	return Transaction{
		Txid:        tx.Txid,
		Inputs:      inputs,
		Outputs:     outputs,
		IsCoinbase:  tx.IsCoinbase,
		BlockHeight: tx.BlockHeight,
		Timestamp:   tx.BlockTime,
	}
}

// BuildWindow converts a batch of satoshi-denominated transactions into an
// oracle Window, ready for Calculate.
func BuildWindow(txs []models.Transaction) Window {
	converted := make([]Transaction, len(txs))
	for i, tx := range txs {
		converted[i] = FromModel(tx)
	}
	return NewWindow(converted)
}

// satoshisToBTC performs the satoshi-to-BTC conversion via btcutil.Amount so
// rounding matches the rest of the Bitcoin-facing stack exactly.
func satoshisToBTC(sats int64) float64 {
	return btcutil.Amount(sats).ToBTC()
}
