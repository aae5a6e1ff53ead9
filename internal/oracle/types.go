// Package oracle implements the price-discovery core: a deterministic,
// side-effect-free pipeline that turns a window of confirmed Bitcoin
// transactions into a BTC/USD price estimate, by exploiting the tendency of
// retail payments to cluster around round fiat amounts.
//
// The package takes no locks, performs no I/O, and consults no external price
// source. Every entity here is a value object owned by a single invocation of
// Calculate; the bin grid and stencil bank are the only state shared across
// invocations, and both are immutable after first use.
package oracle

// Input is one transaction input: a reference to the previous output it
// spends, its nSequence value, and the total byte size of its witness stack
// (0 for legacy, pre-segwit inputs).
type Input struct {
	PrevTxid        string
	PrevVout        uint32
	Sequence        uint32
	WitnessByteSize int
}

// Output is one transaction output: its amount in BTC and whether its script
// is an OP_RETURN data carrier.
type Output struct {
	AmountBTC  float64
	IsOpReturn bool
}

// Transaction is a decoded Bitcoin transaction as the core expects to
// receive it. Amounts are already expressed in BTC; a producer reading
// satoshi-denominated data must divide by 1e8 before constructing one (see
// FromModel and BuildWindow).
type Transaction struct {
	Txid        string
	Inputs      []Input
	Outputs     []Output
	IsCoinbase  bool
	BlockHeight int
	Timestamp   int64 // unix seconds
}

// Window is the contiguous set of transactions to analyze — typically one
// UTC day, but any contiguous block range is acceptable. TxIDs is the set of
// transaction identifiers present in the window, used to detect same-window
// self-spends (filter rule R6).
type Window struct {
	Transactions []Transaction
	TxIDs        map[string]struct{}
}

// NewWindow builds a Window from a transaction slice, deriving the window's
// txid set from the transactions themselves.
func NewWindow(txs []Transaction) Window {
	ids := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx.Txid != "" {
			ids[tx.Txid] = struct{}{}
		}
	}
	return Window{Transactions: txs, TxIDs: ids}
}

// Diagnostics holds per-filter rejection counters plus the generic
// malformed-input and out-of-range-amount counters. The filter and the
// histogram never raise; every rejection is accounted for here instead.
type Diagnostics struct {
	RejectedTooManyInputs int // R1: input count > 5
	RejectedOutputShape   int // R2: output count != 2
	RejectedCoinbase      int // R3: coinbase transaction
	RejectedOpReturn      int // R4: an output is OP_RETURN
	RejectedWitnessSize   int // R5: an input's witness exceeds 500 bytes
	RejectedSelfSpend     int // R6: an input spends a same-window txid
	RejectedMalformed     int // negative/NaN amount, missing required field
	RejectedOutOfRangeAmt int // output amount outside (1e-6, 1e6) BTC
}

// Candidate is one entry in the intraday price cloud: the price implied by
// treating a single output as exactly one round-USD target amount.
type Candidate struct {
	PriceUSD    float64
	BlockHeight int
	Timestamp   int64
}

// Result is the core's sole output type. HasPrice is false whenever the
// pipeline aborts for lack of signal (see §4.5's degenerate-shift case, or
// zero filtered outputs) — PriceUSD, PriceLo, PriceHi, and DeviationPct are
// meaningless in that case and left at their zero value.
type Result struct {
	HasPrice      bool
	PriceUSD      float64
	Confidence    float64
	TxCount       int
	OutputCount   int
	PriceLo       float64
	PriceHi       float64
	DeviationPct  float64
	Diagnostics   Diagnostics
	IntradayCloud []Candidate
}
