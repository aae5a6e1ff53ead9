package bitcoin

import (
	"context"
	"fmt"
	"log"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/utxoracle/price-engine/pkg/models"
)

type Client struct {
	RPC    *rpcclient.Client
	Config Config
}

type Config struct {
	Host string
	User string
	Pass string
}

func NewClient(cfg Config) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true, // Bitcoin Core only supports HTTP POST mode
		DisableTLS:   true, // assuming a local node without TLS
	}

	log.Printf("Connecting to Bitcoin RPC at %s...", cfg.Host)
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, err
	}

	blockCount, err := client.GetBlockCount()
	if err != nil {
		client.Shutdown()
		return nil, err
	}
	log.Printf("Connected to Bitcoin node. Current block height: %d", blockCount)

	return &Client{RPC: client, Config: cfg}, nil
}

func (c *Client) Shutdown() {
	c.RPC.Shutdown()
}

func (c *Client) GetBlockCount() (int64, error) {
	return c.RPC.GetBlockCount()
}

func (c *Client) GetBlockHash(height int64) (*chainhash.Hash, error) {
	return c.RPC.GetBlockHash(height)
}

// GetBlockTime returns a block's header timestamp without decoding any of
// its transactions, for use in the binary search that maps a UTC day to a
// block-height range.
func (c *Client) GetBlockTime(height int64) (int64, error) {
	hash, err := c.GetBlockHash(height)
	if err != nil {
		return 0, fmt.Errorf("get block hash at height %d: %w", height, err)
	}
	header, err := c.RPC.GetBlockHeaderVerbose(hash)
	if err != nil {
		return 0, fmt.Errorf("get block header at height %d: %w", height, err)
	}
	return header.Time, nil
}

// GetBlockTxs fetches block height's transactions at verbosity 2 (full
// vin/vout detail inline, no separate prevout lookups needed) and decodes
// them into the satoshi-denominated models.Transaction shape the ingest
// layer hands to the core.
func (c *Client) GetBlockTxs(height int64) ([]models.Transaction, error) {
	hash, err := c.GetBlockHash(height)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}

	block, err := c.RPC.GetBlockVerboseTx(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}

	txs := make([]models.Transaction, len(block.Tx))
	for i, raw := range block.Tx {
		txs[i] = decodeTx(raw, int(height), block.Time)
	}
	return txs, nil
}

// GetBlockTxsForRange fetches and decodes every transaction in [startHeight,
// endHeight], inclusive, aborting early if ctx is cancelled.
func (c *Client) GetBlockTxsForRange(ctx context.Context, startHeight, endHeight int64) ([]models.Transaction, error) {
	var all []models.Transaction
	for height := startHeight; height <= endHeight; height++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		txs, err := c.GetBlockTxs(height)
		if err != nil {
			return all, fmt.Errorf("block %d: %w", height, err)
		}
		all = append(all, txs...)
	}
	return all, nil
}

func decodeTx(raw btcjson.TxRawResult, blockHeight int, blockTime int64) models.Transaction {
	isCoinbase := len(raw.Vin) > 0 && raw.Vin[0].Coinbase != ""

	inputs := make([]models.TxIn, len(raw.Vin))
	for i, vin := range raw.Vin {
		inputs[i] = models.TxIn{
			Txid:        vin.Txid,
			Vout:        vin.Vout,
			Sequence:    vin.Sequence,
			WitnessSize: witnessByteSize(vin.Witness),
		}
	}

	outputs := make([]models.TxOut, len(raw.Vout))
	for i, vout := range raw.Vout {
		outputs[i] = models.TxOut{
			Value:        btcToSats(vout.Value),
			ScriptPubKey: vout.ScriptPubKey.Hex,
			IsOpReturn:   vout.ScriptPubKey.Type == "nulldata",
		}
	}

	return models.Transaction{
		Txid:        raw.Txid,
		Inputs:      inputs,
		Outputs:     outputs,
		Weight:      int(raw.Weight),
		Vsize:       int(raw.Vsize),
		LockTime:    raw.LockTime,
		Version:     raw.Version,
		BlockHeight: blockHeight,
		BlockTime:   blockTime,
		IsCoinbase:  isCoinbase,
	}
}

// witnessByteSize sums the decoded byte length of every witness stack item,
// matching the definition rule R5 checks against.
func witnessByteSize(witness []string) int {
	total := 0
	for _, item := range witness {
		total += len(item) / 2
	}
	return total
}

// btcToSats converts a float64 BTC amount (as returned by getblock verbosity
// 2) to satoshis using btcutil.NewAmount, which performs correct IEEE-754
// rounding instead of naive float multiplication.
func btcToSats(btc float64) int64 {
	amt, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0
	}
	return int64(amt)
}
