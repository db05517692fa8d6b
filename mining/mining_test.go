package mining

import (
	"testing"
	"time"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/mempool"
)

func newTestController(t *testing.T, minerAddr string) *Controller {
	t.Helper()
	bc := chain.New(chain.RetargetParams{Interval: 5, TargetInterval: 2}, nil)
	coinbase := &chain.Transaction{
		Inputs:  []chain.TxIn{{PrevIndex: chain.CoinbasePrevIndex}},
		Outputs: []chain.TxOut{{Value: Subsidy, Address: "GENESIS"}},
	}
	bc.InitGenesis(coinbase, 1000)

	pool, err := mempool.Open("")
	if err != nil {
		t.Fatalf("mempool.Open: %v", err)
	}
	return NewController(bc, pool, minerAddr, nil)
}

func TestMineOneAdvancesChain(t *testing.T) {
	c := newTestController(t, "MINER")
	before := c.chain.Height()

	block, err := c.MineOne()
	if err != nil {
		t.Fatalf("MineOne: %v", err)
	}
	if c.chain.Height() != before+1 {
		t.Fatalf("expected height to advance by 1, got %d -> %d", before, c.chain.Height())
	}
	if block.Transactions[0].Outputs[0].Address != "MINER" {
		t.Fatalf("coinbase did not pay the miner address")
	}
	if c.chain.GetBalance("MINER") != Subsidy {
		t.Fatalf("balance(MINER) = %d, want %d", c.chain.GetBalance("MINER"), Subsidy)
	}
}

func TestMineNMinesSequentialBlocks(t *testing.T) {
	c := newTestController(t, "MINER")
	blocks, err := c.MineN(3)
	if err != nil {
		t.Fatalf("MineN: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if c.chain.Height() != 3 {
		t.Fatalf("expected height 3, got %d", c.chain.Height())
	}
}

func TestMineOneIncludesMempoolTransactionsAndClearsPool(t *testing.T) {
	c := newTestController(t, "MINER")
	genesisTxID := c.chain.Latest().Transactions[0].ID()

	tx := &chain.Transaction{
		Inputs:  []chain.TxIn{{PrevTxID: genesisTxID, PrevIndex: 0}},
		Outputs: []chain.TxOut{{Value: Subsidy, Address: "BOB"}},
	}
	if err := c.pool.Add(tx); err != nil {
		t.Fatalf("pool.Add: %v", err)
	}

	block, err := c.MineOne()
	if err != nil {
		t.Fatalf("MineOne: %v", err)
	}
	if len(block.Transactions) != 2 {
		t.Fatalf("expected coinbase + 1 mempool tx, got %d", len(block.Transactions))
	}
	if c.pool.Len() != 0 {
		t.Fatalf("expected mempool cleared after mining, got %d pending", c.pool.Len())
	}
	if c.chain.GetBalance("BOB") != Subsidy {
		t.Fatalf("balance(BOB) = %d, want %d", c.chain.GetBalance("BOB"), Subsidy)
	}
}

func TestStartStopJoin(t *testing.T) {
	c := newTestController(t, "MINER")
	c.Start()
	if !c.Running() {
		t.Fatal("expected Running() true after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Height() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	c.Stop()
	c.Join()

	if c.Running() {
		t.Fatal("expected Running() false after Stop+Join")
	}
	if c.Height() < 1 {
		t.Fatal("expected the background miner to have mined at least one block")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c := newTestController(t, "MINER")
	c.Start()
	c.Start() // should not panic or spawn a second worker
	c.Stop()
	c.Join()
}
