// Package mining implements the background mining worker and the
// manual single-shot mining path, both built on a task-owning-snapshot
// design: the miner clones what it needs under the shared lock, does
// the expensive proof-of-work search unlocked, then re-takes the lock
// only to validate and commit (spec §4.9, §5).
package mining

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/internal/hashutil"
	"github.com/petiidaniel/utxod/mempool"
)

// Subsidy is the fixed coinbase reward spec §4.9 step 3 mints per block.
const Subsidy = 5_000_000_000

// idleSleep is how long the background loop yields between iterations
// (spec §4.9 step 6).
const idleSleep = 50 * time.Millisecond

// Controller owns the single mutex spec §5 requires over chain, utxoSet
// and mempool (utxoSet is private to chain.Blockchain; the mutex here
// covers every operation that touches the Blockchain or the Mempool).
type Controller struct {
	mu      sync.Mutex
	chain   *chain.Blockchain
	pool    *mempool.Mempool
	address string
	log     *zap.SugaredLogger

	// Memo is a free-text note logged alongside each mined block's
	// coinbase. It never enters consensus-critical transaction fields;
	// it exists purely as an operator-facing annotation (the original
	// program's coinbase carried a similar free-text message).
	Memo string

	mining int32 // atomic bool, gates the background worker loop
	stop   chan struct{}
	done   chan struct{}
}

// NewController wires a miner address, the chain and the mempool under
// one lock.
func NewController(bc *chain.Blockchain, pool *mempool.Mempool, minerAddress string, log *zap.SugaredLogger) *Controller {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Controller{chain: bc, pool: pool, address: minerAddress, log: log}
}

// snapshot is what a mining iteration clones under the lock before
// releasing it for the unlocked proof-of-work search.
type snapshot struct {
	prevHash   [32]byte
	difficulty uint32
	mempoolTxs []*chain.Transaction
}

func (c *Controller) takeSnapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		prevHash:   c.chain.Latest().Hash(),
		difficulty: c.chain.RequiredDifficulty(),
		mempoolTxs: c.pool.Snapshot(),
	}
}

// BlockInfo is a locked, point-in-time view of one block, for callers
// (the CLI's "chain" command) that must not touch chain/utxoSet/mempool
// without going through the controller's lock (spec §5).
type BlockInfo struct {
	Height     int
	Hash       [32]byte
	TxCount    int
	Difficulty uint32
}

// TxInfo is a locked, point-in-time view of one pending transaction.
type TxInfo struct {
	ID      [32]byte
	Inputs  int
	Outputs int
}

// GetBalance implements wallet.BlockchainView under the controller's
// lock, so wallet.CreateTransaction can be handed a *Controller in
// place of the bare *chain.Blockchain.
func (c *Controller) GetBalance(addr string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain.GetBalance(addr)
}

// FindUTXOs implements wallet.BlockchainView under the controller's lock.
func (c *Controller) FindUTXOs(addr string) map[string]chain.TxOut {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain.FindUTXOs(addr)
}

// Height returns the current chain height under the controller's lock.
func (c *Controller) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain.Height()
}

// ChainInfo returns a per-block summary of the whole chain under the
// controller's lock.
func (c *Controller) ChainInfo() []BlockInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	blocks := c.chain.Blocks()
	difficulty := c.chain.RequiredDifficulty()
	infos := make([]BlockInfo, len(blocks))
	for i, b := range blocks {
		infos[i] = BlockInfo{Height: i, Hash: b.Hash(), TxCount: len(b.Transactions), Difficulty: difficulty}
	}
	return infos
}

// MempoolInfo returns a summary of every pending transaction under the
// controller's lock.
func (c *Controller) MempoolInfo() []TxInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	txs := c.pool.Snapshot()
	infos := make([]TxInfo, len(txs))
	for i, tx := range txs {
		infos[i] = TxInfo{ID: tx.ID(), Inputs: len(tx.Inputs), Outputs: len(tx.Outputs)}
	}
	return infos
}

// AddTransaction queues tx in the mempool under the controller's lock.
func (c *Controller) AddTransaction(tx *chain.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Add(tx)
}

// SaveChain writes the chain to path under the controller's lock, so it
// can't race a background miner's AddBlock.
func (c *Controller) SaveChain(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain.SaveToDisk(path)
}

// ClosePool closes the mempool's durability store under the
// controller's lock.
func (c *Controller) ClosePool() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Close()
}

// assembleAndMine builds a candidate block from s and runs the unlocked
// PoW search (spec §4.9 steps 2-4).
func assembleAndMine(s snapshot, minerAddress string) *chain.Block {
	coinbase := &chain.Transaction{
		Inputs:  []chain.TxIn{{PrevIndex: chain.CoinbasePrevIndex}},
		Outputs: []chain.TxOut{{Value: Subsidy, Address: minerAddress}},
	}

	txs := make([]*chain.Transaction, 0, 1+len(s.mempoolTxs))
	txs = append(txs, coinbase)
	txs = append(txs, s.mempoolTxs...)

	block := &chain.Block{
		Version:       1,
		PrevBlockHash: s.prevHash,
		Timestamp:     uint32(time.Now().Unix()),
		Bits:          s.difficulty,
		Transactions:  txs,
	}
	chain.FinalizeAndMine(block, s.difficulty)
	return block
}

// commit re-acquires the lock, checks the mined block is still built on
// the current tip, and submits it. A stale block (the tip moved while
// mining ran) is discarded (spec §4.9 step 5, §5's first-writer-wins
// rule).
func (c *Controller) commit(block *chain.Block, snapshotLen int) (accepted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if block.PrevBlockHash != c.chain.Latest().Hash() {
		c.log.Infow("discarding stale mined block", "prevHash", hashutil.ToHex(block.PrevBlockHash[:]))
		return false, nil
	}

	if err := c.chain.AddBlock(block); err != nil {
		return false, err
	}
	if snapshotLen > 0 {
		if err := c.pool.Clear(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// MineOne runs a single manual mining round with the lock held
// throughout (spec §4.9: "simpler, but blocks the background miner").
// It returns the mined block once accepted.
func (c *Controller) MineOne() (*chain.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := snapshot{
		prevHash:   c.chain.Latest().Hash(),
		difficulty: c.chain.RequiredDifficulty(),
		mempoolTxs: c.pool.Snapshot(),
	}
	block := assembleAndMine(s, c.address)

	if err := c.chain.AddBlock(block); err != nil {
		return nil, err
	}
	c.logAcceptance()
	if len(s.mempoolTxs) > 0 {
		if err := c.pool.Clear(); err != nil {
			return block, err
		}
	}
	return block, nil
}

// logAcceptance logs a just-accepted block's height and, if set, the
// controller's coinbase memo.
func (c *Controller) logAcceptance() {
	if c.Memo != "" {
		c.log.Infow("mined block accepted", "height", c.chain.Height(), "memo", c.Memo)
		return
	}
	c.log.Infow("mined block accepted", "height", c.chain.Height())
}

// MineN runs count manual mining rounds sequentially, stopping at the
// first error.
func (c *Controller) MineN(count int) ([]*chain.Block, error) {
	blocks := make([]*chain.Block, 0, count)
	for i := 0; i < count; i++ {
		b, err := c.MineOne()
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Start launches the background mining loop if it isn't already
// running. Safe to call repeatedly; a second call while mining is a
// no-op.
func (c *Controller) Start() {
	if !atomic.CompareAndSwapInt32(&c.mining, 0, 1) {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run()
	c.log.Infow("background miner started", "address", c.address)
}

// Stop signals the background loop to exit at its next iteration
// boundary (spec §5: cancellation latency is one block's mining time).
// It does not wait for the worker to finish; call Join for that.
func (c *Controller) Stop() {
	if !atomic.CompareAndSwapInt32(&c.mining, 1, 0) {
		return
	}
	close(c.stop)
	c.log.Infow("background miner stopped", "address", c.address)
}

// Join blocks until the background worker has exited.
func (c *Controller) Join() {
	if c.done == nil {
		return
	}
	<-c.done
}

// Running reports whether the background loop is currently active.
func (c *Controller) Running() bool {
	return atomic.LoadInt32(&c.mining) == 1
}

func (c *Controller) run() {
	defer close(c.done)

	for atomic.LoadInt32(&c.mining) == 1 {
		s := c.takeSnapshot()
		block := assembleAndMine(s, c.address)

		if atomic.LoadInt32(&c.mining) != 1 {
			return
		}

		accepted, err := c.commit(block, len(s.mempoolTxs))
		if err != nil {
			c.log.Warnw("mined block rejected", "error", err)
		} else if accepted {
			c.logAcceptance()
		}

		select {
		case <-c.stop:
			return
		case <-time.After(idleSleep):
		}
	}
}
