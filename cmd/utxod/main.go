// Command utxod is the interactive CLI node: wallet, chain, mempool and
// miner wired together behind the command set spec §6 describes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vrecan/death/v3"
	"go.uber.org/zap"

	"github.com/petiidaniel/utxod/chain"
	"github.com/petiidaniel/utxod/internal/hashutil"
	"github.com/petiidaniel/utxod/mempool"
	"github.com/petiidaniel/utxod/mining"
	"github.com/petiidaniel/utxod/wallet"
)

// Config holds every path and tunable the node needs, populated
// straight from command-line flags.
type Config struct {
	ChainPath       string
	WalletPath      string
	MempoolPath     string
	AddressBookPath string
	MinerAddr       string
	Memo            string
}

func parseConfig() Config {
	var c Config
	flag.StringVar(&c.ChainPath, "chain", "blockchain.dat", "path to the block log")
	flag.StringVar(&c.WalletPath, "wallet", "wallet.dat", "path to the node's wallet credential file")
	flag.StringVar(&c.MempoolPath, "mempool", "", "path to the mempool durability database (empty disables persistence)")
	flag.StringVar(&c.AddressBookPath, "addressbook", "addressbook.dat", "path to the multi-wallet address book")
	flag.StringVar(&c.MinerAddr, "miner", "", "address to receive mining rewards (defaults to the node's own wallet)")
	flag.StringVar(&c.Memo, "memo", "", "free-text note logged alongside each mined block's coinbase")
	flag.Parse()
	return c
}

func main() {
	cfg := parseConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	w, generated, corrupted, err := wallet.LoadOrGenerate(cfg.WalletPath)
	if err != nil {
		sugar.Fatalw("failed to load wallet", "error", err)
	}
	if generated {
		if err := w.Save(cfg.WalletPath); err != nil {
			sugar.Warnw("failed to persist generated wallet", "error", err)
		}
		if corrupted {
			sugar.Warnw("wallet file was corrupted and unparseable; generated a new wallet", "path", cfg.WalletPath, "address", w.Address())
		} else {
			sugar.Infow("generated a new wallet", "address", w.Address())
		}
	}

	minerAddr := cfg.MinerAddr
	if minerAddr == "" {
		minerAddr = w.Address()
	} else if !wallet.ValidateAddress(minerAddr) {
		sugar.Fatalw("invalid miner address", "address", minerAddr)
	}

	bc, err := chain.LoadFromDisk(cfg.ChainPath, chain.DefaultRetargetParams, sugar)
	if err != nil {
		sugar.Fatalw("failed to load chain", "error", err)
	}
	if bc.Height() < 0 {
		coinbase := &chain.Transaction{
			Inputs:  []chain.TxIn{{PrevIndex: chain.CoinbasePrevIndex}},
			Outputs: []chain.TxOut{{Value: mining.Subsidy, Address: minerAddr}},
		}
		bc.InitGenesis(coinbase, uint32(time.Now().Unix()))
		sugar.Infow("initialized a fresh chain", "miner", minerAddr)
	}

	pool, err := mempool.Open(cfg.MempoolPath)
	if err != nil {
		sugar.Fatalw("failed to open mempool", "error", err)
	}

	controller := mining.NewController(bc, pool, minerAddr, sugar)
	controller.Memo = cfg.Memo

	book, err := wallet.NewAddressBook(cfg.AddressBookPath)
	if err != nil {
		sugar.Fatalw("failed to load address book", "error", err)
	}

	node := &node{cfg: cfg, wallet: w, miner: controller, book: book, log: sugar}

	go node.waitForDeath()

	node.repl()
}

// node dispatches REPL commands. Every command that touches the
// chain/utxoSet/mempool trio goes through n.miner's locking accessors
// rather than holding a raw *chain.Blockchain or *mempool.Mempool, so
// reads from the REPL never race the background miner goroutine.
type node struct {
	cfg    Config
	wallet *wallet.Wallet
	miner  *mining.Controller
	book   *wallet.AddressBook
	log    *zap.SugaredLogger
}

// waitForDeath installs the graceful-shutdown handler: on SIGINT/SIGTERM
// the miner is stopped and joined, the chain is flushed, and the
// process exits 0.
func (n *node) waitForDeath() {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		n.shutdown()
		os.Exit(0)
	})
}

func (n *node) shutdown() {
	n.miner.Stop()
	n.miner.Join()
	if err := n.miner.SaveChain(n.cfg.ChainPath); err != nil {
		n.log.Errorw("failed to save chain on shutdown", "error", err)
	}
	if err := n.miner.ClosePool(); err != nil {
		n.log.Warnw("failed to close mempool on shutdown", "error", err)
	}
}

func (n *node) repl() {
	fmt.Printf("utxod ready. address=%s\n", n.wallet.Address())
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if err := n.dispatch(fields[0], fields[1:]); err != nil {
			fmt.Println("error:", err)
		}
		if fields[0] == "exit" {
			return
		}
	}
}

func (n *node) dispatch(cmd string, args []string) error {
	switch cmd {
	case "start":
		n.miner.Start()
		fmt.Println("background miner started")
	case "stop":
		n.miner.Stop()
		n.miner.Join()
		fmt.Println("background miner stopped")
	case "mine":
		count := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("mine: bad block count %q", args[0])
			}
			count = v
		}
		blocks, err := n.miner.MineN(count)
		if err != nil {
			return err
		}
		fmt.Printf("mined %d block(s)\n", len(blocks))
	case "send":
		if len(args) != 2 {
			return fmt.Errorf("send: usage: send <addr> <amount>")
		}
		if !wallet.ValidateAddress(args[0]) {
			return fmt.Errorf("send: invalid recipient address %q", args[0])
		}
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("send: bad amount %q", args[1])
		}
		tx, err := n.wallet.CreateTransaction(args[0], amount, n.miner)
		if err != nil {
			return err
		}
		if err := n.miner.AddTransaction(tx); err != nil {
			return err
		}
		id := tx.ID()
		fmt.Printf("queued transaction %s\n", hashutil.ToHex(id[:]))
	case "balance":
		addr := n.wallet.Address()
		if len(args) > 0 {
			addr = args[0]
		}
		fmt.Printf("%s: %d\n", addr, n.miner.GetBalance(addr))
	case "address":
		fmt.Printf("address: %s\npublic key: %s\n", n.wallet.Address(), hashutil.ToHex(n.wallet.PublicKey))
	case "chain":
		for _, info := range n.miner.ChainInfo() {
			fmt.Printf("height=%d hash=%s txs=%d difficulty=%d\n", info.Height, hashutil.ToHex(info.Hash[:]), info.TxCount, info.Difficulty)
		}
	case "mempool":
		for _, info := range n.miner.MempoolInfo() {
			fmt.Printf("%s inputs=%d outputs=%d\n", hashutil.ToHex(info.ID[:]), info.Inputs, info.Outputs)
		}
	case "createwallet":
		addr := n.book.Add()
		if err := n.book.Save(n.cfg.AddressBookPath); err != nil {
			return err
		}
		fmt.Printf("created wallet %s\n", addr)
	case "listaddresses":
		for _, addr := range n.book.Addresses() {
			fmt.Println(addr)
		}
	case "exit":
		n.shutdown()
		fmt.Println("bye")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
