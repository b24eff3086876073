// Package database handles the chain of sealed blocks: creating the genesis
// block, hashing, proof of work, extending the chain and verifying it.
package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardanlabs/hashchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/hashchain/foundation/blockchain/signature"
)

// Config represents the configuration required to construct the chain.
type Config struct {
	Genesis   genesis.Genesis
	Storage   Storage
	EvHandler func(v string, args ...any)
}

// Database manages the append only chain of sealed blocks.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	hasher      Hasher
	pow         POW
	latestBlock Block
	count       uint64
	storage     Storage
	evHandler   func(v string, args ...any)
}

// New constructs the chain. Blocks already held by the storage are loaded and
// verified, otherwise the genesis block is created.
func New(cfg Config) (*Database, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hasher, err := NewHasher(cfg.Genesis.HashStrategy)
	if err != nil {
		return nil, err
	}

	pow, err := NewPOW(POWConfig{
		Hasher:     hasher,
		Difficulty: cfg.Genesis.Difficulty,
		Workers:    cfg.Genesis.Workers,
		EvHandler:  ev,
	})
	if err != nil {
		return nil, err
	}

	db := Database{
		genesis:   cfg.Genesis,
		hasher:    hasher,
		pow:       pow,
		storage:   cfg.Storage,
		evHandler: ev,
	}

	// Read all the blocks the storage already holds.
	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		db.latestBlock = block
		db.count++
	}

	if db.count == 0 {
		if err := db.appendGenesis(); err != nil {
			return nil, err
		}

		return &db, nil
	}

	if report := db.Validate(); !report.Valid() {
		return nil, fmt.Errorf("stored chain is invalid: %s", report)
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// appendGenesis builds the first block of the chain and seals it with its own
// digest. The genesis block is accepted without proof of work.
func (db *Database) appendGenesis() error {
	block := newGenesisBlock()
	block.seal(db.hasher.Digest(block))

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("write genesis: %w", err)
	}

	db.latestBlock = block
	db.count = 1

	db.evHandler("database: appendGenesis: blk[%d]: hash[%s]", block.Index, block.Hash())

	return nil
}

// =============================================================================

// Genesis returns the genesis information the chain was built with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Difficulty returns the number of leading zeros a block hash must have.
func (db *Database) Difficulty() uint {
	return db.pow.Difficulty()
}

// Digest returns the digest of the block's content as computed by the chain.
func (db *Database) Digest(block Block) string {
	return db.hasher.Digest(block)
}

// LatestBlock returns the most recently appended block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.count == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.latestBlock, nil
}

// Count returns the number of blocks in the chain.
func (db *Database) Count() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.count
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block. The caller is responsible for holding a consistent view.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// Blocks returns a copy of every block in the chain in order.
func (db *Database) Blocks() ([]BlockData, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]BlockData, 0, db.count)

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, blockData)
	}

	return blocks, nil
}

// GetBlock returns a copy of the block at the specified index.
func (db *Database) GetBlock(index uint64) (BlockData, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index >= db.count {
		return BlockData{}, ErrBlockNotFound
	}

	return db.storage.GetBlock(index)
}

// =============================================================================

// Mine constructs a new block from the specified transactions on top of the
// chain tail, performs the proof of work and extends the chain with it. The
// search runs outside the lock and can be cancelled through the context.
func (db *Database) Mine(ctx context.Context, trans []string) (Block, error) {
	if len(trans) == 0 {
		return Block{}, ErrNoTransactions
	}

	if err := CheckTransactions(trans); err != nil {
		return Block{}, err
	}

	prevBlock, err := db.LatestBlock()
	if err != nil {
		return Block{}, err
	}

	block := newBlock(prevBlock, trans)

	db.evHandler("database: Mine: MINING: perform POW: blk[%d]: numTrans[%d]", block.Index, len(block.Transactions))

	nonce, hash, err := db.pow.FindNonce(ctx, block)
	if err != nil {
		return Block{}, err
	}
	block.Nonce = nonce

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return Block{}, ctx.Err()
	}

	if err := db.Extend(block, hash); err != nil {
		return Block{}, err
	}
	block.seal(hash)

	return block, nil
}

// Extend validates the candidate block and the proof against the current tail
// and, if everything checks out, seals the block with the proof and appends
// it. The chain is not changed when an error is returned.
func (db *Database) Extend(candidate Block, proof string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.evHandler("database: Extend: validate: blk[%d]: check: block is not sealed", candidate.Index)

	if candidate.IsSealed() {
		return ErrBlockSealed
	}

	db.evHandler("database: Extend: validate: blk[%d]: check: parent hash does match the chain tail", candidate.Index)

	if candidate.PrevBlockHash != db.latestBlock.Hash() {
		return &LinkageError{Index: candidate.Index, Got: candidate.PrevBlockHash, Exp: db.latestBlock.Hash()}
	}

	db.evHandler("database: Extend: validate: blk[%d]: check: block index is the next index", candidate.Index)

	if nextIndex := db.latestBlock.Index + 1; candidate.Index != nextIndex {
		return &LinkageError{Index: candidate.Index, Got: fmt.Sprint(candidate.Index), Exp: fmt.Sprint(nextIndex)}
	}

	db.evHandler("database: Extend: validate: blk[%d]: check: block has transactions", candidate.Index)

	if len(candidate.Transactions) == 0 {
		return ErrNoTransactions
	}

	if err := CheckTransactions(candidate.Transactions); err != nil {
		return err
	}

	db.evHandler("database: Extend: validate: blk[%d]: check: block hash has been solved", candidate.Index)

	if !db.pow.IsSolved(proof) {
		return &ProofError{Index: candidate.Index, Hash: proof, Reason: fmt.Sprintf("hash does not have %d leading zeros", db.pow.Difficulty())}
	}

	db.evHandler("database: Extend: validate: blk[%d]: check: block hash matches the block content", candidate.Index)

	if digest := db.hasher.Digest(candidate); proof != digest {
		return &ProofError{Index: candidate.Index, Hash: proof, Reason: fmt.Sprintf("hash does not match block content %s", digest)}
	}

	// The block is sealed on a private copy of the transactions so the caller
	// can't change the chain through the slice it passed in.
	candidate.Transactions = copyTrans(candidate.Transactions)
	candidate.seal(proof)

	db.evHandler("database: Extend: write: blk[%d]: hash[%s]", candidate.Index, proof)

	if err := db.storage.Write(NewBlockData(candidate)); err != nil {
		return fmt.Errorf("write block: %w", err)
	}

	db.latestBlock = candidate
	db.count++

	return nil
}

// =============================================================================

// Violation describes one failed integrity check for a block.
type Violation struct {
	Index  uint64 `json:"index"`
	Reason string `json:"reason"`
}

// Report is the result of validating the full chain.
type Report struct {
	Blocks     uint64      `json:"blocks"`
	Violations []Violation `json:"violations"`
}

// Valid reports whether the chain passed every check.
func (r Report) Valid() bool {
	return len(r.Violations) == 0
}

// Indexes returns the distinct indexes of the blocks that failed a check.
func (r Report) Indexes() []uint64 {
	var indexes []uint64
	for _, v := range r.Violations {
		if n := len(indexes); n > 0 && indexes[n-1] == v.Index {
			continue
		}
		indexes = append(indexes, v.Index)
	}

	return indexes
}

// String implements the fmt.Stringer interface.
func (r Report) String() string {
	if r.Valid() {
		return fmt.Sprintf("valid: blocks[%d]", r.Blocks)
	}
	return fmt.Sprintf("invalid: blocks[%d]: offending[%v]", r.Blocks, r.Indexes())
}

// Validate walks the entire chain from the genesis block and checks the
// linkage, the index sequence, the proof of work and that every stored hash
// matches the block's content. Every block is checked even after a failure
// so all violations are reported. The genesis block is exempt from the
// difficulty check but its hash must still match its content.
func (db *Database) Validate() Report {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var report Report
	fail := func(index uint64, format string, args ...any) {
		reason := fmt.Sprintf(format, args...)
		report.Violations = append(report.Violations, Violation{Index: index, Reason: reason})
		db.evHandler("database: Validate: blk[%d]: VIOLATION: %s", index, reason)
	}

	expPrevHash := signature.ZeroHash
	var expIndex uint64

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			fail(expIndex, "unable to read block: %s", err)
			break
		}
		report.Blocks++

		if block.Index != expIndex {
			fail(block.Index, "index out of sequence, got %d, exp %d", block.Index, expIndex)
		}

		if block.PrevBlockHash != expPrevHash {
			fail(block.Index, "previous hash doesn't match, got %s, exp %s", block.PrevBlockHash, expPrevHash)
		}

		if block.Index > 0 && len(block.Transactions) == 0 {
			fail(block.Index, "block has no transactions")
		}

		if err := CheckTransactions(block.Transactions); err != nil {
			fail(block.Index, "%s", err)
		}

		if block.Index > 0 && !db.pow.IsSolved(block.Hash()) {
			fail(block.Index, "hash %s does not have %d leading zeros", block.Hash(), db.pow.Difficulty())
		}

		if digest := db.hasher.Digest(block); digest != block.Hash() {
			fail(block.Index, "hash doesn't match content, got %s, exp %s", block.Hash(), digest)
		}

		expPrevHash = block.Hash()
		expIndex++
	}

	return report
}
