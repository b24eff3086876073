package database

import (
	"time"
	"unicode/utf8"

	"github.com/ardanlabs/hashchain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together. A block is
// unsealed until its hash is assigned by the chain, after which it never
// changes.
type Block struct {
	Index         uint64   // Position of the block in the chain, genesis is 0.
	Transactions  []string // Opaque transactions in the order they were submitted.
	TimeStamp     int64    // Unix milliseconds when the block was created.
	PrevBlockHash string   // Hash of the previous block, ZeroHash for genesis.
	Nonce         uint64   // Value identified to solve the hash puzzle.

	hash string
}

// newBlock constructs an unsealed block that would follow the specified block.
func newBlock(prevBlock Block, trans []string) Block {
	return Block{
		Index:         prevBlock.Index + 1,
		Transactions:  copyTrans(trans),
		TimeStamp:     time.Now().UTC().UnixMilli(),
		PrevBlockHash: prevBlock.hash,
		Nonce:         0,
	}
}

// newGenesisBlock constructs the unsealed first block of a chain.
func newGenesisBlock() Block {
	return Block{
		Index:         0,
		Transactions:  []string{},
		TimeStamp:     time.Now().UTC().UnixMilli(),
		PrevBlockHash: signature.ZeroHash,
	}
}

// Hash returns the hash assigned when the block was sealed. An unsealed
// block returns an empty string.
func (b Block) Hash() string {
	return b.hash
}

// IsSealed reports whether the block has been assigned its hash.
func (b Block) IsSealed() bool {
	return b.hash != ""
}

// seal assigns the hash to the block.
func (b *Block) seal(hash string) {
	b.hash = hash
}

// =============================================================================

// BlockData represents the record of a block that is stored and shared
// outside the chain.
type BlockData struct {
	Index         uint64   `json:"index"`
	Transactions  []string `json:"transactions"`
	TimeStamp     int64    `json:"timestamp"`
	PrevBlockHash string   `json:"previous_hash"`
	Nonce         uint64   `json:"nonce"`
	Hash          string   `json:"hash"`
}

// NewBlockData constructs the record for the specified block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:         block.Index,
		Transactions:  copyTrans(block.Transactions),
		TimeStamp:     block.TimeStamp,
		PrevBlockHash: block.PrevBlockHash,
		Nonce:         block.Nonce,
		Hash:          block.hash,
	}
}

// ToBlock converts a record back into a block. The stored hash is carried
// over as is and is not recomputed.
func ToBlock(blockData BlockData) Block {
	return Block{
		Index:         blockData.Index,
		Transactions:  copyTrans(blockData.Transactions),
		TimeStamp:     blockData.TimeStamp,
		PrevBlockHash: blockData.PrevBlockHash,
		Nonce:         blockData.Nonce,
		hash:          blockData.Hash,
	}
}

// copyTrans returns a copy of the transactions that is never nil.
func copyTrans(trans []string) []string {
	cpy := make([]string, len(trans))
	copy(cpy, trans)
	return cpy
}

// CheckTransactions verifies every transaction can be encoded into a digest
// without losing bytes.
func CheckTransactions(trans []string) error {
	for i, tx := range trans {
		if !utf8.ValidString(tx) {
			return &TransactionError{Position: i, Reason: "not valid utf-8"}
		}
	}

	return nil
}
