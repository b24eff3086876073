package database

import "github.com/ardanlabs/hashchain/foundation/blockchain/signature"

// blockContent is the hashable view of a block. It has no hash field, so a
// digest never depends on a previously assigned hash. Fields are declared in
// lexicographic order of their json keys.
type blockContent struct {
	Index         uint64   `json:"index"`
	Nonce         uint64   `json:"nonce"`
	PrevBlockHash string   `json:"previous_hash"`
	TimeStamp     int64    `json:"timestamp"`
	Transactions  []string `json:"transactions"`
}

// Hasher produces the digest of a block's content using a named strategy.
type Hasher struct {
	strategy signature.Strategy
}

// NewHasher constructs a hasher for the specified hash strategy.
func NewHasher(strategy string) (Hasher, error) {
	fn, err := signature.Retrieve(strategy)
	if err != nil {
		return Hasher{}, err
	}

	return Hasher{strategy: fn}, nil
}

// Digest returns the hex encoded digest of every field of the block except
// its hash. The zero value Hasher uses sha256.
func (h Hasher) Digest(b Block) string {
	content := blockContent{
		Index:         b.Index,
		Nonce:         b.Nonce,
		PrevBlockHash: b.PrevBlockHash,
		TimeStamp:     b.TimeStamp,
		Transactions:  b.Transactions,
	}

	// A nil slice would marshal as null instead of an empty list.
	if content.Transactions == nil {
		content.Transactions = []string{}
	}

	if h.strategy == nil {
		return signature.Hash(content)
	}

	return signature.HashWith(h.strategy, content)
}
