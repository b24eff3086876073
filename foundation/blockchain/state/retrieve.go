package state

import (
	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
	"github.com/ardanlabs/hashchain/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.BlockData, error) {
	block, err := s.db.LatestBlock()
	if err != nil {
		return database.BlockData{}, err
	}

	return database.NewBlockData(block), nil
}

// RetrieveChain returns a copy of every block in the chain in order.
func (s *State) RetrieveChain() ([]database.BlockData, error) {
	return s.db.Blocks()
}

// RetrieveChainLength returns the number of blocks in the chain.
func (s *State) RetrieveChainLength() uint64 {
	return s.db.Count()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []string {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// ValidateChain replays the hash and difficulty checks over every block.
func (s *State) ValidateChain() database.Report {
	return s.db.Validate()
}

// QueryBlock returns a copy of the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.BlockData, error) {
	return s.db.GetBlock(index)
}
