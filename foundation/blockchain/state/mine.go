package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
)

// Set of errors the state passes through from the chain.
var (
	// ErrNoTransactions is returned when a block is requested to be created
	// and there are no transactions. This is the no-op signal for mining.
	ErrNoTransactions = database.ErrNoTransactions

	// ErrBlockNotFound is returned when a block index is past the chain tail.
	ErrBlockNotFound = database.ErrBlockNotFound
)

// =============================================================================

// MinePending attempts to create a new block from the pending transactions
// with a proper hash that becomes the next block in the chain. The index of
// the new block is returned. Only one mining operation runs at a time. The
// pool is only changed when the block has been added to the chain.
func (s *State) MinePending(ctx context.Context) (uint64, error) {
	s.mineMu.Lock()
	defer s.mineMu.Unlock()

	s.evHandler("state: MinePending: MINING: check mempool count")

	if s.mempool.IsEmpty() {
		return 0, ErrNoTransactions
	}

	// Take a copy of the pool, transactions that arrive while mining
	// wait for the next block.
	trans := s.mempool.Copy()

	s.evHandler("state: MinePending: MINING: perform POW: numTrans[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := s.db.Mine(ctx, trans)
	if err != nil {
		if database.IsProofError(err) {
			s.evHandler("state: MinePending: MINING: FAULT: engine produced a rejected proof: %s", err)
		}
		return 0, fmt.Errorf("mine block: %w", err)
	}

	s.evHandler("state: MinePending: MINING: remove mined transactions from mempool")

	s.mempool.DrainFront(len(trans))

	// Send an event about this new block.
	s.blockEvent(block)

	return block.Index, nil
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
