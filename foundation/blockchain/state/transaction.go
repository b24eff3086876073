package state

import "github.com/ardanlabs/hashchain/foundation/blockchain/database"

// SubmitTransaction accepts a transaction for inclusion in the next block.
// The transaction is opaque and carried verbatim.
func (s *State) SubmitTransaction(tx string) (int, error) {
	return s.SubmitTransactions(tx)
}

// SubmitTransactions accepts a batch of transactions for inclusion in the
// next block. The batch is added to the pool in order as a whole, or not at
// all when any transaction can't be carried in a block. Mining is signaled
// once per batch.
func (s *State) SubmitTransactions(trans ...string) (int, error) {
	if err := database.CheckTransactions(trans); err != nil {
		return s.mempool.Count(), err
	}

	if len(trans) == 0 {
		return s.mempool.Count(), nil
	}

	n := s.mempool.Add(trans...)

	s.evHandler("state: SubmitTransactions: added: trans[%d]: count[%d]", len(trans), n)

	s.Worker.SignalStartMining()

	return n, nil
}
