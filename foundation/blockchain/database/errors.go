package database

import (
	"errors"
	"fmt"
)

// Set of errors the chain can return.
var (
	ErrNoTransactions = errors.New("no transactions to mine")
	ErrEmptyChain     = errors.New("chain has no blocks")
	ErrBlockSealed    = errors.New("block is already sealed")
	ErrBlockNotFound  = errors.New("block not found")
)

// LinkageError is returned when a candidate block no longer fits on the tail
// of the chain. The candidate is discarded and can be mined again against the
// new tail.
type LinkageError struct {
	Index uint64
	Got   string
	Exp   string
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("block %d does not link to the chain tail, got %s, exp %s", e.Index, e.Got, e.Exp)
}

// IsLinkageError checks if an error of type LinkageError exists.
func IsLinkageError(err error) bool {
	var le *LinkageError
	return errors.As(err, &le)
}

// ProofError is returned when the proof offered for a candidate block does
// not solve the puzzle or does not match the block's content.
type ProofError struct {
	Index  uint64
	Hash   string
	Reason string
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("block %d proof %s rejected: %s", e.Index, e.Hash, e.Reason)
}

// IsProofError checks if an error of type ProofError exists.
func IsProofError(err error) bool {
	var pe *ProofError
	return errors.As(err, &pe)
}

// TransactionError is returned when a transaction can't be carried in a
// block. A transaction must be valid UTF-8 so its canonical encoding is
// lossless.
type TransactionError struct {
	Position int
	Reason   string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %d rejected: %s", e.Position, e.Reason)
}

// IsTransactionError checks if an error of type TransactionError exists.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
