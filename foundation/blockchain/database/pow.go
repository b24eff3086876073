package database

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// maxDifficulty is the number of hex characters in a 256 bit digest.
const maxDifficulty = 64

// errSolved is used to stop the other search goroutines once a nonce is found.
var errSolved = errors.New("nonce solved")

// POWConfig represents the configuration required to construct a proof of
// work engine.
type POWConfig struct {
	Hasher     Hasher
	Difficulty uint
	Workers    int
	EvHandler  func(v string, args ...any)
}

// POW is the proof of work engine. It searches for a nonce that gives a block
// a digest with the required number of leading zeros.
type POW struct {
	hasher     Hasher
	difficulty uint
	workers    int
	evHandler  func(v string, args ...any)
}

// NewPOW constructs a proof of work engine.
func NewPOW(cfg POWConfig) (POW, error) {
	if cfg.Difficulty < 1 {
		return POW{}, fmt.Errorf("difficulty must be at least 1, got %d", cfg.Difficulty)
	}

	if cfg.Difficulty > maxDifficulty {
		return POW{}, fmt.Errorf("difficulty %d exceeds the digest length %d", cfg.Difficulty, maxDifficulty)
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	pow := POW{
		hasher:     cfg.Hasher,
		difficulty: cfg.Difficulty,
		workers:    workers,
		evHandler:  ev,
	}

	return pow, nil
}

// Difficulty returns the number of leading zeros a digest must have.
func (p POW) Difficulty() uint {
	return p.difficulty
}

// IsSolved reports whether the hash satisfies the difficulty.
func (p POW) IsSolved(hash string) bool {
	return isHashSolved(p.difficulty, hash)
}

// FindNonce does the work of mining to find a nonce that solves the puzzle
// for the specified block. The block is a private copy, nothing shared is
// changed. The search can be cancelled through the context.
//
// With a single worker the smallest solving nonce is returned. With more than
// one worker the nonce space is striped across goroutines and the first
// solution found wins, which is valid but not necessarily the smallest.
func (p POW) FindNonce(ctx context.Context, b Block) (uint64, string, error) {
	p.evHandler("pow: FindNonce: MINING: started: blk[%d]: workers[%d]", b.Index, p.workers)
	defer p.evHandler("pow: FindNonce: MINING: completed: blk[%d]", b.Index)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Transactions {
		p.evHandler("pow: FindNonce: MINING: tx[%s]", tx)
	}

	if p.workers == 1 {
		return p.search(ctx, b, 0, 1)
	}

	type solution struct {
		nonce uint64
		hash  string
	}

	// Each goroutine can find at most one solution so this never blocks.
	solved := make(chan solution, p.workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := range p.workers {
		start := uint64(i)
		g.Go(func() error {
			nonce, hash, err := p.search(gctx, b, start, uint64(p.workers))
			if err != nil {
				return err
			}

			solved <- solution{nonce: nonce, hash: hash}
			return errSolved
		})
	}

	if err := g.Wait(); !errors.Is(err, errSolved) {
		return 0, "", err
	}

	s := <-solved
	return s.nonce, s.hash, nil
}

// search tries the nonces start, start+step, start+2*step and so on until the
// puzzle is solved or the context is cancelled.
func (p POW) search(ctx context.Context, b Block, start uint64, step uint64) (uint64, string, error) {
	var attempts uint64
	for nonce := start; ; nonce += step {
		attempts++
		if attempts%1_000_000 == 0 {
			p.evHandler("pow: FindNonce: MINING: start[%d]: attempts[%d]", start, attempts)
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			p.evHandler("pow: FindNonce: MINING: CANCELLED: start[%d]", start)
			return 0, "", ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		b.Nonce = nonce
		hash := p.hasher.Digest(b)
		if !isHashSolved(p.difficulty, hash) {
			continue
		}

		p.evHandler("pow: FindNonce: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", b.PrevBlockHash, hash, nonce)
		p.evHandler("pow: FindNonce: MINING: start[%d]: attempts[%d]", start, attempts)

		return nonce, hash, nil
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != len(match) || difficulty > maxDifficulty {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
