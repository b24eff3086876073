// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import "sync"

// Mempool represents the ordered set of pending transactions. Transactions
// are kept in the order they were added and are only removed by mining.
type Mempool struct {
	mu   sync.RWMutex
	pool []string
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// IsEmpty reports whether there are no pending transactions.
func (mp *Mempool) IsEmpty() bool {
	return mp.Count() == 0
}

// Add appends the transactions to the pool in order and returns the new
// count. The content of the transactions is not inspected.
func (mp *Mempool) Add(trans ...string) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, trans...)

	return len(mp.pool)
}

// Copy returns a copy of the pending transactions in order.
func (mp *Mempool) Copy() []string {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]string, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// DrainFront removes and returns the first n transactions. Transactions added
// after a copy was taken for mining stay in the pool.
func (mp *Mempool) DrainFront(n int) []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	n = max(0, min(n, len(mp.pool)))

	trans := make([]string, n)
	copy(trans, mp.pool[:n])

	rest := make([]string, len(mp.pool)-n)
	copy(rest, mp.pool[n:])
	mp.pool = rest

	return trans
}
