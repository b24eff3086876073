// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/hashchain/business/web/errs"
	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
	"github.com/ardanlabs/hashchain/foundation/blockchain/state"
	"github.com/ardanlabs/hashchain/foundation/events"
	"github.com/ardanlabs/hashchain/foundation/validate"
	"github.com/ardanlabs/hashchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	WS          websocket.Upgrader
	Evts        *events.Events
	MineTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransactions adds new transactions to the mempool.
func (h Handlers) SubmitTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitRequest
	if err := web.Decode(r, &req); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	for _, tx := range req.Transactions {
		h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx)
	}

	pending, err := h.State.SubmitTransactions(req.Transactions...)
	if err != nil {
		if database.IsTransactionError(err) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submit transactions: %w", err)
	}

	resp := submitResponse{
		Status:  "transactions added to mempool",
		Pending: pending,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine mines the pending transactions into a new block. An empty mempool is
// not an error, the response says there was nothing to mine.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.MineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MineTimeout)
		defer cancel()
	}

	index, err := h.State.MinePending(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			return web.Respond(ctx, w, mineResponse{Status: "no transactions to mine"}, http.StatusOK)

		case database.IsLinkageError(err), database.IsProofError(err):
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return errs.NewTrusted(fmt.Errorf("mining did not complete: %w", err), http.StatusServiceUnavailable)
		}

		return fmt.Errorf("mine pending: %w", err)
	}

	resp := mineResponse{
		Status: "block mined",
		Index:  &index,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns every block in the chain in order.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.RetrieveChain()
	if err != nil {
		return fmt.Errorf("retrieve chain: %w", err)
	}

	resp := chainResponse{
		Length: len(blocks),
		Chain:  blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// LatestBlock returns the block at the tail of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return fmt.Errorf("retrieve latest block: %w", err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.QueryBlock(index)
	if err != nil {
		if errors.Is(err, state.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("query block[%d]: %w", index, err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Validate replays the hash and difficulty checks over the chain. A chain
// that fails validation is still a successful request.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	report := h.State.ValidateChain()

	violations := report.Violations
	if violations == nil {
		violations = []database.Violation{}
	}

	resp := validateResponse{
		Valid:      report.Valid(),
		Blocks:     report.Blocks,
		Violations: violations,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.RetrieveMempool()

	resp := mempoolResponse{
		Count:        len(trans),
		Transactions: trans,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}
