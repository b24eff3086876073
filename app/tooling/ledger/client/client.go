// Package client provides support for talking to a ledger node over its
// public v1 api.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/hashchain/business/web/errs"
	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
	"github.com/go-resty/resty/v2"
)

// Client provides access to a node's public api.
type Client struct {
	rc *resty.Client
}

// New constructs a client for the node at the specified url.
func New(url string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{rc: rc}
}

// Submission is the result of submitting transactions.
type Submission struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

// MineResult is the result of a mine request. Index is nil when there was
// nothing to mine.
type MineResult struct {
	Status string  `json:"status"`
	Index  *uint64 `json:"index"`
}

// Chain is a snapshot of the chain.
type Chain struct {
	Length int                  `json:"length"`
	Chain  []database.BlockData `json:"chain"`
}

// Validation is the result of validating the chain.
type Validation struct {
	Valid      bool                 `json:"valid"`
	Blocks     uint64               `json:"blocks"`
	Violations []database.Violation `json:"violations"`
}

// Mempool is the set of transactions waiting to be mined.
type Mempool struct {
	Count        int      `json:"count"`
	Transactions []string `json:"transactions"`
}

// Submit sends the transactions to the node's mempool.
func (c *Client) Submit(ctx context.Context, trans []string) (Submission, error) {
	body := struct {
		Transactions []string `json:"transactions"`
	}{
		Transactions: trans,
	}

	var sub Submission
	if err := c.do(ctx, "POST", "/v1/tx/submit", body, &sub); err != nil {
		return Submission{}, err
	}

	return sub, nil
}

// Mine asks the node to mine the pending transactions.
func (c *Client) Mine(ctx context.Context) (MineResult, error) {
	var res MineResult
	if err := c.do(ctx, "POST", "/v1/mine", nil, &res); err != nil {
		return MineResult{}, err
	}

	return res, nil
}

// Chain retrieves every block in the chain.
func (c *Client) Chain(ctx context.Context) (Chain, error) {
	var chain Chain
	if err := c.do(ctx, "GET", "/v1/chain", nil, &chain); err != nil {
		return Chain{}, err
	}

	return chain, nil
}

// Validate asks the node to validate its chain.
func (c *Client) Validate(ctx context.Context) (Validation, error) {
	var val Validation
	if err := c.do(ctx, "GET", "/v1/chain/validate", nil, &val); err != nil {
		return Validation{}, err
	}

	return val, nil
}

// Mempool retrieves the transactions waiting to be mined.
func (c *Client) Mempool(ctx context.Context) (Mempool, error) {
	var mp Mempool
	if err := c.do(ctx, "GET", "/v1/tx/uncommitted/list", nil, &mp); err != nil {
		return Mempool{}, err
	}

	return mp, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, result any) error {
	var er errs.Response

	req := c.rc.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&er)

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		if er.Error == "" {
			er.Error = resp.Status()
		}
		return &RequestError{Status: resp.StatusCode(), Response: er}
	}

	return nil
}

// RequestError is returned when the node responds with an error status.
type RequestError struct {
	Status   int
	Response errs.Response
}

// Error implements the error interface.
func (re *RequestError) Error() string {
	if len(re.Response.Fields) > 0 {
		return fmt.Sprintf("node: %d: %s: %v", re.Status, re.Response.Error, re.Response.Fields)
	}
	return fmt.Sprintf("node: %d: %s", re.Status, re.Response.Error)
}
