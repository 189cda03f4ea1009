package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/rpc"
	domainerrors "giftchain.backend/internal/domain/errors"
)

const (
	suiGetTransactionBlock = "sui_getTransactionBlock"
	suiNotFoundMessage     = "could not find the referenced transaction"
	suiStatusSuccess       = "success"
)

var dialSuiRPC = rpc.DialContext

// SuiTransactionBlock is the subset of sui_getTransactionBlock used for verification
type SuiTransactionBlock struct {
	Digest      string          `json:"digest"`
	Transaction *SuiTransaction `json:"transaction"`
	Effects     *SuiEffects     `json:"effects"`
	Events      []SuiEvent      `json:"events"`
}

type SuiTransaction struct {
	Data struct {
		Sender string `json:"sender"`
	} `json:"data"`
}

type SuiEffects struct {
	Status struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"status"`
}

// SuiEvent is one emitted Move event. ParsedJSON is left raw for typed decoding by the
// consumer that knows the event layout.
type SuiEvent struct {
	PackageID         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJSON        json.RawMessage `json:"parsedJson"`
}

// Succeeded reports whether the effects record a successful execution.
func (b *SuiTransactionBlock) Succeeded() bool {
	return b.Effects != nil && b.Effects.Status.Status == suiStatusSuccess
}

// InputSender returns the sender from the transaction input, if requested and present.
func (b *SuiTransactionBlock) InputSender() string {
	if b.Transaction == nil {
		return ""
	}
	return b.Transaction.Data.Sender
}

// SuiOptions tunes a SuiClient
type SuiOptions struct {
	RequestTimeout time.Duration
	MaxTries       uint
}

type suiCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// SuiClient fetches transaction blocks from a Sui fullnode over JSON-RPC
type SuiClient struct {
	rpc    suiCaller
	rpcURL string
	opts   SuiOptions
}

// NewSuiClient dials a Sui fullnode
func NewSuiClient(ctx context.Context, rpcURL string, opts SuiOptions) (*SuiClient, error) {
	c, err := dialSuiRPC(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewSuiClientWithRPC(c, rpcURL, opts), nil
}

// NewSuiClientWithRPC wraps an existing JSON-RPC client, such as an in-process one.
func NewSuiClientWithRPC(c *rpc.Client, rpcURL string, opts SuiOptions) *SuiClient {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	return &SuiClient{rpc: c, rpcURL: rpcURL, opts: opts}
}

// GetTransactionBlock fetches a transaction block with input, effects and events.
// Unknown digests are retried like transport failures. A digest still unknown after the
// last try yields ErrTxNotFound; transport failures that survive retries are wrapped in
// ErrChainUnavailable.
func (c *SuiClient) GetTransactionBlock(ctx context.Context, digest string) (*SuiTransactionBlock, error) {
	options := map[string]bool{
		"showInput":   true,
		"showEffects": true,
		"showEvents":  true,
	}

	op := func() (*SuiTransactionBlock, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()

		var raw json.RawMessage
		if err := c.rpc.CallContext(callCtx, &raw, suiGetTransactionBlock, digest, options); err != nil {
			var rpcErr rpc.Error
			if errors.As(err, &rpcErr) {
				if strings.Contains(strings.ToLower(rpcErr.Error()), suiNotFoundMessage) {
					// A fullnode may not have indexed a just-executed digest yet.
					return nil, ErrTxNotFound
				}
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", domainerrors.ErrChainUnavailable, err))
			}
			return nil, err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil, ErrTxNotFound
		}

		var block SuiTransactionBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedTransaction, err))
		}
		if block.Effects == nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: missing effects", ErrMalformedTransaction))
		}
		return &block, nil
	}

	block, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newRetryBackOff()),
		backoff.WithMaxTries(c.opts.MaxTries),
	)
	if err != nil {
		if errors.Is(err, ErrTxNotFound) || errors.Is(err, ErrMalformedTransaction) ||
			errors.Is(err, domainerrors.ErrChainUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: sui_getTransactionBlock: %v", domainerrors.ErrChainUnavailable, err)
	}
	return block, nil
}

// Close releases the underlying connection
func (c *SuiClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

func newRetryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
