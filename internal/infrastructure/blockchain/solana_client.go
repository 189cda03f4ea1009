package blockchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/pkg/logger"
	"go.uber.org/zap"
)

var (
	errSolanaTxPending = errors.New("transaction not yet visible")

	decodeSolanaTx = func(res *rpc.GetTransactionResult) (*solana.Transaction, error) {
		if res.Transaction == nil {
			return nil, errors.New("missing transaction envelope")
		}
		return res.Transaction.GetTransaction()
	}
)

// SolanaTransfer is one top-level System Program transfer
type SolanaTransfer struct {
	Destination string
	Lamports    uint64
}

// SolanaTransaction is a confirmed transaction reduced to what verification needs
type SolanaTransaction struct {
	Signature   string
	Slot        uint64
	Failed      bool
	FailureInfo string
	FeePayer    string
	AccountKeys []string
	Transfers   []SolanaTransfer
}

// SolanaOptions tunes a SolanaClient
type SolanaOptions struct {
	RequestTimeout time.Duration
	InitialDelay   time.Duration
	PollMaxElapsed time.Duration
	PollInterval   time.Duration
}

type solanaTxFetcher interface {
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// SolanaClient fetches confirmed transactions from a Solana RPC node
type SolanaClient struct {
	rpc    solanaTxFetcher
	closer func() error
	rpcURL string
	opts   SolanaOptions
}

// NewSolanaClient creates a client for the given RPC endpoint
func NewSolanaClient(rpcURL string, opts SolanaOptions) *SolanaClient {
	c := rpc.New(rpcURL)
	client := newSolanaClient(c, opts)
	client.rpcURL = rpcURL
	client.closer = c.Close
	return client
}

func newSolanaClient(fetcher solanaTxFetcher, opts SolanaOptions) *SolanaClient {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.PollMaxElapsed <= 0 {
		opts.PollMaxElapsed = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &SolanaClient{rpc: fetcher, opts: opts}
}

// GetTransfers waits the initial propagation delay, then polls until the transaction is
// visible or the poll budget is spent. A budget spent on "not found" answers yields
// ErrTxNotFound; one spent on transport failures yields ErrChainUnavailable.
func (c *SolanaClient) GetTransfers(ctx context.Context, signature string) (*SolanaTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInput, err)
	}

	if c.opts.InitialDelay > 0 {
		timer := time.NewTimer(c.opts.InitialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrChainUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	sawNotFound := false
	op := func() (*SolanaTransaction, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()

		res, err := c.rpc.GetTransaction(callCtx, sig, opts)
		if errors.Is(err, rpc.ErrNotFound) || (err == nil && res == nil) {
			sawNotFound = true
			return nil, errSolanaTxPending
		}
		if err != nil {
			sawNotFound = false
			return nil, err
		}

		tx, err := decodeSolanaTx(res)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedTransaction, err))
		}
		out, err := toSolanaTransaction(signature, res, tx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return out, nil
	}

	notify := func(err error, next time.Duration) {
		logger.Debug(ctx, "Solana transaction not available yet",
			zap.String("signature", signature),
			zap.Duration("retryIn", next),
			zap.Error(err),
		)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.PollInterval
	b.MaxInterval = 10 * c.opts.PollInterval

	tx, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(c.opts.PollMaxElapsed),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return tx, nil
	}
	if errors.Is(err, ErrMalformedTransaction) {
		return nil, err
	}
	if sawNotFound && ctx.Err() == nil {
		return nil, ErrTxNotFound
	}
	return nil, fmt.Errorf("%w: getTransaction: %v", domainerrors.ErrChainUnavailable, err)
}

// Close releases the underlying connection
func (c *SolanaClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func toSolanaTransaction(signature string, res *rpc.GetTransactionResult, tx *solana.Transaction) (*SolanaTransaction, error) {
	if res.Meta == nil {
		return nil, fmt.Errorf("%w: missing meta", ErrMalformedTransaction)
	}
	keys := tx.Message.AccountKeys
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no account keys", ErrMalformedTransaction)
	}

	out := &SolanaTransaction{
		Signature:   signature,
		Slot:        res.Slot,
		FeePayer:    keys[0].String(),
		AccountKeys: make([]string, 0, len(keys)),
	}
	for _, k := range keys {
		out.AccountKeys = append(out.AccountKeys, k.String())
	}
	if res.Meta.Err != nil {
		out.Failed = true
		out.FailureInfo = fmt.Sprintf("%v", res.Meta.Err)
		return out, nil
	}

	transfers, err := ExtractSystemTransfers(tx)
	if err != nil {
		return nil, err
	}
	out.Transfers = transfers
	return out, nil
}

// ExtractSystemTransfers decodes every top-level System Program transfer instruction.
// Instructions that reference accounts outside the static key list, such as those loaded
// from address lookup tables, make the whole transaction undecodable.
func ExtractSystemTransfers(tx *solana.Transaction) ([]SolanaTransfer, error) {
	keys := tx.Message.AccountKeys
	var transfers []SolanaTransfer

	for i, inst := range tx.Message.Instructions {
		if int(inst.ProgramIDIndex) >= len(keys) {
			return nil, fmt.Errorf("%w: instruction %d program index out of range", ErrMalformedTransaction, i)
		}
		if !keys[inst.ProgramIDIndex].Equals(solana.SystemProgramID) {
			continue
		}

		metas := make([]*solana.AccountMeta, 0, len(inst.Accounts))
		for _, idx := range inst.Accounts {
			if int(idx) >= len(keys) {
				return nil, fmt.Errorf("%w: instruction %d account index out of range", ErrMalformedTransaction, i)
			}
			metas = append(metas, solana.Meta(keys[idx]))
		}

		decoded, err := system.DecodeInstruction(metas, inst.Data)
		if err != nil {
			// Not every system instruction carries two accounts; only transfers matter.
			continue
		}
		transfer, ok := decoded.Impl.(*system.Transfer)
		if !ok || transfer.Lamports == nil {
			continue
		}
		recipient := transfer.GetRecipientAccount()
		if recipient == nil {
			continue
		}
		transfers = append(transfers, SolanaTransfer{
			Destination: recipient.PublicKey.String(),
			Lamports:    *transfer.Lamports,
		})
	}
	return transfers, nil
}
