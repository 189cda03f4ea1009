package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/infrastructure/blockchain"
	"giftchain.backend/pkg/logger"
	"go.uber.org/zap"
)

// solFeeDivisor sets the minimum treasury fee at 1% of the gifted lamports.
const solFeeDivisor = 100

// SolanaRPC fetches confirmed transactions with their System Program transfers
type SolanaRPC interface {
	GetTransfers(ctx context.Context, signature string) (*blockchain.SolanaTransaction, error)
}

// SolTransactionVerifier settles gifts against native SOL transfers plus a treasury fee
type SolTransactionVerifier struct {
	rpc      SolanaRPC
	treasury string
}

func NewSolTransactionVerifier(rpc SolanaRPC, treasury string) *SolTransactionVerifier {
	return &SolTransactionVerifier{
		rpc:      rpc,
		treasury: entities.NormalizeAddress(entities.ChainTypeSol, treasury),
	}
}

func (v *SolTransactionVerifier) Chain() entities.ChainType {
	return entities.ChainTypeSol
}

func (v *SolTransactionVerifier) Verify(ctx context.Context, txRef, claimant string, gifts []*entities.Gift) (*entities.VerificationResult, error) {
	chain := entities.ChainTypeSol
	if res := checkBatch(chain, claimant, gifts); res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	if _, err := solana.SignatureFromBase58(txRef); err != nil {
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationInvalidReference,
			"transaction signature must be base58 encoding 64 bytes")), nil
	}

	tx, err := v.rpc.GetTransfers(ctx, txRef)
	if err != nil {
		switch {
		case errors.Is(err, blockchain.ErrTxNotFound):
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationTxNotFound,
				"transaction not found on solana")), nil
		case errors.Is(err, blockchain.ErrMalformedTransaction):
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationMalformedTx,
				"solana returned an unreadable transaction")), nil
		case errors.Is(err, domainerrors.ErrInvalidInput):
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationInvalidReference,
				"transaction signature is invalid")), nil
		case errors.Is(err, domainerrors.ErrChainUnavailable):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrChainUnavailable, err)
		}
	}

	if tx.Failed {
		reason := "transaction failed on chain"
		if tx.FailureInfo != "" {
			reason += ": " + tx.FailureInfo
		}
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationTxFailed, reason)), nil
	}

	if !entities.SameAddress(chain, tx.FeePayer, claimant) {
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationSenderMismatch,
			fmt.Sprintf("fee payer %s does not match %s", tx.FeePayer, claimant))), nil
	}

	transfers := make([]Transfer, 0, len(tx.Transfers))
	for _, t := range tx.Transfers {
		transfers = append(transfers, Transfer{
			Destination: t.Destination,
			Amount:      uint256.NewInt(t.Lamports),
		})
	}
	pool := NewTransferPool(chain, transfers)

	matches, res := pool.MatchGifts(gifts, false)
	if res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	if res := v.checkFee(pool, matches); res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	logger.Debug(ctx, "Solana transaction verified",
		zap.String("signature", txRef),
		zap.Uint64("slot", tx.Slot),
		zap.Int("gifts", len(matches)),
	)
	return acceptedOn(chain, txRef, matches), nil
}

// checkFee requires one leftover transfer to the treasury worth at least 1% of the gifts.
func (v *SolTransactionVerifier) checkFee(pool *TransferPool, matches []entities.GiftMatch) *entities.VerificationResult {
	total, err := SumAmounts(matches)
	if err != nil {
		return entities.Rejected(entities.VerificationInvalidAmount, err.Error())
	}

	_, ok := pool.Consume(func(t Transfer) bool {
		if !entities.SameAddress(entities.ChainTypeSol, t.Destination, v.treasury) {
			return false
		}
		scaled, overflow := new(uint256.Int).MulOverflow(t.Amount, uint256.NewInt(solFeeDivisor))
		return overflow || scaled.Cmp(total) >= 0
	})
	if !ok {
		return entities.Rejected(entities.VerificationFeeTransferMissing,
			fmt.Sprintf("no fee transfer of at least 1%% of %s lamports to treasury %s", total.Dec(), v.treasury))
	}
	return nil
}
