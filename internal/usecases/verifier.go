package usecases

import (
	"context"
	"fmt"

	"giftchain.backend/internal/domain/entities"
)

// ChainVerifier checks a submitted transaction against pending gifts. A non-nil error
// means the chain could not be consulted; anything the chain itself disproves comes
// back as a rejected result.
type ChainVerifier interface {
	Chain() entities.ChainType
	Verify(ctx context.Context, txRef, claimant string, gifts []*entities.Gift) (*entities.VerificationResult, error)
}

// checkBatch rejects batches that no transaction could settle. It runs before any RPC call.
func checkBatch(chain entities.ChainType, claimant string, gifts []*entities.Gift) *entities.VerificationResult {
	if len(gifts) == 0 {
		return entities.Rejected(entities.VerificationEmptyBatch, "no gifts to verify")
	}
	for _, gift := range gifts {
		if gift == nil {
			return entities.Rejected(entities.VerificationEmptyBatch, "batch contains an empty gift")
		}
		if gift.Verified {
			return entities.Rejected(entities.VerificationAlreadyVerified,
				fmt.Sprintf("gift %s is already verified", gift.GiftDBID()))
		}
		if !gift.IsPending() {
			return entities.Rejected(entities.VerificationGiftNotPending,
				fmt.Sprintf("gift %s is %s", gift.GiftDBID(), gift.Status))
		}
		if gift.Chain != chain {
			return entities.Rejected(entities.VerificationChainMismatch,
				fmt.Sprintf("gift %s belongs to chain %s", gift.GiftDBID(), gift.Chain))
		}
		if !entities.SameAddress(chain, gift.SenderWallet, claimant) {
			return entities.Rejected(entities.VerificationSenderMismatch,
				fmt.Sprintf("gift %s was not created by %s", gift.GiftDBID(), claimant))
		}
		if _, err := gift.TokenAmount(); err != nil {
			return entities.Rejected(entities.VerificationInvalidAmount,
				fmt.Sprintf("gift %s has invalid token amount %q", gift.GiftDBID(), gift.TotalTokenAmount))
		}
	}
	return nil
}

func acceptedOn(chain entities.ChainType, txRef string, matches []entities.GiftMatch) *entities.VerificationResult {
	res := entities.Accepted(matches)
	res.Chain = chain
	res.TxReference = txRef
	return res
}

func rejectedOn(chain entities.ChainType, txRef string, res *entities.VerificationResult) *entities.VerificationResult {
	res.Chain = chain
	res.TxReference = txRef
	return res
}
