package usecases

import (
	"fmt"

	"github.com/holiman/uint256"
	"giftchain.backend/internal/domain/entities"
)

// Transfer is one piece of on-chain evidence that may settle a gift. Reference is the
// gift id the transfer was tagged with, empty when the chain carries no tag.
type Transfer struct {
	Reference   string
	Destination string
	Amount      *uint256.Int
}

// TransferPool hands out each transfer at most once.
type TransferPool struct {
	chain     entities.ChainType
	transfers []Transfer
	consumed  []bool
}

func NewTransferPool(chain entities.ChainType, transfers []Transfer) *TransferPool {
	return &TransferPool{
		chain:     chain,
		transfers: transfers,
		consumed:  make([]bool, len(transfers)),
	}
}

// Consume takes the first unconsumed transfer accepted by match.
func (p *TransferPool) Consume(match func(t Transfer) bool) (Transfer, bool) {
	for i, t := range p.transfers {
		if p.consumed[i] || !match(t) {
			continue
		}
		p.consumed[i] = true
		return t, true
	}
	return Transfer{}, false
}

// MatchGifts pairs every gift with one transfer of exactly its amount. When byReference
// is set the transfer must carry the gift id; a transfer with a destination must also go
// to the gift's receiver. The first gift without a partner fails the whole batch.
func (p *TransferPool) MatchGifts(gifts []*entities.Gift, byReference bool) ([]entities.GiftMatch, *entities.VerificationResult) {
	matches := make([]entities.GiftMatch, 0, len(gifts))
	for _, gift := range gifts {
		want, err := gift.TokenAmount()
		if err != nil {
			return nil, entities.Rejected(entities.VerificationInvalidAmount,
				fmt.Sprintf("gift %s has invalid token amount %q", gift.GiftDBID(), gift.TotalTokenAmount))
		}
		giftID := gift.GiftDBID()

		t, ok := p.Consume(func(t Transfer) bool {
			if byReference && t.Reference != giftID {
				return false
			}
			if t.Destination != "" && !entities.SameAddress(p.chain, t.Destination, gift.ReceiverWallet) {
				return false
			}
			return t.Amount != nil && t.Amount.Eq(want)
		})
		if !ok {
			return nil, entities.Rejected(entities.VerificationTransferMismatch,
				fmt.Sprintf("no transfer of %s to %s for gift %s", want.Dec(), gift.ReceiverWallet, giftID))
		}

		recipient := t.Destination
		if recipient == "" {
			recipient = gift.ReceiverWallet
		}
		matches = append(matches, entities.GiftMatch{
			GiftID:    giftID,
			Recipient: recipient,
			Amount:    t.Amount.Dec(),
		})
	}
	return matches, nil
}

// SumAmounts adds the token amounts of matched gifts.
func SumAmounts(matches []entities.GiftMatch) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, m := range matches {
		v, err := entities.ParseTokenAmount(m.Amount)
		if err != nil {
			return nil, err
		}
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, fmt.Errorf("matched amounts overflow: %w", entities.ErrInvalidTokenAmount)
		}
	}
	return total, nil
}
