package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/mr-tron/base58"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/infrastructure/blockchain"
	"giftchain.backend/pkg/logger"
	"go.uber.org/zap"
)

const (
	suiDigestLength   = 32
	suiGiftSentStruct = "GiftSent"
)

// SuiRPC fetches transaction blocks from a Sui fullnode
type SuiRPC interface {
	GetTransactionBlock(ctx context.Context, digest string) (*blockchain.SuiTransactionBlock, error)
}

// SuiTransactionVerifier settles gifts against GiftSent events of the gift package
type SuiTransactionVerifier struct {
	rpc       SuiRPC
	packageID string
	module    string
}

func NewSuiTransactionVerifier(rpc SuiRPC, packageID, module string) *SuiTransactionVerifier {
	return &SuiTransactionVerifier{
		rpc:       rpc,
		packageID: entities.NormalizeAddress(entities.ChainTypeSui, packageID),
		module:    strings.TrimSpace(module),
	}
}

func (v *SuiTransactionVerifier) Chain() entities.ChainType {
	return entities.ChainTypeSui
}

func (v *SuiTransactionVerifier) Verify(ctx context.Context, txRef, claimant string, gifts []*entities.Gift) (*entities.VerificationResult, error) {
	chain := entities.ChainTypeSui
	if res := checkBatch(chain, claimant, gifts); res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	digest, err := base58.Decode(txRef)
	if err != nil || len(digest) != suiDigestLength {
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationInvalidReference,
			"transaction digest must be base58 encoding 32 bytes")), nil
	}

	block, err := v.rpc.GetTransactionBlock(ctx, txRef)
	if err != nil {
		switch {
		case errors.Is(err, blockchain.ErrTxNotFound):
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationTxNotFound,
				"transaction not found on sui")), nil
		case errors.Is(err, blockchain.ErrMalformedTransaction):
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationMalformedTx,
				"sui returned an unreadable transaction")), nil
		case errors.Is(err, domainerrors.ErrChainUnavailable):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrChainUnavailable, err)
		}
	}

	if !block.Succeeded() {
		reason := "transaction did not succeed"
		if block.Effects != nil && block.Effects.Status.Error != "" {
			reason += ": " + block.Effects.Status.Error
		}
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationTxFailed, reason)), nil
	}

	sender, res := v.resolveSender(block)
	if res != nil {
		return rejectedOn(chain, txRef, res), nil
	}
	if !entities.SameAddress(chain, sender, claimant) {
		return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationSenderMismatch,
			fmt.Sprintf("transaction sender %s does not match %s", sender, claimant))), nil
	}

	transfers, res := v.giftSentTransfers(block)
	if res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	matches, res := NewTransferPool(chain, transfers).MatchGifts(gifts, true)
	if res != nil {
		return rejectedOn(chain, txRef, res), nil
	}

	logger.Debug(ctx, "Sui transaction verified",
		zap.String("digest", txRef),
		zap.Int("gifts", len(matches)),
	)
	return acceptedOn(chain, txRef, matches), nil
}

// resolveSender takes the sender from the gift package's events, then from any event,
// then from the transaction input. Events naming different senders are refused.
func (v *SuiTransactionVerifier) resolveSender(block *blockchain.SuiTransactionBlock) (string, *entities.VerificationResult) {
	var pkgEvents []blockchain.SuiEvent
	for _, ev := range block.Events {
		if entities.NormalizeAddress(entities.ChainTypeSui, ev.PackageID) == v.packageID {
			pkgEvents = append(pkgEvents, ev)
		}
	}
	if len(pkgEvents) == 0 {
		pkgEvents = block.Events
	}

	sender := ""
	for _, ev := range pkgEvents {
		s := entities.NormalizeAddress(entities.ChainTypeSui, ev.Sender)
		if s == "" {
			continue
		}
		if sender != "" && sender != s {
			return "", entities.Rejected(entities.VerificationSenderMismatch,
				"transaction events carry more than one sender")
		}
		sender = s
	}
	if sender == "" {
		sender = entities.NormalizeAddress(entities.ChainTypeSui, block.InputSender())
	}
	if sender == "" {
		return "", entities.Rejected(entities.VerificationSenderMismatch, "transaction sender is unknown")
	}
	return sender, nil
}

func (v *SuiTransactionVerifier) giftSentTransfers(block *blockchain.SuiTransactionBlock) ([]Transfer, *entities.VerificationResult) {
	var transfers []Transfer
	for _, ev := range block.Events {
		if !v.isGiftSent(ev.Type) {
			continue
		}
		payload, err := decodeGiftSent(ev.ParsedJSON)
		if err != nil {
			if errors.Is(err, entities.ErrInvalidTokenAmount) {
				return nil, entities.Rejected(entities.VerificationInvalidAmount, err.Error())
			}
			return nil, entities.Rejected(entities.VerificationMalformedEvent, err.Error())
		}
		t := Transfer{
			Reference: payload.giftID,
			Amount:    payload.amount,
		}
		if payload.recipient != "" {
			t.Destination = payload.recipient
		}
		transfers = append(transfers, t)
	}
	if len(transfers) == 0 {
		return nil, entities.Rejected(entities.VerificationGiftEventMissing,
			fmt.Sprintf("no %s event from package %s", suiGiftSentStruct, v.packageID))
	}
	return transfers, nil
}

// isGiftSent matches "<package>::<module>::GiftSent", ignoring type parameters.
func (v *SuiTransactionVerifier) isGiftSent(eventType string) bool {
	if i := strings.IndexByte(eventType, '<'); i >= 0 {
		eventType = eventType[:i]
	}
	parts := strings.Split(strings.TrimSpace(eventType), "::")
	if len(parts) != 3 {
		return false
	}
	return entities.NormalizeAddress(entities.ChainTypeSui, parts[0]) == v.packageID &&
		parts[1] == v.module &&
		parts[2] == suiGiftSentStruct
}

type giftSentEvent struct {
	GiftDBID  *string         `json:"gift_db_id"`
	Amount    json.RawMessage `json:"amount"`
	Recipient *string         `json:"recipient"`
}

type giftSentPayload struct {
	giftID    string
	amount    *uint256.Int
	recipient string
}

func decodeGiftSent(raw json.RawMessage) (*giftSentPayload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, errors.New("GiftSent event has no parsedJson")
	}
	var ev giftSentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("GiftSent event is not an object: %v", err)
	}
	if ev.GiftDBID == nil || strings.TrimSpace(*ev.GiftDBID) == "" {
		return nil, errors.New("GiftSent event has no gift_db_id")
	}
	amount, err := decodeEventAmount(ev.Amount)
	if err != nil {
		return nil, err
	}
	out := &giftSentPayload{
		giftID: strings.ToLower(strings.TrimSpace(*ev.GiftDBID)),
		amount: amount,
	}
	if ev.Recipient != nil {
		out.recipient = strings.TrimSpace(*ev.Recipient)
	}
	return out, nil
}

// decodeEventAmount accepts a decimal string or a JSON integer. Move u64 values are
// rendered as strings by the fullnode.
func decodeEventAmount(raw json.RawMessage) (*uint256.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("GiftSent event has no amount")
	}
	digits := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &digits); err != nil {
			return nil, fmt.Errorf("GiftSent amount is not a string: %v", err)
		}
	}
	digits = strings.TrimSpace(digits)
	if digits == "" || strings.ContainsAny(digits, "+.eE") {
		return nil, fmt.Errorf("GiftSent amount %q is not an integer", digits)
	}
	if strings.HasPrefix(digits, "-") {
		return nil, fmt.Errorf("GiftSent amount %q: %w", digits, entities.ErrInvalidTokenAmount)
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("GiftSent amount %q is not an integer", digits)
	}
	if v.IsZero() {
		return nil, fmt.Errorf("GiftSent amount is zero: %w", entities.ErrInvalidTokenAmount)
	}
	return v, nil
}
