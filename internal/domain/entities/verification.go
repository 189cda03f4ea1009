package entities

// VerificationCode classifies a failed verification
type VerificationCode string

const (
	VerificationInvalidReference   VerificationCode = "INVALID_REFERENCE"
	VerificationTxNotFound         VerificationCode = "TX_NOT_FOUND"
	VerificationTxFailed           VerificationCode = "TX_FAILED"
	VerificationSenderMismatch     VerificationCode = "SENDER_MISMATCH"
	VerificationGiftEventMissing   VerificationCode = "GIFT_EVENT_MISSING"
	VerificationMalformedEvent     VerificationCode = "MALFORMED_EVENT"
	VerificationTransferMismatch   VerificationCode = "TRANSFER_MISMATCH"
	VerificationFeeTransferMissing VerificationCode = "FEE_TRANSFER_MISSING"
	VerificationAlreadyVerified    VerificationCode = "ALREADY_VERIFIED"
	VerificationTxAlreadyUsed      VerificationCode = "TX_ALREADY_USED"
	VerificationGiftCountMismatch  VerificationCode = "GIFT_COUNT_MISMATCH"
	VerificationInvalidAmount      VerificationCode = "INVALID_AMOUNT"
	VerificationGiftNotPending     VerificationCode = "GIFT_NOT_PENDING"
	VerificationChainMismatch      VerificationCode = "CHAIN_MISMATCH"
	VerificationEmptyBatch         VerificationCode = "EMPTY_BATCH"
	VerificationMalformedTx        VerificationCode = "MALFORMED_TRANSACTION"
)

// GiftMatch is the on-chain evidence matched to one gift
type GiftMatch struct {
	GiftID    string `json:"giftId"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// VerificationResult is the outcome of checking a transaction against pending gifts.
// Failed results carry Code and Reason; verified results carry the matches.
type VerificationResult struct {
	Verified         bool             `json:"verified"`
	AlreadyProcessed bool             `json:"alreadyProcessed,omitempty"`
	Chain            ChainType        `json:"chain,omitempty"`
	TxReference      string           `json:"txDigest,omitempty"`
	MatchedGiftIDs   []string         `json:"matchedGiftIds,omitempty"`
	Gifts            []GiftMatch      `json:"gifts,omitempty"`
	Code             VerificationCode `json:"code,omitempty"`
	Reason           string           `json:"reason,omitempty"`
}

// Rejected builds a failed verification result.
func Rejected(code VerificationCode, reason string) *VerificationResult {
	return &VerificationResult{Verified: false, Code: code, Reason: reason}
}

// Accepted builds a verified result from the matched gifts.
func Accepted(matches []GiftMatch) *VerificationResult {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.GiftID)
	}
	return &VerificationResult{Verified: true, MatchedGiftIDs: ids, Gifts: matches}
}
