package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// GiftStatus represents the lifecycle state of a gift
type GiftStatus string

const (
	GiftStatusUnverified GiftStatus = "unverified"
	GiftStatusSent       GiftStatus = "sent"
	GiftStatusOpened     GiftStatus = "opened"
)

var ErrInvalidTokenAmount = errors.New("token amount must be a positive integer")

// Gift represents a gift record
type Gift struct {
	ID               uuid.UUID       `json:"id"`
	SenderWallet     string          `json:"senderWallet"`
	ReceiverWallet   string          `json:"receiverWallet"`
	AmountUSD        decimal.Decimal `json:"amountUSD"`
	FeeUSD           decimal.Decimal `json:"feeUSD"`
	TotalTokenAmount string          `json:"totalTokenAmount"`
	TokenSymbol      ChainType       `json:"tokenSymbol"`
	Chain            ChainType       `json:"chain"`
	WrapperImage     string          `json:"wrapperImage"`
	Message          null.String     `json:"message"`
	IsMessagePrivate bool            `json:"isMessagePrivate"`
	IsAnonymous      bool            `json:"isAnonymous"`
	Status           GiftStatus      `json:"status"`
	Verified         bool            `json:"verified"`
	SenderTxHash     null.String     `json:"senderTxHash"`
	OpenedAt         null.Time       `json:"openedAt"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// GiftDBID is the correlation key embedded in on-chain events.
func (g *Gift) GiftDBID() string {
	return strings.ToLower(g.ID.String())
}

// TokenAmount parses TotalTokenAmount in the smallest token unit. Zero, negative and
// non-integer values are rejected.
func (g *Gift) TokenAmount() (*uint256.Int, error) {
	return ParseTokenAmount(g.TotalTokenAmount)
}

// IsPending reports whether the gift can still be settled.
func (g *Gift) IsPending() bool {
	return !g.Verified && g.Status == GiftStatusUnverified
}

// SettledBy reports whether the gift was settled by the given transaction reference.
func (g *Gift) SettledBy(txRef string) bool {
	return g.Verified && g.SenderTxHash.Valid && g.SenderTxHash.String == txRef
}

// ParseTokenAmount parses a positive base-10 integer amount.
func ParseTokenAmount(raw string) (*uint256.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "+") {
		return nil, ErrInvalidTokenAmount
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, ErrInvalidTokenAmount
	}
	if v.IsZero() {
		return nil, ErrInvalidTokenAmount
	}
	return v, nil
}

// GiftView is a gift as rendered for a specific viewer
type GiftView struct {
	ID               uuid.UUID       `json:"id"`
	SenderWallet     null.String     `json:"senderWallet"`
	ReceiverWallet   string          `json:"receiverWallet"`
	AmountUSD        decimal.Decimal `json:"amountUSD"`
	FeeUSD           decimal.Decimal `json:"feeUSD"`
	TotalTokenAmount string          `json:"totalTokenAmount"`
	TokenSymbol      ChainType       `json:"tokenSymbol"`
	Chain            ChainType       `json:"chain"`
	WrapperImage     string          `json:"wrapperImage"`
	Message          null.String     `json:"message"`
	IsMessagePrivate bool            `json:"isMessagePrivate"`
	IsAnonymous      bool            `json:"isAnonymous"`
	Status           GiftStatus      `json:"status"`
	Verified         bool            `json:"verified"`
	SenderTxHash     null.String     `json:"senderTxHash"`
	OpenedAt         null.Time       `json:"openedAt"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// CreateGiftInput represents input for creating a gift
type CreateGiftInput struct {
	ReceiverWallet   string `json:"receiverWallet" binding:"required"`
	AmountUSD        string `json:"amountUSD" binding:"required"`
	FeeUSD           string `json:"feeUSD" binding:"required"`
	TotalTokenAmount string `json:"totalTokenAmount" binding:"required"`
	TokenSymbol      string `json:"tokenSymbol" binding:"required"`
	Chain            string `json:"chain" binding:"required"`
	WrapperImage     string `json:"wrapperImage"`
	Message          string `json:"message"`
	IsMessagePrivate bool   `json:"isMessagePrivate"`
	IsAnonymous      bool   `json:"isAnonymous"`
}

// VerifyGiftsInput represents a client-submitted settlement claim. GiftID and GiftIDs
// are merged; either may be empty but not both.
type VerifyGiftsInput struct {
	GiftID      string   `json:"giftId"`
	GiftIDs     []string `json:"giftIds"`
	TxReference string   `json:"txDigest" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	VerifyType  string   `json:"verifyType" binding:"required"`
}

// AllGiftIDs returns the de-duplicated union of GiftID and GiftIDs in submission order.
func (in VerifyGiftsInput) AllGiftIDs() []string {
	seen := make(map[string]struct{}, len(in.GiftIDs)+1)
	ids := make([]string, 0, len(in.GiftIDs)+1)
	add := func(id string) {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(in.GiftID)
	for _, id := range in.GiftIDs {
		add(id)
	}
	return ids
}
