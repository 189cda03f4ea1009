package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the per-wallet aggregate of settled gift activity
type User struct {
	WalletAddress    string          `json:"walletAddress"`
	TotalSentUSD     decimal.Decimal `json:"totalSentUSD"`
	SentCount        int64           `json:"sentCount"`
	TotalReceivedUSD decimal.Decimal `json:"totalReceivedUSD"`
	ReceivedCount    int64           `json:"receivedCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// StatsDelta is an increment applied to a user aggregate
type StatsDelta struct {
	TotalSentUSD     decimal.Decimal
	SentCount        int64
	TotalReceivedUSD decimal.Decimal
	ReceivedCount    int64
}

// IsZero reports whether applying the delta would change nothing.
func (d StatsDelta) IsZero() bool {
	return d.TotalSentUSD.IsZero() && d.SentCount == 0 &&
		d.TotalReceivedUSD.IsZero() && d.ReceivedCount == 0
}

// Add merges two deltas.
func (d StatsDelta) Add(o StatsDelta) StatsDelta {
	return StatsDelta{
		TotalSentUSD:     d.TotalSentUSD.Add(o.TotalSentUSD),
		SentCount:        d.SentCount + o.SentCount,
		TotalReceivedUSD: d.TotalReceivedUSD.Add(o.TotalReceivedUSD),
		ReceivedCount:    d.ReceivedCount + o.ReceivedCount,
	}
}
