package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	WalletAddress    string          `gorm:"type:varchar(128);primaryKey"`
	TotalSentUSD     decimal.Decimal `gorm:"column:total_sent_usd;type:decimal(20,8);not null;default:0"`
	SentCount        int64           `gorm:"not null;default:0"`
	TotalReceivedUSD decimal.Decimal `gorm:"column:total_received_usd;type:decimal(20,8);not null;default:0"`
	ReceivedCount    int64           `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string {
	return "users"
}
