package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Gift struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SenderWallet     string          `gorm:"type:varchar(128);not null;index:idx_gifts_sender,priority:1"`
	ReceiverWallet   string          `gorm:"type:varchar(128);not null;index:idx_gifts_receiver,priority:1"`
	AmountUSD        decimal.Decimal `gorm:"column:amount_usd;type:decimal(20,8);not null"`
	FeeUSD           decimal.Decimal `gorm:"column:fee_usd;type:decimal(20,8);not null;default:0"`
	TotalTokenAmount string          `gorm:"type:numeric(78,0);not null"`
	TokenSymbol      string          `gorm:"type:varchar(10);not null"`
	Chain            string          `gorm:"type:varchar(10);not null"`
	WrapperImage     string          `gorm:"type:text"`
	Message          *string         `gorm:"type:text"`
	IsMessagePrivate bool            `gorm:"not null;default:false"`
	IsAnonymous      bool            `gorm:"not null;default:false"`
	Status           string          `gorm:"type:varchar(20);not null;default:'unverified';index"`
	Verified         bool            `gorm:"not null;default:false;index:idx_gifts_sender,priority:2;index:idx_gifts_receiver,priority:2"`
	SenderTxHash     *string         `gorm:"type:varchar(128);index"`
	OpenedAt         *time.Time
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (Gift) TableName() string {
	return "gifts"
}
