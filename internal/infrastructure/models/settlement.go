package models

import "time"

// Settlement records the transaction reference that paid for a batch of gifts. The
// primary key makes a reference settle at most once.
type Settlement struct {
	TxReference  string    `gorm:"type:varchar(128);primaryKey"`
	Chain        string    `gorm:"type:varchar(10);not null"`
	SenderWallet string    `gorm:"type:varchar(128);not null"`
	GiftCount    int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (Settlement) TableName() string {
	return "settlements"
}
