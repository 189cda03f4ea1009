package repositories

import (
	"context"
	"errors"
	"time"

	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/infrastructure/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements user aggregate operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByWallet gets a user aggregate by wallet address
func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("wallet_address = ?", wallet).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.User{
		WalletAddress:    m.WalletAddress,
		TotalSentUSD:     m.TotalSentUSD,
		SentCount:        m.SentCount,
		TotalReceivedUSD: m.TotalReceivedUSD,
		ReceivedCount:    m.ReceivedCount,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

// IncrementStats inserts the delta as a new row or adds it to the existing one in a
// single statement.
func (r *UserRepository) IncrementStats(ctx context.Context, wallet string, delta entities.StatsDelta) error {
	if delta.IsZero() {
		return nil
	}
	now := time.Now().UTC()
	m := &models.User{
		WalletAddress:    wallet,
		TotalSentUSD:     delta.TotalSentUSD,
		SentCount:        delta.SentCount,
		TotalReceivedUSD: delta.TotalReceivedUSD,
		ReceivedCount:    delta.ReceivedCount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_sent_usd":     gorm.Expr("users.total_sent_usd + ?", delta.TotalSentUSD),
			"sent_count":         gorm.Expr("users.sent_count + ?", delta.SentCount),
			"total_received_usd": gorm.Expr("users.total_received_usd + ?", delta.TotalReceivedUSD),
			"received_count":     gorm.Expr("users.received_count + ?", delta.ReceivedCount),
			"updated_at":         now,
		}),
	}).Create(m).Error
}
