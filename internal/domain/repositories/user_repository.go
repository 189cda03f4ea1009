package repositories

import (
	"context"

	"giftchain.backend/internal/domain/entities"
)

// UserRepository defines user aggregate operations
type UserRepository interface {
	GetByWallet(ctx context.Context, wallet string) (*entities.User, error)
	// IncrementStats adds delta to the wallet's aggregate, creating the row when missing.
	IncrementStats(ctx context.Context, wallet string, delta entities.StatsDelta) error
}
