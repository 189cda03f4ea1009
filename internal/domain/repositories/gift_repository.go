package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"giftchain.backend/internal/domain/entities"
	"giftchain.backend/pkg/utils"
)

// GiftFilter selects gifts for one party of a listing
type GiftFilter struct {
	Wallet   string
	Verified bool
}

// GiftRepository defines gift ledger operations
type GiftRepository interface {
	Create(ctx context.Context, gift *entities.Gift) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Gift, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Gift, error)
	ListBySender(ctx context.Context, filter GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error)
	ListByReceiver(ctx context.Context, filter GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error)
	// ListUnverifiedBySender returns every unverified gift of the sender, newest first.
	ListUnverifiedBySender(ctx context.Context, sender string) ([]*entities.Gift, error)
	ListUnverifiedByReceiver(ctx context.Context, receiver string) ([]*entities.Gift, error)
	CountBySender(ctx context.Context, filter GiftFilter) (int64, error)
	CountByReceiver(ctx context.Context, filter GiftFilter) (int64, error)
	// MarkSettled flips unverified gifts owned by sender to sent and returns how many rows
	// matched the guard.
	MarkSettled(ctx context.Context, ids []uuid.UUID, sender, txRef string) (int64, error)
	// TxReferenceUsed reports whether txRef already settled any gift.
	TxReferenceUsed(ctx context.Context, txRef string) (bool, error)
	// ClaimTxReference records txRef as spent. It returns false when the reference was
	// claimed before, in which case nothing is written.
	ClaimTxReference(ctx context.Context, chain entities.ChainType, txRef, sender string, giftCount int) (bool, error)
	// MarkOpened flips a sent gift addressed to receiver to opened.
	MarkOpened(ctx context.Context, id uuid.UUID, receiver string, openedAt time.Time) (int64, error)
	// DeleteStaleUnverified removes unverified gifts created before cutoff. An empty
	// sender matches every sender.
	DeleteStaleUnverified(ctx context.Context, sender string, cutoff time.Time) (int64, error)
}
