package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"giftchain.backend/internal/domain/entities"
	"giftchain.backend/internal/domain/repositories"
	"giftchain.backend/internal/infrastructure/blockchain"
	"giftchain.backend/pkg/utils"
)

const (
	suiAlice   = "0x00000000000000000000000000000000000000000000000000000000000a11ce"
	suiBob     = "0x0000000000000000000000000000000000000000000000000000000000000b0b"
	suiCarol   = "0x00000000000000000000000000000000000000000000000000000000000ca401"
	suiPackage = "0x00000000000000000000000000000000000000000000000000000000000091f7"
	suiModule  = "gift"
	suiDigest  = "EjdMVfseTecEbox4WD3Dudfe2TvXNndJa8fL8xMeRHrX"
	suiDigest2 = "3WapDqiCE4FHbXNCmacjM5jgnfCarJcv6Aigns8JNXWJ"

	solAlice    = "5LxARo4tj9ry2JyvxMYTdeywcCZa5RZYAn8y7ZEB75RQ"
	solBob      = "Gxedd9NSNQevZTxQR3xHEidNWqgkojVMmuGtBbTi4Pi"
	solCarol    = "Gw9vW8PmnquBnHzupvVS7izSZm69UWEmaqgLMnpEigDN"
	solTreasury = "8JrTj8KwgdUZY6iWy5Pq1mGJ961XEGnkELH4jZeUhWdB"
	solSig      = "2RF3ugPdKMojzm2TzjYTL5x8zvFuUMQcJyK3utdX5Z7hRKmcKZjRR76nznazgtcFwr1r2os67PN1CXHF6eHNass7"
)

func pendingGift(chain entities.ChainType, sender, receiver, tokenAmount, usd string) *entities.Gift {
	return &entities.Gift{
		ID:               uuid.New(),
		SenderWallet:     sender,
		ReceiverWallet:   receiver,
		AmountUSD:        decimal.RequireFromString(usd),
		FeeUSD:           decimal.Zero,
		TotalTokenAmount: tokenAmount,
		TokenSymbol:      chain,
		Chain:            chain,
		Status:           entities.GiftStatusUnverified,
		CreatedAt:        time.Now().UTC(),
	}
}

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock GiftRepository
type MockGiftRepository struct {
	mock.Mock
}

func (m *MockGiftRepository) Create(ctx context.Context, gift *entities.Gift) error {
	return m.Called(ctx, gift).Error(0)
}

func (m *MockGiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Gift, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) ListBySender(ctx context.Context, filter repositories.GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) ListByReceiver(ctx context.Context, filter repositories.GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) ListUnverifiedBySender(ctx context.Context, sender string) ([]*entities.Gift, error) {
	args := m.Called(ctx, sender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) ListUnverifiedByReceiver(ctx context.Context, receiver string) ([]*entities.Gift, error) {
	args := m.Called(ctx, receiver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Gift), args.Error(1)
}

func (m *MockGiftRepository) CountBySender(ctx context.Context, filter repositories.GiftFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGiftRepository) CountByReceiver(ctx context.Context, filter repositories.GiftFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGiftRepository) MarkSettled(ctx context.Context, ids []uuid.UUID, sender, txRef string) (int64, error) {
	args := m.Called(ctx, ids, sender, txRef)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGiftRepository) TxReferenceUsed(ctx context.Context, txRef string) (bool, error) {
	args := m.Called(ctx, txRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiftRepository) ClaimTxReference(ctx context.Context, chain entities.ChainType, txRef, sender string, giftCount int) (bool, error) {
	args := m.Called(ctx, chain, txRef, sender, giftCount)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiftRepository) MarkOpened(ctx context.Context, id uuid.UUID, receiver string, openedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, receiver, openedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGiftRepository) DeleteStaleUnverified(ctx context.Context, sender string, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, sender, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByWallet(ctx context.Context, wallet string) (*entities.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) IncrementStats(ctx context.Context, wallet string, delta entities.StatsDelta) error {
	return m.Called(ctx, wallet, delta).Error(0)
}

// Mock SuiRPC
type MockSuiRPC struct {
	mock.Mock
}

func (m *MockSuiRPC) GetTransactionBlock(ctx context.Context, digest string) (*blockchain.SuiTransactionBlock, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.SuiTransactionBlock), args.Error(1)
}

// Mock SolanaRPC
type MockSolanaRPC struct {
	mock.Mock
}

func (m *MockSolanaRPC) GetTransfers(ctx context.Context, signature string) (*blockchain.SolanaTransaction, error) {
	args := m.Called(ctx, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.SolanaTransaction), args.Error(1)
}

// Mock Settler
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, gifts []*entities.Gift, sender, txRef string) error {
	return m.Called(ctx, gifts, sender, txRef).Error(0)
}
