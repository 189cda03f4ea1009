package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/usecases"
)

func deltaMatching(want entities.StatsDelta) interface{} {
	return mock.MatchedBy(func(got entities.StatsDelta) bool {
		return got.TotalSentUSD.Equal(want.TotalSentUSD) &&
			got.SentCount == want.SentCount &&
			got.TotalReceivedUSD.Equal(want.TotalReceivedUSD) &&
			got.ReceivedCount == want.ReceivedCount
	})
}

func TestSettlementReconciler_SettlesAndBooksStats(t *testing.T) {
	toBob := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "1000", "2.5")
	toCarol := pendingGift(entities.ChainTypeSui, suiAlice, suiCarol, "2000", "4.25")
	toBobAgain := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "3000", "10")
	gifts := []*entities.Gift{toBob, toCarol, toBobAgain}
	ids := []uuid.UUID{toBob.ID, toCarol.ID, toBobAgain.ID}

	uow := new(MockUnitOfWork)
	giftRepo := new(MockGiftRepository)
	userRepo := new(MockUserRepository)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	giftRepo.On("MarkSettled", mock.Anything, ids, suiAlice, suiDigest).Return(int64(3), nil)
	giftRepo.On("ClaimTxReference", mock.Anything, entities.ChainTypeSui, suiDigest, suiAlice, 3).Return(true, nil)
	userRepo.On("IncrementStats", mock.Anything, suiAlice, deltaMatching(entities.StatsDelta{
		TotalSentUSD: decimal.RequireFromString("16.75"), SentCount: 3,
	})).Return(nil).Once()
	userRepo.On("IncrementStats", mock.Anything, suiBob, deltaMatching(entities.StatsDelta{
		TotalReceivedUSD: decimal.RequireFromString("12.5"), ReceivedCount: 2,
	})).Return(nil).Once()
	userRepo.On("IncrementStats", mock.Anything, suiCarol, deltaMatching(entities.StatsDelta{
		TotalReceivedUSD: decimal.RequireFromString("4.25"), ReceivedCount: 1,
	})).Return(nil).Once()

	r := usecases.NewSettlementReconciler(uow, giftRepo, userRepo)
	require.NoError(t, r.Settle(context.Background(), gifts, suiAlice, suiDigest))

	uow.AssertExpectations(t)
	giftRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)

	// receivers are booked in address order
	var order []string
	for _, call := range userRepo.Calls {
		order = append(order, call.Arguments.String(1))
	}
	assert.Equal(t, []string{suiAlice, suiBob, suiCarol}, order)
}

func TestSettlementReconciler_LostRaceWritesNothing(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "1000", "1")
	other := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "1000", "1")

	uow := new(MockUnitOfWork)
	giftRepo := new(MockGiftRepository)
	userRepo := new(MockUserRepository)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	giftRepo.On("MarkSettled", mock.Anything, mock.Anything, suiAlice, suiDigest).Return(int64(1), nil)

	r := usecases.NewSettlementReconciler(uow, giftRepo, userRepo)
	err := r.Settle(context.Background(), []*entities.Gift{gift, other}, suiAlice, suiDigest)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyProcessed)
	userRepo.AssertNotCalled(t, "IncrementStats", mock.Anything, mock.Anything, mock.Anything)
	giftRepo.AssertNotCalled(t, "ClaimTxReference", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementReconciler_SpentReferenceWritesNothing(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSol, solAlice, solBob, "1000000000", "150")

	uow := new(MockUnitOfWork)
	giftRepo := new(MockGiftRepository)
	userRepo := new(MockUserRepository)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	giftRepo.On("MarkSettled", mock.Anything, []uuid.UUID{gift.ID}, solAlice, solSig).Return(int64(1), nil)
	giftRepo.On("ClaimTxReference", mock.Anything, entities.ChainTypeSol, solSig, solAlice, 1).Return(false, nil)

	err := usecases.NewSettlementReconciler(uow, giftRepo, userRepo).
		Settle(context.Background(), []*entities.Gift{gift}, solAlice, solSig)
	assert.ErrorIs(t, err, domainerrors.ErrTxReferenceUsed)
	userRepo.AssertNotCalled(t, "IncrementStats", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementReconciler_StoreFailures(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "1000", "1")

	t.Run("update fails", func(t *testing.T) {
		uow := new(MockUnitOfWork)
		giftRepo := new(MockGiftRepository)
		userRepo := new(MockUserRepository)
		uow.On("Do", mock.Anything, mock.Anything).Return(nil)
		giftRepo.On("MarkSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), errors.New("connection reset"))

		err := usecases.NewSettlementReconciler(uow, giftRepo, userRepo).
			Settle(context.Background(), []*entities.Gift{gift}, suiAlice, suiDigest)
		assert.ErrorIs(t, err, domainerrors.ErrDatabaseUnavailable)
		userRepo.AssertNotCalled(t, "IncrementStats", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stats fail", func(t *testing.T) {
		uow := new(MockUnitOfWork)
		giftRepo := new(MockGiftRepository)
		userRepo := new(MockUserRepository)
		uow.On("Do", mock.Anything, mock.Anything).Return(nil)
		giftRepo.On("MarkSettled", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
		giftRepo.On("ClaimTxReference", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		userRepo.On("IncrementStats", mock.Anything, suiAlice, mock.Anything).Return(errors.New("deadlock"))

		err := usecases.NewSettlementReconciler(uow, giftRepo, userRepo).
			Settle(context.Background(), []*entities.Gift{gift}, suiAlice, suiDigest)
		assert.ErrorIs(t, err, domainerrors.ErrDatabaseUnavailable)
	})

	t.Run("empty batch", func(t *testing.T) {
		err := usecases.NewSettlementReconciler(new(MockUnitOfWork), new(MockGiftRepository), new(MockUserRepository)).
			Settle(context.Background(), nil, suiAlice, suiDigest)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	})
}
