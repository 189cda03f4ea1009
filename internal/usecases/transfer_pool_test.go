package usecases_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"giftchain.backend/internal/domain/entities"
	"giftchain.backend/internal/usecases"
)

func TestTransferPool_ConsumesEachTransferOnce(t *testing.T) {
	first := pendingGift(entities.ChainTypeSol, solAlice, solBob, "500", "1")
	second := pendingGift(entities.ChainTypeSol, solAlice, solBob, "500", "1")

	pool := usecases.NewTransferPool(entities.ChainTypeSol, []usecases.Transfer{
		{Destination: solBob, Amount: uint256.NewInt(500)},
	})
	matches, res := pool.MatchGifts([]*entities.Gift{first, second}, false)
	require.NotNil(t, res)
	assert.Nil(t, matches)
	assert.Equal(t, entities.VerificationTransferMismatch, res.Code)
}

func TestTransferPool_MatchesDistinctTransfers(t *testing.T) {
	first := pendingGift(entities.ChainTypeSol, solAlice, solBob, "500", "1")
	second := pendingGift(entities.ChainTypeSol, solAlice, solCarol, "700", "1")

	pool := usecases.NewTransferPool(entities.ChainTypeSol, []usecases.Transfer{
		{Destination: solCarol, Amount: uint256.NewInt(700)},
		{Destination: solBob, Amount: uint256.NewInt(500)},
		{Destination: solTreasury, Amount: uint256.NewInt(12)},
	})
	matches, res := pool.MatchGifts([]*entities.Gift{first, second}, false)
	require.Nil(t, res)
	require.Len(t, matches, 2)
	assert.Equal(t, first.GiftDBID(), matches[0].GiftID)
	assert.Equal(t, solBob, matches[0].Recipient)
	assert.Equal(t, "500", matches[0].Amount)
	assert.Equal(t, "700", matches[1].Amount)

	left, ok := pool.Consume(func(usecases.Transfer) bool { return true })
	require.True(t, ok)
	assert.Equal(t, solTreasury, left.Destination)
	_, ok = pool.Consume(func(usecases.Transfer) bool { return true })
	assert.False(t, ok, "matched transfers are not handed out again")

	total, err := usecases.SumAmounts(matches)
	require.NoError(t, err)
	assert.Equal(t, "1200", total.Dec())
}

func TestTransferPool_ByReferenceIgnoresOtherGifts(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSui, suiAlice, suiBob, "1000", "1")

	pool := usecases.NewTransferPool(entities.ChainTypeSui, []usecases.Transfer{
		{Reference: "someone-else", Amount: uint256.NewInt(1000)},
	})
	_, res := pool.MatchGifts([]*entities.Gift{gift}, true)
	require.NotNil(t, res)
	assert.Equal(t, entities.VerificationTransferMismatch, res.Code)

	pool = usecases.NewTransferPool(entities.ChainTypeSui, []usecases.Transfer{
		{Reference: gift.GiftDBID(), Amount: uint256.NewInt(1000)},
	})
	matches, res := pool.MatchGifts([]*entities.Gift{gift}, true)
	require.Nil(t, res)
	assert.Equal(t, suiBob, matches[0].Recipient)
}

func TestTransferPool_AmountMustBeExact(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSol, solAlice, solBob, "1000000000", "1")

	pool := usecases.NewTransferPool(entities.ChainTypeSol, []usecases.Transfer{
		{Destination: solBob, Amount: uint256.NewInt(1000000001)},
		{Destination: solBob, Amount: uint256.NewInt(999999999)},
	})
	_, res := pool.MatchGifts([]*entities.Gift{gift}, false)
	require.NotNil(t, res)
	assert.Equal(t, entities.VerificationTransferMismatch, res.Code)
}

func TestTransferPool_InvalidGiftAmount(t *testing.T) {
	gift := pendingGift(entities.ChainTypeSol, solAlice, solBob, "0", "1")

	pool := usecases.NewTransferPool(entities.ChainTypeSol, nil)
	_, res := pool.MatchGifts([]*entities.Gift{gift}, false)
	require.NotNil(t, res)
	assert.Equal(t, entities.VerificationInvalidAmount, res.Code)
}
