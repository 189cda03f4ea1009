package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestParseTokenAmount(t *testing.T) {
	v, err := ParseTokenAmount("1000000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), v.Uint64())

	big, err := ParseTokenAmount("340282366920938463463374607431768211456")
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211456", big.Dec())

	for _, raw := range []string{"", "0", "-1", "+5", "1.5", "1e9", "abc"} {
		_, err := ParseTokenAmount(raw)
		assert.ErrorIs(t, err, ErrInvalidTokenAmount, raw)
	}
}

func TestGift_StateHelpers(t *testing.T) {
	g := &Gift{ID: uuid.New(), Status: GiftStatusUnverified}
	assert.True(t, g.IsPending())
	assert.False(t, g.SettledBy("D"))

	g.Status = GiftStatusSent
	g.Verified = true
	g.SenderTxHash = null.StringFrom("D")
	assert.False(t, g.IsPending())
	assert.True(t, g.SettledBy("D"))
	assert.False(t, g.SettledBy("E"))
	assert.Equal(t, g.ID.String(), g.GiftDBID())
}

func TestVerifyGiftsInput_AllGiftIDs(t *testing.T) {
	in := VerifyGiftsInput{
		GiftID:  " A ",
		GiftIDs: []string{"a", "b", "", "B", "c"},
	}
	assert.Equal(t, []string{"a", "b", "c"}, in.AllGiftIDs())
	assert.Empty(t, VerifyGiftsInput{}.AllGiftIDs())
}
