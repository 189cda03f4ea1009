package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
)

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusOK, gin.H{"ok": true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestError_AppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, domainerrors.NotFound("gift not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domainerrors.CodeNotFound)
	assert.Contains(t, w.Body.String(), "gift not found")
}

func TestError_SentinelMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("load: %w", domainerrors.ErrDatabaseUnavailable), http.StatusServiceUnavailable, domainerrors.CodeDatabaseUnavailable},
		{fmt.Errorf("sui: %w", domainerrors.ErrChainUnavailable), http.StatusServiceUnavailable, domainerrors.CodeChainUnavailable},
		{domainerrors.ErrVerificationInProgress, http.StatusConflict, domainerrors.CodeVerificationInFlight},
		{domainerrors.ErrInvalidInput, http.StatusBadRequest, domainerrors.CodeBadRequest},
		{errors.New("boom"), http.StatusInternalServerError, domainerrors.CodeInternal},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), tc.code)
	}
}

func TestVerification(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		res := entities.Accepted([]entities.GiftMatch{{GiftID: "g1", Recipient: "0xb0b", Amount: "10"}})
		Verification(c, res)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"verified":true`)
		assert.Contains(t, w.Body.String(), `"matchedGiftIds":["g1"]`)
	})

	t.Run("rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Verification(c, entities.Rejected(entities.VerificationSenderMismatch, "sender does not match"))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"verified":false`)
		assert.Contains(t, w.Body.String(), `"code":"SENDER_MISMATCH"`)
		assert.Contains(t, w.Body.String(), `"reason":"sender does not match"`)
	})

	t.Run("already verified", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Verification(c, entities.Rejected(entities.VerificationAlreadyVerified, "settled by another transaction"))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("reference already spent", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Verification(c, entities.Rejected(entities.VerificationTxAlreadyUsed, "paid for other gifts"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"TX_ALREADY_USED"`)
	})
}
