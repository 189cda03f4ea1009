package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Sentinel errors are mapped through FromError.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Verification writes a verification outcome. Accepted results are 200. A batch already
// settled by another transaction, or a transaction that already paid for other gifts, is
// 409. Any other rejection is 422.
func Verification(c *gin.Context, res *entities.VerificationResult) {
	if res.Verified {
		c.JSON(http.StatusOK, res)
		return
	}

	status := http.StatusUnprocessableEntity
	if res.Code == entities.VerificationAlreadyVerified || res.Code == entities.VerificationTxAlreadyUsed {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"verified": false,
		"code":     res.Code,
		"message":  res.Reason,
		"reason":   res.Reason,
		"chain":    res.Chain,
		"txDigest": res.TxReference,
	})
}
