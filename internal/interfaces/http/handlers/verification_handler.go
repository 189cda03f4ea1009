package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/interfaces/http/response"
)

type VerificationService interface {
	VerifyGifts(ctx context.Context, input *entities.VerifyGiftsInput) (*entities.VerificationResult, error)
}

// VerificationHandler handles settlement claims
type VerificationHandler struct {
	verifier VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verifier VerificationService) *VerificationHandler {
	return &VerificationHandler{verifier: verifier}
}

// VerifyGifts checks a submitted transaction against pending gifts and settles them
// POST /api/v1/gifts/verify
func (h *VerificationHandler) VerifyGifts(c *gin.Context) {
	var input entities.VerifyGiftsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	if len(input.AllGiftIDs()) == 0 {
		response.Error(c, domainerrors.BadRequest("giftId or giftIds is required"))
		return
	}

	result, err := h.verifier.VerifyGifts(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Verification(c, result)
}
