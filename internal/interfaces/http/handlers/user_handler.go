package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"giftchain.backend/internal/domain/entities"
	"giftchain.backend/internal/interfaces/http/response"
)

type UserStatsService interface {
	GetUserStats(ctx context.Context, address string) (*entities.User, error)
}

// UserHandler handles wallet profile endpoints
type UserHandler struct {
	stats UserStatsService
}

// NewUserHandler creates a new user handler
func NewUserHandler(stats UserStatsService) *UserHandler {
	return &UserHandler{stats: stats}
}

// GetStats returns the running gift totals for a wallet
// GET /api/v1/users/:address/stats
func (h *UserHandler) GetStats(c *gin.Context) {
	user, err := h.stats.GetUserStats(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": user})
}
