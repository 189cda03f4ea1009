package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/interfaces/http/middleware"
	"giftchain.backend/internal/interfaces/http/response"
	"giftchain.backend/internal/usecases"
)

// DefaultStaleGiftAge is used when DELETE /gifts/unverified has no olderThan
const DefaultStaleGiftAge = 24 * time.Hour

type GiftService interface {
	CreateGift(ctx context.Context, sender string, input *entities.CreateGiftInput) (*entities.GiftView, error)
	OpenGift(ctx context.Context, id uuid.UUID, receiver string) (*entities.GiftView, error)
	DeleteStaleUnverified(ctx context.Context, sender string, olderThan time.Duration) (int64, error)
}

type GiftQueryService interface {
	ListSent(ctx context.Context, address string, page, limit int, viewer string) (*usecases.GiftListResult, error)
	ListReceived(ctx context.Context, address string, page, limit int, viewer string) (*usecases.GiftListResult, error)
	GetGift(ctx context.Context, id uuid.UUID, viewer string) (*entities.GiftView, error)
	GetUserStats(ctx context.Context, address string) (*entities.User, error)
}

// GiftHandler handles gift endpoints
type GiftHandler struct {
	gifts   GiftService
	queries GiftQueryService
}

// NewGiftHandler creates a new gift handler
func NewGiftHandler(gifts GiftService, queries GiftQueryService) *GiftHandler {
	return &GiftHandler{gifts: gifts, queries: queries}
}

// CreateGift stores a new unverified gift for the authenticated sender
// POST /api/v1/gifts
func (h *GiftHandler) CreateGift(c *gin.Context) {
	var input entities.CreateGiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	wallet, ok := middleware.GetWallet(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Wallet not authenticated"))
		return
	}

	gift, err := h.gifts.CreateGift(c.Request.Context(), wallet, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"gift": gift})
}

// GetGift returns one gift as seen by the caller
// GET /api/v1/gifts/:id
func (h *GiftHandler) GetGift(c *gin.Context) {
	id, ok := parseGiftID(c)
	if !ok {
		return
	}

	viewer, _ := middleware.GetWallet(c)
	gift, err := h.queries.GetGift(c.Request.Context(), id, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"gift": gift})
}

// OpenGift marks a settled gift as opened by its receiver
// POST /api/v1/gifts/:id/open
func (h *GiftHandler) OpenGift(c *gin.Context) {
	id, ok := parseGiftID(c)
	if !ok {
		return
	}

	wallet, ok := middleware.GetWallet(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Wallet not authenticated"))
		return
	}

	gift, err := h.gifts.OpenGift(c.Request.Context(), id, wallet)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"gift": gift})
}

// DeleteStaleUnverified removes the caller's abandoned drafts
// DELETE /api/v1/gifts/unverified?olderThan=24h
func (h *GiftHandler) DeleteStaleUnverified(c *gin.Context) {
	wallet, ok := middleware.GetWallet(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Wallet not authenticated"))
		return
	}

	olderThan := DefaultStaleGiftAge
	if raw := c.Query("olderThan"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid olderThan duration"))
			return
		}
		olderThan = d
	}

	deleted, err := h.gifts.DeleteStaleUnverified(c.Request.Context(), wallet, olderThan)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

// ListSent lists gifts sent by an address
// GET /api/v1/gifts/sent/:address
func (h *GiftHandler) ListSent(c *gin.Context) {
	h.list(c, h.queries.ListSent)
}

// ListReceived lists gifts received by an address
// GET /api/v1/gifts/received/:address
func (h *GiftHandler) ListReceived(c *gin.Context) {
	h.list(c, h.queries.ListReceived)
}

type listFunc func(ctx context.Context, address string, page, limit int, viewer string) (*usecases.GiftListResult, error)

func (h *GiftHandler) list(c *gin.Context, fn listFunc) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	viewer, _ := middleware.GetWallet(c)

	result, err := fn(c.Request.Context(), c.Param("address"), page, limit, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func parseGiftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid gift ID"))
		return uuid.Nil, false
	}
	return id, true
}
