package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/domain/repositories"
	"giftchain.backend/pkg/logger"
	"giftchain.backend/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GiftListResult is one page of gifts as seen by a viewer
type GiftListResult struct {
	Items      []*entities.GiftView `json:"items"`
	Pagination utils.PaginationMeta `json:"pagination"`
}

// GiftQueryUsecase serves merged, redacted gift listings
type GiftQueryUsecase struct {
	giftRepo repositories.GiftRepository
	userRepo repositories.UserRepository
}

func NewGiftQueryUsecase(giftRepo repositories.GiftRepository, userRepo repositories.UserRepository) *GiftQueryUsecase {
	return &GiftQueryUsecase{
		giftRepo: giftRepo,
		userRepo: userRepo,
	}
}

type giftSide struct {
	name           string
	list           func(ctx context.Context, filter repositories.GiftFilter, p utils.PaginationParams) ([]*entities.Gift, error)
	count          func(ctx context.Context, filter repositories.GiftFilter) (int64, error)
	listUnverified func(ctx context.Context, wallet string) ([]*entities.Gift, error)
}

// ListSent returns gifts sent by address. viewer is the authenticated wallet or empty.
func (u *GiftQueryUsecase) ListSent(ctx context.Context, address string, page, limit int, viewer string) (*GiftListResult, error) {
	return u.list(ctx, giftSide{
		name:           "sent",
		list:           u.giftRepo.ListBySender,
		count:          u.giftRepo.CountBySender,
		listUnverified: u.giftRepo.ListUnverifiedBySender,
	}, address, page, limit, viewer)
}

// ListReceived returns gifts addressed to address.
func (u *GiftQueryUsecase) ListReceived(ctx context.Context, address string, page, limit int, viewer string) (*GiftListResult, error) {
	return u.list(ctx, giftSide{
		name:           "received",
		list:           u.giftRepo.ListByReceiver,
		count:          u.giftRepo.CountByReceiver,
		listUnverified: u.giftRepo.ListUnverifiedByReceiver,
	}, address, page, limit, viewer)
}

func (u *GiftQueryUsecase) list(ctx context.Context, side giftSide, address string, page, limit int, viewer string) (*GiftListResult, error) {
	wallet := entities.NormalizeAnyAddress(address)
	if wallet == "" {
		return nil, domainerrors.BadRequest("address is required")
	}
	viewer = entities.NormalizeAnyAddress(viewer)
	params := utils.GetPaginationParams(page, limit)
	filter := repositories.GiftFilter{Wallet: wallet, Verified: true}
	withPending := viewer != "" && viewer == wallet && params.Page == 1

	var (
		verified []*entities.Gift
		pending  []*entities.Gift
		total    int64
		countErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verified, err = side.list(gctx, filter, params)
		return err
	})
	g.Go(func() error {
		// A failed count degrades the page to an unknown total.
		total, countErr = side.count(gctx, filter)
		return nil
	})
	if withPending {
		g.Go(func() error {
			var err error
			pending, err = side.listUnverified(gctx, wallet)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: list %s gifts: %v", domainerrors.ErrDatabaseUnavailable, side.name, err)
	}

	merged := mergeGifts(pending, verified)
	items := make([]*entities.GiftView, 0, len(merged))
	for _, gift := range merged {
		items = append(items, RedactGift(gift, viewer))
	}

	var meta utils.PaginationMeta
	if countErr != nil {
		logger.Warn(ctx, "Gift count failed, returning page without total",
			zap.String("side", side.name),
			zap.String("wallet", wallet),
			zap.Error(countErr),
		)
		meta = utils.CalculateMetaUnknownTotal(params.Page, params.Limit, len(verified))
	} else {
		meta = utils.CalculateMeta(total, params.Page, params.Limit)
	}

	return &GiftListResult{Items: items, Pagination: meta}, nil
}

// mergeGifts puts pending gifts first and drops later duplicates by id.
func mergeGifts(pending, verified []*entities.Gift) []*entities.Gift {
	seen := make(map[uuid.UUID]struct{}, len(pending)+len(verified))
	out := make([]*entities.Gift, 0, len(pending)+len(verified))
	for _, list := range [][]*entities.Gift{pending, verified} {
		for _, gift := range list {
			if _, ok := seen[gift.ID]; ok {
				continue
			}
			seen[gift.ID] = struct{}{}
			out = append(out, gift)
		}
	}
	return out
}

// GetGift returns one gift. Unverified gifts are visible to their sender and receiver
// only, matching the pending section of the page-1 listings.
func (u *GiftQueryUsecase) GetGift(ctx context.Context, id uuid.UUID, viewer string) (*entities.GiftView, error) {
	gift, err := u.giftRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("gift not found")
		}
		return nil, fmt.Errorf("%w: get gift: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	viewer = entities.NormalizeAnyAddress(viewer)
	if !gift.Verified && !isParty(gift, viewer) {
		return nil, domainerrors.NotFound("gift not found")
	}
	return RedactGift(gift, viewer), nil
}

func isParty(gift *entities.Gift, viewer string) bool {
	return viewer != "" && (viewer == entities.NormalizeAnyAddress(gift.SenderWallet) ||
		viewer == entities.NormalizeAnyAddress(gift.ReceiverWallet))
}

// GetUserStats returns the wallet's aggregate; wallets with no settled gifts get zeros.
func (u *GiftQueryUsecase) GetUserStats(ctx context.Context, address string) (*entities.User, error) {
	wallet := entities.NormalizeAnyAddress(address)
	if wallet == "" {
		return nil, domainerrors.BadRequest("address is required")
	}
	user, err := u.userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.User{WalletAddress: wallet}, nil
		}
		return nil, fmt.Errorf("%w: get user stats: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	return user, nil
}

// RedactGift renders a gift for viewer. Private messages are kept for the two parties
// only; anonymous senders are hidden from everyone but themselves.
func RedactGift(gift *entities.Gift, viewer string) *entities.GiftView {
	viewer = entities.NormalizeAnyAddress(viewer)
	isSender := viewer != "" && viewer == entities.NormalizeAnyAddress(gift.SenderWallet)
	isReceiver := viewer != "" && viewer == entities.NormalizeAnyAddress(gift.ReceiverWallet)

	view := &entities.GiftView{
		ID:               gift.ID,
		SenderWallet:     null.StringFrom(gift.SenderWallet),
		ReceiverWallet:   gift.ReceiverWallet,
		AmountUSD:        gift.AmountUSD,
		FeeUSD:           gift.FeeUSD,
		TotalTokenAmount: gift.TotalTokenAmount,
		TokenSymbol:      gift.TokenSymbol,
		Chain:            gift.Chain,
		WrapperImage:     gift.WrapperImage,
		Message:          gift.Message,
		IsMessagePrivate: gift.IsMessagePrivate,
		IsAnonymous:      gift.IsAnonymous,
		Status:           gift.Status,
		Verified:         gift.Verified,
		SenderTxHash:     gift.SenderTxHash,
		OpenedAt:         gift.OpenedAt,
		CreatedAt:        gift.CreatedAt,
	}
	if gift.IsMessagePrivate && !isSender && !isReceiver {
		view.Message = null.String{}
	}
	if gift.IsAnonymous && !isSender {
		view.SenderWallet = null.String{}
	}
	return view
}
