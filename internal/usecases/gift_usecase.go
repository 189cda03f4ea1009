package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/domain/repositories"
	"giftchain.backend/pkg/logger"
	"giftchain.backend/pkg/utils"
	"go.uber.org/zap"
)

const (
	maxGiftMessageLength = 500
	minStaleGiftAge      = time.Hour
)

var generateGiftID = utils.GenerateUUIDv7

// GiftUsecase handles the gift lifecycle outside settlement
type GiftUsecase struct {
	giftRepo repositories.GiftRepository
	now      func() time.Time
}

func NewGiftUsecase(giftRepo repositories.GiftRepository) *GiftUsecase {
	return &GiftUsecase{
		giftRepo: giftRepo,
		now:      time.Now,
	}
}

// CreateGift stores a new unverified gift from sender.
func (u *GiftUsecase) CreateGift(ctx context.Context, sender string, input *entities.CreateGiftInput) (*entities.GiftView, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}
	chain, ok := entities.ParseChainType(input.Chain)
	if !ok {
		return nil, domainerrors.BadRequest(fmt.Sprintf("unsupported chain %q", input.Chain))
	}
	token, ok := entities.ParseChainType(input.TokenSymbol)
	if !ok || token != chain {
		return nil, domainerrors.BadRequest(fmt.Sprintf("token %q cannot be sent on %s", input.TokenSymbol, chain))
	}

	senderWallet, ok := canonicalWallet(chain, sender)
	if !ok {
		return nil, domainerrors.BadRequest(fmt.Sprintf("sender is not a valid %s address", chain))
	}
	receiverWallet, ok := canonicalWallet(chain, input.ReceiverWallet)
	if !ok {
		return nil, domainerrors.BadRequest(fmt.Sprintf("receiverWallet is not a valid %s address", chain))
	}
	if receiverWallet == senderWallet {
		return nil, domainerrors.BadRequest("cannot send a gift to yourself")
	}

	amountUSD, err := decimal.NewFromString(strings.TrimSpace(input.AmountUSD))
	if err != nil || !amountUSD.IsPositive() {
		return nil, domainerrors.BadRequest("amountUSD must be a positive decimal")
	}
	feeUSD, err := decimal.NewFromString(strings.TrimSpace(input.FeeUSD))
	if err != nil || feeUSD.IsNegative() {
		return nil, domainerrors.BadRequest("feeUSD must be a non-negative decimal")
	}
	tokenAmount, err := entities.ParseTokenAmount(input.TotalTokenAmount)
	if err != nil {
		return nil, domainerrors.BadRequest("totalTokenAmount must be a positive integer in the smallest unit")
	}

	message := strings.TrimSpace(input.Message)
	if utf8.RuneCountInString(message) > maxGiftMessageLength {
		return nil, domainerrors.BadRequest(fmt.Sprintf("message is longer than %d characters", maxGiftMessageLength))
	}

	gift := &entities.Gift{
		ID:               generateGiftID(),
		SenderWallet:     senderWallet,
		ReceiverWallet:   receiverWallet,
		AmountUSD:        amountUSD,
		FeeUSD:           feeUSD,
		TotalTokenAmount: tokenAmount.Dec(),
		TokenSymbol:      token,
		Chain:            chain,
		WrapperImage:     strings.TrimSpace(input.WrapperImage),
		Message:          null.NewString(message, message != ""),
		IsMessagePrivate: input.IsMessagePrivate,
		IsAnonymous:      input.IsAnonymous,
		Status:           entities.GiftStatusUnverified,
	}
	if err := u.giftRepo.Create(ctx, gift); err != nil {
		return nil, fmt.Errorf("%w: create gift: %v", domainerrors.ErrDatabaseUnavailable, err)
	}

	logger.Info(ctx, "Gift created",
		zap.String("giftId", gift.GiftDBID()),
		zap.String("chain", chain.String()),
		zap.String("sender", senderWallet),
	)
	return RedactGift(gift, senderWallet), nil
}

// OpenGift lets the receiver claim a settled gift.
func (u *GiftUsecase) OpenGift(ctx context.Context, id uuid.UUID, receiver string) (*entities.GiftView, error) {
	gift, err := u.giftRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("gift not found")
		}
		return nil, fmt.Errorf("%w: get gift: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	if !entities.SameAddress(gift.Chain, gift.ReceiverWallet, receiver) {
		return nil, domainerrors.Forbidden("only the receiver can open this gift")
	}

	openedAt := u.now().UTC()
	affected, err := u.giftRepo.MarkOpened(ctx, id, gift.ReceiverWallet, openedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: open gift: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	if affected == 0 {
		current, err := u.giftRepo.GetByID(ctx, id)
		if err == nil && current.Status == entities.GiftStatusOpened {
			return nil, domainerrors.Conflict("gift is already opened")
		}
		return nil, domainerrors.Conflict("gift is not ready to be opened")
	}

	gift.Status = entities.GiftStatusOpened
	gift.OpenedAt = null.TimeFrom(openedAt)
	logger.Info(ctx, "Gift opened", zap.String("giftId", gift.GiftDBID()))
	return RedactGift(gift, gift.ReceiverWallet), nil
}

// DeleteStaleUnverified removes the sender's unverified gifts older than olderThan.
func (u *GiftUsecase) DeleteStaleUnverified(ctx context.Context, sender string, olderThan time.Duration) (int64, error) {
	wallet := entities.NormalizeAnyAddress(sender)
	if wallet == "" {
		return 0, domainerrors.Unauthorized("wallet is required")
	}
	if olderThan < minStaleGiftAge {
		return 0, domainerrors.BadRequest(fmt.Sprintf("olderThan must be at least %s", minStaleGiftAge))
	}
	deleted, err := u.giftRepo.DeleteStaleUnverified(ctx, wallet, u.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("%w: delete stale gifts: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	if deleted > 0 {
		logger.Info(ctx, "Stale unverified gifts deleted",
			zap.String("sender", wallet),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

// canonicalWallet validates an address for chain and returns its stored form.
func canonicalWallet(chain entities.ChainType, address string) (string, bool) {
	switch chain {
	case entities.ChainTypeSui:
		wallet := entities.NormalizeAddress(chain, address)
		if len(wallet) != 66 || !strings.HasPrefix(wallet, "0x") {
			return "", false
		}
		for _, r := range wallet[2:] {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return "", false
			}
		}
		return wallet, true
	case entities.ChainTypeSol:
		pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
		if err != nil {
			return "", false
		}
		return pk.String(), true
	default:
		return "", false
	}
}
