package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/domain/repositories"
	"giftchain.backend/pkg/logger"
	"go.uber.org/zap"
)

// Settler flips verified gifts to sent and books the user aggregates
type Settler interface {
	Settle(ctx context.Context, gifts []*entities.Gift, sender, txRef string) error
}

// SettlementReconciler applies a verified result to the ledger in one transaction
type SettlementReconciler struct {
	uow      repositories.UnitOfWork
	giftRepo repositories.GiftRepository
	userRepo repositories.UserRepository
}

func NewSettlementReconciler(
	uow repositories.UnitOfWork,
	giftRepo repositories.GiftRepository,
	userRepo repositories.UserRepository,
) *SettlementReconciler {
	return &SettlementReconciler{
		uow:      uow,
		giftRepo: giftRepo,
		userRepo: userRepo,
	}
}

// Settle marks the gifts sent by txRef and spends txRef. If any gift was settled in the
// meantime nothing is written and ErrAlreadyProcessed is returned. If txRef already paid
// for other gifts nothing is written and ErrTxReferenceUsed is returned.
func (r *SettlementReconciler) Settle(ctx context.Context, gifts []*entities.Gift, sender, txRef string) error {
	if len(gifts) == 0 {
		return fmt.Errorf("settle: %w", domainerrors.ErrInvalidInput)
	}

	ids := make([]uuid.UUID, 0, len(gifts))
	senderDelta := entities.StatsDelta{}
	receiverDeltas := make(map[string]entities.StatsDelta)
	for _, gift := range gifts {
		ids = append(ids, gift.ID)
		senderDelta = senderDelta.Add(entities.StatsDelta{TotalSentUSD: gift.AmountUSD, SentCount: 1})
		receiverDeltas[gift.ReceiverWallet] = receiverDeltas[gift.ReceiverWallet].Add(
			entities.StatsDelta{TotalReceivedUSD: gift.AmountUSD, ReceivedCount: 1},
		)
	}

	// Fixed lock order across concurrent settlements.
	receivers := make([]string, 0, len(receiverDeltas))
	for wallet := range receiverDeltas {
		receivers = append(receivers, wallet)
	}
	sort.Strings(receivers)

	err := r.uow.Do(ctx, func(txCtx context.Context) error {
		affected, err := r.giftRepo.MarkSettled(txCtx, ids, sender, txRef)
		if err != nil {
			return fmt.Errorf("mark gifts settled: %w", err)
		}
		if affected != int64(len(ids)) {
			return domainerrors.ErrAlreadyProcessed
		}
		claimed, err := r.giftRepo.ClaimTxReference(txCtx, gifts[0].Chain, txRef, sender, len(ids))
		if err != nil {
			return fmt.Errorf("claim tx reference: %w", err)
		}
		if !claimed {
			return domainerrors.ErrTxReferenceUsed
		}

		if err := r.userRepo.IncrementStats(txCtx, sender, senderDelta); err != nil {
			return fmt.Errorf("increment sender stats: %w", err)
		}
		for _, wallet := range receivers {
			if err := r.userRepo.IncrementStats(txCtx, wallet, receiverDeltas[wallet]); err != nil {
				return fmt.Errorf("increment receiver stats: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyProcessed) {
			logger.Warn(ctx, "Settlement lost the race, nothing written",
				zap.String("txRef", txRef),
				zap.Int("gifts", len(ids)),
			)
			return err
		}
		if errors.Is(err, domainerrors.ErrTxReferenceUsed) {
			logger.Warn(ctx, "Transaction reference already spent, nothing written",
				zap.String("txRef", txRef),
				zap.Int("gifts", len(ids)),
			)
			return err
		}
		if errors.Is(err, domainerrors.ErrDatabaseUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domainerrors.ErrDatabaseUnavailable, err)
	}

	logger.Info(ctx, "Gifts settled",
		zap.String("txRef", txRef),
		zap.String("sender", sender),
		zap.Int("gifts", len(ids)),
		zap.String("totalUSD", senderDelta.TotalSentUSD.String()),
	)
	return nil
}
