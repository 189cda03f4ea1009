package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	domainRepos "giftchain.backend/internal/domain/repositories"
	"giftchain.backend/internal/infrastructure/models"
	"giftchain.backend/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftRepository implements gift ledger operations
type GiftRepository struct {
	db *gorm.DB
}

// NewGiftRepository creates a new gift repository
func NewGiftRepository(db *gorm.DB) *GiftRepository {
	return &GiftRepository{db: db}
}

// Create inserts a new gift
func (r *GiftRepository) Create(ctx context.Context, gift *entities.Gift) error {
	now := time.Now().UTC()
	if gift.CreatedAt.IsZero() {
		gift.CreatedAt = now
	}
	if gift.UpdatedAt.IsZero() {
		gift.UpdatedAt = gift.CreatedAt
	}
	return GetDB(ctx, r.db).Create(toGiftModel(gift)).Error
}

// GetByID gets a gift by ID
func (r *GiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Gift, error) {
	var m models.Gift
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toGiftEntity(&m), nil
}

// GetByIDs gets every gift whose id is in ids. Missing ids are skipped.
func (r *GiftRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Gift, error) {
	if len(ids) == 0 {
		return []*entities.Gift{}, nil
	}
	var ms []models.Gift
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	return toGiftEntities(ms), nil
}

func (r *GiftRepository) ListBySender(ctx context.Context, filter domainRepos.GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error) {
	return r.list(ctx, "sender_wallet", filter, pagination)
}

func (r *GiftRepository) ListByReceiver(ctx context.Context, filter domainRepos.GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error) {
	return r.list(ctx, "receiver_wallet", filter, pagination)
}

func (r *GiftRepository) ListUnverifiedBySender(ctx context.Context, sender string) ([]*entities.Gift, error) {
	return r.listUnverified(ctx, "sender_wallet", sender)
}

func (r *GiftRepository) ListUnverifiedByReceiver(ctx context.Context, receiver string) ([]*entities.Gift, error) {
	return r.listUnverified(ctx, "receiver_wallet", receiver)
}

func (r *GiftRepository) CountBySender(ctx context.Context, filter domainRepos.GiftFilter) (int64, error) {
	return r.count(ctx, "sender_wallet", filter)
}

func (r *GiftRepository) CountByReceiver(ctx context.Context, filter domainRepos.GiftFilter) (int64, error) {
	return r.count(ctx, "receiver_wallet", filter)
}

// MarkSettled is a compare-and-swap: only rows still unverified and owned by sender are
// flipped, so a concurrent settlement of the same ids observes fewer affected rows.
func (r *GiftRepository) MarkSettled(ctx context.Context, ids []uuid.UUID, sender, txRef string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := GetDB(ctx, r.db).Model(&models.Gift{}).
		Where("id IN ? AND verified = ? AND status = ? AND sender_wallet = ?",
			ids, false, string(entities.GiftStatusUnverified), sender).
		Updates(map[string]interface{}{
			"status":         string(entities.GiftStatusSent),
			"verified":       true,
			"sender_tx_hash": txRef,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *GiftRepository) TxReferenceUsed(ctx context.Context, txRef string) (bool, error) {
	db := GetDB(ctx, r.db)
	var claimed int64
	if err := db.Model(&models.Settlement{}).Where("tx_reference = ?", txRef).Count(&claimed).Error; err != nil {
		return false, err
	}
	if claimed > 0 {
		return true, nil
	}
	// Gifts settled before the settlements ledger existed only carry the hash.
	var settled int64
	if err := db.Model(&models.Gift{}).Where("sender_tx_hash = ? AND verified = ?", txRef, true).Count(&settled).Error; err != nil {
		return false, err
	}
	return settled > 0, nil
}

// ClaimTxReference inserts the settlement row. A concurrent claim of the same reference
// waits on the primary key and then inserts nothing.
func (r *GiftRepository) ClaimTxReference(ctx context.Context, chain entities.ChainType, txRef, sender string, giftCount int) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Settlement{
			TxReference:  txRef,
			Chain:        chain.String(),
			SenderWallet: sender,
			GiftCount:    giftCount,
			CreatedAt:    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GiftRepository) MarkOpened(ctx context.Context, id uuid.UUID, receiver string, openedAt time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&models.Gift{}).
		Where("id = ? AND status = ? AND verified = ? AND receiver_wallet = ?",
			id, string(entities.GiftStatusSent), true, receiver).
		Updates(map[string]interface{}{
			"status":     string(entities.GiftStatusOpened),
			"opened_at":  openedAt,
			"updated_at": openedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *GiftRepository) DeleteStaleUnverified(ctx context.Context, sender string, cutoff time.Time) (int64, error) {
	q := GetDB(ctx, r.db).
		Where("verified = ? AND status = ? AND created_at < ?", false, string(entities.GiftStatusUnverified), cutoff)
	if sender != "" {
		q = q.Where("sender_wallet = ?", sender)
	}
	res := q.Delete(&models.Gift{})
	return res.RowsAffected, res.Error
}

func (r *GiftRepository) list(ctx context.Context, column string, filter domainRepos.GiftFilter, pagination utils.PaginationParams) ([]*entities.Gift, error) {
	var ms []models.Gift
	err := GetDB(ctx, r.db).
		Where(column+" = ? AND verified = ?", filter.Wallet, filter.Verified).
		Order("created_at DESC").Order("id DESC").
		Offset(pagination.CalculateOffset()).
		Limit(pagination.Limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toGiftEntities(ms), nil
}

func (r *GiftRepository) listUnverified(ctx context.Context, column, wallet string) ([]*entities.Gift, error) {
	var ms []models.Gift
	err := GetDB(ctx, r.db).
		Where(column+" = ? AND verified = ? AND status = ?", wallet, false, string(entities.GiftStatusUnverified)).
		Order("created_at DESC").Order("id DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toGiftEntities(ms), nil
}

func (r *GiftRepository) count(ctx context.Context, column string, filter domainRepos.GiftFilter) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&models.Gift{}).
		Where(column+" = ? AND verified = ?", filter.Wallet, filter.Verified).
		Count(&total).Error
	return total, err
}

func toGiftModel(g *entities.Gift) *models.Gift {
	m := &models.Gift{
		ID:               g.ID,
		SenderWallet:     g.SenderWallet,
		ReceiverWallet:   g.ReceiverWallet,
		AmountUSD:        g.AmountUSD,
		FeeUSD:           g.FeeUSD,
		TotalTokenAmount: g.TotalTokenAmount,
		TokenSymbol:      string(g.TokenSymbol),
		Chain:            string(g.Chain),
		WrapperImage:     g.WrapperImage,
		IsMessagePrivate: g.IsMessagePrivate,
		IsAnonymous:      g.IsAnonymous,
		Status:           string(g.Status),
		Verified:         g.Verified,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
	if g.Message.Valid {
		msg := g.Message.String
		m.Message = &msg
	}
	if g.SenderTxHash.Valid {
		hash := g.SenderTxHash.String
		m.SenderTxHash = &hash
	}
	if g.OpenedAt.Valid {
		at := g.OpenedAt.Time
		m.OpenedAt = &at
	}
	return m
}

func toGiftEntity(m *models.Gift) *entities.Gift {
	return &entities.Gift{
		ID:               m.ID,
		SenderWallet:     m.SenderWallet,
		ReceiverWallet:   m.ReceiverWallet,
		AmountUSD:        m.AmountUSD,
		FeeUSD:           m.FeeUSD,
		TotalTokenAmount: m.TotalTokenAmount,
		TokenSymbol:      entities.ChainType(m.TokenSymbol),
		Chain:            entities.ChainType(m.Chain),
		WrapperImage:     m.WrapperImage,
		Message:          null.StringFromPtr(m.Message),
		IsMessagePrivate: m.IsMessagePrivate,
		IsAnonymous:      m.IsAnonymous,
		Status:           entities.GiftStatus(m.Status),
		Verified:         m.Verified,
		SenderTxHash:     null.StringFromPtr(m.SenderTxHash),
		OpenedAt:         null.TimeFromPtr(m.OpenedAt),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toGiftEntities(ms []models.Gift) []*entities.Gift {
	out := make([]*entities.Gift, 0, len(ms))
	for i := range ms {
		out = append(out, toGiftEntity(&ms[i]))
	}
	return out
}
