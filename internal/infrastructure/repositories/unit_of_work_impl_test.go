package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"giftchain.backend/internal/domain/entities"
	"gorm.io/gorm"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createGiftTable(t, db)
	createUserTable(t, db)
	u := &UnitOfWorkImpl{db: db}
	gifts := NewGiftRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	err := u.Do(ctx, func(ctx context.Context) error {
		return gifts.Create(ctx, newGift(alice, bob, time.Now().UTC()))
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("gifts").Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = u.Do(ctx, func(ctx context.Context) error {
		if err := gifts.Create(ctx, newGift(alice, bob, time.Now().UTC())); err != nil {
			return err
		}
		if err := users.IncrementStats(ctx, alice, entities.StatsDelta{SentCount: 1, TotalSentUSD: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("gifts").Count(&count).Error)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
	require.NoError(t, db.Table("users").Count(&count).Error)
	require.Zero(t, count)
}

func TestUnitOfWork_NestedDoJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	createGiftTable(t, db)
	u := &UnitOfWorkImpl{db: db}
	gifts := NewGiftRepository(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		outer := GetDB(ctx, db)
		return u.Do(ctx, func(inner context.Context) error {
			require.Equal(t, outer, GetDB(inner, db))
			if err := gifts.Create(inner, newGift(alice, bob, time.Now().UTC())); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Table("gifts").Count(&count).Error)
	require.Zero(t, count)
}

func TestUnitOfWork_GetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	require.NotNil(t, u.GetDB(context.Background()))

	tx := db.Begin()
	txCtx := context.WithValue(context.Background(), txKey, tx)
	require.Equal(t, tx, u.GetDB(txCtx))
	tx.Rollback()
}

func TestUnitOfWork_DoBeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = u.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUnitOfWork_DoCommitFailure_WithHook(t *testing.T) {
	db := newTestDB(t)
	createGiftTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	origCommit := commitTx
	t.Cleanup(func() { commitTx = origCommit })
	commitTx = func(tx *gorm.DB) error {
		return errors.New("forced commit fail")
	}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return NewGiftRepository(db).Create(ctx, newGift(alice, bob, time.Now().UTC()))
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to commit transaction")
}
