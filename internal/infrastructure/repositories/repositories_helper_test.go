package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createGiftTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE gifts (
		id TEXT PRIMARY KEY,
		sender_wallet TEXT NOT NULL,
		receiver_wallet TEXT NOT NULL,
		amount_usd NUMERIC NOT NULL,
		fee_usd NUMERIC NOT NULL DEFAULT 0,
		total_token_amount TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		chain TEXT NOT NULL,
		wrapper_image TEXT,
		message TEXT,
		is_message_private BOOLEAN NOT NULL DEFAULT 0,
		is_anonymous BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'unverified',
		verified BOOLEAN NOT NULL DEFAULT 0,
		sender_tx_hash TEXT,
		opened_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		wallet_address TEXT PRIMARY KEY,
		total_sent_usd NUMERIC NOT NULL DEFAULT 0,
		sent_count INTEGER NOT NULL DEFAULT 0,
		total_received_usd NUMERIC NOT NULL DEFAULT 0,
		received_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSettlementTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settlements (
		tx_reference TEXT PRIMARY KEY,
		chain TEXT NOT NULL,
		sender_wallet TEXT NOT NULL,
		gift_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);`)
}
