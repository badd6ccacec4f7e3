package balance_test

import (
	"testing"
	"time"

	"go-leavedesk/internal/balance"
	"go-leavedesk/internal/shared/connection"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := connection.OpenSQLite("file:balance_"+uuid.NewString()+"?mode=memory&cache=shared", time.Second)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&balance.Ledger{}))
	require.NoError(t, db.Exec(`CREATE TABLE employees (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		grade TEXT NOT NULL DEFAULT '',
		deleted_at DATETIME
	)`).Error)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedEmployee(t *testing.T, db *gorm.DB, role, grade string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec("INSERT INTO employees (id, role, grade) VALUES (?, ?, ?)", id, role, grade).Error)
	return id
}

func newRunner(db *gorm.DB) *dbtx.Runner {
	return dbtx.NewRunner(db, dbtx.DefaultOptions(), zap.NewNop())
}

func newKeeper(db *gorm.DB) *balance.Keeper {
	return balance.NewKeeper(balance.NewRepository(db), balance.DefaultPolicyTable(), zap.NewNop())
}
