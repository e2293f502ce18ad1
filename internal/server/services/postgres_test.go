package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresServices(t *testing.T) (*Services, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	return New(repomanager.NewPostgresRepositoryManager(db), cfg, logging.NopLogger{}), mock
}

var userColumns = []string{"id", "display_name", "balance", "starting_balance", "last_reward_at",
	"wins", "losses", "work_count", "banned", "created_at", "updated_at"}

func TestCatalog_ResetUserLocksRowBeforeAdjusting(t *testing.T) {
	svc, mock := newPostgresServices(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).WithArgs("A").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("A", "alice", int64(100), int64(1000), nil, int64(1), int64(2), int64(3), false, now, now))
	mock.ExpectExec(`DELETE\s+FROM\s+inventory`).WithArgs("A").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT\s+INTO\s+ledger_entries`).
		WithArgs("A", int64(900), "admin_adjust", "reset", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "category", "reason", "operation_id", "created_at"}).
			AddRow(int64(1), "A", int64(900), "admin_adjust", "reset", "op", now))
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+balance\s*=\s*starting_balance`).WithArgs("A").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Catalog.ResetUser(context.Background(), "A"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_VerifyReadsTotalsInOneStatement(t *testing.T) {
	svc, mock := newPostgresServices(t)

	mock.ExpectQuery(`(?s)SELECT\s+u\.balance,.*SUM\(l\.amount\).*FROM\s+users\s+u`).WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"balance", "starting_balance", "sum"}).
			AddRow(int64(70), int64(100), int64(-30)))

	rec, err := svc.Ledger.Verify(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, rec.Consistent())
	assert.NoError(t, mock.ExpectationsWereMet())
}
