package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"chamanexus/internal/adapters/persistence/models"
	"chamanexus/internal/adapters/persistence/testdb"
	"chamanexus/internal/core/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func seedMember(t *testing.T, repo MemberRepository, name string) *models.Member {
	t.Helper()
	m := &models.Member{
		ID:          uuid.NewString(),
		Name:        name,
		PhoneNumber: "+254712345678",
		Role:        string(domain.MemberRoleMember),
		Status:      string(domain.MemberStatusActive),
		DateJoined:  baseTime,
	}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func seedTx(t *testing.T, repo TransactionRepository, memberID *string, txType domain.TransactionType, status domain.TransactionStatus, amount string, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		ID:              uuid.NewString(),
		MemberID:        memberID,
		Amount:          decimal.RequireFromString(amount),
		Date:            date,
		TransactionType: string(txType),
		MpesaCode:       uuid.NewString()[:8] + "AA",
		Status:          string(status),
		CreatedBy:       "creator",
	}
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestTransactionRepository_SumVerified(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	members := NewMemberRepository(db)
	txs := NewTransactionRepository(db)

	alice := seedMember(t, members, "Alice")
	bob := seedMember(t, members, "Bob")

	seedTx(t, txs, &alice.ID, domain.TxTypeContribution, domain.TxStatusVerified, "1000.10", baseTime)
	seedTx(t, txs, &alice.ID, domain.TxTypeContribution, domain.TxStatusVerified, "0.20", baseTime)
	seedTx(t, txs, &alice.ID, domain.TxTypeFine, domain.TxStatusVerified, "100.05", baseTime)
	seedTx(t, txs, &alice.ID, domain.TxTypeContribution, domain.TxStatusPending, "9999", baseTime)
	seedTx(t, txs, &alice.ID, domain.TxTypePayout, domain.TxStatusRejected, "500", baseTime)
	seedTx(t, txs, &bob.ID, domain.TxTypeContribution, domain.TxStatusVerified, "1000", baseTime.AddDate(0, -1, 0))
	seedTx(t, txs, nil, domain.TxTypeExpense, domain.TxStatusVerified, "250.50", baseTime)

	t.Run("member totals ignore unverified entries", func(t *testing.T) {
		totals, err := txs.SumVerified(ctx, SumFilter{MemberID: &alice.ID})
		require.NoError(t, err)
		assert.Equal(t, "1000.30", totals.Contributions.StringFixed(2))
		assert.Equal(t, "100.05", totals.Fines.StringFixed(2))
		assert.True(t, totals.Payouts.IsZero())
		assert.Equal(t, "900.25", totals.MemberBalance().StringFixed(2))
	})

	t.Run("group totals", func(t *testing.T) {
		totals, err := txs.SumVerified(ctx, SumFilter{})
		require.NoError(t, err)
		assert.Equal(t, "2000.30", totals.Contributions.StringFixed(2))
		assert.Equal(t, "250.50", totals.Expenses.StringFixed(2))
		assert.Equal(t, "1849.85", totals.GroupBalance().StringFixed(2))
	})

	t.Run("date window and type filter", func(t *testing.T) {
		from := domain.MonthStart(baseTime)
		to := baseTime
		totals, err := txs.SumVerified(ctx, SumFilter{
			MemberID: &bob.ID,
			Types:    []domain.TransactionType{domain.TxTypeContribution},
			From:     &from,
			To:       &to,
		})
		require.NoError(t, err)
		assert.True(t, totals.Contributions.IsZero())
	})

	t.Run("member without entries sums to zero", func(t *testing.T) {
		carol := seedMember(t, members, "Carol")
		totals, err := txs.SumVerified(ctx, SumFilter{MemberID: &carol.ID})
		require.NoError(t, err)
		assert.Equal(t, "0.00", totals.MemberBalance().StringFixed(2))
	})
}

func TestTransactionRepository_UniqueMpesaCode(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	txs := NewTransactionRepository(db)

	first := seedTx(t, txs, nil, domain.TxTypeExpense, domain.TxStatusRejected, "10", baseTime)

	exists, err := txs.ExistsByMpesaCode(ctx, first.MpesaCode, "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = txs.ExistsByMpesaCode(ctx, first.MpesaCode, first.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	dup := &models.Transaction{
		ID:              uuid.NewString(),
		Amount:          decimal.NewFromInt(5),
		Date:            baseTime,
		TransactionType: string(domain.TxTypeExpense),
		MpesaCode:       first.MpesaCode,
		Status:          string(domain.TxStatusPending),
		CreatedBy:       "creator",
	}
	err = txs.Create(ctx, dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestTransactionRepository_FinalizeIsGuarded(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	txs := NewTransactionRepository(db)

	tx := seedTx(t, txs, nil, domain.TxTypeExpense, domain.TxStatusPending, "10", baseTime)

	n, err := txs.Finalize(ctx, tx.ID, domain.TxStatusVerified, "verifier-1", baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = txs.Finalize(ctx, tx.ID, domain.TxStatusVerified, "verifier-2", baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	stored, err := txs.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TxStatusVerified), stored.Status)
	require.NotNil(t, stored.VerifiedBy)
	assert.Equal(t, "verifier-1", *stored.VerifiedBy)
	require.NotNil(t, stored.VerifiedAt)
	assert.True(t, stored.VerifiedAt.Equal(baseTime))

	n, err = txs.Finalize(ctx, uuid.NewString(), domain.TxStatusRejected, "verifier-1", baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTransactionRepository_ListAndCounts(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	members := NewMemberRepository(db)
	txs := NewTransactionRepository(db)

	alice := seedMember(t, members, "Alice")
	older := seedTx(t, txs, &alice.ID, domain.TxTypeContribution, domain.TxStatusVerified, "100", baseTime.Add(-48*time.Hour))
	newer := seedTx(t, txs, &alice.ID, domain.TxTypeContribution, domain.TxStatusVerified, "100", baseTime)
	seedTx(t, txs, &alice.ID, domain.TxTypeFine, domain.TxStatusPending, "50", baseTime)

	list, total, err := txs.List(ctx, TransactionFilter{MemberID: alice.ID, Status: string(domain.TxStatusVerified)}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	require.NotNil(t, list[0].Member)
	assert.Equal(t, "Alice", list[0].Member.Name)

	pending, err := txs.CountByStatus(ctx, domain.TxStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	last, err := txs.LastVerifiedDate(ctx, alice.ID, domain.TxTypeContribution)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(baseTime))

	none, err := txs.LastVerifiedDate(ctx, alice.ID, domain.TxTypePayout)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransactionRepository_RunInTxRollsBack(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	txs := NewTransactionRepository(db)

	boom := errors.New("boom")
	var code string
	err := txs.RunInTx(ctx, func(repo TransactionRepository) error {
		tx := seedTx(t, repo, nil, domain.TxTypeExpense, domain.TxStatusPending, "10", baseTime)
		code = tx.MpesaCode
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := txs.ExistsByMpesaCode(ctx, code, "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	var db *sql.DB
	var mock sqlmock.Sqlmock
	var err error

	db, mock, err = sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return gormDB, mock
}

func TestTransactionRepository_FinalizeSQL(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewTransactionRepository(gormDB)

	mock.ExpectExec(`UPDATE "transactions" SET .* WHERE id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Finalize(context.Background(), "tx-1", domain.TxStatusVerified, "user-1", baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumVerifiedSQL(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewTransactionRepository(gormDB)
	memberID := "member-1"

	mock.ExpectQuery(`SELECT transaction_type, COALESCE\(SUM\(amount\), 0\) AS total FROM "transactions" WHERE status = \$1 AND member_id = \$2 GROUP BY`).
		WithArgs("VERIFIED", memberID).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_type", "total"}).
			AddRow("CONTRIBUTION", "1500.50").
			AddRow("PAYOUT", "200.25"))

	totals, err := repo.SumVerified(context.Background(), SumFilter{MemberID: &memberID})
	require.NoError(t, err)
	assert.Equal(t, "1300.25", totals.MemberBalance().StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumVerifiedQueriesInUTC(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewTransactionRepository(gormDB)

	eat := time.FixedZone("EAT", 3*60*60)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, eat)
	to := time.Date(2024, 6, 10, 12, 0, 0, 0, eat)

	mock.ExpectQuery(`SELECT transaction_type, COALESCE\(SUM\(amount\), 0\) AS total FROM "transactions" WHERE status = \$1 AND date >= \$2 AND date <= \$3 GROUP BY`).
		WithArgs("VERIFIED", from.UTC(), to.UTC()).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_type", "total"}))

	_, err := repo.SumVerified(context.Background(), SumFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumVerifiedPropagatesStoreErrors(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewTransactionRepository(gormDB)

	mock.ExpectQuery(`SELECT transaction_type`).WillReturnError(sql.ErrConnDone)

	_, err := repo.SumVerified(context.Background(), SumFilter{})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
