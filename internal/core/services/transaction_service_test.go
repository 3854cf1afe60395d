package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"chamanexus/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitInput(memberID *string, txType domain.TransactionType, amount, code string) *SubmitTransactionInput {
	return &SubmitTransactionInput{
		MemberID:        memberID,
		Amount:          decimal.RequireFromString(amount),
		TransactionType: string(txType),
		MpesaCode:       code,
	}
}

func TestTransactionService_Submit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "Alice")

	t.Run("records a pending contribution", func(t *testing.T) {
		tx, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "1500.00", "  qwe123rty9 "), treasurer, testNow)
		require.NoError(t, err)

		assert.Equal(t, "QWE123RTY9", tx.MpesaCode)
		assert.Equal(t, string(domain.TxStatusPending), tx.Status)
		assert.Equal(t, treasurer.UserID, tx.CreatedBy)
		assert.True(t, tx.Date.Equal(testNow))
		assert.Nil(t, tx.VerifiedBy)
		require.NotNil(t, tx.Member)
		assert.Equal(t, "Alice", tx.Member.Name)
	})

	t.Run("duplicate code in another case is refused", func(t *testing.T) {
		_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "10", "qwe123rty9"), treasurer, testNow)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateReference)

		verr, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "mpesa_code", verr.Field)
	})

	t.Run("member is required except for expenses", func(t *testing.T) {
		_, err := env.transactions.Submit(ctx, submitInput(nil, domain.TxTypeFine, "50", "FINE000001"), treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrMissingMember)

		tx, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeExpense, "250.50", "EXPN000001"), treasurer, testNow)
		require.NoError(t, err)
		assert.Nil(t, tx.MemberID)
	})

	t.Run("unknown member", func(t *testing.T) {
		ghost := "no-such-member"
		_, err := env.transactions.Submit(ctx, submitInput(&ghost, domain.TxTypeContribution, "50", "GHOST00001"), treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})

	t.Run("amount rules", func(t *testing.T) {
		cases := map[string]string{
			"zero":      "0",
			"negative":  "-5",
			"precision": "10.005",
			"too large": "100000000",
		}
		for name, amount := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, amount, "AMNT000001"), treasurer, testNow)
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
			})
		}
	})

	t.Run("malformed code and type", func(t *testing.T) {
		_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "10", "SHORT"), treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrInvalidReferenceFormat)

		_, err = env.transactions.Submit(ctx, submitInput(&alice.ID, "LOAN", "10", "LOAN000001"), treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrInvalidTransactionType)
	})

	t.Run("plain members cannot submit", func(t *testing.T) {
		_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "10", "PLAIN00001"), plainMember, testNow)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		suspended := treasurer
		suspended.Member = &domain.ActorMember{ID: "x", Role: domain.MemberRoleTreasurer, Status: domain.MemberStatusSuspended}
		_, err = env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "10", "PLAIN00001"), suspended, testNow)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})
}

func TestTransactionService_ConcurrentDuplicateSubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "Alice")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "100", "RACE000001"), treasurer, testNow)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrDuplicateReference):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, dupes)
}

func TestTransactionService_VerifyAndReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "Alice")

	tx, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "1200", "VRFY000001"), treasurer, testNow)
	require.NoError(t, err)

	verified, err := env.transactions.Verify(ctx, tx.ID, treasurer, testNow)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TxStatusVerified), verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, treasurer.UserID, *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	t.Run("second verify leaves the audit fields unchanged", func(t *testing.T) {
		other := domain.Actor{UserID: "root", IsSuperuser: true}
		_, err := env.transactions.Verify(ctx, tx.ID, other, testNow.Add(time.Hour))
		assert.ErrorIs(t, err, domain.ErrAlreadyVerified)

		got, err := env.transactions.Get(ctx, tx.ID)
		require.NoError(t, err)
		require.NotNil(t, got.VerifiedBy)
		assert.Equal(t, treasurer.UserID, *got.VerifiedBy)
		require.NotNil(t, got.VerifiedAt)
		assert.True(t, got.VerifiedAt.Equal(*verified.VerifiedAt), "verified_at moved to %s", got.VerifiedAt)
		assert.True(t, got.VerifiedAt.Equal(testNow))
	})

	t.Run("a verified entry can be rejected once", func(t *testing.T) {
		rejected, err := env.transactions.Reject(ctx, tx.ID, treasurer, testNow)
		require.NoError(t, err)
		assert.Equal(t, string(domain.TxStatusRejected), rejected.Status)

		_, err = env.transactions.Reject(ctx, tx.ID, treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrAlreadyRejected)

		balance, err := env.balances.MemberBalance(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.transactions.Verify(ctx, "missing", treasurer, testNow)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("plain members cannot verify", func(t *testing.T) {
		_, err := env.transactions.Verify(ctx, tx.ID, plainMember, testNow)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})
}

func TestTransactionService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "Alice")

	first, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "100", "UPDT000001"), treasurer, testNow)
	require.NoError(t, err)
	_, err = env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeContribution, "100", "UPDT000002"), treasurer, testNow)
	require.NoError(t, err)

	t.Run("keeping its own code is not a duplicate", func(t *testing.T) {
		amount := decimal.RequireFromString("150.50")
		code := "updt000001"
		updated, err := env.transactions.Update(ctx, first.ID, &UpdateTransactionInput{Amount: &amount, MpesaCode: &code}, treasurer)
		require.NoError(t, err)
		assert.Equal(t, "150.50", updated.Amount.StringFixed(2))
		assert.Equal(t, "UPDT000001", updated.MpesaCode)
	})

	t.Run("taking another code is a duplicate", func(t *testing.T) {
		code := "UPDT000002"
		_, err := env.transactions.Update(ctx, first.ID, &UpdateTransactionInput{MpesaCode: &code}, treasurer)
		assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	})

	t.Run("finalized entries are frozen", func(t *testing.T) {
		_, err := env.transactions.Verify(ctx, first.ID, treasurer, testNow)
		require.NoError(t, err)

		amount := decimal.RequireFromString("1")
		_, err = env.transactions.Update(ctx, first.ID, &UpdateTransactionInput{Amount: &amount}, treasurer)
		assert.ErrorIs(t, err, domain.ErrTransactionFinalized)
	})
}

func TestTransactionService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "Alice")

	env.verified(t, &alice.ID, domain.TxTypeContribution, "100", "LIST000001", testNow)
	_, err := env.transactions.Submit(ctx, submitInput(&alice.ID, domain.TxTypeFine, "20", "LIST000002"), treasurer, testNow)
	require.NoError(t, err)

	pending, err := env.transactions.Pending(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, pending.Transactions, 1)
	assert.Equal(t, "LIST000002", pending.Transactions[0].MpesaCode)
	assert.Equal(t, "20.00", pending.Transactions[0].Amount)
	assert.Equal(t, "Alice", pending.Transactions[0].MemberName)

	all, err := env.transactions.List(ctx, &ListTransactionsInput{MemberID: alice.ID, Type: "contribution"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Meta.Total)

	_, err = env.transactions.List(ctx, &ListTransactionsInput{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
