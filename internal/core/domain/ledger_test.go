package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizeMpesaCode(t *testing.T) {
	assert.Equal(t, "ABC1234567", NormalizeMpesaCode("  abc1234567 "))
	assert.Equal(t, NormalizeMpesaCode("abc1234567"), NormalizeMpesaCode("ABC1234567"))
}

func TestValidateMpesaCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"ten alphanumerics", "QWE1234567", true},
		{"all digits", "1234567890", true},
		{"too short", "ABC123", false},
		{"too long", "ABC12345678", false},
		{"lowercase not normalized", "abc1234567", false},
		{"punctuation", "ABC-123456", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMpesaCode(tt.code)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidReferenceFormat))
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, "mpesa_code", ve.Field)
		})
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"0712345678", "+254712345678"},
		{"254712345678", "+254712345678"},
		{"+254712345678", "+254712345678"},
		{"0712 345 678", "+254712345678"},
		{"0712-345-678", "+254712345678"},
	}
	for _, tt := range tests {
		got, err := NormalizePhoneNumber(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	for _, raw := range []string{"", "12345", "+255712345678", "07123456789", "phone"} {
		_, err := NormalizePhoneNumber(raw)
		assert.ErrorIs(t, err, ErrInvalidPhoneNumber, raw)
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(dec("0.01")))
	assert.NoError(t, ValidateAmount(dec("1000.50")))
	assert.NoError(t, ValidateAmount(dec("99999999.99")))

	for _, s := range []string{"0", "-5", "10.005", "100000000"} {
		assert.ErrorIs(t, ValidateAmount(dec(s)), ErrInvalidAmount, s)
	}
}

func TestValidateTransactionFields(t *testing.T) {
	amount := dec("500")

	err := ValidateTransactionFields(TxTypeContribution, false, amount, "ABC1234567")
	require.ErrorIs(t, err, ErrMissingMember)
	assert.Contains(t, err.Error(), "CONTRIBUTION")

	assert.ErrorIs(t, ValidateTransactionFields(TxTypeFine, false, amount, "ABC1234567"), ErrMissingMember)
	assert.ErrorIs(t, ValidateTransactionFields(TxTypePayout, false, amount, "ABC1234567"), ErrMissingMember)
	assert.NoError(t, ValidateTransactionFields(TxTypeExpense, false, amount, "ABC1234567"))
	assert.NoError(t, ValidateTransactionFields(TxTypeContribution, true, amount, "ABC1234567"))

	assert.ErrorIs(t, ValidateTransactionFields("LOAN", true, amount, "ABC1234567"), ErrInvalidTransactionType)
	assert.ErrorIs(t, ValidateTransactionFields(TxTypeExpense, false, dec("0"), "ABC1234567"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateTransactionFields(TxTypeExpense, false, amount, "ABC"), ErrInvalidReferenceFormat)
}

func TestValidationErrorMatchesOnlyItsCode(t *testing.T) {
	err := DuplicateReferenceError("ABC1234567")

	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NotErrorIs(t, err, ErrMissingMember)
	assert.Equal(t, "ABC1234567", err.Value)
	assert.Contains(t, err.Error(), "ABC1234567")
}

func TestCanManageTransactions(t *testing.T) {
	member := func(role MemberRole, status MemberStatus) *ActorMember {
		return &ActorMember{ID: "m", Role: role, Status: status}
	}

	assert.True(t, CanManageTransactions(Actor{IsSuperuser: true}))
	assert.True(t, CanManageTransactions(Actor{Member: member(MemberRoleTreasurer, MemberStatusActive)}))
	assert.True(t, CanManageTransactions(Actor{Member: member(MemberRoleAdmin, MemberStatusActive)}))

	assert.False(t, CanManageTransactions(Actor{}))
	assert.False(t, CanManageTransactions(Actor{IsStaff: true}))
	assert.False(t, CanManageTransactions(Actor{Member: member(MemberRoleMember, MemberStatusActive)}))
	assert.False(t, CanManageTransactions(Actor{Member: member(MemberRoleTreasurer, MemberStatusSuspended)}))
	assert.False(t, CanManageTransactions(Actor{Member: member(MemberRoleAdmin, MemberStatusInactive)}))
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(TxStatusPending, TxStatusVerified))
	assert.NoError(t, CheckTransition(TxStatusPending, TxStatusRejected))
	assert.NoError(t, CheckTransition(TxStatusRejected, TxStatusVerified))
	assert.NoError(t, CheckTransition(TxStatusVerified, TxStatusRejected))

	assert.ErrorIs(t, CheckTransition(TxStatusVerified, TxStatusVerified), ErrAlreadyVerified)
	assert.ErrorIs(t, CheckTransition(TxStatusRejected, TxStatusRejected), ErrAlreadyRejected)
	assert.ErrorIs(t, CheckTransition(TxStatusPending, TxStatusPending), ErrInvalidStatus)
}

func TestLedgerTotalsBalances(t *testing.T) {
	t.Run("empty totals are zero", func(t *testing.T) {
		var totals LedgerTotals
		assert.True(t, totals.MemberBalance().Equal(decimal.Zero))
		assert.True(t, totals.GroupBalance().Equal(decimal.Zero))
	})

	t.Run("member balance subtracts fines and payouts", func(t *testing.T) {
		var totals LedgerTotals
		totals.Add(TxTypeContribution, dec("1000.10"))
		totals.Add(TxTypeContribution, dec("0.20"))
		totals.Add(TxTypeFine, dec("100.05"))
		totals.Add(TxTypePayout, dec("200.01"))
		assert.Equal(t, "700.24", totals.MemberBalance().StringFixed(2))
	})

	t.Run("group balance with expense and payout", func(t *testing.T) {
		var totals LedgerTotals
		totals.Add(TxTypeContribution, dec("1000"))
		totals.Add(TxTypeContribution, dec("1000"))
		totals.Add(TxTypeExpense, dec("500"))
		totals.Add(TxTypePayout, dec("300"))
		assert.Equal(t, "1200.00", totals.GroupBalance().StringFixed(2))
	})

	t.Run("fines are group income", func(t *testing.T) {
		var totals LedgerTotals
		totals.Add(TxTypeContribution, dec("1000"))
		totals.Add(TxTypeFine, dec("100"))
		totals.Add(TxTypePayout, dec("200"))
		assert.Equal(t, "900.00", totals.GroupBalance().StringFixed(2))
	})
}

func TestClassifyPaymentStatus(t *testing.T) {
	expected := dec("1000.00")
	third := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	seventh := time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)
	eighth := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	tenth := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, PaymentPaid, ClassifyPaymentStatus(&expected, dec("1000.00"), tenth))
	assert.Equal(t, PaymentPaid, ClassifyPaymentStatus(&expected, dec("1500.00"), tenth))
	assert.Equal(t, PaymentShort, ClassifyPaymentStatus(&expected, dec("500.00"), tenth))
	assert.Equal(t, PaymentShort, ClassifyPaymentStatus(&expected, decimal.Zero, third))
	assert.Equal(t, PaymentShort, ClassifyPaymentStatus(&expected, decimal.Zero, seventh))
	assert.Equal(t, PaymentOverdue, ClassifyPaymentStatus(&expected, decimal.Zero, eighth))
	assert.Equal(t, PaymentOverdue, ClassifyPaymentStatus(&expected, decimal.Zero, tenth))

	zero := decimal.Zero
	assert.Equal(t, PaymentUnknown, ClassifyPaymentStatus(nil, dec("1000"), tenth))
	assert.Equal(t, PaymentUnknown, ClassifyPaymentStatus(&zero, dec("1000"), tenth))
}

func TestDaysOverdueAndOutstanding(t *testing.T) {
	tenth := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysOverdue(PaymentOverdue, tenth))
	assert.Equal(t, 0, DaysOverdue(PaymentShort, tenth))

	assert.Equal(t, "400.00", Outstanding(dec("1000"), dec("600")).StringFixed(2))
	assert.True(t, Outstanding(dec("1000"), dec("1200")).IsZero())
}

func TestMonthStart(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2024, 3, 17, 15, 4, 5, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), MonthStart(now))
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, loc), DayStart(now))
}
