package services

import (
	"context"
	"testing"
	"time"

	"chamanexus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceService_MemberBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("no verified entries is zero", func(t *testing.T) {
		m := env.member(t, "Empty")
		balance, err := env.balances.MemberBalance(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", money(balance))
	})

	t.Run("contributions less fines and payouts to the cent", func(t *testing.T) {
		m := env.member(t, "Wanjiku")
		env.verified(t, &m.ID, domain.TxTypeContribution, "1000.10", "BALC000001", testNow)
		env.verified(t, &m.ID, domain.TxTypeContribution, "0.20", "BALC000002", testNow)
		env.verified(t, &m.ID, domain.TxTypeFine, "100.05", "BALC000003", testNow)
		env.verified(t, &m.ID, domain.TxTypePayout, "0.01", "BALC000004", testNow)

		balance, err := env.balances.MemberBalance(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "900.24", money(balance))
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := env.balances.MemberBalance(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})
}

func TestBalanceService_GroupBalance(t *testing.T) {
	t.Run("expenses and payouts reduce contributions", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.member(t, "A")
		b := env.member(t, "B")
		env.verified(t, &a.ID, domain.TxTypeContribution, "1000", "GRPA000001", testNow)
		env.verified(t, &b.ID, domain.TxTypeContribution, "1000", "GRPA000002", testNow)
		env.verified(t, nil, domain.TxTypeExpense, "500", "GRPA000003", testNow)
		env.verified(t, &a.ID, domain.TxTypePayout, "300", "GRPA000004", testNow)

		balance, err := env.balances.GroupBalance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1200.00", money(balance))
	})

	t.Run("fines add to the group", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.member(t, "A")
		env.verified(t, &a.ID, domain.TxTypeContribution, "1000", "GRPB000001", testNow)
		env.verified(t, &a.ID, domain.TxTypeFine, "100", "GRPB000002", testNow)
		env.verified(t, &a.ID, domain.TxTypePayout, "200", "GRPB000003", testNow)

		// pending entries never count
		_, err := env.transactions.Submit(context.Background(), submitInput(&a.ID, domain.TxTypeContribution, "5000", "GRPB000004"), treasurer, testNow)
		require.NoError(t, err)

		balance, err := env.balances.GroupBalance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "900.00", money(balance))

		fines, err := env.balances.TotalFines(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "100.00", money(fines))
	})
}

func TestBalanceService_PaymentStatus(t *testing.T) {
	march := func(day int) time.Time {
		return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name        string
		amount      string
		paidOn      time.Time
		now         time.Time
		want        domain.PaymentStatus
		outstanding string
		daysOverdue int
	}{
		{name: "exact amount is paid", amount: "1000", paidOn: march(2), now: march(10), want: domain.PaymentPaid, outstanding: "0.00"},
		{name: "partial is short", amount: "500", paidOn: march(2), now: march(10), want: domain.PaymentShort, outstanding: "500.00"},
		{name: "nothing in grace period is short", now: march(3), want: domain.PaymentShort, outstanding: "1000.00"},
		{name: "nothing on day seven is short", now: march(7), want: domain.PaymentShort, outstanding: "1000.00"},
		{name: "nothing on day eight is overdue", now: march(8), want: domain.PaymentOverdue, outstanding: "1000.00", daysOverdue: 1},
		{name: "nothing on the tenth is overdue", now: march(10), want: domain.PaymentOverdue, outstanding: "1000.00", daysOverdue: 3},
		{name: "last month does not count", amount: "1000", paidOn: time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC), now: march(10), want: domain.PaymentOverdue, outstanding: "1000.00", daysOverdue: 3},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.group(t, "1000.00")
			m := env.member(t, "M")
			if tt.amount != "" {
				code := "PAYS00000" + string(rune('0'+i))
				env.verified(t, &m.ID, domain.TxTypeContribution, tt.amount, code, tt.paidOn)
			}

			out, err := env.balances.PaymentStatus(context.Background(), m.ID, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.outstanding, out.Outstanding)
			assert.Equal(t, tt.daysOverdue, out.DaysOverdue)
			require.NotNil(t, out.ExpectedAmount)
			assert.Equal(t, "1000.00", *out.ExpectedAmount)
		})
	}

	t.Run("month boundary follows the caller's zone", func(t *testing.T) {
		eat := time.FixedZone("EAT", 3*60*60)
		env := newTestEnv(t)
		env.group(t, "1000.00")
		alice := env.member(t, "Alice")
		bob := env.member(t, "Bob")

		// 2024-06-01 01:00 EAT is still May in UTC
		firstHour := time.Date(2024, 6, 1, 1, 0, 0, 0, eat)
		env.verified(t, &alice.ID, domain.TxTypeContribution, "1000", "ZONE000001", firstHour.UTC())
		env.verified(t, &bob.ID, domain.TxTypeContribution, "1000", "ZONE000002", firstHour)

		now := time.Date(2024, 6, 10, 12, 0, 0, 0, eat)
		for _, m := range []string{alice.ID, bob.ID} {
			out, err := env.balances.PaymentStatus(context.Background(), m, now)
			require.NoError(t, err)
			assert.Equal(t, domain.PaymentPaid, out.Status)
			assert.Equal(t, "1000.00", out.PaidThisMonth)
		}

		// 2024-05-31 23:00 EAT belongs to May for an EAT caller
		carol := env.member(t, "Carol")
		env.verified(t, &carol.ID, domain.TxTypeContribution, "1000", "ZONE000003", time.Date(2024, 5, 31, 23, 0, 0, 0, eat))
		out, err := env.balances.PaymentStatus(context.Background(), carol.ID, now)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentOverdue, out.Status)
	})

	t.Run("no group is unknown", func(t *testing.T) {
		env := newTestEnv(t)
		m := env.member(t, "M")

		out, err := env.balances.PaymentStatus(context.Background(), m.ID, march(20))
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentUnknown, out.Status)
		assert.Nil(t, out.ExpectedAmount)
		assert.Equal(t, 0, out.DaysOverdue)
	})
}
